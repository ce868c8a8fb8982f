// Package output provides utilities for formatting and displaying projection results.
package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/iwvelando/franchise-forecast/pkg/engine"
	"github.com/iwvelando/franchise-forecast/pkg/format"
	"github.com/rotisserie/eris"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// PrettyFormat writes a human-readable rather than machine-readable report:
// the annual summary table, return metrics, and identity check results.
func PrettyFormat(w io.Writer, out engine.EngineOutput) error {
	p := message.NewPrinter(language.English)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)

	_, _ = p.Fprintf(tw, "--- Annual summary ---\n")
	_, _ = p.Fprintf(tw, "Year\tRevenue\tEBITDA\tEBITDA %%\tPre-Tax Income\tNet Cash Flow\tEnding Cash\t\n")
	for _, a := range out.AnnualSummaries {
		_, _ = p.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			a.Year,
			format.Currency(a.Revenue),
			format.Currency(a.EBITDA),
			format.Percent(a.EBITDAPct),
			format.Currency(a.PreTaxIncome),
			format.Currency(a.NetCashFlow),
			format.Currency(a.EndingCash),
		)
	}
	if err := tw.Flush(); err != nil {
		return eris.Wrap(err, "output: write annual table")
	}

	roi := out.ROIMetrics
	_, _ = p.Fprintf(w, "\n--- Return on investment ---\n")
	_, _ = p.Fprintf(w, "Total startup investment: %s\n", format.Currency(roi.TotalStartupInvestment))
	_, _ = p.Fprintf(w, "Five-year cumulative cash flow: %s\n", format.Currency(roi.FiveYearCumulativeCashFlow))
	_, _ = p.Fprintf(w, "Five-year ROI: %.1f%%\n", roi.FiveYearROIPct*100)
	if roi.BreakEvenMonth != nil {
		_, _ = p.Fprintf(w, "Break-even month: %d\n", *roi.BreakEvenMonth)
	} else {
		_, _ = p.Fprintf(w, "Break-even month: not within %d months\n", engine.ProjectionMonths)
	}

	_, _ = p.Fprintf(w, "\n--- Identity checks ---\n")
	for _, check := range out.IdentityChecks {
		status := "PASS"
		if !check.Passed {
			status = "FAIL"
		}
		_, err := p.Fprintf(w, "%s %s (expected %s, actual %s)\n",
			status, check.Name, format.Currency(check.Expected), format.Currency(check.Actual))
		if err != nil {
			return eris.Wrap(err, "output: write identity checks")
		}
	}
	return nil
}

var csvHeader = []string{
	"month", "year", "month_in_year", "auv_pct",
	"revenue", "total_cogs", "gross_profit", "direct_labor", "contribution_margin",
	"total_opex", "ebitda", "depreciation", "interest_expense", "pre_tax_income",
	"accounts_receivable", "inventory", "accounts_payable", "net_fixed_assets",
	"operating_cash_flow", "loan_principal_payment", "loan_closing_balance",
}

// CSVFormat writes one row per projected month. Currency columns are dollars.
func CSVFormat(w io.Writer, out engine.EngineOutput) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return eris.Wrap(err, "output: write csv header")
	}
	for _, m := range out.MonthlyProjections {
		row := []string{
			strconv.Itoa(m.Month),
			strconv.Itoa(m.Year),
			strconv.Itoa(m.MonthInYear),
			strconv.FormatFloat(m.AUVPct, 'f', 4, 64),
		}
		for _, cents := range []int64{
			m.Revenue, m.TotalCOGS, m.GrossProfit, m.DirectLabor, m.ContributionMargin,
			m.TotalOpex, m.EBITDA, m.Depreciation, m.InterestExpense, m.PreTaxIncome,
			m.AccountsReceivable, m.Inventory, m.AccountsPayable, m.NetFixedAssets,
			m.OperatingCashFlow, m.LoanPrincipalPayment, m.LoanClosingBalance,
		} {
			row = append(row, centsString(cents))
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrapf(err, "output: write csv month %d", m.Month)
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "output: flush csv")
}

// CSVString returns the CSVFormat output as a string.
func CSVString(out engine.EngineOutput) string {
	var buf bytes.Buffer
	_ = CSVFormat(&buf, out)
	return buf.String()
}

// JSONFormat writes the full projection as indented JSON.
func JSONFormat(w io.Writer, out engine.EngineOutput) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(out), "output: encode json")
}

func centsString(cents int64) string {
	sign := ""
	u := cents
	if cents < 0 {
		sign = "-"
		u = -cents
	}
	frac := strconv.FormatInt(u%100, 10)
	if len(frac) == 1 {
		frac = "0" + frac
	}
	return sign + strconv.FormatInt(u/100, 10) + "." + frac
}
