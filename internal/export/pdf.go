package export

import (
	"io"
	"strconv"

	"github.com/jung-kurt/gofpdf"
	"github.com/rotisserie/eris"

	"github.com/iwvelando/franchise-forecast/pkg/engine"
	"github.com/iwvelando/franchise-forecast/pkg/format"
)

const (
	pdfFont      = "Arial"
	pdfLabelW    = 60.0
	pdfYearW     = 40.0
	pdfRowHeight = 6.0
)

type pdfLine struct {
	label string
	value func(engine.AnnualSummary) int64
}

var pdfAnnualLines = []pdfLine{
	{"Revenue", func(a engine.AnnualSummary) int64 { return a.Revenue }},
	{"Total COGS", func(a engine.AnnualSummary) int64 { return a.TotalCOGS }},
	{"Gross Profit", func(a engine.AnnualSummary) int64 { return a.GrossProfit }},
	{"Direct Labor", func(a engine.AnnualSummary) int64 { return a.DirectLabor }},
	{"Total Opex", func(a engine.AnnualSummary) int64 { return a.TotalOpex }},
	{"EBITDA", func(a engine.AnnualSummary) int64 { return a.EBITDA }},
	{"Depreciation", func(a engine.AnnualSummary) int64 { return a.Depreciation }},
	{"Interest", func(a engine.AnnualSummary) int64 { return a.InterestExpense }},
	{"Pre-Tax Income", func(a engine.AnnualSummary) int64 { return a.PreTaxIncome }},
	{"Ending Cash", func(a engine.AnnualSummary) int64 { return a.EndingCash }},
	{"Loan Balance", func(a engine.AnnualSummary) int64 { return a.LoanClosingBalance }},
}

// WritePDF writes a one-page landscape summary of the annual P&L, the
// return metrics, and the identity checks.
func WritePDF(w io.Writer, title string, out engine.EngineOutput) error {
	pdf := gofpdf.New("L", "mm", "Letter", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	pdf.SetTitle(title, true)
	pdf.AddPage()

	pdf.SetFont(pdfFont, "B", 16)
	pdf.CellFormat(0, 10, title, "", 1, "C", false, 0, "")
	pdf.Ln(4)

	// Annual table
	pdf.SetFont(pdfFont, "B", 10)
	pdf.SetFillColor(68, 114, 196)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(pdfLabelW, pdfRowHeight+1, "", "1", 0, "L", true, 0, "")
	for _, a := range out.AnnualSummaries {
		pdf.CellFormat(pdfYearW, pdfRowHeight+1, "Year "+strconv.Itoa(a.Year), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont(pdfFont, "", 9)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFillColor(242, 242, 242)
	for i, line := range pdfAnnualLines {
		fill := i%2 == 1
		pdf.CellFormat(pdfLabelW, pdfRowHeight, line.label, "1", 0, "L", fill, 0, "")
		for _, a := range out.AnnualSummaries {
			pdf.CellFormat(pdfYearW, pdfRowHeight, format.Currency(line.value(a)), "1", 0, "R", fill, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(6)

	// Return metrics
	roi := out.ROIMetrics
	breakEven := "not within 60 months"
	if roi.BreakEvenMonth != nil {
		breakEven = "month " + strconv.Itoa(*roi.BreakEvenMonth)
	}
	pdf.SetFont(pdfFont, "B", 11)
	pdf.CellFormat(0, 7, "Return on Investment", "", 1, "L", false, 0, "")
	pdf.SetFont(pdfFont, "", 9)
	for _, kv := range [][2]string{
		{"Total startup investment", format.Currency(roi.TotalStartupInvestment)},
		{"Break-even", breakEven},
		{"Five-year cumulative cash flow", format.Currency(roi.FiveYearCumulativeCashFlow)},
		{"Five-year ROI", format.Percent(roi.FiveYearROIPct)},
		{"Year 5 enterprise value", format.Currency(out.Valuation[engine.ProjectionYears-1].EnterpriseValue)},
	} {
		pdf.CellFormat(pdfLabelW, pdfRowHeight, kv[0], "", 0, "L", false, 0, "")
		pdf.CellFormat(pdfYearW, pdfRowHeight, kv[1], "", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	// Identity checks
	passed := 0
	for _, c := range out.IdentityChecks {
		if c.Passed {
			passed++
		}
	}
	pdf.SetFont(pdfFont, "B", 11)
	pdf.CellFormat(0, 7, "Identity checks: "+strconv.Itoa(passed)+" of "+strconv.Itoa(len(out.IdentityChecks))+" passed", "", 1, "L", false, 0, "")
	pdf.SetFont(pdfFont, "", 9)
	for _, c := range out.FailedChecks() {
		pdf.SetTextColor(192, 0, 0)
		pdf.CellFormat(0, pdfRowHeight,
			"FAIL "+c.Name+": expected "+format.Currency(c.Expected)+", actual "+format.Currency(c.Actual),
			"", 1, "L", false, 0, "")
	}

	if err := pdf.Output(w); err != nil {
		return eris.Wrap(err, "pdf: write")
	}
	return nil
}
