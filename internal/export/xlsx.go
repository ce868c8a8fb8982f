// Package export renders a projection as an Excel workbook or a PDF summary.
package export

import (
	"io"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"

	"github.com/iwvelando/franchise-forecast/pkg/engine"
	"github.com/iwvelando/franchise-forecast/pkg/mathutil"
)

// Sheet names of the exported workbook.
const (
	SheetMonthly = "Monthly"
	SheetAnnual  = "Annual"
	SheetROI     = "ROI"
	SheetChecks  = "Identity Checks"
)

const (
	currencyFormat = "$#,##0.00;[Red]-$#,##0.00"
	percentFormat  = "0.0%"
)

type cellKind int

const (
	plainCell cellKind = iota
	currencyCell
	percentCell
)

type column[T any] struct {
	header string
	kind   cellKind
	value  func(T) any
}

func cents[T any](header string, get func(T) int64) column[T] {
	return column[T]{header: header, kind: currencyCell, value: func(r T) any {
		return mathutil.CentsToDollars(get(r))
	}}
}

func pct[T any](header string, get func(T) float64) column[T] {
	return column[T]{header: header, kind: percentCell, value: func(r T) any { return get(r) }}
}

func plain[T any](header string, get func(T) any) column[T] {
	return column[T]{header: header, kind: plainCell, value: get}
}

var monthlyColumns = []column[engine.MonthlyProjection]{
	plain("Month", func(m engine.MonthlyProjection) any { return m.Month }),
	plain("Year", func(m engine.MonthlyProjection) any { return m.Year }),
	pct("AUV %", func(m engine.MonthlyProjection) float64 { return m.AUVPct }),
	cents("Revenue", func(m engine.MonthlyProjection) int64 { return m.Revenue }),
	cents("Materials COGS", func(m engine.MonthlyProjection) int64 { return m.MaterialsCOGS }),
	cents("Royalties", func(m engine.MonthlyProjection) int64 { return m.Royalties }),
	cents("Ad Fund", func(m engine.MonthlyProjection) int64 { return m.AdFund }),
	cents("Gross Profit", func(m engine.MonthlyProjection) int64 { return m.GrossProfit }),
	cents("Direct Labor", func(m engine.MonthlyProjection) int64 { return m.DirectLabor }),
	cents("Contribution Margin", func(m engine.MonthlyProjection) int64 { return m.ContributionMargin }),
	cents("Facilities", func(m engine.MonthlyProjection) int64 { return m.Facilities }),
	cents("Marketing", func(m engine.MonthlyProjection) int64 { return m.Marketing }),
	cents("Management Salaries", func(m engine.MonthlyProjection) int64 { return m.ManagementSalaries }),
	cents("Payroll Tax & Benefits", func(m engine.MonthlyProjection) int64 { return m.PayrollTaxBenefits }),
	cents("Other Opex", func(m engine.MonthlyProjection) int64 { return m.OtherOpex }),
	cents("Non-CapEx Amortization", func(m engine.MonthlyProjection) int64 { return m.NonCapexAmortization }),
	cents("EBITDA", func(m engine.MonthlyProjection) int64 { return m.EBITDA }),
	cents("Depreciation", func(m engine.MonthlyProjection) int64 { return m.Depreciation }),
	cents("Interest", func(m engine.MonthlyProjection) int64 { return m.InterestExpense }),
	cents("Pre-Tax Income", func(m engine.MonthlyProjection) int64 { return m.PreTaxIncome }),
	cents("Operating Cash Flow", func(m engine.MonthlyProjection) int64 { return m.OperatingCashFlow }),
	cents("Loan Balance", func(m engine.MonthlyProjection) int64 { return m.LoanClosingBalance }),
}

var annualColumns = []column[engine.AnnualSummary]{
	plain("Year", func(a engine.AnnualSummary) any { return a.Year }),
	cents("Revenue", func(a engine.AnnualSummary) int64 { return a.Revenue }),
	cents("Total COGS", func(a engine.AnnualSummary) int64 { return a.TotalCOGS }),
	cents("Gross Profit", func(a engine.AnnualSummary) int64 { return a.GrossProfit }),
	pct("Gross Profit %", func(a engine.AnnualSummary) float64 { return a.GrossProfitPct }),
	cents("Direct Labor", func(a engine.AnnualSummary) int64 { return a.DirectLabor }),
	cents("Total Opex", func(a engine.AnnualSummary) int64 { return a.TotalOpex }),
	cents("EBITDA", func(a engine.AnnualSummary) int64 { return a.EBITDA }),
	pct("EBITDA %", func(a engine.AnnualSummary) float64 { return a.EBITDAPct }),
	cents("Pre-Tax Income", func(a engine.AnnualSummary) int64 { return a.PreTaxIncome }),
	cents("Net Cash Flow", func(a engine.AnnualSummary) int64 { return a.NetCashFlow }),
	cents("Ending Cash", func(a engine.AnnualSummary) int64 { return a.EndingCash }),
	cents("Total Assets", func(a engine.AnnualSummary) int64 { return a.TotalAssets }),
	cents("Total Liabilities", func(a engine.AnnualSummary) int64 { return a.TotalLiabilities }),
	cents("Total Equity", func(a engine.AnnualSummary) int64 { return a.TotalEquity }),
}

var checkColumns = []column[engine.IdentityCheckResult]{
	plain("Check", func(c engine.IdentityCheckResult) any { return c.Name }),
	cents("Expected", func(c engine.IdentityCheckResult) int64 { return c.Expected }),
	cents("Actual", func(c engine.IdentityCheckResult) int64 { return c.Actual }),
	cents("Tolerance", func(c engine.IdentityCheckResult) int64 { return c.Tolerance }),
	plain("Passed", func(c engine.IdentityCheckResult) any { return c.Passed }),
}

type workbook struct {
	file     *excelize.File
	header   int
	currency int
	percent  int
}

// WriteXLSX writes the projection as a workbook with monthly, annual, ROI,
// and identity check sheets. Currency cells hold dollars.
func WriteXLSX(w io.Writer, out engine.EngineOutput) error {
	wb, err := newWorkbook()
	if err != nil {
		return err
	}
	defer wb.file.Close()

	if err := wb.file.SetSheetName("Sheet1", SheetMonthly); err != nil {
		return eris.Wrap(err, "xlsx: rename sheet")
	}
	if err := writeSheet(wb, SheetMonthly, monthlyColumns, out.MonthlyProjections[:]); err != nil {
		return err
	}
	if err := writeSheet(wb, SheetAnnual, annualColumns, out.AnnualSummaries[:]); err != nil {
		return err
	}
	if err := writeROISheet(wb, out); err != nil {
		return err
	}
	if err := writeSheet(wb, SheetChecks, checkColumns, out.IdentityChecks); err != nil {
		return err
	}

	wb.file.SetActiveSheet(0)
	if err := wb.file.Write(w); err != nil {
		return eris.Wrap(err, "xlsx: write workbook")
	}
	return nil
}

func newWorkbook() (*workbook, error) {
	f := excelize.NewFile()
	wb := &workbook{file: f}

	var err error
	wb.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", WrapText: true},
	})
	if err != nil {
		f.Close()
		return nil, eris.Wrap(err, "xlsx: header style")
	}
	currency := currencyFormat
	wb.currency, err = f.NewStyle(&excelize.Style{CustomNumFmt: &currency})
	if err != nil {
		f.Close()
		return nil, eris.Wrap(err, "xlsx: currency style")
	}
	percent := percentFormat
	wb.percent, err = f.NewStyle(&excelize.Style{CustomNumFmt: &percent})
	if err != nil {
		f.Close()
		return nil, eris.Wrap(err, "xlsx: percent style")
	}
	return wb, nil
}

func writeSheet[T any](wb *workbook, sheet string, columns []column[T], rows []T) error {
	f := wb.file
	if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		if _, err := f.NewSheet(sheet); err != nil {
			return eris.Wrapf(err, "xlsx: create sheet %s", sheet)
		}
	}

	for c, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(c+1, 1)
		if err := f.SetCellValue(sheet, cell, col.header); err != nil {
			return eris.Wrapf(err, "xlsx: header %s", col.header)
		}
		if err := f.SetCellStyle(sheet, cell, cell, wb.header); err != nil {
			return eris.Wrap(err, "xlsx: header style")
		}
	}

	for r, row := range rows {
		for c, col := range columns {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheet, cell, col.value(row)); err != nil {
				return eris.Wrapf(err, "xlsx: %s %s", sheet, cell)
			}
		}
	}

	if len(rows) > 0 {
		for c, col := range columns {
			style := wb.styleFor(col.kind)
			if style == 0 {
				continue
			}
			first, _ := excelize.CoordinatesToCellName(c+1, 2)
			last, _ := excelize.CoordinatesToCellName(c+1, len(rows)+1)
			if err := f.SetCellStyle(sheet, first, last, style); err != nil {
				return eris.Wrapf(err, "xlsx: style %s", col.header)
			}
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(len(columns))
	if err := f.SetColWidth(sheet, "A", lastCol, 16); err != nil {
		return eris.Wrap(err, "xlsx: column width")
	}
	return eris.Wrap(f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}), "xlsx: freeze header")
}

func (wb *workbook) styleFor(kind cellKind) int {
	switch kind {
	case currencyCell:
		return wb.currency
	case percentCell:
		return wb.percent
	}
	return 0
}

type roiRow struct {
	label string
	value any
	kind  cellKind
}

func writeROISheet(wb *workbook, out engine.EngineOutput) error {
	roi := out.ROIMetrics
	breakEven := any("Not within 60 months")
	if roi.BreakEvenMonth != nil {
		breakEven = *roi.BreakEvenMonth
	}

	rows := []roiRow{
		{"Total Startup Investment", mathutil.CentsToDollars(roi.TotalStartupInvestment), currencyCell},
		{"Break-even Month", breakEven, plainCell},
		{"Five-Year Cumulative Cash Flow", mathutil.CentsToDollars(roi.FiveYearCumulativeCashFlow), currencyCell},
		{"Five-Year ROI", roi.FiveYearROIPct, percentCell},
	}
	for _, r := range out.ROIC {
		rows = append(rows, roiRow{"ROIC Year " + strconv.Itoa(r.Year), r.ROICPct, percentCell})
	}
	for _, v := range out.Valuation {
		rows = append(rows,
			roiRow{"Enterprise Value Year " + strconv.Itoa(v.Year), mathutil.CentsToDollars(v.EnterpriseValue), currencyCell},
			roiRow{"Net After-Tax Proceeds Year " + strconv.Itoa(v.Year), mathutil.CentsToDollars(v.NetAfterTaxProceeds), currencyCell},
		)
	}

	columns := []column[roiRow]{
		plain("Metric", func(r roiRow) any { return r.label }),
		plain("Value", func(r roiRow) any { return r.value }),
	}
	if err := writeSheet(wb, SheetROI, columns, rows); err != nil {
		return err
	}

	for i, r := range rows {
		style := wb.styleFor(r.kind)
		if style == 0 {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(2, i+2)
		if err := wb.file.SetCellStyle(SheetROI, cell, cell, style); err != nil {
			return eris.Wrap(err, "xlsx: roi style")
		}
	}
	return nil
}
