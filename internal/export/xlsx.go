// Package export streams the ledger as a spreadsheet download.
package export

import (
	"fmt"
	"io"
	"math"

	"github.com/xuri/excelize/v2"

	"kesef/internal/app"
	"kesef/internal/core"
)

const (
	SheetTransactions = "Transactions"
	SheetSummary      = "Summary"
)

// InfinityText is written for amounts beyond float64 range.
const InfinityText = "∞"

// ContentType is the MIME type of WriteXLSX output.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// WriteXLSX writes a workbook with every transaction and the derived
// totals of s. Unreadable amounts are written as the text NaN and
// out-of-range ones as ∞.
func WriteXLSX(w io.Writer, s app.State) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetDocProps(&excelize.DocProperties{
		Creator: "kesef",
		Title:   "Ledger export",
	})

	if err := f.SetSheetName("Sheet1", SheetTransactions); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetSummary); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	if err := writeTransactions(f, s, headerStyle); err != nil {
		return err
	}
	if err := writeSummary(f, s, headerStyle); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeTransactions(f *excelize.File, s app.State, headerStyle int) error {
	sheet := SheetTransactions
	headers := []any{"ID", "Date", "Description", "Category", "Type", "Amount"}
	if err := writeRow(f, sheet, 1, headers); err != nil {
		return err
	}
	if err := styleHeader(f, sheet, len(headers), headerStyle); err != nil {
		return err
	}

	for i, tx := range s.Ledger.All() {
		kind := core.Expense
		if tx.IsIncome() {
			kind = core.Income
		}
		row := []any{tx.ID, tx.Date, tx.Description, tx.Category.Label(), kind.Label(), amountCell(tx.Amount)}
		if err := writeRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}

	widths := []float64{38, 12, 30, 14, 10, 14}
	for i, wdt := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, col, col, wdt); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}
	return nil
}

func writeSummary(f *excelize.File, s app.State, headerStyle int) error {
	sheet := SheetSummary
	sum := s.Ledger.Summary()

	rows := [][]any{
		{"Metric", "Value"},
		{"Balance", amountCell(sum.Balance)},
		{"Income", amountCell(sum.Income)},
		{"Expenses", amountCell(sum.Expenses)},
		{"Transactions", sum.Count},
		{},
		{"Month", "Income", "Expenses"},
	}
	for _, p := range sum.Trend {
		rows = append(rows, []any{p.Label, amountCell(p.Income), amountCell(p.Expenses)})
	}
	for i, row := range rows {
		if err := writeRow(f, sheet, i+1, row); err != nil {
			return err
		}
	}
	if err := styleHeader(f, sheet, 2, headerStyle); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A7", "C7", headerStyle); err != nil {
		return fmt.Errorf("style trend header: %w", err)
	}
	return f.SetColWidth(sheet, "A", "C", 16)
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	if len(values) == 0 {
		return nil
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func styleHeader(f *excelize.File, sheet string, cols, style int) error {
	last, err := excelize.CoordinatesToCellName(cols, 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("style %s header: %w", sheet, err)
	}
	return nil
}

// amountCell returns a number for finite amounts. Anything else is
// written as text, since a spreadsheet cell cannot hold NaN or infinity.
func amountCell(a core.Amount) any {
	v, ok := a.Float64()
	switch {
	case !ok || math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return InfinityText
	case math.IsInf(v, -1):
		return "-" + InfinityText
	}
	return v
}
