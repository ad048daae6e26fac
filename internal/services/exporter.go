package services

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/ashmitsharp/trackmoney-api/internal/ledger"
)

const (
	TransactionsSheet = "Transactions"
	SummarySheet      = "Summary"

	// XLSXContentType is the MIME type of an exported workbook
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var transactionHeaders = []string{"Date", "Description", "Type", "Category", "Amount"}

// Exporter writes a ledger snapshot as an XLSX workbook
type Exporter struct{}

func NewExporter() *Exporter {
	return &Exporter{}
}

// Export builds a workbook with a Transactions sheet (one row per transaction, log order)
// and a Summary sheet (balances, then the category breakdown)
func (e *Exporter) Export(snap Snapshot) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", TransactionsSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeTransactions(f, snap); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet(SummarySheet); err != nil {
		return nil, fmt.Errorf("create summary sheet: %w", err)
	}
	if err := writeSummary(f, snap); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeTransactions(f *excelize.File, snap Snapshot) error {
	if err := setRow(f, TransactionsSheet, 1, stringsToRow(transactionHeaders)); err != nil {
		return err
	}

	for i, tx := range snap.Transactions {
		row := []any{tx.Date, tx.Description, string(tx.Type), tx.Category, tx.Amount.InexactFloat64()}
		if err := setRow(f, TransactionsSheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writeSummary(f *excelize.File, snap Snapshot) error {
	b := snap.Balances
	rows := [][]any{
		{"Balance", "Amount", "Mode"},
		{"General Balance", b.General.InexactFloat64(), ""},
		{"Debt Balance", b.Debt.InexactFloat64(), string(snap.Debt.Mode())},
		{"Savings Balance", b.Savings.InexactFloat64(), string(snap.Savings.Mode())},
		{"Total Income", b.TotalIncome.InexactFloat64(), ""},
		{"Total Expenses", b.TotalExpenses.InexactFloat64(), ""},
		{},
		{"Category", "Amount", "Percent"},
	}
	rows = append(rows, breakdownRows(snap.Breakdown)...)

	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		if err := setRow(f, SummarySheet, i+1, row); err != nil {
			return err
		}
	}
	return nil
}

func breakdownRows(shares []ledger.CategoryShare) [][]any {
	rows := make([][]any, 0, len(shares))
	for _, s := range shares {
		rows = append(rows, []any{s.Category, s.Amount.InexactFloat64(), s.Percent.InexactFloat64()})
	}
	return rows
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func stringsToRow(values []string) []any {
	row := make([]any, len(values))
	for i, v := range values {
		row[i] = v
	}
	return row
}
