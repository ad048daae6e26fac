package services

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/ashmitsharp/trackmoney-api/internal/ledger"
	"github.com/ashmitsharp/trackmoney-api/internal/models"
)

// MaxImportRows bounds how many data rows one file may carry
const MaxImportRows = 5000

var (
	ErrEmptyFile     = errors.New("empty file")
	ErrUnknownFormat = errors.New("unknown file format")
	ErrTooManyRows   = fmt.Errorf("file has more than %d rows", MaxImportRows)
)

// ImportFormat describes which columns a statement uses
type ImportFormat struct {
	Name              string
	DateColumn        string
	DescriptionColumn string
	// Exactly one of the amount layouts below is used:
	// AmountColumn with TypeColumn, AmountColumn alone (signed), or Debit/Credit
	AmountColumn   string
	TypeColumn     string
	CategoryColumn string
	DebitColumn    string
	CreditColumn   string
}

// ParsedBatch is the result of reading one statement
type ParsedBatch struct {
	Format  string
	Rows    []ParsedRow
	Skipped []RowError
}

// ParsedRow is one statement line turned into an add-transaction request
type ParsedRow struct {
	Row   int
	Input TransactionInput
	// CategorySuggested is set when the file had no category for the row
	CategorySuggested bool
}

// RowError explains why a row was not imported
type RowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// Parser reads CSV and XLSX statements into transaction inputs
type Parser struct {
	formats     []ImportFormat
	categorizer *Categorizer
}

// NewParser creates a parser with the built-in formats. categorizer fills in
// rows without a category and may be nil, in which case they stay empty.
func NewParser(categorizer *Categorizer) *Parser {
	return &Parser{
		// Most specific first
		formats: []ImportFormat{
			{
				Name:              "trackmoney",
				DateColumn:        "date",
				DescriptionColumn: "description",
				AmountColumn:      "amount",
				TypeColumn:        "type",
				CategoryColumn:    "category",
			},
			{
				Name:              "debit-credit",
				DateColumn:        "date",
				DescriptionColumn: "description",
				DebitColumn:       "debit",
				CreditColumn:      "credit",
				CategoryColumn:    "category",
			},
			{
				Name:              "signed",
				DateColumn:        "date",
				DescriptionColumn: "description",
				AmountColumn:      "amount",
				CategoryColumn:    "category",
			},
		},
		categorizer: categorizer,
	}
}

// DetectFormat picks the first format whose required columns are all present
func (p *Parser) DetectFormat(headers []string) (ImportFormat, bool) {
	headerSet := make(map[string]bool)
	for _, h := range headers {
		headerSet[normalizeHeader(h)] = true
	}

	for _, f := range p.formats {
		required := []string{f.DateColumn, f.DescriptionColumn, f.AmountColumn, f.TypeColumn, f.DebitColumn, f.CreditColumn}
		ok := true
		for _, col := range required {
			if col != "" && !headerSet[col] {
				ok = false
				break
			}
		}
		if ok {
			return f, true
		}
	}
	return ImportFormat{}, false
}

var importDateLayouts = []string{
	"2006-01-02",
	models.DisplayDateLayout, // M/D/YYYY
	"2006/01/02",
	"02-Jan-2006",
	"Jan 2, 2006",
	time.RFC3339,
}

// ParseDate parses date strings in the formats statements commonly use
func ParseDate(dateStr string) (time.Time, error) {
	dateStr = strings.TrimSpace(dateStr)

	for _, layout := range importDateLayouts {
		if t, err := time.Parse(layout, dateStr); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date: %s", dateStr)
}

// ParseAmount strips currency symbols and thousands separators.
// "(12.50)" is read as -12.50 and an empty cell as zero. Amounts beyond
// ledger.MaxAmount or with more than two decimal places are rejected.
func ParseAmount(amountStr string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(amountStr)
	for _, symbol := range []string{"$", "€", "£", "₹", "Rs.", "Rs", "USD", "EUR", ","} {
		cleaned = strings.ReplaceAll(cleaned, symbol, "")
	}
	cleaned = strings.TrimSpace(cleaned)

	if cleaned == "" || cleaned == "-" {
		return decimal.Zero, nil
	}

	negative := false
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		negative = true
		cleaned = strings.TrimSpace(cleaned[1 : len(cleaned)-1])
	}

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount: %s", amountStr)
	}
	if amount, err = ledger.NormalizeAmount(amount); err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %s: %w", amountStr, err)
	}
	if negative {
		amount = amount.Neg()
	}
	return amount, nil
}

// ParseFile picks the reader from the file extension: .xlsx is read as a
// workbook, anything else as CSV
func (p *Parser) ParseFile(file io.Reader, filename string) (ParsedBatch, error) {
	if strings.EqualFold(filepath.Ext(filename), ".xlsx") {
		return p.ParseXLSX(file)
	}
	return p.ParseCSV(file)
}

// ParseCSV reads a CSV statement with a header row
func (p *Parser) ParseCSV(file io.Reader) (ParsedBatch, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return ParsedBatch{}, fmt.Errorf("read csv: %w", err)
	}
	return p.parseRecords(records)
}

// ParseXLSX reads the Transactions sheet of a workbook, or its first sheet
// when there is none. Workbooks written by Exporter import unchanged.
func (p *Parser) ParseXLSX(file io.Reader) (ParsedBatch, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return ParsedBatch{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := TransactionsSheet
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return ParsedBatch{}, ErrEmptyFile
		}
		sheet = sheets[0]
	}

	records, err := f.GetRows(sheet)
	if err != nil {
		return ParsedBatch{}, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	return p.parseRecords(records)
}

func (p *Parser) parseRecords(records [][]string) (ParsedBatch, error) {
	if len(records) == 0 {
		return ParsedBatch{}, ErrEmptyFile
	}
	if len(records)-1 > MaxImportRows {
		return ParsedBatch{}, ErrTooManyRows
	}

	headers := records[0]
	format, ok := p.DetectFormat(headers)
	if !ok {
		return ParsedBatch{}, ErrUnknownFormat
	}

	headerIndex := make(map[string]int, len(headers))
	for i, h := range headers {
		if _, dup := headerIndex[normalizeHeader(h)]; !dup {
			headerIndex[normalizeHeader(h)] = i
		}
	}

	batch := ParsedBatch{Format: format.Name}
	for i, row := range records[1:] {
		rowNum := i + 2 // 1-based, after the header

		if isEmptyRow(row) || isSummaryRow(row) {
			continue
		}

		parsed, err := p.parseRow(row, headerIndex, format)
		if err != nil {
			batch.Skipped = append(batch.Skipped, RowError{Row: rowNum, Reason: err.Error()})
			continue
		}
		parsed.Row = rowNum
		batch.Rows = append(batch.Rows, parsed)
	}
	return batch, nil
}

func (p *Parser) parseRow(row []string, headerIndex map[string]int, format ImportFormat) (ParsedRow, error) {
	cell := func(column string) string {
		idx, ok := headerIndex[column]
		if column == "" || !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	date, err := ParseDate(cell(format.DateColumn))
	if err != nil {
		return ParsedRow{}, err
	}

	amount, typ, err := rowAmount(cell, format)
	if err != nil {
		return ParsedRow{}, err
	}

	in := TransactionInput{
		Description: cell(format.DescriptionColumn),
		Amount:      AmountInput(amount.String()),
		Type:        string(typ),
		Category:    cell(format.CategoryColumn),
		Date:        date.Format("2006-01-02"),
	}

	parsed := ParsedRow{Input: in}
	if in.Category == "" && p.categorizer != nil {
		parsed.Input.Category = p.categorizer.Suggest(in.Description, typ).Category
		parsed.CategorySuggested = true
	}
	return parsed, nil
}

// rowAmount returns the unsigned amount and the transaction type of a row
func rowAmount(cell func(string) string, format ImportFormat) (decimal.Decimal, models.TransactionType, error) {
	switch {
	case format.DebitColumn != "":
		debit, err := ParseAmount(cell(format.DebitColumn))
		if err != nil {
			return decimal.Zero, "", err
		}
		credit, err := ParseAmount(cell(format.CreditColumn))
		if err != nil {
			return decimal.Zero, "", err
		}
		if debit.Abs().IsPositive() {
			return debit.Abs(), models.TransactionTypeExpense, nil
		}
		if credit.Abs().IsPositive() {
			return credit.Abs(), models.TransactionTypeIncome, nil
		}
		return decimal.Zero, "", errors.New("both debit and credit are zero")

	case format.TypeColumn != "":
		amount, err := ParseAmount(cell(format.AmountColumn))
		if err != nil {
			return decimal.Zero, "", err
		}
		typ := models.TransactionType(strings.ToLower(cell(format.TypeColumn)))
		if !typ.Valid() {
			return decimal.Zero, "", fmt.Errorf("invalid type: %s", cell(format.TypeColumn))
		}
		return amount.Abs(), typ, nil

	default:
		amount, err := ParseAmount(cell(format.AmountColumn))
		if err != nil {
			return decimal.Zero, "", err
		}
		if amount.IsZero() {
			return decimal.Zero, "", errors.New("amount is zero")
		}
		if amount.IsNegative() {
			return amount.Abs(), models.TransactionTypeExpense, nil
		}
		return amount, models.TransactionTypeIncome, nil
	}
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
}

func isEmptyRow(row []string) bool {
	for _, field := range row {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

// isSummaryRow spots the totals and balance lines banks append to statements
func isSummaryRow(row []string) bool {
	if len(row) == 0 {
		return false
	}

	firstField := strings.ToLower(strings.TrimSpace(row[0]))
	summaryKeywords := []string{"total", "summary", "opening balance", "closing balance"}

	for _, keyword := range summaryKeywords {
		if strings.Contains(firstField, keyword) {
			return true
		}
	}
	return false
}
