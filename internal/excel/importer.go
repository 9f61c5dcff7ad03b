package excel

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ImportConfig defines where each field lives in a spreadsheet
type ImportConfig struct {
	FilePath        string // Path to the Excel or CSV file
	IDColumn        string // Column with the optional item id
	WordColumn      string // Column with the word
	IPAColumn       string // Column with the phonetic spelling
	KoPronColumn    string // Column with the Korean pronunciation aid
	MeaningKoColumn string // Column with the Korean meaning
	ExampleColumn   string // Column with the example sentence
	SheetName       string // Name of the sheet to import, first sheet if empty
	StartRow        int    // The row to start importing from (1-based index)
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		IDColumn:        "A",
		WordColumn:      "B",
		IPAColumn:       "C",
		KoPronColumn:    "D",
		MeaningKoColumn: "E",
		ExampleColumn:   "F",
		StartRow:        2, // By default, start from the second row (skip header)
	}
}

// Row is one spreadsheet row. Values are returned as written; an empty ID
// means the row carries no id.
type Row struct {
	ID        string
	Word      string
	IPA       string
	KoPron    string
	MeaningKo string
	Example   string
}

// ReadRows reads the rows of an Excel or CSV file
func ReadRows(config ImportConfig) ([]Row, error) {
	cols, err := config.columns()
	if err != nil {
		return nil, err
	}

	var records [][]string
	switch strings.ToLower(filepath.Ext(config.FilePath)) {
	case ".csv":
		records, err = readCSV(config.FilePath)
	case ".xlsx", ".xlsm":
		records, err = readExcel(config.FilePath, config.SheetName)
	default:
		return nil, fmt.Errorf("unsupported spreadsheet format %q", filepath.Ext(config.FilePath))
	}
	if err != nil {
		return nil, err
	}

	start := config.StartRow
	if start < 1 {
		start = 1
	}
	var rows []Row
	for i, rec := range records {
		// Skip header rows
		if i < start-1 {
			continue
		}
		if isBlank(rec) {
			continue
		}
		rows = append(rows, Row{
			ID:        cell(rec, cols[0]),
			Word:      cell(rec, cols[1]),
			IPA:       cell(rec, cols[2]),
			KoPron:    cell(rec, cols[3]),
			MeaningKo: cell(rec, cols[4]),
			Example:   cell(rec, cols[5]),
		})
	}
	return rows, nil
}

// columns converts the column letters into zero-based indexes; an empty
// letter maps to -1 and always reads as an empty cell
func (c ImportConfig) columns() ([6]int, error) {
	var idx [6]int
	for i, name := range []string{c.IDColumn, c.WordColumn, c.IPAColumn, c.KoPronColumn, c.MeaningKoColumn, c.ExampleColumn} {
		if name == "" {
			idx[i] = -1
			continue
		}
		n, err := excelize.ColumnNameToNumber(name)
		if err != nil {
			return idx, fmt.Errorf("invalid column %q: %w", name, err)
		}
		idx[i] = n - 1
	}
	return idx, nil
}

func readExcel(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook %s has no sheets", path)
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true

	var records [][]string
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func cell(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return rec[i]
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
