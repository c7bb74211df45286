// Package excel parses uploaded spreadsheets and delimited text into
// header-keyed rows.
package excel

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/pgocasting/ipatrollersys-sub002/domain/core"
)

var (
	zipMagic = []byte("PK\x03\x04")
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0}
	utf8BOM  = []byte{0xEF, 0xBB, 0xBF}
)

// ReadFile reads an upload from disk.
func ReadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return ReadBytes(data, filepath.Base(path))
}

// ReadBytes parses an upload. Format comes from content first and the
// file extension second. Legacy binary .xls workbooks are rejected.
func ReadBytes(data []byte, filename string) (*Table, error) {
	format, err := DetectFormat(data, filename)
	if err != nil {
		return nil, err
	}

	var rows [][]string
	switch format {
	case FormatXLSX:
		rows, err = readWorkbook(data)
	case FormatCSV:
		rows, err = readDelimited(data)
	}
	if err != nil {
		return nil, err
	}
	return buildTable(rows)
}

// DetectFormat classifies an upload.
func DetectFormat(data []byte, filename string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch {
	case len(data) == 0:
		return "", fmt.Errorf("%w: empty file", core.ErrNoUsableRows)
	case bytes.HasPrefix(data, zipMagic):
		return FormatXLSX, nil
	case bytes.HasPrefix(data, oleMagic) || ext == ".xls":
		return "", fmt.Errorf("%w: legacy .xls workbooks must be saved as .xlsx", core.ErrImportFormat)
	case ext == ".xlsx" || ext == ".xlsm":
		return "", fmt.Errorf("%w: %s is not a valid workbook", core.ErrImportFormat, filename)
	case utf8.Valid(data) && !bytes.ContainsRune(data, 0):
		return FormatCSV, nil
	}
	return "", fmt.Errorf("%w: %s is neither a spreadsheet nor delimited text", core.ErrImportFormat, filename)
}

// readWorkbook returns the first sheet with raw cell values, so date
// cells arrive as serial numbers.
func readWorkbook(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data), excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open workbook: %v", core.ErrImportFormat, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", core.ErrNoUsableRows)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}

func readDelimited(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = sniffDelimiter(data)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrImportFormat, err)
	}
	return rows, nil
}

// sniffDelimiter picks the most frequent of comma, semicolon and tab in
// the header line.
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	best, bestCount := ',', 0
	for _, d := range []rune{',', ';', '\t'} {
		if n := bytes.Count(line, []byte(string(d))); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

func buildTable(rows [][]string) (*Table, error) {
	// Leading blank lines are common in hand-made sheets.
	for len(rows) > 0 && blank(rows[0]) {
		rows = rows[1:]
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: need a header row and at least one data row", core.ErrNoUsableRows)
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}

	t := &Table{Headers: headers}
	for _, raw := range rows[1:] {
		if blank(raw) {
			continue
		}
		row := make(Row, len(headers))
		for j, cell := range raw {
			if j < len(headers) && headers[j] != "" {
				row[headers[j]] = strings.TrimSpace(cell)
			}
		}
		t.Rows = append(t.Rows, row)
	}
	if len(t.Rows) == 0 {
		return nil, fmt.Errorf("%w: no data rows", core.ErrNoUsableRows)
	}
	return t, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
