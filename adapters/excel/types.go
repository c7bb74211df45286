package excel

// Row is one data row keyed by trimmed header text.
type Row map[string]string

// Table is a parsed upload: the header row and the non-blank data rows.
type Table struct {
	Headers []string
	Rows    []Row
}

// Format is the detected upload format.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)
