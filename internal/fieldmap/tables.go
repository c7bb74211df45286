package fieldmap

import (
	"strings"

	"github.com/pgocasting/ipatrollersys-sub002/domain/report"
)

// Department names as stored on records.
const (
	DeptPNP         = "PNP"
	DeptAgriculture = "Agriculture"
	DeptPGENRO      = "PG-ENRO"
)

// Generic covers PNP and any department without its own vocabulary.
var Generic = newTable("generic",
	[]string{report.FieldWhat, report.FieldWhere, report.FieldWho},
	genericRules()...,
)

// Agriculture maps the Bantay Dagat spreadsheet headers.
var Agriculture = agricultureTable("agriculture")

// PGENRO shares the Agriculture layout.
var PGENRO = agricultureTable("pg-enro")

func agricultureTable(name string) *Table {
	return Generic.with(name,
		[]string{report.FieldWhat, report.FieldWhere},
		Rule{
			Field: report.FieldWhat,
			Keys: keys(
				[]string{"Complaint / Report", "Complaint/Report", "COMPLAINT / REPORT", "COMPLAINT/REPORT", "Complaint", "Report"},
				variants(report.FieldWhat),
			),
		},
		Rule{
			Field: report.FieldWhere,
			Keys:  keys([]string{"Location", "LOCATION", "Place", "Area"}, variants(report.FieldWhere)),
		},
		Rule{
			Field: report.FieldWhen,
			Keys: keys(
				[]string{"Date Received", "DATE RECEIVED", "Date received", "Date Reported"},
				variants(report.FieldWhen),
				variants(report.FieldDate),
			),
			Transform: FormatSpreadsheetDate,
		},
		Rule{
			Field:   report.FieldActionTaken,
			Keys:    keys(variants(report.FieldActionTaken), []string{"Action", "Status", "STATUS"}),
			Default: "Pending",
		},
		Rule{
			Field: report.FieldHow,
			Keys: keys(
				[]string{"Observation / Findings", "Observation/Findings", "OBSERVATION / FINDINGS", "Observations", "Findings"},
				variants(report.FieldHow),
			),
		},
		Rule{
			Field: report.FieldDocuments,
			Keys:  keys(variants(report.FieldDocuments), []string{"Document Links", "DOCUMENT LINKS", "Links", "Attachments"}),
		},
	)
}

// ForDepartment picks the mapping table for a department name.
func ForDepartment(department string) *Table {
	d := strings.ToLower(department)
	switch {
	case strings.Contains(d, "agri"):
		return Agriculture
	case strings.Contains(d, "enro"):
		return PGENRO
	}
	return Generic
}
