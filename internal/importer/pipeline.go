// Package importer turns an uploaded spreadsheet into new action reports
// in the canonical location, skipping rows already present.
package importer

import (
	"context"
	"fmt"
	"strings"

	"github.com/pgocasting/ipatrollersys-sub002/adapters/excel"
	"github.com/pgocasting/ipatrollersys-sub002/domain/core"
	"github.com/pgocasting/ipatrollersys-sub002/domain/report"
	"github.com/pgocasting/ipatrollersys-sub002/internal"
	"github.com/pgocasting/ipatrollersys-sub002/internal/errors"
	"github.com/pgocasting/ipatrollersys-sub002/internal/fieldmap"
	"github.com/pgocasting/ipatrollersys-sub002/ports"
)

// Creator writes new records in one batch.
type Creator interface {
	CreateBatch(ctx context.Context, records []report.CanonicalRecord, actor string) ([]string, error)
}

// Request is one upload.
type Request struct {
	Data       []byte
	Filename   string
	Department string
	Actor      ports.Actor
}

// Outcome summarises an import for the user.
type Outcome struct {
	Parsed            int      `json:"parsed"`
	Imported          int      `json:"imported"`
	DuplicatesSkipped int      `json:"duplicatesSkipped"`
	InvalidSkipped    int      `json:"invalidSkipped"`
	IDs               []string `json:"ids,omitempty"`
	Message           string   `json:"message"`
}

// Pipeline runs imports.
type Pipeline struct {
	creator    Creator
	mapper     *fieldmap.Mapper
	collection string
	logger     *internal.Logger
}

// NewPipeline creates a pipeline writing through creator into collection.
func NewPipeline(creator Creator, mapper *fieldmap.Mapper, collection string, logger *internal.Logger) *Pipeline {
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	if mapper == nil {
		mapper = fieldmap.NewMapper(nil)
	}
	return &Pipeline{creator: creator, mapper: mapper, collection: collection, logger: logger}
}

// Run parses the upload, drops rows lacking required fields or matching
// an existing record on (what, where, municipality, department), and
// writes the rest in one batch. Nothing is written when no row survives.
func (p *Pipeline) Run(ctx context.Context, req Request, existing []report.CanonicalRecord) (Outcome, error) {
	department := strings.TrimSpace(req.Department)
	if department == "" {
		return Outcome{}, errors.ImportFormat(core.ErrNoDepartment)
	}

	table, err := excel.ReadBytes(req.Data, req.Filename)
	if err != nil {
		return Outcome{}, errors.ImportFormat(err)
	}

	// 1. Map and validate rows
	candidates, invalid := p.Candidates(table, department)

	// 2. Drop rows already present
	seen := make(map[string]bool, len(existing)+len(candidates))
	for _, r := range existing {
		seen[report.ImportKey(r)] = true
	}
	var fresh []report.CanonicalRecord
	duplicates := 0
	for _, c := range candidates {
		key := report.ImportKey(c)
		if seen[key] {
			duplicates++
			continue
		}
		seen[key] = true
		fresh = append(fresh, c)
	}

	out := Outcome{
		Parsed:            len(table.Rows),
		DuplicatesSkipped: duplicates,
		InvalidSkipped:    invalid,
	}

	// 3. Write survivors
	if len(fresh) > 0 {
		ids, err := p.creator.CreateBatch(ctx, fresh, req.Actor.String())
		if err != nil {
			return out, errors.Wrap(err, "import write failed")
		}
		out.Imported = len(ids)
		out.IDs = ids
	}
	out.Message = summary(out)

	p.logger.Info("[Import] import %s (%s): %s", req.Filename, department, out.Message)
	return out, nil
}

// Candidates maps table rows to records for department and reports how
// many rows lacked a required field.
func (p *Pipeline) Candidates(table *excel.Table, department string) ([]report.CanonicalRecord, int) {
	required := fieldmap.ForDepartment(department).Required
	var out []report.CanonicalRecord
	invalid := 0
	for _, row := range table.Rows {
		payload := make(map[string]any, len(row)+1)
		for k, v := range row {
			payload[k] = v
		}
		payload[report.FieldDepartment] = department

		rec := p.mapper.Map(payload, department)
		muni, district := fieldmap.DetectLocation(rec.Municipality, rec.Where)
		rec.Municipality = muni
		if district != "" {
			rec.District = district
		}

		if missing := missingRequired(rec, required); missing != "" {
			p.logger.Debug("[Import] skipping row without %s: %v", missing, row)
			invalid++
			continue
		}

		rec.ID = core.NewID().String()
		rec.Provenance = report.NewProvenance(p.collection, rec.ID, report.IndividualShape{}, 0)
		out = append(out, rec)
	}
	return out, invalid
}

func missingRequired(rec report.CanonicalRecord, required []string) string {
	for _, f := range required {
		if strings.TrimSpace(rec.Field(f)) == "" {
			return f
		}
	}
	return ""
}

func summary(o Outcome) string {
	msg := fmt.Sprintf("%s, %s skipped",
		plural(o.Imported, "new record", "new records"),
		plural(o.DuplicatesSkipped, "duplicate", "duplicates"))
	if o.InvalidSkipped > 0 {
		msg += fmt.Sprintf(", %s skipped", plural(o.InvalidSkipped, "incomplete row", "incomplete rows"))
	}
	return msg + "."
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}
