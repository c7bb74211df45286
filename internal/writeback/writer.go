// Package writeback translates edits and deletions of canonical records
// into mutations on the physical layout each record was read from.
package writeback

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/pgocasting/ipatrollersys-sub002/domain/core"
	"github.com/pgocasting/ipatrollersys-sub002/domain/report"
	"github.com/pgocasting/ipatrollersys-sub002/internal"
	"github.com/pgocasting/ipatrollersys-sub002/internal/fieldmap"
	"github.com/pgocasting/ipatrollersys-sub002/ports"
)

// Writer dispatches by provenance.
type Writer struct {
	docs      ports.DocumentStore
	reports   ports.ActionReportStore
	canonical string
	limiter   *rate.Limiter
	logger    *internal.Logger
	now       func() time.Time
}

// Option configures a Writer.
type Option func(*Writer)

// WithRateLimit caps mutations per second. perSec <= 0 disables the cap.
func WithRateLimit(perSec float64) Option {
	return func(w *Writer) {
		if perSec <= 0 {
			w.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		burst := int(perSec)
		if burst < 1 {
			burst = 1
		}
		w.limiter = rate.NewLimiter(rate.Limit(perSec), burst)
	}
}

// WithClock overrides the metadata timestamp source.
func WithClock(now func() time.Time) Option {
	return func(w *Writer) { w.now = now }
}

// NewWriter creates a writer. canonical names the location owned by
// reports; everything else is mutated directly through docs.
func NewWriter(docs ports.DocumentStore, reports ports.ActionReportStore, canonical string, logger *internal.Logger, opts ...Option) *Writer {
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	w := &Writer{
		docs:      docs,
		reports:   reports,
		canonical: canonical,
		limiter:   rate.NewLimiter(rate.Inf, 0),
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Route names the mutation path a record takes.
type Route int

const (
	RouteCanonical Route = iota
	RouteArray
	RouteDocument
)

func (r Route) String() string {
	switch r {
	case RouteCanonical:
		return "canonical"
	case RouteArray:
		return "array"
	}
	return "document"
}

// RouteOf picks the mutation path for a record.
func (w *Writer) RouteOf(rec report.CanonicalRecord) Route {
	p := rec.Provenance
	switch p.SourceType {
	case report.SourceIndividual, report.SourceMonthBased:
		if p.SourceCollection == w.canonical {
			return RouteCanonical
		}
	}
	if p.IsArray() {
		return RouteArray
	}
	return RouteDocument
}

func monthKey(rec report.CanonicalRecord) string {
	if rec.Provenance.SourceType == report.SourceMonthBased {
		return rec.Provenance.SourceDocument
	}
	return ""
}

// Delete removes rec from storage.
func (w *Writer) Delete(ctx context.Context, rec report.CanonicalRecord, actor ports.Actor) error {
	if err := w.limiter.Wait(ctx); err != nil {
		return err
	}
	p := rec.Provenance

	switch w.RouteOf(rec) {
	case RouteCanonical:
		id := rec.ID
		if p.SourceType == report.SourceIndividual {
			id = p.SourceDocument
		}
		if res := w.reports.Delete(ctx, id, monthKey(rec), actor.String()); !res.Success {
			return resultError(res)
		}
	case RouteArray:
		list, err := w.entries(ctx, rec)
		if err != nil {
			return err
		}
		meta := ports.WriteMetadata{UpdatedAt: w.now().UTC(), UpdatedBy: actor.String()}
		if err := w.docs.WriteDocumentField(ctx, p.SourceCollection, p.SourceDocument, p.ArrayField, RemoveAt(list, p.Index()), meta); err != nil {
			return w.missing(err, rec)
		}
	default:
		if err := w.docs.DeleteDocument(ctx, p.SourceCollection, p.SourceDocument); err != nil {
			return w.missing(err, rec)
		}
	}

	w.logger.Debug("[WriteBack] deleted %s from %s/%s", rec.ID, p.SourceCollection, p.SourceDocument)
	return nil
}

// Update applies patch to rec in storage, writing each field under the
// key it is already stored with.
func (w *Writer) Update(ctx context.Context, rec report.CanonicalRecord, patch report.Patch, actor ports.Actor) error {
	if err := fieldmap.ValidatePatch(patch); err != nil {
		return err
	}
	if err := w.limiter.Wait(ctx); err != nil {
		return err
	}
	p := rec.Provenance
	meta := ports.WriteMetadata{UpdatedAt: w.now().UTC(), UpdatedBy: actor.String()}

	switch w.RouteOf(rec) {
	case RouteCanonical:
		id := rec.ID
		if p.SourceType == report.SourceIndividual {
			id = p.SourceDocument
		}
		if res := w.reports.Update(ctx, id, monthKey(rec), patch, actor.String()); !res.Success {
			return resultError(res)
		}
	case RouteArray:
		list, err := w.entries(ctx, rec)
		if err != nil {
			return err
		}
		entry := fieldmap.ApplyPatch(list[p.Index()].(map[string]any), rec.Department, patch)
		entry[report.FieldUpdatedAt] = meta.UpdatedAt.Format(time.RFC3339Nano)
		entry[report.FieldUpdatedBy] = meta.UpdatedBy
		if err := w.docs.WriteDocumentField(ctx, p.SourceCollection, p.SourceDocument, p.ArrayField, ReplaceAt(list, p.Index(), entry), meta); err != nil {
			return w.missing(err, rec)
		}
	default:
		doc, found, err := w.docs.GetDocument(ctx, p.SourceCollection, p.SourceDocument)
		if err != nil {
			return err
		}
		if !found {
			return core.NewTargetMissingError(p.SourceCollection, p.SourceDocument, nil)
		}
		for field, v := range patch {
			key := fieldmap.SourceKey(doc, rec.Department, field)
			if err := w.docs.WriteDocumentField(ctx, p.SourceCollection, p.SourceDocument, key, fieldmap.StorageValue(v), meta); err != nil {
				return w.missing(err, rec)
			}
		}
	}

	w.logger.Debug("[WriteBack] updated %s in %s/%s (%d fields)", rec.ID, p.SourceCollection, p.SourceDocument, len(patch))
	return nil
}

// entries reads the owning array and checks the record still sits at its
// recorded index.
func (w *Writer) entries(ctx context.Context, rec report.CanonicalRecord) ([]any, error) {
	p := rec.Provenance
	doc, found, err := w.docs.GetDocument(ctx, p.SourceCollection, p.SourceDocument)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, core.NewTargetMissingError(p.SourceCollection, p.SourceDocument, p.ReportIndex)
	}
	list, ok := List(doc, p.ArrayField)
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s has no %s list", core.ErrTargetMissing, p.SourceCollection, p.SourceDocument, p.ArrayField)
	}
	if err := CheckEntry(list, p.SourceDocument, p.Index(), rec.ID); err != nil {
		return nil, err
	}
	return list, nil
}

func (w *Writer) missing(err error, rec report.CanonicalRecord) error {
	if core.IsNotFoundError(err) {
		p := rec.Provenance
		return core.NewTargetMissingError(p.SourceCollection, p.SourceDocument, p.ReportIndex)
	}
	return err
}

func resultError(res ports.Result) error {
	if res.Err != nil {
		return res.Err
	}
	return fmt.Errorf("action report store: %s", res.Error)
}
