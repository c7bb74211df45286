package app

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/pgocasting/ipatrollersys-sub002/domain/core"
	"github.com/pgocasting/ipatrollersys-sub002/domain/report"
	"github.com/pgocasting/ipatrollersys-sub002/internal"
	"github.com/pgocasting/ipatrollersys-sub002/internal/activity"
	"github.com/pgocasting/ipatrollersys-sub002/internal/datetime"
	"github.com/pgocasting/ipatrollersys-sub002/internal/dedup"
	"github.com/pgocasting/ipatrollersys-sub002/internal/errors"
	"github.com/pgocasting/ipatrollersys-sub002/internal/fieldmap"
	"github.com/pgocasting/ipatrollersys-sub002/internal/importer"
	"github.com/pgocasting/ipatrollersys-sub002/internal/ingest"
	"github.com/pgocasting/ipatrollersys-sub002/internal/metrics"
	"github.com/pgocasting/ipatrollersys-sub002/internal/validity"
	"github.com/pgocasting/ipatrollersys-sub002/internal/writeback"
	"github.com/pgocasting/ipatrollersys-sub002/ports"
)

// ReconciliationDeps wires the service.
type ReconciliationDeps struct {
	Ingestor   *ingest.Ingestor
	Mapper     *fieldmap.Mapper
	Candidates []ingest.Candidate
	Writer     *writeback.Writer
	Importer   *importer.Pipeline
	Activity   ports.ActivityLogger
	Metrics    *metrics.Metrics
	Logger     *internal.Logger
	Now        func() time.Time
}

// ReloadSummary describes the working set after a reload.
type ReloadSummary struct {
	Records  int       `json:"records"`
	Rejected int       `json:"rejected"`
	Failed   []string  `json:"failedSources,omitempty"`
	LoadedAt time.Time `json:"loadedAt"`
}

// ReconciliationService owns the working set of canonical records and
// re-materializes it after every mutating operation.
type ReconciliationService struct {
	ingestor   *ingest.Ingestor
	mapper     *fieldmap.Mapper
	candidates []ingest.Candidate
	writer     *writeback.Writer
	dedup      *dedup.Deduplicator
	importer   *importer.Pipeline
	activity   ports.ActivityLogger
	metrics    *metrics.Metrics
	logger     *internal.Logger
	now        func() time.Time

	mu      sync.RWMutex
	records []report.CanonicalRecord
	summary ReloadSummary
}

// NewReconciliationService creates the service. Activity and Metrics are
// optional.
func NewReconciliationService(d ReconciliationDeps) *ReconciliationService {
	logger := d.Logger
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	now := d.Now
	if now == nil {
		now = time.Now
	}
	return &ReconciliationService{
		ingestor:   d.Ingestor,
		mapper:     d.Mapper,
		candidates: d.Candidates,
		writer:     d.Writer,
		dedup:      dedup.New(d.Writer, logger),
		importer:   d.Importer,
		activity:   d.Activity,
		metrics:    d.Metrics,
		logger:     logger,
		now:        now,
	}
}

// Reload ingests every candidate location, normalizes and filters the
// entries and replaces the working set.
func (s *ReconciliationService) Reload(ctx context.Context) (ReloadSummary, error) {
	start := time.Now()

	entries, failures, _ := s.ingestor.IngestWithStats(ctx, s.candidates)
	if err := ctx.Err(); err != nil {
		return ReloadSummary{}, err
	}
	records := ingest.Normalize(entries, s.mapper)
	kept, rejected := validity.Filter(records)

	failed := make([]string, 0, len(failures))
	for _, f := range failures {
		failed = append(failed, f.Collection)
	}
	summary := ReloadSummary{
		Records:  len(kept),
		Rejected: rejected,
		Failed:   failed,
		LoadedAt: s.now().UTC(),
	}

	s.mu.Lock()
	s.records = kept
	s.summary = summary
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.ObserveReload(len(kept), rejected, failed, time.Since(start))
	}
	s.logger.Info("[Reconcile] working set: %d records, %d rejected, %d sources failed",
		len(kept), rejected, len(failed))
	return summary, nil
}

// ReloadBy reloads on behalf of actor and records the reload.
func (s *ReconciliationService) ReloadBy(ctx context.Context, actor ports.Actor) (ReloadSummary, error) {
	summary, err := s.Reload(ctx)
	if err != nil {
		return summary, err
	}
	s.log(activity.EventReportsReloaded, actor, map[string]any{
		"records":  summary.Records,
		"rejected": summary.Rejected,
		"failed":   len(summary.Failed),
	})
	return summary, nil
}

// Summary returns the result of the last reload.
func (s *ReconciliationService) Summary() ReloadSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.summary
}

// Records returns a copy of the working set in ingestion order.
func (s *ReconciliationService) Records() []report.CanonicalRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]report.CanonicalRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Find returns the first record with id.
func (s *ReconciliationService) Find(id string) (report.CanonicalRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.records {
		if r.ID == id {
			return r, true
		}
	}
	return report.CanonicalRecord{}, false
}

// FilterByMonth returns records whose date, or whose preserved phrase,
// falls in month.
func (s *ReconciliationService) FilterByMonth(month time.Month) []report.CanonicalRecord {
	now := s.now()
	var out []report.CanonicalRecord
	for _, r := range s.Records() {
		if datetime.MonthOf(r.When, now) == month {
			out = append(out, r)
		}
	}
	return out
}

// PlanDuplicates groups the working set by duplicate key.
func (s *ReconciliationService) PlanDuplicates(actor ports.Actor) []dedup.Group {
	groups := dedup.Plan(s.Records())
	s.log(activity.EventDuplicatesPlanned, actor, map[string]any{
		"groups":   len(groups),
		"removals": dedup.Removals(groups),
	})
	return groups
}

// RemoveDuplicates plans against the current working set, deletes after
// confirmation and reloads.
func (s *ReconciliationService) RemoveDuplicates(ctx context.Context, confirmer dedup.Confirmer, actor ports.Actor) (dedup.Outcome, error) {
	groups := dedup.Plan(s.Records())
	out, err := s.dedup.Execute(ctx, groups, confirmer, actor)
	if err != nil {
		return out, err
	}
	if s.metrics != nil {
		s.metrics.ObserveDuplicates(out.Deleted, out.Failed)
	}
	s.log(activity.EventDuplicatesRemoved, actor, map[string]any{
		"deleted": out.Deleted,
		"failed":  out.Failed,
	})
	if out.Deleted > 0 {
		if _, err := s.Reload(ctx); err != nil {
			return out, err
		}
	}
	return out, nil
}

// Import runs the import pipeline against the working set and reloads
// when anything was written.
func (s *ReconciliationService) Import(ctx context.Context, req importer.Request) (importer.Outcome, error) {
	out, err := s.importer.Run(ctx, req, s.Records())
	if err != nil {
		return out, err
	}
	if s.metrics != nil {
		s.metrics.ObserveImport(out.Imported, out.DuplicatesSkipped, out.InvalidSkipped)
	}
	s.log(activity.EventReportsImported, req.Actor, map[string]any{
		"file":       req.Filename,
		"department": req.Department,
		"imported":   out.Imported,
		"duplicates": out.DuplicatesSkipped,
	})
	if out.Imported > 0 {
		if _, err := s.Reload(ctx); err != nil {
			return out, err
		}
	}
	return out, nil
}

// Update edits one record in its source layout and reloads.
func (s *ReconciliationService) Update(ctx context.Context, id string, patch report.Patch, actor ports.Actor) error {
	rec, ok := s.Find(id)
	if !ok {
		return core.NewNotFoundError("report", id)
	}
	err := s.writer.Update(ctx, rec, patch, actor)
	if s.metrics != nil {
		s.metrics.ObserveWriteBack("update", s.writer.RouteOf(rec).String(), err)
	}
	if err != nil {
		return writeBackError(fmt.Errorf("update %s: %w", id, err))
	}
	fields := make([]string, 0, len(patch))
	for f := range patch {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	s.log(activity.EventReportUpdated, actor, map[string]any{"id": id, "fields": fields})
	_, err = s.Reload(ctx)
	return err
}

// Delete removes one record from its source layout and reloads.
func (s *ReconciliationService) Delete(ctx context.Context, id string, actor ports.Actor) error {
	rec, ok := s.Find(id)
	if !ok {
		return core.NewNotFoundError("report", id)
	}
	err := s.writer.Delete(ctx, rec, actor)
	if s.metrics != nil {
		s.metrics.ObserveWriteBack("delete", s.writer.RouteOf(rec).String(), err)
	}
	if err != nil {
		return writeBackError(fmt.Errorf("delete %s: %w", id, err))
	}
	s.log(activity.EventReportDeleted, actor, map[string]any{
		"id":         id,
		"collection": rec.Provenance.SourceCollection,
	})
	_, err = s.Reload(ctx)
	return err
}

// writeBackError tags errors caused by a vanished or moved target.
func writeBackError(err error) error {
	if core.IsWriteBackError(err) {
		return errors.TargetMissing(err)
	}
	return err
}

// LogAccess records a read of the working set.
func (s *ReconciliationService) LogAccess(actor ports.Actor, count int) {
	s.log(activity.EventReportsViewed, actor, map[string]any{"count": count})
}

func (s *ReconciliationService) log(event string, actor ports.Actor, data map[string]any) {
	if s.activity != nil {
		s.activity.Log(event, actor, data)
	}
}
