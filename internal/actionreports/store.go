// Package actionreports is the record-level CRUD surface over the
// canonical action-report location. Records there are either standalone
// documents or entries of a month document's actionReports list.
package actionreports

import (
	"context"
	"fmt"
	"time"

	"github.com/pgocasting/ipatrollersys-sub002/domain/core"
	"github.com/pgocasting/ipatrollersys-sub002/domain/report"
	"github.com/pgocasting/ipatrollersys-sub002/internal"
	"github.com/pgocasting/ipatrollersys-sub002/internal/fieldmap"
	"github.com/pgocasting/ipatrollersys-sub002/internal/writeback"
	"github.com/pgocasting/ipatrollersys-sub002/ports"
)

// Store implements ports.ActionReportStore on a DocumentStore.
type Store struct {
	docs       ports.DocumentStore
	collection string
	logger     *internal.Logger
	now        func() time.Time
}

// NewStore creates the façade for collection.
func NewStore(docs ports.DocumentStore, collection string, logger *internal.Logger) *Store {
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	return &Store{docs: docs, collection: collection, logger: logger, now: time.Now}
}

// Collection is the canonical location name.
func (s *Store) Collection() string { return s.collection }

// Create stores record as a standalone document.
func (s *Store) Create(ctx context.Context, record report.CanonicalRecord, actor string) ports.Result {
	ids, err := s.CreateBatch(ctx, []report.CanonicalRecord{record}, actor)
	if err != nil {
		return ports.Failed(err)
	}
	return ports.Ok(ids[0])
}

// CreateBatch stores records as standalone documents in one call and
// returns their ids in order.
func (s *Store) CreateBatch(ctx context.Context, records []report.CanonicalRecord, actor string) ([]string, error) {
	if len(records) == 0 {
		return nil, nil
	}
	at := s.now().UTC()
	payloads := make([]map[string]any, 0, len(records))
	for _, r := range records {
		if r.ID == "" {
			r.ID = core.NewID().String()
		}
		p := r.Payload()
		p[report.FieldCreatedAt] = at
		p[report.FieldCreatedBy] = actor
		p[report.FieldUpdatedAt] = at
		p[report.FieldUpdatedBy] = actor
		payloads = append(payloads, p)
	}
	ids, err := s.docs.BatchCreate(ctx, s.collection, payloads)
	if err != nil {
		return nil, fmt.Errorf("failed to create %d action reports: %w", len(records), err)
	}
	s.logger.Debug("[ActionReports] created %d action reports in %s", len(ids), s.collection)
	return ids, nil
}

// Update applies patch to a standalone document, or to the entry with id
// inside the month document monthKey.
func (s *Store) Update(ctx context.Context, id, monthKey string, patch report.Patch, actor string) ports.Result {
	if err := fieldmap.ValidatePatch(patch); err != nil {
		return ports.Failed(err)
	}
	meta := ports.WriteMetadata{UpdatedAt: s.now().UTC(), UpdatedBy: actor}

	if monthKey == "" {
		doc, found, err := s.docs.GetDocument(ctx, s.collection, id)
		if err != nil {
			return ports.Failed(err)
		}
		if !found {
			return ports.Failed(core.NewTargetMissingError(s.collection, id, nil))
		}
		dept := fieldmap.Stringify(doc[report.FieldDepartment])
		for field, v := range patch {
			key := fieldmap.SourceKey(doc, dept, field)
			if err := s.docs.WriteDocumentField(ctx, s.collection, id, key, fieldmap.StorageValue(v), meta); err != nil {
				return ports.Failed(s.missing(err, id, nil))
			}
		}
		return ports.Ok(id)
	}

	list, idx, err := s.locate(ctx, id, monthKey)
	if err != nil {
		return ports.Failed(err)
	}
	entry := list[idx].(map[string]any)
	entry = fieldmap.ApplyPatch(entry, fieldmap.Stringify(entry[report.FieldDepartment]), patch)
	entry[report.FieldUpdatedAt] = meta.UpdatedAt.Format(time.RFC3339Nano)
	entry[report.FieldUpdatedBy] = actor
	if err := s.docs.WriteDocumentField(ctx, s.collection, monthKey, report.MonthReportsField, writeback.ReplaceAt(list, idx, entry), meta); err != nil {
		return ports.Failed(s.missing(err, monthKey, &idx))
	}
	return ports.Ok(id)
}

// Delete removes a standalone document, or the entry with id from the
// month document monthKey.
func (s *Store) Delete(ctx context.Context, id, monthKey string, actor string) ports.Result {
	if monthKey == "" {
		if err := s.docs.DeleteDocument(ctx, s.collection, id); err != nil {
			return ports.Failed(s.missing(err, id, nil))
		}
		s.logger.Debug("[ActionReports] deleted %s/%s", s.collection, id)
		return ports.Ok(id)
	}

	list, idx, err := s.locate(ctx, id, monthKey)
	if err != nil {
		return ports.Failed(err)
	}
	meta := ports.WriteMetadata{UpdatedAt: s.now().UTC(), UpdatedBy: actor}
	if err := s.docs.WriteDocumentField(ctx, s.collection, monthKey, report.MonthReportsField, writeback.RemoveAt(list, idx), meta); err != nil {
		return ports.Failed(s.missing(err, monthKey, &idx))
	}
	s.logger.Debug("[ActionReports] deleted %s from %s/%s", id, s.collection, monthKey)
	return ports.Ok(id)
}

func (s *Store) locate(ctx context.Context, id, monthKey string) ([]any, int, error) {
	doc, found, err := s.docs.GetDocument(ctx, s.collection, monthKey)
	if err != nil {
		return nil, 0, err
	}
	if !found {
		return nil, 0, core.NewTargetMissingError(s.collection, monthKey, nil)
	}
	list, _ := writeback.List(doc, report.MonthReportsField)
	idx := writeback.IndexOf(list, monthKey, id)
	if idx < 0 {
		return nil, 0, fmt.Errorf("%w: %s not in %s/%s", core.ErrTargetMissing, id, s.collection, monthKey)
	}
	if _, ok := list[idx].(map[string]any); !ok {
		return nil, 0, fmt.Errorf("%w: %s/%s[%d] is not an object", core.ErrTargetMissing, s.collection, monthKey, idx)
	}
	return list, idx, nil
}

func (s *Store) missing(err error, document string, idx *int) error {
	if core.IsNotFoundError(err) {
		return core.NewTargetMissingError(s.collection, document, idx)
	}
	return err
}

var _ ports.ActionReportStore = (*Store)(nil)
