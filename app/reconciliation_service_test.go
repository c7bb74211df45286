package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pgocasting/ipatrollersys-sub002/adapters/memory"
	"github.com/pgocasting/ipatrollersys-sub002/domain/core"
	"github.com/pgocasting/ipatrollersys-sub002/domain/report"
	"github.com/pgocasting/ipatrollersys-sub002/internal/actionreports"
	"github.com/pgocasting/ipatrollersys-sub002/internal/activity"
	"github.com/pgocasting/ipatrollersys-sub002/internal/datetime"
	"github.com/pgocasting/ipatrollersys-sub002/internal/dedup"
	"github.com/pgocasting/ipatrollersys-sub002/internal/errors"
	"github.com/pgocasting/ipatrollersys-sub002/internal/fieldmap"
	"github.com/pgocasting/ipatrollersys-sub002/internal/importer"
	"github.com/pgocasting/ipatrollersys-sub002/internal/ingest"
	"github.com/pgocasting/ipatrollersys-sub002/internal/metrics"
	"github.com/pgocasting/ipatrollersys-sub002/internal/writeback"
	"github.com/pgocasting/ipatrollersys-sub002/ports"
)

const canonical = "actionReports"

var (
	ana = ports.Actor{ID: "u1", Name: "ana"}
	now = time.Date(2025, 3, 20, 10, 0, 0, 0, time.UTC)
)

type mockActivity struct{ mock.Mock }

func (m *mockActivity) Log(event string, actor ports.Actor, data map[string]any) {
	m.Called(event, actor, data)
}

func pnp(what, muni, district, where, when string) map[string]any {
	return map[string]any{
		"department": "PNP", "municipality": muni, "district": district,
		"what": what, "where": where, "when": when, "who": "Juan",
	}
}

func newService(t *testing.T) (*ReconciliationService, *memory.DocumentStore, *mockActivity) {
	t.Helper()
	docs := memory.NewDocumentStore()
	docs.Put(canonical, "2025-03", map[string]any{
		"actionReports": []any{
			pnp("Theft", "Abucay", "1ST DISTRICT", "Market", "2025-03-01T08:00:00Z"),
			pnp("Theft", "Abucay", "1ST DISTRICT", "Market", "2025-03-01T08:00:00Z"),
		},
	})
	docs.Put("pnpReports", "batch", map[string]any{
		"actions": []any{
			pnp("Illegal fishing", "Orani", "1ST DISTRICT", "Pier", "Yesterday morning"),
			pnp("Theft", "Abucay", "1ST DISTRICT", "Market", "2025-03-01T08:00:00Z"),
			pnp("Theft", "unknown", "1ST DISTRICT", "Market", "2025-02-01T08:00:00Z"),
		},
	})
	docs.Put("incidents", "i1", pnp("Vandalism", "Limay", "2ND DISTRICT", "Plaza", "2025-02-11"))

	resolver := &datetime.Resolver{Now: func() time.Time { return now }}
	mapper := fieldmap.NewMapper(resolver)
	reports := actionreports.NewStore(docs, canonical, nil)
	act := &mockActivity{}

	svc := NewReconciliationService(ReconciliationDeps{
		Ingestor: ingest.NewIngestor(docs, nil, 2),
		Mapper:   mapper,
		Candidates: []ingest.Candidate{
			{Collection: canonical},
			{Collection: "pnpReports", Department: "PNP"},
			{Collection: "incidents"},
		},
		Writer:   writeback.NewWriter(docs, reports, canonical, nil),
		Importer: importer.NewPipeline(reports, mapper, canonical, nil),
		Activity: act,
		Metrics:  metrics.New(),
		Now:      func() time.Time { return now },
	})
	_, err := svc.Reload(context.Background())
	require.NoError(t, err)
	return svc, docs, act
}

func TestReload_FiltersInvalid(t *testing.T) {
	svc, _, _ := newService(t)
	sum := svc.Summary()
	assert.Equal(t, 5, sum.Records)
	assert.Equal(t, 1, sum.Rejected)
	assert.Empty(t, sum.Failed)
	assert.Len(t, svc.Records(), 5)

	rec, ok := svc.Find("i1")
	require.True(t, ok)
	assert.Equal(t, "Vandalism", rec.What)
	assert.Equal(t, "Pending", rec.ActionTaken)
}

func TestFilterByMonth(t *testing.T) {
	svc, _, _ := newService(t)
	march := svc.FilterByMonth(time.March)
	// Three dated March records plus "Yesterday morning" resolved against now.
	assert.Len(t, march, 4)
	assert.Len(t, svc.FilterByMonth(time.February), 1)
}

func TestRemoveDuplicates(t *testing.T) {
	svc, docs, act := newService(t)
	act.On("Log", activity.EventDuplicatesPlanned, ana, mock.Anything).Once()
	act.On("Log", activity.EventDuplicatesRemoved, ana, map[string]any{"deleted": 2, "failed": 0}).Once()

	groups := svc.PlanDuplicates(ana)
	require.Len(t, groups, 1)
	assert.Equal(t, "2025-03#0", groups[0].Keep.ID)
	assert.Equal(t, 2, dedup.Removals(groups))

	out, err := svc.RemoveDuplicates(context.Background(), dedup.Confirmed, ana)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Deleted)
	assert.Equal(t, 0, out.Failed)
	assert.Len(t, svc.Records(), 3)

	month, _, _ := docs.GetDocument(context.Background(), canonical, "2025-03")
	assert.Len(t, month["actionReports"], 1)
	batch, _, _ := docs.GetDocument(context.Background(), "pnpReports", "batch")
	assert.Len(t, batch["actions"], 2)
	act.AssertExpectations(t)
}

func TestRemoveDuplicates_Unconfirmed(t *testing.T) {
	svc, _, _ := newService(t)
	_, err := svc.RemoveDuplicates(context.Background(), nil, ana)
	assert.ErrorIs(t, err, core.ErrNotConfirmed)
	assert.Len(t, svc.Records(), 5)
}

func TestImport_SkipsExistingAndReloads(t *testing.T) {
	svc, _, act := newService(t)
	act.On("Log", activity.EventReportsImported, ana, mock.Anything).Once()

	csv := "what,where,municipality,who,when\n" +
		"Vandalism,Plaza,Limay,Pedro,2025-02-11\n" +
		"Curfew violation,Town proper,Hermosa,Pedro,45736\n"
	out, err := svc.Import(context.Background(), importer.Request{
		Data: []byte(csv), Filename: "pnp.csv", Department: "PNP", Actor: ana,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Imported)
	assert.Equal(t, 1, out.DuplicatesSkipped)
	assert.Equal(t, "1 new record, 1 duplicate skipped.", out.Message)
	assert.Len(t, svc.Records(), 6)

	imported, ok := svc.Find(out.IDs[0])
	require.True(t, ok)
	assert.Equal(t, "1ST DISTRICT", imported.District)
	assert.Equal(t, report.SourceIndividual, imported.Provenance.SourceType)
	act.AssertExpectations(t)
}

func TestReloadBy_RecordsReload(t *testing.T) {
	svc, _, act := newService(t)
	act.On("Log", activity.EventReportsReloaded, ana,
		map[string]any{"records": 5, "rejected": 1, "failed": 0}).Once()

	sum, err := svc.ReloadBy(context.Background(), ana)
	require.NoError(t, err)
	assert.Equal(t, 5, sum.Records)
	act.AssertExpectations(t)
}

func TestUpdateAndDelete(t *testing.T) {
	svc, docs, act := newService(t)
	act.On("Log", activity.EventReportUpdated, ana, mock.Anything).Once()
	act.On("Log", activity.EventReportDeleted, ana, mock.Anything).Once()
	ctx := context.Background()

	require.NoError(t, svc.Update(ctx, "i1", report.Patch{report.FieldActionTaken: "Resolved"}, ana))
	rec, _ := svc.Find("i1")
	assert.Equal(t, "Resolved", rec.ActionTaken)

	require.NoError(t, svc.Delete(ctx, "i1", ana))
	_, found, _ := docs.GetDocument(ctx, "incidents", "i1")
	assert.False(t, found)
	_, ok := svc.Find("i1")
	assert.False(t, ok)

	assert.True(t, core.IsNotFoundError(svc.Delete(ctx, "i1", ana)))
	act.AssertExpectations(t)
}

func TestDelete_TargetMissingKeepsSessionUsable(t *testing.T) {
	svc, docs, _ := newService(t)
	require.NoError(t, docs.DeleteDocument(context.Background(), "incidents", "i1"))

	err := svc.Delete(context.Background(), "i1", ana)
	assert.ErrorIs(t, err, core.ErrTargetMissing)
	assert.Equal(t, errors.CodeTargetMissing, errors.GetCode(err))
	assert.Len(t, svc.Records(), 5)
}
