package dedup_test

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgocasting/ipatrollersys-sub002/adapters/memory"
	"github.com/pgocasting/ipatrollersys-sub002/domain/core"
	"github.com/pgocasting/ipatrollersys-sub002/domain/report"
	"github.com/pgocasting/ipatrollersys-sub002/internal/actionreports"
	"github.com/pgocasting/ipatrollersys-sub002/internal/datetime"
	"github.com/pgocasting/ipatrollersys-sub002/internal/dedup"
	"github.com/pgocasting/ipatrollersys-sub002/internal/fieldmap"
	"github.com/pgocasting/ipatrollersys-sub002/internal/ingest"
	"github.com/pgocasting/ipatrollersys-sub002/internal/writeback"
	"github.com/pgocasting/ipatrollersys-sub002/ports"
)

var when = report.At(time.Date(2025, 1, 15, 8, 0, 0, 0, time.UTC))

func incident(id, collection string) report.CanonicalRecord {
	return report.CanonicalRecord{
		ID:           id,
		Department:   "PNP",
		Municipality: "Orani",
		District:     "1ST DISTRICT",
		What:         "Illegal Fishing",
		Where:        "Pier",
		When:         when,
		Provenance:   report.NewProvenance(collection, id, report.IndividualShape{}, 0),
	}
}

func TestPlan_KeepsEarliestOfThree(t *testing.T) {
	a := incident("a", "pnpReports")
	b := incident("b", "actionReports")
	b.What = "  illegal fishing "
	c := incident("c", "incidents")
	other := incident("d", "incidents")
	other.Where = "Market"

	groups := dedup.Plan([]report.CanonicalRecord{a, other, b, c})
	require.Len(t, groups, 1)
	assert.Equal(t, "a", groups[0].Keep.ID)
	require.Len(t, groups[0].Remove, 2)
	assert.Equal(t, "b", groups[0].Remove[0].ID)
	assert.Equal(t, "c", groups[0].Remove[1].ID)
	assert.Equal(t, 2, dedup.Removals(groups))
}

func TestPlan_DistinctWhenNotGrouped(t *testing.T) {
	a := incident("a", "x")
	b := incident("b", "x")
	b.When = report.At(time.Date(2025, 1, 16, 8, 0, 0, 0, time.UTC))
	assert.Empty(t, dedup.Plan([]report.CanonicalRecord{a, b}))
}

type recordingDeleter struct {
	fail    map[string]bool
	deleted []string
}

func (d *recordingDeleter) Delete(_ context.Context, rec report.CanonicalRecord, _ ports.Actor) error {
	if d.fail[rec.ID] {
		return stderrors.New("boom")
	}
	d.deleted = append(d.deleted, rec.ID)
	return nil
}

func TestExecute_RequiresConfirmation(t *testing.T) {
	del := &recordingDeleter{}
	d := dedup.New(del, nil)
	groups := dedup.Plan([]report.CanonicalRecord{incident("a", "x"), incident("b", "x")})

	_, err := d.Execute(context.Background(), groups, nil, ports.Actor{})
	assert.ErrorIs(t, err, core.ErrNotConfirmed)

	declined := dedup.ConfirmFunc(func(context.Context, []dedup.Group) bool { return false })
	_, err = d.Execute(context.Background(), groups, declined, ports.Actor{})
	assert.ErrorIs(t, err, core.ErrNotConfirmed)
	assert.Empty(t, del.deleted)
}

func TestExecute_FailuresDoNotAbort(t *testing.T) {
	del := &recordingDeleter{fail: map[string]bool{"b": true}}
	d := dedup.New(del, nil)
	groups := dedup.Plan([]report.CanonicalRecord{incident("a", "x"), incident("b", "x"), incident("c", "x")})

	out, err := d.Execute(context.Background(), groups, dedup.Confirmed, ports.Actor{Name: "ana"})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Deleted)
	assert.Equal(t, 1, out.Failed)
	assert.Len(t, out.Errors, 1)
	assert.Equal(t, []string{"c"}, del.deleted)
}

func TestExecute_SameArrayRemovedHighestIndexFirst(t *testing.T) {
	docs := memory.NewDocumentStore()
	entry := func() map[string]any {
		return map[string]any{
			"department": "PNP", "municipality": "Orani", "district": "1ST DISTRICT",
			"what": "Illegal Fishing", "where": "Pier", "when": "2025-01-15T08:00:00Z",
		}
	}
	docs.Put("pnpReports", "batch", map[string]any{
		"actions": []any{entry(), map[string]any{"what": "keep me"}, entry(), entry(), entry()},
	})

	entries, _ := ingest.NewIngestor(docs, nil, 1).Ingest(context.Background(), []ingest.Candidate{{Collection: "pnpReports"}})
	records := ingest.Normalize(entries, fieldmap.NewMapper(datetime.NewResolver()))
	groups := dedup.Plan(records)
	require.Len(t, groups, 1)
	require.Equal(t, 3, dedup.Removals(groups))

	writer := writeback.NewWriter(docs, actionreports.NewStore(docs, "actionReports", nil), "actionReports", nil)
	out, err := dedup.New(writer, nil).Execute(context.Background(), groups, dedup.Confirmed, ports.Actor{Name: "ana"})
	require.NoError(t, err)
	assert.Equal(t, 3, out.Deleted)
	assert.Zero(t, out.Failed)
	assert.Equal(t, []string{"batch#4", "batch#3", "batch#2"}, out.Removed)

	data, _, _ := docs.GetDocument(context.Background(), "pnpReports", "batch")
	list := data["actions"].([]any)
	require.Len(t, list, 2)
	assert.Equal(t, "Illegal Fishing", list[0].(map[string]any)["what"])
	assert.Equal(t, "keep me", list[1].(map[string]any)["what"])
}
