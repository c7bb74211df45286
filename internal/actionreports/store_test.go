package actionreports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgocasting/ipatrollersys-sub002/adapters/memory"
	"github.com/pgocasting/ipatrollersys-sub002/domain/core"
	"github.com/pgocasting/ipatrollersys-sub002/domain/report"
)

func newStore() (*Store, *memory.DocumentStore) {
	docs := memory.NewDocumentStore()
	s := NewStore(docs, "actionReports", nil)
	s.now = func() time.Time { return time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC) }
	return s, docs
}

func TestCreate(t *testing.T) {
	s, docs := newStore()
	res := s.Create(context.Background(), report.CanonicalRecord{
		Department: "PNP",
		What:       "Theft",
		When:       report.Phrase("Today morning"),
	}, "ana")
	require.True(t, res.Success, res.Error)
	require.NotEmpty(t, res.ID)

	data, found, err := docs.GetDocument(context.Background(), "actionReports", res.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Theft", data["what"])
	assert.Equal(t, "Today morning", data["when"])
	assert.Equal(t, "ana", data["createdBy"])
	assert.Equal(t, res.ID, data["id"])
}

func TestCreateBatch_KeepsOrder(t *testing.T) {
	s, docs := newStore()
	ids, err := s.CreateBatch(context.Background(), []report.CanonicalRecord{
		{ID: "a", What: "one"},
		{ID: "b", What: "two"},
	}, "importer")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)

	all, _ := docs.GetAllDocuments(context.Background(), "actionReports")
	require.Len(t, all, 2)
	assert.Equal(t, "one", all[0].Data["what"])
}

func TestUpdate_MonthEntry(t *testing.T) {
	s, docs := newStore()
	docs.Put("actionReports", "2025-02", map[string]any{
		"actionReports": []any{
			map[string]any{"id": "x1", "what": "Theft", "actionTaken": "Pending"},
			map[string]any{"what": "Patrol"},
		},
	})

	res := s.Update(context.Background(), "x1", "2025-02", report.Patch{report.FieldActionTaken: "Resolved"}, "ana")
	require.True(t, res.Success, res.Error)
	res = s.Update(context.Background(), "2025-02#1", "2025-02", report.Patch{report.FieldWhere: "Pier"}, "ana")
	require.True(t, res.Success, res.Error)

	data, _, _ := docs.GetDocument(context.Background(), "actionReports", "2025-02")
	list := data["actionReports"].([]any)
	assert.Equal(t, "Resolved", list[0].(map[string]any)["actionTaken"])
	assert.Equal(t, "Pier", list[1].(map[string]any)["where"])
	assert.Equal(t, "ana", data["updatedBy"])
}

func TestUpdate_MonthEntryIDSpellings(t *testing.T) {
	s, docs := newStore()
	docs.Put("actionReports", "2025-02", map[string]any{
		"actionReports": []any{
			map[string]any{"ID": "X1", "what": "Theft"},
			map[string]any{"Id": "x2", "what": "Patrol"},
			map[string]any{"id": 7, "what": "Checkpoint"},
		},
	})
	ctx := context.Background()

	for _, id := range []string{"X1", "x2", "7"} {
		res := s.Update(ctx, id, "2025-02", report.Patch{report.FieldWhere: "Pier"}, "ana")
		require.True(t, res.Success, "%s: %s", id, res.Error)
	}
	data, _, _ := docs.GetDocument(ctx, "actionReports", "2025-02")
	for _, e := range data["actionReports"].([]any) {
		assert.Equal(t, "Pier", e.(map[string]any)["where"])
	}

	res := s.Delete(ctx, "7", "2025-02", "ana")
	require.True(t, res.Success, res.Error)
	data, _, _ = docs.GetDocument(ctx, "actionReports", "2025-02")
	assert.Len(t, data["actionReports"], 2)
}

func TestMissingTargets(t *testing.T) {
	s, docs := newStore()
	docs.Put("actionReports", "2025-03", map[string]any{"actionReports": []any{}})
	ctx := context.Background()

	res := s.Delete(ctx, "nope", "", "ana")
	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, core.ErrTargetMissing)

	res = s.Delete(ctx, "nope", "2025-03", "ana")
	assert.ErrorIs(t, res.Err, core.ErrTargetMissing)

	res = s.Update(ctx, "nope", "2025-09", report.Patch{report.FieldWhat: "x"}, "ana")
	assert.ErrorIs(t, res.Err, core.ErrTargetMissing)

	res = s.Update(ctx, "nope", "", report.Patch{report.FieldWhat: "x"}, "ana")
	assert.ErrorIs(t, res.Err, core.ErrTargetMissing)
	assert.NotEmpty(t, res.Error)
}
