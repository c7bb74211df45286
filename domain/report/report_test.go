package report

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsSentinel(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"", true},
		{"   ", true},
		{"unknown", true},
		{"UNKNOWN", true},
		{" Unknown Location ", true},
		{"No description available", true},
		{"no description", true},
		{"Theft", false},
		{"Unknown caller reported theft", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsSentinel(tt.value), "IsSentinel(%q)", tt.value)
	}
}

func TestMissingCritical(t *testing.T) {
	r := CanonicalRecord{
		Department:   "PNP",
		Municipality: "unknown",
		District:     "1ST DISTRICT",
		What:         "Theft",
		Where:        "Market",
	}
	assert.Equal(t, []string{FieldMunicipality}, r.MissingCritical())
}

func TestNewProvenance(t *testing.T) {
	p := NewProvenance("actionReports", "doc-1", IndividualShape{}, 3)
	assert.Nil(t, p.ReportIndex)
	assert.Equal(t, -1, p.Index())
	assert.False(t, p.IsArray())

	p = NewProvenance("patrols", "doc-2", ActionsArrayShape{}, 3)
	require.NotNil(t, p.ReportIndex)
	assert.Equal(t, 3, *p.ReportIndex)
	assert.Equal(t, ActionsField, p.ArrayField)
	assert.True(t, p.IsArray())
}

func TestShapeOfRoundTrip(t *testing.T) {
	for _, s := range []Shape{IndividualShape{}, MonthBasedShape{}, ActionsArrayShape{}, ReportsArrayShape{}} {
		assert.Equal(t, s, ShapeOf(s.SourceType()))
	}
	assert.Equal(t, IndividualShape{}, ShapeOf("something-else"))
}

func TestWhenUnion(t *testing.T) {
	instant := time.Date(2023, 3, 15, 8, 30, 0, 0, time.UTC)

	w := At(instant)
	_, isPhrase := w.Phrase()
	assert.False(t, isPhrase)
	got, ok := w.Time()
	assert.True(t, ok)
	assert.True(t, got.Equal(instant))
	assert.Equal(t, "2023-03-15 08:30", w.Format())

	p := Phrase("Yesterday at about 3:00 PM")
	_, ok = p.Time()
	assert.False(t, ok)
	assert.Equal(t, "Yesterday at about 3:00 PM", p.Format())
	assert.False(t, p.Equal(w))
}

func TestWhenJSON(t *testing.T) {
	for _, w := range []When{
		At(time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)),
		Phrase("this morning"),
	} {
		data, err := json.Marshal(w)
		require.NoError(t, err)

		var back When
		require.NoError(t, json.Unmarshal(data, &back))
		assert.True(t, w.Equal(back), "round trip of %s", data)
	}
}

func TestDuplicateKeyNormalizesWhatAndWhitespace(t *testing.T) {
	when := At(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
	a := CanonicalRecord{Department: "PNP", Municipality: "Orani", District: "1ST DISTRICT", What: " Theft ", Where: "Public  Market", When: when}
	b := CanonicalRecord{Department: "PNP", Municipality: "Orani", District: "1ST DISTRICT", What: "THEFT", Where: "Public Market", When: when, Who: "someone else"}
	assert.Equal(t, DuplicateKey(a), DuplicateKey(b))

	b.Where = "Plaza"
	assert.NotEqual(t, DuplicateKey(a), DuplicateKey(b))
}

func TestImportKeyIsExact(t *testing.T) {
	a := CanonicalRecord{What: "Theft", Where: "Market", Municipality: "Orani", Department: "PNP"}
	b := a
	b.What = "theft"
	assert.NotEqual(t, ImportKey(a), ImportKey(b))
	b.What = " Theft "
	assert.Equal(t, ImportKey(a), ImportKey(b))
}

func TestDedupeURLs(t *testing.T) {
	got := DedupeURLs([]string{"https://a", " https://b", "https://a", "", "https://b "})
	assert.Equal(t, []string{"https://a", "https://b"}, got)
	assert.Nil(t, DedupeURLs(nil))
}
