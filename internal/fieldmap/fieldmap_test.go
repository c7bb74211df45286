package fieldmap

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgocasting/ipatrollersys-sub002/domain/report"
	"github.com/pgocasting/ipatrollersys-sub002/internal/datetime"
)

var fixedNow = time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC)

func testMapper() *Mapper {
	return NewMapper(&datetime.Resolver{Now: func() time.Time { return fixedNow }})
}

func TestLookup_FirstNonEmptyWins(t *testing.T) {
	payload := map[string]any{
		"what": "  ",
		"What": "Illegal fishing",
		"WHAT": "ignored",
	}
	key, v, ok := Generic.Lookup(payload, report.FieldWhat)
	require.True(t, ok)
	assert.Equal(t, "What", key)
	assert.Equal(t, "Illegal fishing", v)
}

func TestLookup_NormalizedKeyFallback(t *testing.T) {
	payload := map[string]any{"action_taken": "Arrested"}
	key, v, ok := Generic.Lookup(payload, report.FieldActionTaken)
	require.True(t, ok)
	assert.Equal(t, "action_taken", key)
	assert.Equal(t, "Arrested", v)
}

func TestTable_StringDefaults(t *testing.T) {
	assert.Equal(t, "Pending", Agriculture.String(map[string]any{}, report.FieldActionTaken))
	assert.Equal(t, "", Generic.String(map[string]any{}, report.FieldActionTaken))
}

func TestForDepartment(t *testing.T) {
	assert.Same(t, Agriculture, ForDepartment("Agriculture"))
	assert.Same(t, Agriculture, ForDepartment("AGRI office"))
	assert.Same(t, PGENRO, ForDepartment("PG-ENRO"))
	assert.Same(t, Generic, ForDepartment("PNP"))
	assert.Same(t, Generic, ForDepartment(""))
}

func TestVariants(t *testing.T) {
	assert.Equal(t,
		[]string{"otherInformation", "Other Information", "OTHER INFORMATION", "OTHER_INFORMATION"},
		variants(report.FieldOtherInformation))
	assert.Equal(t, []string{"what", "What", "WHAT"}, variants(report.FieldWhat))
}

func TestMap_GenericPayload(t *testing.T) {
	payload := map[string]any{
		"Department":   "PNP",
		"MUNICIPALITY": "Abucay",
		"district":     "1ST DISTRICT",
		"what":         "Illegal fishing",
		"date":         "2025-01-15T08:30:00Z",
		"Where":        "Brgy. Mabatang",
		"actionTaken":  "nahuli",
		"photos":       []any{"https://a/1.jpg", "https://a/1.jpg", "https://a/2.jpg"},
	}
	rec := testMapper().Map(payload, "")

	assert.Equal(t, "PNP", rec.Department)
	assert.Equal(t, "Abucay", rec.Municipality)
	assert.Equal(t, "1ST DISTRICT", rec.District)
	assert.Equal(t, "Illegal fishing", rec.What)
	assert.Equal(t, "Brgy. Mabatang", rec.Where)
	assert.Equal(t, "Arrested", rec.ActionTaken)
	assert.Equal(t, []string{"https://a/1.jpg", "https://a/2.jpg"}, rec.Photos)
	at, ok := rec.When.Time()
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 1, 15, 8, 30, 0, 0, time.UTC), at)
}

func TestMap_AgricultureHeaders(t *testing.T) {
	payload := map[string]any{
		"Complaint / Report":     "Use of fine mesh nets",
		"Location":               "Pilar coastline",
		"Date Received":          "45672",
		"Observation / Findings": "Nets confiscated",
		"Documents":              "https://drive/x, https://drive/y",
		"photos":                 []any{"https://drive/x"},
	}
	rec := testMapper().Map(payload, "Agriculture")

	assert.Equal(t, "Agriculture", rec.Department)
	assert.Equal(t, "Use of fine mesh nets", rec.What)
	assert.Equal(t, "Pilar coastline", rec.Where)
	assert.Equal(t, "Nets confiscated", rec.How)
	assert.Equal(t, "Pending", rec.ActionTaken)
	assert.Equal(t, []string{"https://drive/x", "https://drive/y"}, rec.Photos)
	at, ok := rec.When.Time()
	require.True(t, ok)
	assert.Equal(t, "2025-01-15", at.Format("2006-01-02"))
}

func TestMap_PayloadRoundTripIsStable(t *testing.T) {
	m := testMapper()
	payload := map[string]any{
		"department":   "Agriculture",
		"municipality": " Orion ",
		"district":     "2ND DISTRICT",
		"What":         "Dynamite fishing",
		"when":         "Yesterday morning",
		"where":        "Sitio Wawa",
		"Action Taken": "iniimbestigahan",
	}
	first := m.Map(payload, "")
	second := m.Map(first.Payload(), "")
	assert.Equal(t, first, second)
	w, ok := second.When.Phrase()
	require.True(t, ok)
	assert.Equal(t, "Yesterday morning", w)
}

func TestSourceKey(t *testing.T) {
	payload := map[string]any{"Complaint / Report": "x", "Where": "y"}
	assert.Equal(t, "Complaint / Report", SourceKey(payload, "Agriculture", report.FieldWhat))
	assert.Equal(t, "Where", SourceKey(payload, "PNP", report.FieldWhere))
	assert.Equal(t, "who", SourceKey(payload, "PNP", report.FieldWho))
}

func TestExtractLinks(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", nil},
		{"comma separated", "https://a.com/1, https://b.com/2", []string{"https://a.com/1", "https://b.com/2"}},
		{"prose", "see http://x.org/doc.pdf also drive.google.com/file/1", []string{"http://x.org/doc.pdf"}},
		{"newlines and tabs", "https://a.com/1\n\thttps://b.com/2", []string{"https://a.com/1", "https://b.com/2"}},
		{"path-like tokens", "see page 3/4.5 and drive.google.com/file/1, report.pdf/v2", nil},
		{"other schemes", "ftp://a.com/x https:// mailto:x@y.z", nil},
		{"duplicates", "https://a.com/1;https://a.com/1", []string{"https://a.com/1"}},
		{"no links", "none attached", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractLinks(tt.in))
		})
	}
}

func TestDetectLocation(t *testing.T) {
	tests := []struct {
		name, muni, location string
		wantMuni, wantDist   string
	}{
		{"explicit", "Hermosa", "", "Hermosa", "1ST DISTRICT"},
		{"lowercase explicit", "mariveles", "", "Mariveles", "3RD DISTRICT"},
		{"short alias", "Balanga", "", "Balanga City", "2ND DISTRICT"},
		{"from location text", "", "Brgy. Tenejero, Balanga", "Balanga City", "2ND DISTRICT"},
		{"prefix of name", "Dinalu", "", "Dinalupihan", "3RD DISTRICT"},
		{"too short to reverse match", "or", "", "or", ""},
		{"unknown", "Quezon City", "Cubao", "Quezon City", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, d := DetectLocation(tt.muni, tt.location)
			assert.Equal(t, tt.wantMuni, m)
			assert.Equal(t, tt.wantDist, d)
		})
	}
}

func TestDistrictOf(t *testing.T) {
	assert.Equal(t, "2ND DISTRICT", DistrictOf("limay"))
	assert.Equal(t, "", DistrictOf("Nowhere"))
}

func TestFormatSpreadsheetDate(t *testing.T) {
	assert.Equal(t, "2025-01-15", FormatSpreadsheetDate(45672.0))
	assert.Equal(t, "2025-01-15", FormatSpreadsheetDate("45672"))
	assert.Equal(t, "January 15, 2025", FormatSpreadsheetDate("January 15, 2025"))
	assert.Equal(t, "2025-01-15", FormatSpreadsheetDate(FormatSpreadsheetDate(45672)))
	assert.Equal(t, 1736899200000.0, FormatSpreadsheetDate(1736899200000.0))
}

func TestStringify(t *testing.T) {
	assert.Equal(t, "3", Stringify(3.0))
	assert.Equal(t, "2.5", Stringify(2.5))
	assert.Equal(t, "a, b", Stringify([]any{"a", " ", "b"}))
	assert.Equal(t, "", Stringify(nil))
}

func TestApplyPatch_KeepsOriginalKeys(t *testing.T) {
	payload := map[string]any{"Complaint / Report": "old", "Location": "Pilar"}
	patch := report.Patch{
		report.FieldWhat:   "new",
		report.FieldWhen:   report.Phrase("Today morning"),
		report.FieldPhotos: []string{"https://a/1"},
	}
	require.NoError(t, ValidatePatch(patch))

	out := ApplyPatch(payload, "Agriculture", patch)
	assert.Equal(t, "new", out["Complaint / Report"])
	assert.Equal(t, "Pilar", out["Location"])
	assert.Equal(t, "Today morning", out["when"])
	assert.Equal(t, []any{"https://a/1"}, out["photos"])
	assert.NotContains(t, out, "what")
	assert.Equal(t, "old", payload["Complaint / Report"])
}

func TestValidatePatch(t *testing.T) {
	assert.Error(t, ValidatePatch(report.Patch{}))
	assert.Error(t, ValidatePatch(report.Patch{"provenance": "x"}))
	assert.NoError(t, ValidatePatch(report.Patch{report.FieldActionTaken: "Resolved"}))
}
