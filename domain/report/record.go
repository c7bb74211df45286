// Package report defines the canonical action-report record and the
// provenance needed to write edits back to the layout it came from.
package report

import "strings"

// Provenance records where a canonical record was read from.
type Provenance struct {
	SourceCollection string     `json:"sourceCollection"`
	SourceDocument   string     `json:"sourceDocument"`
	SourceType       SourceType `json:"sourceType"`
	// ReportIndex is nil for individual documents and the position inside
	// ArrayField for every other layout.
	ReportIndex *int   `json:"reportIndex,omitempty"`
	ArrayField  string `json:"arrayField,omitempty"`
}

// IsArray reports whether the record lives inside an array field.
func (p Provenance) IsArray() bool {
	return p.SourceType != SourceIndividual && p.ReportIndex != nil
}

// Index returns the array position or -1.
func (p Provenance) Index() int {
	if p.ReportIndex == nil {
		return -1
	}
	return *p.ReportIndex
}

// NewProvenance builds provenance for a shape, enforcing that only array
// layouts carry an index.
func NewProvenance(collection, document string, shape Shape, index int) Provenance {
	p := Provenance{
		SourceCollection: collection,
		SourceDocument:   document,
		SourceType:       shape.SourceType(),
		ArrayField:       shape.ArrayField(),
	}
	if shape.SourceType() != SourceIndividual {
		i := index
		p.ReportIndex = &i
	}
	return p
}

// CanonicalRecord is the normalized action report consumed by every
// dashboard view and export.
type CanonicalRecord struct {
	ID               string   `json:"id"`
	Department       string   `json:"department"`
	Municipality     string   `json:"municipality"`
	District         string   `json:"district"`
	What             string   `json:"what"`
	When             When     `json:"when"`
	Where            string   `json:"where"`
	ActionTaken      string   `json:"actionTaken"`
	Who              string   `json:"who,omitempty"`
	Why              string   `json:"why,omitempty"`
	How              string   `json:"how,omitempty"`
	Gender           string   `json:"gender,omitempty"`
	Source           string   `json:"source,omitempty"`
	OtherInformation string   `json:"otherInformation,omitempty"`
	Photos           []string `json:"photos,omitempty"`

	Provenance Provenance `json:"provenance"`
}

// Payload renders the record with canonical keys, the way new documents
// and rewritten array entries are stored.
func (r CanonicalRecord) Payload() map[string]any {
	photos := make([]any, 0, len(r.Photos))
	for _, p := range r.Photos {
		photos = append(photos, p)
	}
	return map[string]any{
		FieldID:               r.ID,
		FieldDepartment:       r.Department,
		FieldMunicipality:     r.Municipality,
		FieldDistrict:         r.District,
		FieldWhat:             r.What,
		FieldWhen:             r.When.StorageValue(),
		FieldWhere:            r.Where,
		FieldActionTaken:      r.ActionTaken,
		FieldWho:              r.Who,
		FieldWhy:              r.Why,
		FieldHow:              r.How,
		FieldGender:           r.Gender,
		FieldSource:           r.Source,
		FieldOtherInformation: r.OtherInformation,
		FieldPhotos:           photos,
	}
}

// Field returns a string field by canonical name.
func (r CanonicalRecord) Field(name string) string {
	switch name {
	case FieldID:
		return r.ID
	case FieldDepartment:
		return r.Department
	case FieldMunicipality:
		return r.Municipality
	case FieldDistrict:
		return r.District
	case FieldWhat:
		return r.What
	case FieldWhen:
		return r.When.Format()
	case FieldWhere:
		return r.Where
	case FieldActionTaken:
		return r.ActionTaken
	case FieldWho:
		return r.Who
	case FieldWhy:
		return r.Why
	case FieldHow:
		return r.How
	case FieldGender:
		return r.Gender
	case FieldSource:
		return r.Source
	case FieldOtherInformation:
		return r.OtherInformation
	case FieldPhotos:
		return strings.Join(r.Photos, " ")
	}
	return ""
}

// DedupeURLs removes repeated URLs keeping first-seen order.
func DedupeURLs(urls []string) []string {
	if len(urls) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
