package report

// Canonical field names. These are also the keys used when a canonical
// record is written back to storage.
const (
	FieldID               = "id"
	FieldDepartment       = "department"
	FieldMunicipality     = "municipality"
	FieldDistrict         = "district"
	FieldWhat             = "what"
	FieldWhen             = "when"
	FieldWhere            = "where"
	FieldActionTaken      = "actionTaken"
	FieldWho              = "who"
	FieldWhy              = "why"
	FieldHow              = "how"
	FieldGender           = "gender"
	FieldSource           = "source"
	FieldOtherInformation = "otherInformation"
	FieldPhotos           = "photos"
	FieldDocuments        = "documents"

	// FieldDate is the legacy name some locations use instead of "when".
	FieldDate = "date"

	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
	FieldCreatedBy = "createdBy"
	FieldUpdatedBy = "updatedBy"
)

// CanonicalFields lists every canonical field in display order.
var CanonicalFields = []string{
	FieldDepartment,
	FieldMunicipality,
	FieldDistrict,
	FieldWhat,
	FieldWhen,
	FieldWhere,
	FieldActionTaken,
	FieldWho,
	FieldWhy,
	FieldHow,
	FieldGender,
	FieldSource,
	FieldOtherInformation,
	FieldPhotos,
}

// Patch is a set of canonical field edits.
type Patch map[string]any
