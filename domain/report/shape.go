package report

// SourceType names the physical layout a record was read from.
type SourceType string

const (
	SourceIndividual   SourceType = "individual"
	SourceMonthBased   SourceType = "month-based"
	SourceActionsArray SourceType = "actions-array"
	SourceReportsArray SourceType = "reports-array"
)

// Array field names recognised by the classifier.
const (
	MonthReportsField = "actionReports"
	ActionsField      = "actions"
	ReportsField      = "reports"
)

// Shape is the closed set of storage layouts. Implementations live in
// this package only.
type Shape interface {
	SourceType() SourceType
	// ArrayField is the document field holding the entries, empty for
	// one-record-per-document layouts.
	ArrayField() string
	isShape()
}

type IndividualShape struct{}

type MonthBasedShape struct{}

type ActionsArrayShape struct{}

type ReportsArrayShape struct{}

func (IndividualShape) SourceType() SourceType   { return SourceIndividual }
func (MonthBasedShape) SourceType() SourceType   { return SourceMonthBased }
func (ActionsArrayShape) SourceType() SourceType { return SourceActionsArray }
func (ReportsArrayShape) SourceType() SourceType { return SourceReportsArray }

func (IndividualShape) ArrayField() string   { return "" }
func (MonthBasedShape) ArrayField() string   { return MonthReportsField }
func (ActionsArrayShape) ArrayField() string { return ActionsField }
func (ReportsArrayShape) ArrayField() string { return ReportsField }

func (IndividualShape) isShape()   {}
func (MonthBasedShape) isShape()   {}
func (ActionsArrayShape) isShape() {}
func (ReportsArrayShape) isShape() {}

// ShapeOf maps a source type back to its shape. Unknown types are
// treated as individual documents.
func ShapeOf(t SourceType) Shape {
	switch t {
	case SourceMonthBased:
		return MonthBasedShape{}
	case SourceActionsArray:
		return ActionsArrayShape{}
	case SourceReportsArray:
		return ReportsArrayShape{}
	default:
		return IndividualShape{}
	}
}
