package matrix

// CellRef is an absolute spreadsheet coordinate, 1-based in both axes.
// A CellRef captured from a given template is only meaningful against
// that exact template's layout; if the template is edited externally the
// coordinate may no longer correspond to the same logical row.
type CellRef struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Valid reports whether the coordinate lies inside a spreadsheet.
func (c CellRef) Valid() bool {
	return c.Row >= 1 && c.Col >= 1
}

// Domain is a named scope of activities, one per parsed matrix sheet.
// Created once at parse time and immutable thereafter.
type Domain struct {
	Key         string `json:"key"`          // sheet name
	DisplayName string `json:"display_name"` //
	OrderIndex  int    `json:"order_index"`  // sheet discovery order
}

// Role is a named accountable/responsible party, scoped to a domain.
// The same person or title appearing in two domains produces two
// distinct Role records with distinct keys.
type Role struct {
	Key         string `json:"key"`          // domain key + ":" + canonical name
	Name        string `json:"name"`         //
	Domain      string `json:"domain"`       // owning domain key
	ColumnIndex int    `json:"column_index"` // absolute header column in the sheet
	OrderIndex  int    `json:"order_index"`  // 1-based position among detected roles
}

// Activity is one matrix row representing a unit of work.
//
// CellMap associates every role in the activity's domain with the
// absolute coordinate where that role's value is (or was) written,
// captured regardless of whether a value was present at parse time.
// InitialValues holds the valid RACI values found in those cells when
// the template was parsed; they seed downstream assignment creation but
// are not themselves the authoritative assignment store.
type Activity struct {
	Key           string             `json:"key"`
	Domain        string             `json:"domain"`
	Text          string             `json:"text"`
	Section       string             `json:"section,omitempty"` // nearest preceding section header, if any
	OrderIndex    int                `json:"order_index"`       // monotonic within the sheet
	CellMap       map[string]CellRef `json:"cell_map"`          // role key -> coordinate
	InitialValues map[string]Value   `json:"initial_values,omitempty"`
}

// Assignment is the externally owned mutable fact (activity, role, value).
// The core only ever reads snapshots of assignments.
type Assignment struct {
	ActivityKey string `json:"activity_key"`
	RoleKey     string `json:"role_key"`
	Value       Value  `json:"value"`
}

// Recommendation is a precomputed expected value for (activity, role),
// supplied as read-only input to the deviation rule.
type Recommendation struct {
	ActivityKey string `json:"activity_key"`
	RoleKey     string `json:"role_key"`
	Value       Value  `json:"value"`
}

// Severity classifies how serious a validation issue is.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// IssueType enumerates the structural problems the validation engine
// detects.
type IssueType string

const (
	IssueMissingAccountable  IssueType = "missing_A"
	IssueMultipleAccountable IssueType = "multiple_A"
	IssueMissingResponsible  IssueType = "missing_R"
	IssueCommunicationGap    IssueType = "communication_gap"
	IssueDeviation           IssueType = "deviation_from_recommended"
	IssueRoleOverload        IssueType = "role_overload"
)

// Issue is a structural problem detected by the validation engine for a
// specific activity, optionally anchored to a specific role.
// Issues are created fresh on each validation run; clearing previous
// runs is the caller's responsibility.
type Issue struct {
	Workshop       string    `json:"workshop"`
	ActivityKey    string    `json:"activity_key"`
	RoleKey        string    `json:"role_key,omitempty"`
	Type           IssueType `json:"type"`
	Severity       Severity  `json:"severity"`
	Description    string    `json:"description"`
	Recommendation string    `json:"recommendation,omitempty"`
}
