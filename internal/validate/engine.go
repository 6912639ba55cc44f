package validate

import (
	"fmt"
	"log/slog"

	"github.com/fenwick-labs/raciforge/internal/matrix"
)

// DefaultOverloadThreshold is the R/A load above which a role is flagged
// as overloaded, unless the caller supplies a different threshold.
const DefaultOverloadThreshold = 10

// Policy selects the severity rule set. The source material carries two
// conflicting severities for a missing Responsible; rather than guessing
// which is intended, the choice is a configuration knob pending a
// product decision.
type Policy string

const (
	PolicyStrict  Policy = "strict"  // missing_R is high severity
	PolicyLenient Policy = "lenient" // missing_R is medium severity
)

// Valid reports whether p is a known policy.
func (p Policy) Valid() bool {
	return p == PolicyStrict || p == PolicyLenient
}

// Source supplies the assignment snapshot and optional recommended
// baseline for activities. Implementations must return a consistent
// snapshot: validation must never observe a partially applied bulk
// update. The store satisfies this; MapSource serves tests and
// pre-loaded snapshots.
type Source interface {
	AssignmentsFor(activityKey string) []matrix.Assignment
	RecommendedFor(activityKey string) []matrix.Recommendation
}

// MapSource is a Source backed by plain maps.
type MapSource struct {
	Assignments map[string][]matrix.Assignment
	Recommended map[string][]matrix.Recommendation
}

func (m MapSource) AssignmentsFor(activityKey string) []matrix.Assignment {
	return m.Assignments[activityKey]
}

func (m MapSource) RecommendedFor(activityKey string) []matrix.Recommendation {
	return m.Recommended[activityKey]
}

// Snapshot is the immutable input to one validation run: the workshop
// identifier and its activities, grouped by domain in order index order.
type Snapshot struct {
	Workshop   string
	Activities []matrix.Activity
}

// Summary aggregates counts over one validation run.
type Summary struct {
	TotalIssues       int                      `json:"total_issues"`
	ActivitiesChecked int                      `json:"activities_checked"`
	ByType            map[matrix.IssueType]int `json:"by_type"`
	BySeverity        map[matrix.Severity]int  `json:"by_severity"`
}

// Report is the ordered output of one validation run.
type Report struct {
	Workshop string         `json:"workshop"`
	Issues   []matrix.Issue `json:"issues"`
	Summary  Summary        `json:"summary"`
}

// IntegrityFault reports an assignment or baseline entry referencing an
// activity or role not present in the supplied snapshot. This is a
// caller/integration bug, surfaced fatally rather than silently dropped.
type IntegrityFault struct {
	ActivityKey string
	RoleKey     string
	Detail      string
}

func (f *IntegrityFault) Error() string {
	return fmt.Sprintf("integrity fault: %s (activity %q, role %q)", f.Detail, f.ActivityKey, f.RoleKey)
}

// Engine evaluates the rule set over assignment snapshots.
// Engines are immutable after construction and safe for concurrent use;
// every run takes its own snapshot and returns an independent report.
type Engine struct {
	threshold int
	policy    Policy
}

// Option configures an Engine.
type Option func(*Engine)

// WithOverloadThreshold sets the R/A load threshold for the role
// overload rule. A role with exactly threshold assignments is fine;
// threshold+1 is flagged.
func WithOverloadThreshold(n int) Option {
	return func(e *Engine) {
		e.threshold = n
	}
}

// WithPolicy selects the severity rule set.
func WithPolicy(p Policy) Option {
	return func(e *Engine) {
		e.policy = p
	}
}

// New creates an Engine with the default threshold and strict policy.
func New(opts ...Option) *Engine {
	e := &Engine{
		threshold: DefaultOverloadThreshold,
		policy:    PolicyStrict,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Validate runs the full rule set over one workshop snapshot.
//
// Per-activity rules run in fixed order with no short-circuiting, so a
// single activity can generate several issues. The workshop-level role
// overload rule runs once afterwards over the aggregated load. The issue
// list order is deterministic: activities in snapshot order, rules in
// declaration order, then overloaded roles in first-observed order.
func (e *Engine) Validate(snap Snapshot, src Source) (*Report, error) {
	report := &Report{
		Workshop: snap.Workshop,
		Summary: Summary{
			ActivitiesChecked: len(snap.Activities),
			ByType:            make(map[matrix.IssueType]int),
			BySeverity:        make(map[matrix.Severity]int),
		},
	}

	// Role R/A load aggregated across all activities, with the last
	// observed activity per role kept as the issue anchor (documented
	// tie-break). roleOrder fixes deterministic emission order.
	loads := make(map[string]int)
	lastActivity := make(map[string]string)
	var roleOrder []string

	for _, activity := range snap.Activities {
		assignments := src.AssignmentsFor(activity.Key)
		counts, err := tallyAssignments(activity, assignments)
		if err != nil {
			return nil, err
		}

		for _, issue := range e.activityIssues(snap.Workshop, activity, counts) {
			report.add(issue)
		}

		deviations, err := e.deviationIssues(snap.Workshop, activity, assignments, src.RecommendedFor(activity.Key))
		if err != nil {
			return nil, err
		}
		for _, issue := range deviations {
			report.add(issue)
		}

		for _, a := range assignments {
			if a.Value != matrix.ValueResponsible && a.Value != matrix.ValueAccountable {
				continue
			}
			if _, seen := loads[a.RoleKey]; !seen {
				roleOrder = append(roleOrder, a.RoleKey)
			}
			loads[a.RoleKey]++
			lastActivity[a.RoleKey] = activity.Key
		}
	}

	for _, roleKey := range roleOrder {
		if loads[roleKey] <= e.threshold {
			continue
		}
		report.add(matrix.Issue{
			Workshop:       snap.Workshop,
			ActivityKey:    lastActivity[roleKey],
			RoleKey:        roleKey,
			Type:           matrix.IssueRoleOverload,
			Severity:       matrix.SeverityMedium,
			Description:    fmt.Sprintf("Role %s holds %d R/A assignments (threshold %d)", roleKey, loads[roleKey], e.threshold),
			Recommendation: "Redistribute A/R load to reduce bottlenecks.",
		})
	}

	slog.Info("validation complete",
		"workshop", snap.Workshop,
		"activities", report.Summary.ActivitiesChecked,
		"issues", report.Summary.TotalIssues,
	)

	return report, nil
}

// add appends an issue and updates the summary tallies.
func (r *Report) add(issue matrix.Issue) {
	r.Issues = append(r.Issues, issue)
	r.Summary.TotalIssues++
	r.Summary.ByType[issue.Type]++
	r.Summary.BySeverity[issue.Severity]++
}

// tallyAssignments counts assignments per value for one activity,
// checking referential integrity as it goes. Every assignment must name
// the activity it belongs to exactly; unknown activity or role
// references abort the run, and an unknown role must never be silently
// created by the tally.
func tallyAssignments(activity matrix.Activity, assignments []matrix.Assignment) (map[matrix.Value]int, error) {
	counts := make(map[matrix.Value]int)
	for _, a := range assignments {
		if a.ActivityKey != activity.Key {
			return nil, &IntegrityFault{
				ActivityKey: a.ActivityKey,
				RoleKey:     a.RoleKey,
				Detail:      "assignment references an activity outside the snapshot",
			}
		}
		if _, known := activity.CellMap[a.RoleKey]; !known {
			return nil, &IntegrityFault{
				ActivityKey: activity.Key,
				RoleKey:     a.RoleKey,
				Detail:      "assignment references a role unknown to the activity's domain",
			}
		}
		if a.Value.IsSet() {
			counts[a.Value]++
		}
	}
	return counts, nil
}

// activityIssues evaluates rules 1-4 for one activity, in fixed order.
func (e *Engine) activityIssues(workshop string, activity matrix.Activity, counts map[matrix.Value]int) []matrix.Issue {
	var issues []matrix.Issue
	emit := func(t matrix.IssueType, sev matrix.Severity, desc, rec string) {
		issues = append(issues, matrix.Issue{
			Workshop:       workshop,
			ActivityKey:    activity.Key,
			Type:           t,
			Severity:       sev,
			Description:    desc,
			Recommendation: rec,
		})
		slog.Debug("rule fired", "workshop", workshop, "activity", activity.Text, "type", t)
	}

	if counts[matrix.ValueAccountable] == 0 {
		emit(matrix.IssueMissingAccountable, matrix.SeverityHigh,
			"Accountable role not selected",
			"Choose exactly one Accountable for this activity.")
	}
	if counts[matrix.ValueAccountable] > 1 {
		emit(matrix.IssueMultipleAccountable, matrix.SeverityHigh,
			"Multiple Accountable roles detected",
			"Confirm a single Accountable and move others to R/C/I.")
	}
	if counts[matrix.ValueResponsible] == 0 {
		emit(matrix.IssueMissingResponsible, e.missingResponsibleSeverity(),
			"Responsible role missing",
			"Assign at least one Responsible role to do the work.")
	}
	if counts[matrix.ValueResponsible] > 0 && counts[matrix.ValueInformed] == 0 {
		emit(matrix.IssueCommunicationGap, matrix.SeverityMedium,
			"Responsibilities defined without Inform recipients",
			"Identify who must be Informed when work is performed.")
	}

	return issues
}

// deviationIssues evaluates rule 5: every baseline pair whose actual
// assigned value (including "no assignment") differs from the
// recommended value yields one low-severity issue naming both values.
func (e *Engine) deviationIssues(workshop string, activity matrix.Activity, assignments []matrix.Assignment, recommended []matrix.Recommendation) ([]matrix.Issue, error) {
	if len(recommended) == 0 {
		return nil, nil
	}

	actual := make(map[string]matrix.Value, len(assignments))
	for _, a := range assignments {
		actual[a.RoleKey] = a.Value
	}

	var issues []matrix.Issue
	for _, rec := range recommended {
		if _, known := activity.CellMap[rec.RoleKey]; !known {
			return nil, &IntegrityFault{
				ActivityKey: activity.Key,
				RoleKey:     rec.RoleKey,
				Detail:      "recommended baseline references a role unknown to the activity's domain",
			}
		}
		assigned := actual[rec.RoleKey]
		if assigned == rec.Value {
			continue
		}
		issues = append(issues, matrix.Issue{
			Workshop:       workshop,
			ActivityKey:    activity.Key,
			RoleKey:        rec.RoleKey,
			Type:           matrix.IssueDeviation,
			Severity:       matrix.SeverityLow,
			Description:    fmt.Sprintf("Recommended %s, assigned %s", rec.Value.Display(), assigned.Display()),
			Recommendation: "Align with the recommended baseline or record why this deviates.",
		})
	}
	return issues, nil
}

// missingResponsibleSeverity maps the configured policy to the missing_R
// severity.
func (e *Engine) missingResponsibleSeverity() matrix.Severity {
	if e.policy == PolicyLenient {
		return matrix.SeverityMedium
	}
	return matrix.SeverityHigh
}
