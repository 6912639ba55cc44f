package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fenwick-labs/raciforge/internal/matrix"
	"github.com/fenwick-labs/raciforge/internal/validate"
)

// ErrNotFound marks a lookup for a workshop that does not exist.
var ErrNotFound = errors.New("not found")

// Workshop is the stored workshop header.
type Workshop struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Fingerprint string `json:"fingerprint"`
	CreatedAt   string `json:"created_at"`
}

// StoredIssue is a persisted issue together with its row id and the
// activity's display text for reporting.
type StoredIssue struct {
	ID           int64 `json:"id"`
	matrix.Issue
	ActivityText string `json:"activity_text"`
}

// Action is a persisted action item.
type Action struct {
	ID      int64  `json:"id"`
	IssueID int64  `json:"issue_id,omitempty"`
	Summary string `json:"summary"`
	Status  string `json:"status"`
	Created string `json:"created_at"`
}

// Workshop returns the workshop header for an id.
func (s *Store) Workshop(ctx context.Context, id string) (Workshop, error) {
	var w Workshop
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, fingerprint, created_at FROM workshops WHERE id = ?
	`, id).Scan(&w.ID, &w.Name, &w.Fingerprint, &w.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Workshop{}, fmt.Errorf("workshop %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Workshop{}, fmt.Errorf("read workshop: %w", err)
	}
	return w, nil
}

// ListWorkshops returns all workshops, newest first.
func (s *Store) ListWorkshops(ctx context.Context) ([]Workshop, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, fingerprint, created_at FROM workshops ORDER BY created_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list workshops: %w", err)
	}
	defer rows.Close()

	var out []Workshop
	for rows.Next() {
		var w Workshop
		if err := rows.Scan(&w.ID, &w.Name, &w.Fingerprint, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("list workshops: scan: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// TemplateBytes returns the original template exactly as uploaded.
// Export reads this copy; it is never modified after CreateWorkshop.
func (s *Store) TemplateBytes(ctx context.Context, workshopID string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT template FROM workshops WHERE id = ?
	`, workshopID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("workshop %s: %w", workshopID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read template: %w", err)
	}
	return data, nil
}

// Activities returns a workshop's activities grouped by domain in
// domain discovery order, then by activity order index - the order the
// validation engine expects.
func (s *Store) Activities(ctx context.Context, workshopID string) ([]matrix.Activity, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.key, a.domain_key, a.text, COALESCE(a.section, ''), a.order_index, a.cell_map
		FROM activities a
		JOIN domains d ON d.workshop_id = a.workshop_id AND d.key = a.domain_key
		WHERE a.workshop_id = ?
		ORDER BY d.order_index, a.order_index
	`, workshopID)
	if err != nil {
		return nil, fmt.Errorf("read activities: %w", err)
	}
	defer rows.Close()

	var out []matrix.Activity
	for rows.Next() {
		var a matrix.Activity
		var cellMap string
		if err := rows.Scan(&a.Key, &a.Domain, &a.Text, &a.Section, &a.OrderIndex, &cellMap); err != nil {
			return nil, fmt.Errorf("read activities: scan: %w", err)
		}
		a.CellMap, err = unmarshalCellMap(cellMap)
		if err != nil {
			return nil, fmt.Errorf("read activities: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Roles returns a workshop's roles in domain order then header order.
func (s *Store) Roles(ctx context.Context, workshopID string) ([]matrix.Role, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.key, r.domain_key, r.name, r.column_index, r.order_index
		FROM roles r
		JOIN domains d ON d.workshop_id = r.workshop_id AND d.key = r.domain_key
		WHERE r.workshop_id = ?
		ORDER BY d.order_index, r.order_index
	`, workshopID)
	if err != nil {
		return nil, fmt.Errorf("read roles: %w", err)
	}
	defer rows.Close()

	var out []matrix.Role
	for rows.Next() {
		var r matrix.Role
		if err := rows.Scan(&r.Key, &r.Domain, &r.Name, &r.ColumnIndex, &r.OrderIndex); err != nil {
			return nil, fmt.Errorf("read roles: scan: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// AssignmentsByActivity returns the full current assignment snapshot
// keyed by activity.
func (s *Store) AssignmentsByActivity(ctx context.Context, workshopID string) (map[string][]matrix.Assignment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT activity_key, role_key, value
		FROM assignments
		WHERE workshop_id = ?
		ORDER BY activity_key, role_key
	`, workshopID)
	if err != nil {
		return nil, fmt.Errorf("read assignments: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]matrix.Assignment)
	for rows.Next() {
		var a matrix.Assignment
		var value string
		if err := rows.Scan(&a.ActivityKey, &a.RoleKey, &value); err != nil {
			return nil, fmt.Errorf("read assignments: scan: %w", err)
		}
		a.Value = matrix.Value(value)
		out[a.ActivityKey] = append(out[a.ActivityKey], a)
	}
	return out, rows.Err()
}

// RecommendedByActivity returns the recommended baseline keyed by
// activity. The map is empty when no baseline was supplied.
func (s *Store) RecommendedByActivity(ctx context.Context, workshopID string) (map[string][]matrix.Recommendation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT activity_key, role_key, value
		FROM recommended
		WHERE workshop_id = ?
		ORDER BY activity_key, role_key
	`, workshopID)
	if err != nil {
		return nil, fmt.Errorf("read recommended: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]matrix.Recommendation)
	for rows.Next() {
		var r matrix.Recommendation
		var value string
		if err := rows.Scan(&r.ActivityKey, &r.RoleKey, &value); err != nil {
			return nil, fmt.Errorf("read recommended: scan: %w", err)
		}
		r.Value = matrix.Value(value)
		out[r.ActivityKey] = append(out[r.ActivityKey], r)
	}
	return out, rows.Err()
}

// Snapshot loads everything the validation engine needs for one run:
// the ordered activity list plus a map-backed source over the current
// assignments and recommended baseline. The single-connection store
// guarantees the snapshot is consistent.
func (s *Store) Snapshot(ctx context.Context, workshopID string) (validate.Snapshot, validate.MapSource, error) {
	activities, err := s.Activities(ctx, workshopID)
	if err != nil {
		return validate.Snapshot{}, validate.MapSource{}, err
	}
	assignments, err := s.AssignmentsByActivity(ctx, workshopID)
	if err != nil {
		return validate.Snapshot{}, validate.MapSource{}, err
	}
	recommended, err := s.RecommendedByActivity(ctx, workshopID)
	if err != nil {
		return validate.Snapshot{}, validate.MapSource{}, err
	}

	snap := validate.Snapshot{Workshop: workshopID, Activities: activities}
	src := validate.MapSource{Assignments: assignments, Recommended: recommended}
	return snap, src, nil
}

// ListIssues returns a workshop's stored issues in creation order.
func (s *Store) ListIssues(ctx context.Context, workshopID string) ([]StoredIssue, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT i.id, i.activity_key, COALESCE(i.role_key, ''), i.issue_type, i.severity,
		       i.description, COALESCE(i.recommendation, ''), a.text
		FROM issues i
		JOIN activities a ON a.workshop_id = i.workshop_id AND a.key = i.activity_key
		WHERE i.workshop_id = ?
		ORDER BY i.id
	`, workshopID)
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	defer rows.Close()

	var out []StoredIssue
	for rows.Next() {
		var si StoredIssue
		var issueType, severity string
		if err := rows.Scan(&si.ID, &si.ActivityKey, &si.RoleKey, &issueType, &severity, &si.Description, &si.Recommendation, &si.ActivityText); err != nil {
			return nil, fmt.Errorf("list issues: scan: %w", err)
		}
		si.Workshop = workshopID
		si.Type = matrix.IssueType(issueType)
		si.Severity = matrix.Severity(severity)
		out = append(out, si)
	}
	return out, rows.Err()
}

// ListActions returns a workshop's action items in creation order.
func (s *Store) ListActions(ctx context.Context, workshopID string) ([]Action, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, COALESCE(issue_id, 0), summary, status, created_at
		FROM actions
		WHERE workshop_id = ?
		ORDER BY id
	`, workshopID)
	if err != nil {
		return nil, fmt.Errorf("list actions: %w", err)
	}
	defer rows.Close()

	var out []Action
	for rows.Next() {
		var a Action
		if err := rows.Scan(&a.ID, &a.IssueID, &a.Summary, &a.Status, &a.Created); err != nil {
			return nil, fmt.Errorf("list actions: scan: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Instructions returns the captured instruction-sheet text by sheet name.
func (s *Store) Instructions(ctx context.Context, workshopID string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sheet, content FROM instructions WHERE workshop_id = ?
	`, workshopID)
	if err != nil {
		return nil, fmt.Errorf("read instructions: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var sheet, content string
		if err := rows.Scan(&sheet, &content); err != nil {
			return nil, fmt.Errorf("read instructions: scan: %w", err)
		}
		out[sheet] = content
	}
	return out, rows.Err()
}
