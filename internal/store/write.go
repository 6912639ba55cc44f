package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/fenwick-labs/raciforge/internal/matrix"
	"github.com/fenwick-labs/raciforge/internal/parser"
)

// CreateWorkshop persists one parsed template as a new workshop and
// returns its identifier. The raw template bytes are stored alongside
// the parsed records so the exporter can re-open the exact workbook the
// coordinates were captured from.
//
// Initial cell values found at parse time seed the assignments table;
// they are ordinary assignments from then on and can be superseded via
// UpsertAssignment.
func (s *Store) CreateWorkshop(ctx context.Context, name string, template []byte, res *parser.Result) (string, error) {
	id := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("create workshop: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	_, err = tx.ExecContext(ctx, `
		INSERT INTO workshops (id, name, fingerprint, template)
		VALUES (?, ?, ?, ?)
	`, id, name, res.Fingerprint, template)
	if err != nil {
		return "", fmt.Errorf("create workshop: insert workshop: %w", err)
	}

	for _, d := range res.Domains {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO domains (workshop_id, key, display_name, order_index)
			VALUES (?, ?, ?, ?)
		`, id, d.Key, d.DisplayName, d.OrderIndex)
		if err != nil {
			return "", fmt.Errorf("create workshop: insert domain %q: %w", d.Key, err)
		}
	}

	for _, r := range res.Roles {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO roles (workshop_id, key, domain_key, name, column_index, order_index)
			VALUES (?, ?, ?, ?, ?, ?)
		`, id, r.Key, r.Domain, r.Name, r.ColumnIndex, r.OrderIndex)
		if err != nil {
			return "", fmt.Errorf("create workshop: insert role %q: %w", r.Key, err)
		}
	}

	for _, a := range res.Activities {
		cellMap, err := marshalCellMap(a.CellMap)
		if err != nil {
			return "", fmt.Errorf("create workshop: activity %q: %w", a.Text, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO activities (workshop_id, key, domain_key, text, section, order_index, cell_map)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, id, a.Key, a.Domain, a.Text, nullable(a.Section), a.OrderIndex, cellMap)
		if err != nil {
			return "", fmt.Errorf("create workshop: insert activity %q: %w", a.Text, err)
		}

		for roleKey, value := range a.InitialValues {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO assignments (workshop_id, activity_key, role_key, value)
				VALUES (?, ?, ?, ?)
				ON CONFLICT(workshop_id, activity_key, role_key) DO NOTHING
			`, id, a.Key, roleKey, string(value))
			if err != nil {
				return "", fmt.Errorf("create workshop: seed assignment: %w", err)
			}
		}
	}

	for sheet, content := range res.Instructions {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO instructions (workshop_id, sheet, content) VALUES (?, ?, ?)
		`, id, sheet, content)
		if err != nil {
			return "", fmt.Errorf("create workshop: insert instructions %q: %w", sheet, err)
		}
	}

	for sheet, values := range res.Lists {
		for pos, value := range values {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO list_values (workshop_id, sheet, position, value) VALUES (?, ?, ?, ?)
			`, id, sheet, pos, value)
			if err != nil {
				return "", fmt.Errorf("create workshop: insert list %q: %w", sheet, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("create workshop: commit: %w", err)
	}

	return id, nil
}

// UpsertAssignment records the current value for (activity, role).
// An unset value clears the assignment instead of storing an empty row,
// so the assignments table only ever holds actual R/A/C/I values.
func (s *Store) UpsertAssignment(ctx context.Context, workshopID, activityKey, roleKey string, value matrix.Value) error {
	if !value.IsSet() {
		_, err := s.db.ExecContext(ctx, `
			DELETE FROM assignments
			WHERE workshop_id = ? AND activity_key = ? AND role_key = ?
		`, workshopID, activityKey, roleKey)
		if err != nil {
			return fmt.Errorf("clear assignment: %w", err)
		}
		return nil
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO assignments (workshop_id, activity_key, role_key, value)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(workshop_id, activity_key, role_key) DO UPDATE SET value = excluded.value
	`, workshopID, activityKey, roleKey, string(value))
	if err != nil {
		return fmt.Errorf("upsert assignment: %w", err)
	}
	return nil
}

// SetRecommended replaces the recommended baseline entries given,
// upserting per (activity, role).
func (s *Store) SetRecommended(ctx context.Context, workshopID string, recs []matrix.Recommendation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("set recommended: begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, r := range recs {
		if !r.Value.IsSet() {
			continue
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO recommended (workshop_id, activity_key, role_key, value)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(workshop_id, activity_key, role_key) DO UPDATE SET value = excluded.value
		`, workshopID, r.ActivityKey, r.RoleKey, string(r.Value))
		if err != nil {
			return fmt.Errorf("set recommended: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("set recommended: commit: %w", err)
	}
	return nil
}

// SaveIssues persists one validation run's issues.
func (s *Store) SaveIssues(ctx context.Context, workshopID string, issues []matrix.Issue) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save issues: begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, issue := range issues {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO issues (workshop_id, activity_key, role_key, issue_type, severity, description, recommendation)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, workshopID, issue.ActivityKey, nullable(issue.RoleKey), string(issue.Type), string(issue.Severity), issue.Description, nullable(issue.Recommendation))
		if err != nil {
			return fmt.Errorf("save issues: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save issues: commit: %w", err)
	}
	return nil
}

// DeleteIssues removes all issues for a workshop and returns how many
// were removed. Callers run this before persisting a fresh validation
// run; otherwise runs accumulate duplicates.
func (s *Store) DeleteIssues(ctx context.Context, workshopID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM issues WHERE workshop_id = ?`, workshopID)
	if err != nil {
		return 0, fmt.Errorf("delete issues: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete issues: rows affected: %w", err)
	}
	return n, nil
}

// GenerateActions creates one planned action item per stored issue that
// does not already have one, and returns the number created.
func (s *Store) GenerateActions(ctx context.Context, workshopID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO actions (workshop_id, issue_id, summary)
		SELECT i.workshop_id, i.id,
		       'Resolve ' || i.issue_type || ' for activity ' || a.text
		FROM issues i
		JOIN activities a ON a.workshop_id = i.workshop_id AND a.key = i.activity_key
		WHERE i.workshop_id = ?
		  AND NOT EXISTS (SELECT 1 FROM actions x WHERE x.issue_id = i.id)
	`, workshopID)
	if err != nil {
		return 0, fmt.Errorf("generate actions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("generate actions: rows affected: %w", err)
	}
	return n, nil
}

// nullable converts "" to NULL for optional text columns.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
