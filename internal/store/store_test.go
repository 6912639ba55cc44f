package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenwick-labs/raciforge/internal/matrix"
	"github.com/fenwick-labs/raciforge/internal/parser"
	"github.com/fenwick-labs/raciforge/internal/validate"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// testParseResult builds a two-domain parse result without going
// through a real workbook; the store does not care where it came from.
func testParseResult() *parser.Result {
	appsCIO := matrix.RoleKey("APPLICATIONS RACI", "CIO")
	appsCISO := matrix.RoleKey("APPLICATIONS RACI", "CISO")
	netCIO := matrix.RoleKey("NETWORK RACI", "CIO")

	appsAct := matrix.Activity{
		Key:        matrix.ActivityKey("APPLICATIONS RACI", 0, "Select OT vendor"),
		Domain:     "APPLICATIONS RACI",
		Text:       "Select OT vendor",
		Section:    "Governance",
		OrderIndex: 0,
		CellMap: map[string]matrix.CellRef{
			appsCIO:  {Row: 3, Col: 2},
			appsCISO: {Row: 3, Col: 3},
		},
		InitialValues: map[string]matrix.Value{
			appsCIO: matrix.ValueAccountable,
		},
	}
	netAct := matrix.Activity{
		Key:        matrix.ActivityKey("NETWORK RACI", 0, "Segment OT network"),
		Domain:     "NETWORK RACI",
		Text:       "Segment OT network",
		OrderIndex: 0,
		CellMap: map[string]matrix.CellRef{
			netCIO: {Row: 2, Col: 2},
		},
	}

	return &parser.Result{
		Fingerprint: matrix.Fingerprint([]byte("template bytes")),
		Domains: []matrix.Domain{
			{Key: "APPLICATIONS RACI", DisplayName: "APPLICATIONS RACI", OrderIndex: 0},
			{Key: "NETWORK RACI", DisplayName: "NETWORK RACI", OrderIndex: 1},
		},
		Roles: []matrix.Role{
			{Key: appsCIO, Name: "CIO", Domain: "APPLICATIONS RACI", ColumnIndex: 2, OrderIndex: 1},
			{Key: appsCISO, Name: "CISO", Domain: "APPLICATIONS RACI", ColumnIndex: 3, OrderIndex: 2},
			{Key: netCIO, Name: "CIO", Domain: "NETWORK RACI", ColumnIndex: 2, OrderIndex: 1},
		},
		Activities:   []matrix.Activity{appsAct, netAct},
		Instructions: map[string]string{"Instructions": "One letter per cell"},
		Lists:        map[string][]string{"List of Roles": {"CIO", "CISO"}},
	}
}

func seedWorkshop(t *testing.T, s *Store) (string, *parser.Result) {
	t.Helper()
	res := testParseResult()
	id, err := s.CreateWorkshop(context.Background(), "ot-workshop", []byte("template bytes"), res)
	require.NoError(t, err)
	require.NotEmpty(t, id)
	return id, res
}

func TestOpenAppliesPragmas(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.verifyPragma("journal_mode", "wal"))
	assert.NoError(t, s.verifyPragma("foreign_keys", "1"))
	assert.NoError(t, s.verifyPragma("busy_timeout", "5000"))
}

func TestOpenIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	var version int
	require.NoError(t, s2.DB().QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, currentSchemaVersion, version)
}

func TestCreateWorkshopRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id, res := seedWorkshop(t, s)

	w, err := s.Workshop(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "ot-workshop", w.Name)
	assert.Equal(t, res.Fingerprint, w.Fingerprint)
	assert.NotEmpty(t, w.CreatedAt)

	template, err := s.TemplateBytes(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []byte("template bytes"), template)

	activities, err := s.Activities(ctx, id)
	require.NoError(t, err)
	require.Len(t, activities, 2)
	assert.Equal(t, res.Activities[0].Key, activities[0].Key, "domain order then activity order")
	assert.Equal(t, "Governance", activities[0].Section)
	assert.Equal(t, res.Activities[0].CellMap, activities[0].CellMap)
	assert.Equal(t, "", activities[1].Section)

	roles, err := s.Roles(ctx, id)
	require.NoError(t, err)
	require.Len(t, roles, 3)
	assert.Equal(t, res.Roles[0].Key, roles[0].Key)

	assignments, err := s.AssignmentsByActivity(ctx, id)
	require.NoError(t, err)
	seed := assignments[res.Activities[0].Key]
	require.Len(t, seed, 1, "initial values seed the assignments table")
	assert.Equal(t, matrix.ValueAccountable, seed[0].Value)

	instructions, err := s.Instructions(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "One letter per cell", instructions["Instructions"])
}

func TestWorkshopNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Workshop(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.TemplateBytes(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListWorkshops(t *testing.T) {
	s := newTestStore(t)
	id, _ := seedWorkshop(t, s)

	workshops, err := s.ListWorkshops(context.Background())
	require.NoError(t, err)
	require.Len(t, workshops, 1)
	assert.Equal(t, id, workshops[0].ID)
}

func TestUpsertAssignment(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id, res := seedWorkshop(t, s)
	actKey := res.Activities[0].Key
	roleKey := res.Roles[1].Key

	require.NoError(t, s.UpsertAssignment(ctx, id, actKey, roleKey, matrix.ValueResponsible))
	require.NoError(t, s.UpsertAssignment(ctx, id, actKey, roleKey, matrix.ValueConsulted))

	assignments, err := s.AssignmentsByActivity(ctx, id)
	require.NoError(t, err)
	var got matrix.Value
	for _, a := range assignments[actKey] {
		if a.RoleKey == roleKey {
			got = a.Value
		}
	}
	assert.Equal(t, matrix.ValueConsulted, got, "second upsert supersedes the first")

	// Clearing deletes the row rather than storing an empty value.
	require.NoError(t, s.UpsertAssignment(ctx, id, actKey, roleKey, matrix.ValueNone))
	assignments, err = s.AssignmentsByActivity(ctx, id)
	require.NoError(t, err)
	for _, a := range assignments[actKey] {
		assert.NotEqual(t, roleKey, a.RoleKey)
	}
}

func TestUpsertAssignmentRejectsUnknownValue(t *testing.T) {
	s := newTestStore(t)
	id, res := seedWorkshop(t, s)
	err := s.UpsertAssignment(context.Background(), id, res.Activities[0].Key, res.Roles[0].Key, matrix.Value("X"))
	require.Error(t, err, "CHECK constraint keeps the closed value set")
}

func TestIssuesLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id, res := seedWorkshop(t, s)

	snap, src, err := s.Snapshot(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, snap.Workshop)
	require.Len(t, snap.Activities, 2)

	report, err := validate.New().Validate(snap, src)
	require.NoError(t, err)
	require.NotEmpty(t, report.Issues)

	require.NoError(t, s.SaveIssues(ctx, id, report.Issues))
	stored, err := s.ListIssues(ctx, id)
	require.NoError(t, err)
	require.Len(t, stored, len(report.Issues))
	assert.Equal(t, report.Issues[0].Type, stored[0].Type)
	assert.Equal(t, res.Activities[0].Text, stored[0].ActivityText)

	// Actions: one per issue, idempotent on re-run.
	created, err := s.GenerateActions(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(len(report.Issues)), created)

	again, err := s.GenerateActions(ctx, id)
	require.NoError(t, err)
	assert.Zero(t, again)

	actions, err := s.ListActions(ctx, id)
	require.NoError(t, err)
	require.Len(t, actions, len(report.Issues))
	assert.Equal(t, "planned", actions[0].Status)
	assert.Contains(t, actions[0].Summary, "Resolve ")

	// A fresh validation run clears old issues first.
	deleted, err := s.DeleteIssues(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(len(report.Issues)), deleted)

	stored, err = s.ListIssues(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestSetRecommended(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id, res := seedWorkshop(t, s)
	actKey := res.Activities[0].Key
	roleKey := res.Roles[0].Key

	recs := []matrix.Recommendation{
		{ActivityKey: actKey, RoleKey: roleKey, Value: matrix.ValueResponsible},
		{ActivityKey: actKey, RoleKey: res.Roles[1].Key, Value: matrix.ValueNone}, // skipped
	}
	require.NoError(t, s.SetRecommended(ctx, id, recs))

	byActivity, err := s.RecommendedByActivity(ctx, id)
	require.NoError(t, err)
	require.Len(t, byActivity[actKey], 1)
	assert.Equal(t, matrix.ValueResponsible, byActivity[actKey][0].Value)

	// Upsert replaces the stored value for the same pair.
	recs[0].Value = matrix.ValueAccountable
	require.NoError(t, s.SetRecommended(ctx, id, recs[:1]))
	byActivity, err = s.RecommendedByActivity(ctx, id)
	require.NoError(t, err)
	require.Len(t, byActivity[actKey], 1)
	assert.Equal(t, matrix.ValueAccountable, byActivity[actKey][0].Value)
}
