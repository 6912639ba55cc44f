package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// runCLI executes the root command in process with a fresh command tree
// and captured output.
func runCLI(args ...string) (string, error) {
	var out, errOut bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.Execute()
	return out.String(), err
}

// writeTemplate creates a small real template on disk. The single
// activity has an Accountable but no Responsible, so validation finds
// something.
func writeTemplate(t *testing.T, dir string) string {
	t.Helper()

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", "APPLICATIONS RACI"))
	cells := map[string]string{
		"A1": "Activity", "B1": "CIO", "C1": "CISO",
		"A2": "Select OT vendor", "B2": "A",
	}
	for axis, v := range cells {
		require.NoError(t, f.SetCellValue("APPLICATIONS RACI", axis, v))
	}
	path := filepath.Join(dir, "template.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

// ingestWorkshop runs ingest with JSON output and returns the new
// workshop id.
func ingestWorkshop(t *testing.T, dbPath, template string) string {
	t.Helper()
	out, err := runCLI("ingest", "--db", dbPath, "--format", "json", template)
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   IngestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Equal(t, "ok", resp.Status)
	require.NotEmpty(t, resp.Data.WorkshopID)
	assert.Equal(t, "template", resp.Data.Name, "name defaults to the file base")
	assert.Equal(t, 1, resp.Data.Domains)
	assert.Equal(t, 2, resp.Data.Roles)
	return resp.Data.WorkshopID
}

func TestIngestValidateIssuesActionsFlow(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	template := writeTemplate(t, dir)
	id := ingestWorkshop(t, dbPath, template)

	// The template seeds one A and no R: findings expected, exit code 1.
	out, err := runCLI("validate", "--db", dbPath, "--workshop", id)
	require.Error(t, err)
	assert.Equal(t, ExitFindings, GetExitCode(err))
	assert.Contains(t, out, "missing_R")

	// Findings are stored and listable.
	out, err = runCLI("issues", "--db", dbPath, "--format", "json", "--workshop", id)
	require.NoError(t, err)
	var issuesResp struct {
		Data []struct {
			Type string `json:"type"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &issuesResp))
	require.NotEmpty(t, issuesResp.Data)

	// Actions: one per issue on the first run, none on the second.
	out, err = runCLI("actions", "--db", dbPath, "--format", "json", "--workshop", id)
	require.NoError(t, err)
	var actionsResp struct {
		Data struct {
			Created int `json:"created"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &actionsResp))
	assert.Equal(t, len(issuesResp.Data), actionsResp.Data.Created)

	out, err = runCLI("actions", "--db", dbPath, "--format", "json", "--workshop", id)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &actionsResp))
	assert.Zero(t, actionsResp.Data.Created)
}

func TestValidateRerunReplacesIssues(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	id := ingestWorkshop(t, dbPath, writeTemplate(t, dir))

	for i := 0; i < 2; i++ {
		_, err := runCLI("validate", "--db", dbPath, "--format", "json", "--workshop", id)
		require.Error(t, err)
		require.Equal(t, ExitFindings, GetExitCode(err))
	}

	out, err := runCLI("issues", "--db", dbPath, "--format", "json", "--workshop", id)
	require.NoError(t, err)
	var resp struct {
		Data []json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	// Two runs over an unchanged snapshot: one missing_R, not two.
	assert.Len(t, resp.Data, 1)
}

func TestValidateUnknownWorkshop(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	_, err := runCLI("validate", "--db", dbPath, "--workshop", "missing")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestValidateRejectsUnknownPolicy(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	_, err := runCLI("validate", "--db", dbPath, "--workshop", "x", "--policy", "aggressive")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestIngestUnreadableTemplate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("not a workbook"), 0o644))

	_, err := runCLI("ingest", "--db", filepath.Join(dir, "test.db"), path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestInvalidFormatFlag(t *testing.T) {
	_, err := runCLI("list", "--format", "xml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestExportCommand(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	id := ingestWorkshop(t, dbPath, writeTemplate(t, dir))

	outPath := filepath.Join(dir, "filled.xlsx")
	out, err := runCLI("export", "--db", dbPath, "--workshop", id, "--out", outPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported")

	f, err := excelize.OpenFile(outPath)
	require.NoError(t, err)
	defer f.Close()

	// The seeded A round-trips; the provenance sheet is appended.
	v, err := f.GetCellValue("APPLICATIONS RACI", "B2")
	require.NoError(t, err)
	assert.Equal(t, "A", v)
	idx, err := f.GetSheetIndex("Outputs")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, idx, 0)
}

func TestListEmpty(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	out, err := runCLI("list", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "No workshops")
}
