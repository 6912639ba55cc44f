package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fenwick-labs/raciforge/internal/export"
	"github.com/fenwick-labs/raciforge/internal/matrix"
)

// ExportSummary is the export command's output payload.
type ExportSummary struct {
	Path    string                `json:"path"`
	Written int                   `json:"written"`
	Skipped []export.SkippedWrite `json:"skipped,omitempty"`
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		workshopID string
		outPath    string
	)

	cmd := &cobra.Command{
		Use:   "export --workshop <id>",
		Short: "Write current assignments back into the original template",
		Long: `Produce a copy of the workshop's original template with the current
assignment values written at their captured coordinates. Writes that no
longer line up with the template are skipped and reported; the export
still completes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(rootOpts, cmd, workshopID, outPath)
		},
	}

	cmd.Flags().StringVar(&workshopID, "workshop", "", "workshop id (required)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default <workshop>_filled.xlsx)")
	_ = cmd.MarkFlagRequired("workshop")
	return cmd
}

func runExport(opts *RootOptions, cmd *cobra.Command, workshopID, outPath string) error {
	f := newFormatter(opts, cmd)

	s, err := openStore(opts, f)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	template, err := s.TemplateBytes(ctx, workshopID)
	if err != nil {
		return f.Fail(ExitCommandError, "load template", err)
	}
	activities, err := s.Activities(ctx, workshopID)
	if err != nil {
		return f.Fail(ExitCommandError, "load activities", err)
	}
	assignments, err := s.AssignmentsByActivity(ctx, workshopID)
	if err != nil {
		return f.Fail(ExitCommandError, "load assignments", err)
	}

	lookup := func(activityKey, roleKey string) matrix.Value {
		for _, a := range assignments[activityKey] {
			if a.RoleKey == roleKey {
				return a.Value
			}
		}
		return matrix.ValueNone
	}

	res, err := export.Export(export.Request{
		Template:    template,
		Activities:  activities,
		Workshop:    workshopID,
		Assignments: lookup,
	})
	if err != nil {
		return f.Fail(ExitCommandError, "export", err)
	}

	if outPath == "" {
		outPath = fmt.Sprintf("%s_filled.xlsx", workshopID)
	}
	if err := os.WriteFile(outPath, res.Data, 0o644); err != nil {
		return f.Fail(ExitCommandError, fmt.Sprintf("write %s", outPath), err)
	}

	summary := ExportSummary{Path: outPath, Written: res.Written, Skipped: res.Skipped}
	if f.Format == "json" {
		return f.JSON(summary)
	}

	fmt.Fprintf(f.Writer, "Exported %s (%d cell(s) written)\n", outPath, res.Written)
	for _, skip := range res.Skipped {
		fmt.Fprintf(f.Writer, "  skipped %s role %s at (%d,%d): %s\n",
			skip.ActivityKey, skip.RoleKey, skip.Cell.Row, skip.Cell.Col, skip.Reason)
	}
	return nil
}
