package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fenwick-labs/raciforge/internal/matrix"
)

// issueTypeOrder fixes the rendering order for summary tallies.
var issueTypeOrder = []matrix.IssueType{
	matrix.IssueMissingAccountable,
	matrix.IssueMultipleAccountable,
	matrix.IssueMissingResponsible,
	matrix.IssueCommunicationGap,
	matrix.IssueDeviation,
	matrix.IssueRoleOverload,
}

var (
	sevHigh   = color.New(color.FgRed, color.Bold)
	sevMedium = color.New(color.FgYellow)
	sevLow    = color.New(color.FgCyan)
)

// severitySprint renders a severity with its color.
func severitySprint(s matrix.Severity) string {
	switch s {
	case matrix.SeverityHigh:
		return sevHigh.Sprint(string(s))
	case matrix.SeverityMedium:
		return sevMedium.Sprint(string(s))
	default:
		return sevLow.Sprint(string(s))
	}
}

// NewIssuesCommand creates the issues command.
func NewIssuesCommand(rootOpts *RootOptions) *cobra.Command {
	var workshopID string

	cmd := &cobra.Command{
		Use:           "issues --workshop <id>",
		Short:         "List stored validation issues for a workshop",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIssues(rootOpts, cmd, workshopID)
		},
	}

	cmd.Flags().StringVar(&workshopID, "workshop", "", "workshop id (required)")
	_ = cmd.MarkFlagRequired("workshop")
	return cmd
}

func runIssues(opts *RootOptions, cmd *cobra.Command, workshopID string) error {
	f := newFormatter(opts, cmd)

	s, err := openStore(opts, f)
	if err != nil {
		return err
	}
	defer s.Close()

	issues, err := s.ListIssues(cmd.Context(), workshopID)
	if err != nil {
		return f.Fail(ExitCommandError, "list issues", err)
	}

	if f.Format == "json" {
		return f.JSON(issues)
	}

	if len(issues) == 0 {
		fmt.Fprintln(f.Writer, "No stored issues. Run `raciforge validate` first.")
		return nil
	}

	table := tablewriter.NewTable(f.Writer)
	table.Header("TYPE", "SEVERITY", "ACTIVITY", "ROLE", "DESCRIPTION")
	for _, issue := range issues {
		table.Append(string(issue.Type), severitySprint(issue.Severity), issue.ActivityText, issue.RoleKey, issue.Description)
	}
	table.Render()
	return nil
}
