package cli

import (
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// NewActionsCommand creates the actions command.
func NewActionsCommand(rootOpts *RootOptions) *cobra.Command {
	var workshopID string

	cmd := &cobra.Command{
		Use:   "actions --workshop <id>",
		Short: "Generate action items from stored issues",
		Long: `Generate one planned action item per stored issue that does not have
one yet, then list all action items for the workshop.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runActions(rootOpts, cmd, workshopID)
		},
	}

	cmd.Flags().StringVar(&workshopID, "workshop", "", "workshop id (required)")
	_ = cmd.MarkFlagRequired("workshop")
	return cmd
}

func runActions(opts *RootOptions, cmd *cobra.Command, workshopID string) error {
	f := newFormatter(opts, cmd)

	s, err := openStore(opts, f)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	created, err := s.GenerateActions(ctx, workshopID)
	if err != nil {
		return f.Fail(ExitCommandError, "generate actions", err)
	}

	actions, err := s.ListActions(ctx, workshopID)
	if err != nil {
		return f.Fail(ExitCommandError, "list actions", err)
	}

	if f.Format == "json" {
		return f.JSON(map[string]any{"created": created, "actions": actions})
	}

	fmt.Fprintf(f.Writer, "%d action(s) created, %d total\n", created, len(actions))
	if len(actions) == 0 {
		return nil
	}
	table := tablewriter.NewTable(f.Writer)
	table.Header("ID", "STATUS", "SUMMARY")
	for _, a := range actions {
		table.Append(fmt.Sprint(a.ID), a.Status, a.Summary)
	}
	table.Render()
	return nil
}
