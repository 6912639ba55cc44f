package cli

import (
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List stored workshops",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(rootOpts, cmd)
		},
	}
	return cmd
}

func runList(opts *RootOptions, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)

	s, err := openStore(opts, f)
	if err != nil {
		return err
	}
	defer s.Close()

	workshops, err := s.ListWorkshops(cmd.Context())
	if err != nil {
		return f.Fail(ExitCommandError, "list workshops", err)
	}

	if f.Format == "json" {
		return f.JSON(workshops)
	}

	if len(workshops) == 0 {
		fmt.Fprintln(f.Writer, "No workshops. Run `raciforge ingest` first.")
		return nil
	}

	table := tablewriter.NewTable(f.Writer)
	table.Header("ID", "NAME", "CREATED", "FINGERPRINT")
	for _, w := range workshops {
		fp := w.Fingerprint
		if len(fp) > 12 {
			fp = fp[:12]
		}
		table.Append(w.ID, w.Name, w.CreatedAt, fp)
	}
	table.Render()
	return nil
}
