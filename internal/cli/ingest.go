package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fenwick-labs/raciforge/internal/parser"
)

// IngestResult is the ingest command's output payload.
type IngestResult struct {
	WorkshopID   string `json:"workshop_id"`
	Name         string `json:"name"`
	Fingerprint  string `json:"fingerprint"`
	Domains      int    `json:"domains"`
	Roles        int    `json:"roles"`
	Activities   int    `json:"activities"`
	Instructions int    `json:"instructions"`
	Lists        int    `json:"lists"`
}

// NewIngestCommand creates the ingest command.
func NewIngestCommand(rootOpts *RootOptions) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "ingest <template.xlsx>",
		Short: "Parse a RACI template and create a workshop",
		Long: `Parse a RACI spreadsheet template into domains, roles, and activities,
and persist it as a new workshop. Initial cell values seed the workshop's
assignments.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(rootOpts, cmd, args[0], name)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "workshop name (defaults to the template file name)")
	return cmd
}

func runIngest(opts *RootOptions, cmd *cobra.Command, path, name string) error {
	f := newFormatter(opts, cmd)

	data, err := os.ReadFile(path)
	if err != nil {
		return f.Fail(ExitCommandError, fmt.Sprintf("read template %s", path), err)
	}

	res, err := parser.Parse(data)
	if err != nil {
		return f.Fail(ExitCommandError, "parse template", err)
	}
	f.VerboseLog("parsed %d domain(s), %d role(s), %d activity(ies)", len(res.Domains), len(res.Roles), len(res.Activities))

	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	s, err := openStore(opts, f)
	if err != nil {
		return err
	}
	defer s.Close()

	id, err := s.CreateWorkshop(cmd.Context(), name, data, res)
	if err != nil {
		return f.Fail(ExitCommandError, "create workshop", err)
	}

	out := IngestResult{
		WorkshopID:   id,
		Name:         name,
		Fingerprint:  res.Fingerprint,
		Domains:      len(res.Domains),
		Roles:        len(res.Roles),
		Activities:   len(res.Activities),
		Instructions: len(res.Instructions),
		Lists:        len(res.Lists),
	}
	if f.Format == "json" {
		return f.JSON(out)
	}

	fmt.Fprintf(f.Writer, "Workshop %s created from %s\n", id, path)
	fmt.Fprintf(f.Writer, "  domains: %d  roles: %d  activities: %d\n", out.Domains, out.Roles, out.Activities)
	fmt.Fprintf(f.Writer, "  fingerprint: %s\n", out.Fingerprint)
	return nil
}
