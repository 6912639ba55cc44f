package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fenwick-labs/raciforge/internal/validate"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		workshopID string
		threshold  int
		policy     string
		rulesFile  string
	)

	cmd := &cobra.Command{
		Use:   "validate --workshop <id>",
		Short: "Run the RACI rule set over a workshop's assignments",
		Long: `Validate a workshop's current assignment snapshot against the fixed
rule set. Previously stored issues for the workshop are cleared first, so
each run replaces the last. Exit code 1 means issues were found.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := validate.DefaultRulesConfig()
			if rulesFile != "" {
				var err error
				cfg, err = validate.LoadRulesFile(rulesFile)
				if err != nil {
					return newFormatter(rootOpts, cmd).Fail(ExitCommandError, "load rules", err)
				}
			}
			// Explicit flags override the rules file.
			if cmd.Flags().Changed("threshold") {
				cfg.OverloadThreshold = threshold
			}
			if cmd.Flags().Changed("policy") {
				cfg.Policy = validate.Policy(policy)
				if !cfg.Policy.Valid() {
					return newFormatter(rootOpts, cmd).Fail(ExitCommandError,
						fmt.Sprintf("unknown policy %q", policy), nil)
				}
			}
			return runValidate(rootOpts, cmd, workshopID, cfg)
		},
	}

	cmd.Flags().StringVar(&workshopID, "workshop", "", "workshop id (required)")
	cmd.Flags().IntVar(&threshold, "threshold", validate.DefaultOverloadThreshold, "role overload threshold (R+A assignments)")
	cmd.Flags().StringVar(&policy, "policy", string(validate.PolicyStrict), "severity policy (strict|lenient)")
	cmd.Flags().StringVar(&rulesFile, "rules", "", "yaml rules file")
	_ = cmd.MarkFlagRequired("workshop")

	return cmd
}

func runValidate(opts *RootOptions, cmd *cobra.Command, workshopID string, cfg validate.RulesConfig) error {
	f := newFormatter(opts, cmd)

	s, err := openStore(opts, f)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	if _, err := s.Workshop(ctx, workshopID); err != nil {
		return f.Fail(ExitCommandError, "load workshop", err)
	}

	snap, src, err := s.Snapshot(ctx, workshopID)
	if err != nil {
		return f.Fail(ExitCommandError, "load snapshot", err)
	}
	f.VerboseLog("validating %d activity(ies) with policy=%s threshold=%d",
		len(snap.Activities), cfg.Policy, cfg.OverloadThreshold)

	engine := validate.New(cfg.Options()...)
	report, err := engine.Validate(snap, src)
	if err != nil {
		// An integrity fault is an integration bug, not a finding.
		return f.Fail(ExitCommandError, "validation aborted", err)
	}

	// Replace the previous run's issues so they don't accumulate.
	cleared, err := s.DeleteIssues(ctx, workshopID)
	if err != nil {
		return f.Fail(ExitCommandError, "clear previous issues", err)
	}
	f.VerboseLog("cleared %d issue(s) from previous run", cleared)

	if err := s.SaveIssues(ctx, workshopID, report.Issues); err != nil {
		return f.Fail(ExitCommandError, "persist issues", err)
	}

	if f.Format == "json" {
		if err := f.JSON(report); err != nil {
			return err
		}
	} else {
		printReport(f, report)
	}

	if report.Summary.TotalIssues > 0 {
		return NewExitError(ExitFindings, fmt.Sprintf("validation found %d issue(s)", report.Summary.TotalIssues))
	}
	return nil
}

// printReport renders the validation report for humans.
func printReport(f *Formatter, report *validate.Report) {
	if report.Summary.TotalIssues == 0 {
		fmt.Fprintf(f.Writer, "✓ No issues found across %d activity(ies)\n", report.Summary.ActivitiesChecked)
		return
	}

	fmt.Fprintf(f.Writer, "✗ %d issue(s) across %d activity(ies)\n\n",
		report.Summary.TotalIssues, report.Summary.ActivitiesChecked)
	for _, issue := range report.Issues {
		fmt.Fprintf(f.Writer, "  %s %s: %s\n",
			severitySprint(issue.Severity), issue.Type, issue.Description)
	}
	fmt.Fprintln(f.Writer)
	for _, t := range issueTypeOrder {
		if n := report.Summary.ByType[t]; n > 0 {
			fmt.Fprintf(f.Writer, "  %-26s %d\n", t, n)
		}
	}
}
