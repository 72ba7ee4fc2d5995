package audit

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"nathanbeddoewebdev/gcpm/internal/auditlog"
	"nathanbeddoewebdev/gcpm/internal/cliutil"
	"nathanbeddoewebdev/gcpm/internal/domain"

	"github.com/spf13/cobra"
)

func ListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent audit entries",
		Long: `List recent audit entries stored locally, newest first. Filters
combine: only entries matching all of them are shown.

Examples:
  gcpm audit list
  gcpm audit list --limit 50
  gcpm audit list --command "gcpm provision"
  gcpm audit list --mode live --outcome error
  gcpm audit list --since 7d -o json`,
		Args:         cobra.NoArgs,
		RunE:         runList,
		SilenceUsage: true,
	}

	cmd.Flags().Int("limit", 25, "Number of entries to display")
	cmd.Flags().String("command", "", "Filter by exact command path")
	cmd.Flags().String("mode", "", "Filter by provisioning mode: simulated or live")
	cmd.Flags().String("outcome", "", "Filter by outcome: success or error")
	cmd.Flags().String("since", "", "Only entries newer than this duration (e.g. 7d, 12h)")
	cmd.Flags().StringP("output", "o", "table", "Output format: table or json")

	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")
	if err := cliutil.CheckOutput(output, "table", "json"); err != nil {
		return err
	}

	filter, err := listFilter(cmd)
	if err != nil {
		return err
	}

	repo, err := auditlog.Open()
	if err != nil {
		return err
	}
	defer repo.Close()

	entries, err := repo.Query(cmd.Context(), filter)
	if err != nil {
		return err
	}

	if output == "json" {
		if entries == nil {
			entries = []auditlog.AuditEntry{}
		}
		return cliutil.PrintJSON(cmd, entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No audit entries found.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tCOMMAND\tMODE\tOUTCOME\tDURATION\tRESOURCE\tDETAIL")
	fmt.Fprintln(w, "----\t-------\t----\t-------\t--------\t--------\t------")
	for _, entry := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			entry.Timestamp.Local().Format("2006-01-02 15:04:05"),
			entry.Command,
			orDash(entry.Mode),
			entry.Outcome,
			formatDuration(entry.DurationMs),
			orDash(entry.Resource()),
			orDash(entry.Detail),
		)
	}
	w.Flush()
	return nil
}

// listFilter turns the list flags into an auditlog.Filter.
func listFilter(cmd *cobra.Command) (auditlog.Filter, error) {
	limit, _ := cmd.Flags().GetInt("limit")
	command, _ := cmd.Flags().GetString("command")
	modeRaw, _ := cmd.Flags().GetString("mode")
	outcome, _ := cmd.Flags().GetString("outcome")
	since, _ := cmd.Flags().GetString("since")

	if limit <= 0 {
		return auditlog.Filter{}, fmt.Errorf("%w: limit must be greater than 0", domain.ErrValidation)
	}
	f := auditlog.Filter{Command: strings.TrimSpace(command), Limit: limit}

	if modeRaw = strings.TrimSpace(modeRaw); modeRaw != "" {
		mode, err := domain.ParseMode(modeRaw)
		if err != nil {
			return auditlog.Filter{}, err
		}
		f.Mode = string(mode)
	}

	switch outcome = strings.ToLower(strings.TrimSpace(outcome)); outcome {
	case "", auditlog.OutcomeSuccess, auditlog.OutcomeError:
		f.Outcome = outcome
	default:
		return auditlog.Filter{}, fmt.Errorf("%w: unknown outcome %q (use success or error)", domain.ErrValidation, outcome)
	}

	if since = strings.TrimSpace(since); since != "" {
		d, err := parseDuration(since)
		if err != nil {
			return auditlog.Filter{}, err
		}
		f.Since = time.Now().Add(-d)
	}
	return f, nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatDuration(ms int64) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	d := time.Duration(ms) * time.Millisecond
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	return fmt.Sprintf("%dh", int(d.Hours()))
}
