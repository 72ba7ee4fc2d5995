package probe

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"nathanbeddoewebdev/gcpm/internal/auditlog"
	"nathanbeddoewebdev/gcpm/internal/cliutil"
	"nathanbeddoewebdev/gcpm/internal/config"
	"nathanbeddoewebdev/gcpm/internal/domain"
	"nathanbeddoewebdev/gcpm/internal/probe"
	"nathanbeddoewebdev/gcpm/internal/services/auth"
	"nathanbeddoewebdev/gcpm/internal/services/console"
	"nathanbeddoewebdev/gcpm/internal/tui"

	"github.com/spf13/cobra"
)

// serviceOptions and credentialStore are swapped by tests.
var (
	serviceOptions  []console.Option
	credentialStore = auth.DefaultStore
)

// NewCommand returns the "probe" command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Check that the Google Cloud APIs are reachable",
		Long: `Send one GET request per catalog endpoint with the given API key and
report status, latency and a short preview of each response.

An endpoint counts as reachable for any status below 500 except 404,
so 401 and 403 are reachable. The API key comes from --api-key or from
'gcpm auth login api-key'.

Examples:
  gcpm probe --api-key AIza...
  gcpm probe --project-id my-app-123 --concurrency 4
  gcpm probe -o json`,
		Args:         cobra.NoArgs,
		RunE:         runProbe,
		SilenceUsage: true,
	}

	cmd.Flags().String("api-key", "", "Google Cloud API key (default from keyring)")
	cmd.Flags().String("project-id", "", "Project ID for project-scoped checks (default from config)")
	cmd.Flags().Int("concurrency", 1, "Number of checks in flight at once")
	cmd.Flags().Duration("timeout", probe.DefaultTimeout, "Timeout for each check")
	cmd.Flags().StringP("output", "o", "table", "Output format: table or json")

	return cmd
}

// probeOutput is the JSON shape printed by -o json.
type probeOutput struct {
	Results []domain.CheckResult `json:"results"`
	Summary probe.Summary        `json:"summary"`
}

func runProbe(cmd *cobra.Command, args []string) error {
	apiKey, _ := cmd.Flags().GetString("api-key")
	projectID, _ := cmd.Flags().GetString("project-id")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	output, _ := cmd.Flags().GetString("output")

	if err := cliutil.CheckOutput(output, "table", "json"); err != nil {
		return err
	}
	if concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1")
	}
	if timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if strings.TrimSpace(projectID) == "" {
		projectID = cfg.ProjectID
	}

	apiKey, err = resolveAPIKey(apiKey, credentialStore())
	if err != nil {
		return err
	}

	cat, err := cliutil.LoadCatalog(cmd, cfg)
	if err != nil {
		return err
	}

	cmd.SetContext(auditlog.WithMetadata(cmd.Context(), auditlog.Metadata{
		ResourceType: "project",
		ResourceID:   projectID,
	}))

	opts := append([]console.Option{
		console.WithLogger(cliutil.Logger(cmd)),
		console.WithProbeConcurrency(concurrency),
		console.WithProbeTimeout(timeout),
	}, serviceOptions...)
	svc := console.NewService(cat, opts...)

	req := console.ProbeRequest{APIKey: apiKey, ProjectID: projectID}
	run := func(ctx context.Context) ([]domain.CheckResult, error) {
		return svc.Probe(ctx, req, nil)
	}

	interactive := output == "table" && cliutil.IsTerminal(cmd.OutOrStdout())

	var results []domain.CheckResult
	if interactive {
		results, err = tui.ProbeWithSpinner(run)
		if errors.Is(err, tui.ErrAborted) {
			fmt.Fprintln(cmd.ErrOrStderr(), "Probe cancelled.")
			return nil
		}
	} else {
		results, err = run(cmd.Context())
	}
	if err != nil {
		return err
	}

	switch {
	case output == "json":
		return cliutil.PrintJSON(cmd, probeOutput{Results: results, Summary: probe.Summarize(results)})
	case interactive:
		fmt.Fprintln(cmd.OutOrStdout(), tui.RenderProbeResults(results, cliutil.TerminalWidth(cmd.OutOrStdout(), 80)))
	default:
		printResults(cmd, results)
	}
	return nil
}

// resolveAPIKey returns the explicit key or the one stored in the keyring.
func resolveAPIKey(explicit string, store auth.Store) (string, error) {
	if key := strings.TrimSpace(explicit); key != "" {
		return key, nil
	}
	key, err := store.Get(auth.APIKey)
	switch {
	case err == nil && strings.TrimSpace(key) != "":
		return strings.TrimSpace(key), nil
	case err != nil && !errors.Is(err, auth.ErrNotStored):
		return "", fmt.Errorf("failed to read stored API key: %w", err)
	}
	return "", fmt.Errorf("%w: an API key is required (use --api-key or 'gcpm auth login %s')", domain.ErrValidation, auth.APIKey)
}

func printResults(cmd *cobra.Command, results []domain.CheckResult) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CHECK\tSTATUS\tLATENCY\tRESULT\tPREVIEW")
	fmt.Fprintln(w, "-----\t------\t-------\t------\t-------")
	for _, r := range results {
		result := "unreachable"
		if r.IsSuccess {
			result = "reachable"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			r.Name,
			formatStatus(r),
			(time.Duration(r.LatencyMs) * time.Millisecond).String(),
			result,
			oneLine(r.ResponsePreview, 60),
		)
	}
	w.Flush()

	s := probe.Summarize(results)
	fmt.Fprintf(cmd.OutOrStdout(), "\n%d of %d reachable, average latency %dms\n", s.Reachable, s.Total, s.AverageLatencyMs)
}

func formatStatus(r domain.CheckResult) string {
	if r.StatusCode == 0 {
		return r.StatusText
	}
	return fmt.Sprintf("%d %s", r.StatusCode, r.StatusText)
}

// oneLine collapses whitespace in a preview so it fits a table cell.
func oneLine(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > limit {
		return string(r[:limit-1]) + "…"
	}
	return s
}
