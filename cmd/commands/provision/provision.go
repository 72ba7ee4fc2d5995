package provision

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"nathanbeddoewebdev/gcpm/internal/auditlog"
	"nathanbeddoewebdev/gcpm/internal/cliutil"
	"nathanbeddoewebdev/gcpm/internal/config"
	"nathanbeddoewebdev/gcpm/internal/domain"
	"nathanbeddoewebdev/gcpm/internal/executor"
	"nathanbeddoewebdev/gcpm/internal/pipeline"
	"nathanbeddoewebdev/gcpm/internal/services/auth"
	"nathanbeddoewebdev/gcpm/internal/services/console"
	"nathanbeddoewebdev/gcpm/internal/tui"

	"github.com/spf13/cobra"
)

// serviceOptions lets tests swap the simulated delays and the credential store.
var (
	serviceOptions []console.Option
	credentialStore = auth.DefaultStore
)

// NewCommand returns the "provision" command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Create a project and walk it through the provisioning stages",
		Long: `Create a Google Cloud project and walk it through four stages:
create project, add Firebase, configure auth, provision database.

Runs are simulated unless --live is passed (or mode=live is configured).
Live runs need an OAuth access token: --token, a token stored with
'gcpm auth login access-token', or Application Default Credentials (--adc).

If --project-id or --name is missing and stdout is a terminal, an
interactive wizard collects them.

Examples:
  gcpm provision
  gcpm provision --project-id my-app-123 --name "My App"
  gcpm provision --project-id my-app-123 --name "My App" --location eur3 --live --adc
  gcpm provision --project-id my-app-123 --name "My App" -o json`,
		Args:         cobra.NoArgs,
		RunE:         runProvision,
		SilenceUsage: true,
	}

	cmd.Flags().String("project-id", "", "Project ID to create (default from config)")
	cmd.Flags().String("name", "", "Project display name")
	cmd.Flags().String("location", "", "Firestore database location (default from config, then "+pipeline.DefaultLocation+")")
	cmd.Flags().Bool("live", false, "Call the real Google Cloud APIs")
	cmd.Flags().String("token", "", "OAuth 2.0 access token for live mode")
	cmd.Flags().Bool("adc", false, "Use Application Default Credentials for live mode")
	cmd.Flags().StringP("output", "o", "text", "Output format: text or json")

	return cmd
}

type options struct {
	req    pipeline.Request
	mode   domain.Mode
	token  string
	adc    bool
	output string
}

func readOptions(cmd *cobra.Command, cfg *config.Config) (options, error) {
	var o options
	o.req.TargetID, _ = cmd.Flags().GetString("project-id")
	o.req.DisplayName, _ = cmd.Flags().GetString("name")
	o.req.Location, _ = cmd.Flags().GetString("location")
	o.token, _ = cmd.Flags().GetString("token")
	o.adc, _ = cmd.Flags().GetBool("adc")
	o.output, _ = cmd.Flags().GetString("output")

	o.req.TargetID = strings.TrimSpace(o.req.TargetID)
	o.req.DisplayName = strings.TrimSpace(o.req.DisplayName)
	o.req.Location = strings.TrimSpace(o.req.Location)

	if o.req.TargetID == "" {
		o.req.TargetID = cfg.ProjectID
	}
	if o.req.Location == "" {
		o.req.Location = cfg.Location
	}

	mode, err := domain.ParseMode(cfg.Mode)
	if err != nil {
		return o, fmt.Errorf("invalid configured mode: %w", err)
	}
	if live, _ := cmd.Flags().GetBool("live"); live {
		mode = domain.ModeLive
	}
	o.mode = mode

	return o, cliutil.CheckOutput(o.output, "text", "json")
}

func runProvision(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	o, err := readOptions(cmd, cfg)
	if err != nil {
		return err
	}

	interactive := cliutil.IsTerminal(cmd.OutOrStdout()) && o.output == "text"

	if interactive && (o.req.TargetID == "" || o.req.DisplayName == "") {
		in, err := tui.ProvisionForm(tui.ProvisionInput{Request: o.req, Mode: o.mode})
		if err != nil {
			if errors.Is(err, tui.ErrAborted) {
				fmt.Fprintln(cmd.ErrOrStderr(), "Provisioning cancelled.")
				return nil
			}
			return err
		}
		o.req = in.Request
		o.mode = in.Mode
	}

	cat, err := cliutil.LoadCatalog(cmd, cfg)
	if err != nil {
		return err
	}

	log := cliutil.Logger(cmd)
	preq := console.ProvisionRequest{Request: o.req, Mode: o.mode}
	// Incomplete input is rejected by the pipeline without touching the API,
	// so credentials are only resolved for a request that can run.
	if o.mode == domain.ModeLive && !pipeline.MissingInput(o.req) {
		preq.Tokens, err = executor.ResolveTokenSource(cmd.Context(), executor.CredentialOptions{
			Token:  o.token,
			Store:  credentialStore(),
			UseADC: o.adc,
		})
		if err != nil {
			return err
		}
	}

	cmd.SetContext(auditlog.WithMetadata(cmd.Context(), auditlog.Metadata{
		Mode:         string(o.mode),
		ResourceType: "project",
		ResourceID:   o.req.TargetID,
		ResourceName: o.req.DisplayName,
	}))

	opts := append([]console.Option{console.WithLogger(log)}, serviceOptions...)
	svc := console.NewService(cat, opts...)

	if interactive {
		run, runErr := tui.RunProvisionView(o.req, o.mode, func(ctx context.Context, obs pipeline.Observer) (*domain.Run, error) {
			return svc.Provision(ctx, preq, obs)
		})
		if run != nil {
			printLog(cmd, run)
		}
		return runErr
	}

	var obs pipeline.Observer
	if o.output == "text" {
		obs = pipeline.ObserverFuncs{Log: func(e domain.LogEntry) {
			fmt.Fprintln(cmd.OutOrStdout(), e.String())
		}}
	}

	run, runErr := svc.Provision(cmd.Context(), preq, obs)

	if o.output == "json" {
		if err := cliutil.PrintJSON(cmd, newRunOutput(run, runErr)); err != nil {
			return err
		}
		return runErr
	}

	if run != nil {
		printStages(cmd, run)
	}
	return runErr
}
