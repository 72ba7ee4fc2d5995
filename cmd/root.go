package cmd

import (
	"context"
	"os"
	"strings"
	"time"

	"nathanbeddoewebdev/gcpm/cmd/commands/audit"
	"nathanbeddoewebdev/gcpm/cmd/commands/auth"
	catalogcmd "nathanbeddoewebdev/gcpm/cmd/commands/catalog"
	cfgcmd "nathanbeddoewebdev/gcpm/cmd/commands/config"
	"nathanbeddoewebdev/gcpm/cmd/commands/probe"
	"nathanbeddoewebdev/gcpm/cmd/commands/provision"
	"nathanbeddoewebdev/gcpm/cmd/commands/serve"
	"nathanbeddoewebdev/gcpm/internal/auditlog"
	"nathanbeddoewebdev/gcpm/internal/cliutil"
	"nathanbeddoewebdev/gcpm/internal/config"
	"nathanbeddoewebdev/gcpm/internal/logger"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands.
func rootCmd() *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "gcpm",
		Short: "Provision Firebase-ready Google Cloud projects and probe API reachability",
		Long: `gcpm walks a Google Cloud project through four provisioning stages
(create project, add Firebase, configure auth, provision the Firestore
database) and checks that the Google Cloud APIs it depends on are reachable.

Runs are simulated by default; pass --live to call the real APIs.

Quick start:
  gcpm provision                              # Interactive wizard
  gcpm provision --project-id my-app-123 --name "My App"
  gcpm auth login access-token                # Store an OAuth token for --live
  gcpm probe --api-key AIza...                # Check endpoint reachability
  gcpm serve                                  # HTTP API + live event stream`,
		PersistentPreRunE: setupLogger,
	}

	cmd.PersistentFlags().String("log-level", "", "Diagnostic log level: debug, info, warn, error (default from config, then warn)")
	cmd.PersistentFlags().String("log-format", "console", "Diagnostic log format: console or json")
	cmd.PersistentFlags().String(cliutil.CatalogFlag, "", "YAML file replacing the built-in endpoint catalog")

	cmd.AddCommand(provision.NewCommand())
	cmd.AddCommand(probe.NewCommand())
	cmd.AddCommand(catalogcmd.NewCommand())
	cmd.AddCommand(serve.NewCommand())
	cmd.AddCommand(auth.NewCommand())
	cmd.AddCommand(cfgcmd.NewCommand())
	cmd.AddCommand(audit.NewCommand())

	return cmd
}

// setupLogger builds the diagnostic logger from flags and config and
// attaches it to the command context.
func setupLogger(cmd *cobra.Command, args []string) error {
	level, _ := cmd.Flags().GetString("log-level")
	format, _ := cmd.Flags().GetString("log-format")

	if strings.TrimSpace(level) == "" {
		if cfg, err := config.Load(); err == nil {
			level = cfg.LogLevel
		}
	}

	log, err := logger.New(logger.Config{Level: level, Format: format, Output: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}
	cmd.SetContext(logr.NewContext(cmd.Context(), log))
	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	var root = rootCmd()

	start := time.Now()
	executed, err := root.ExecuteC()
	recordAudit(executed, os.Args[1:], start, err)

	if err != nil {
		os.Exit(1)
	}
}

// recordAudit stores one audit entry for the executed command. Failures to
// write the audit log never change the command's outcome.
func recordAudit(executed *cobra.Command, args []string, start time.Time, runErr error) {
	if !shouldAudit(executed) {
		return
	}

	repo, err := auditlog.Open()
	if err != nil {
		cliutil.Logger(executed).V(1).Info("audit log unavailable", "error", err.Error())
		return
	}
	defer repo.Close()

	meta := auditlog.MetadataFromContext(executed.Context())
	entry := auditlog.NewEntry(executed.CommandPath(), args, meta, start, runErr)
	if err := repo.Save(context.Background(), entry); err != nil {
		cliutil.Logger(executed).V(1).Info("failed to record audit entry", "error", err.Error())
	}
}

func shouldAudit(executed *cobra.Command) bool {
	if executed == nil || !executed.Runnable() {
		return false
	}
	path := executed.CommandPath()
	return !strings.HasPrefix(path, "gcpm audit") && !strings.HasPrefix(path, "gcpm help") &&
		!strings.HasPrefix(path, "gcpm completion")
}
