package serve

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"nathanbeddoewebdev/gcpm/internal/api"
	"nathanbeddoewebdev/gcpm/internal/catalog"
	"nathanbeddoewebdev/gcpm/internal/cliutil"
	"nathanbeddoewebdev/gcpm/internal/config"
	"nathanbeddoewebdev/gcpm/internal/domain"
	"nathanbeddoewebdev/gcpm/internal/events"
	"nathanbeddoewebdev/gcpm/internal/executor"
	"nathanbeddoewebdev/gcpm/internal/metrics"
	"nathanbeddoewebdev/gcpm/internal/pipeline"
	"nathanbeddoewebdev/gcpm/internal/services/auth"
	"nathanbeddoewebdev/gcpm/internal/services/console"

	"github.com/go-logr/logr"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"
)

const (
	defaultAddr     = ":8080"
	shutdownTimeout = 10 * time.Second
)

// NewCommand returns the "serve" command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API, live event stream and metrics",
		Long: `Start an HTTP server exposing provisioning and probe runs.

Endpoints:
  GET  /api/health              liveness
  GET  /api/catalog             endpoint catalog
  POST /api/provision           start a run and wait for its outcome
  GET  /api/provision/current   in-flight or most recent run
  POST /api/probe               run every connectivity check
  GET  /api/events              server-sent events for stages, log and probes
  GET  /metrics                 Prometheus metrics

The listen address comes from --addr, then GCPM_ADDR, then PORT, then the
serve-addr config key, then ` + defaultAddr + `. A .env file in the working
directory is loaded first.

Examples:
  gcpm serve
  gcpm serve --addr 127.0.0.1:9090 --adc`,
		Args:         cobra.NoArgs,
		RunE:         runServe,
		SilenceUsage: true,
	}

	cmd.Flags().String("addr", "", "Listen address (host:port)")
	cmd.Flags().Bool("adc", false, "Allow live runs to use Application Default Credentials")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	// A missing .env file is fine.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cat, err := cliutil.LoadCatalog(cmd, cfg)
	if err != nil {
		return err
	}

	flagAddr, _ := cmd.Flags().GetString("addr")
	useADC, _ := cmd.Flags().GetBool("adc")
	addr := resolveAddr(flagAddr, cfg)
	log := cliutil.Logger(cmd).WithName("serve")

	handler := newHandler(cat, log, credentialsFunc(auth.DefaultStore(), useADC))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Listening on http://%s\n", ln.Addr())
	log.Info("server started", "addr", ln.Addr().String())

	return serve(ctx, srv, ln, log)
}

// serve runs srv on ln until ctx is done, then shuts it down gracefully.
func serve(ctx context.Context, srv *http.Server, ln net.Listener, log logr.Logger) error {
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

// newHandler wires metrics and the event broker into a console service and
// returns the API handler.
func newHandler(cat *catalog.Catalog, log logr.Logger, creds api.CredentialFunc, opts ...console.Option) http.Handler {
	m := metrics.New()
	broker := events.NewBroker(log.WithName("events"))

	svcOpts := append([]console.Option{
		console.WithLogger(log),
		console.WithObserver(pipeline.Observers{m, broker}),
		console.WithRunHook(m.ObserveRun),
		console.WithProbeHook(func(i int, r domain.CheckResult) {
			m.ObserveCheck(i, r)
			broker.OnProbeResult(i, r)
		}),
	}, opts...)
	svc := console.NewService(cat, svcOpts...)

	return api.New(svc, broker,
		api.WithLogger(log.WithName("api")),
		api.WithMetricsHandler(m.Handler()),
		api.WithCredentials(creds),
	).Handler()
}

// credentialsFunc resolves live-mode tokens for API requests: an explicit
// token from the request body, the stored access token, then optionally ADC.
func credentialsFunc(store auth.Store, useADC bool) api.CredentialFunc {
	return func(ctx context.Context, explicit string) (oauth2.TokenSource, error) {
		return executor.ResolveTokenSource(ctx, executor.CredentialOptions{
			Token:  explicit,
			Store:  store,
			UseADC: useADC,
		})
	}
}

// resolveAddr picks the listen address.
func resolveAddr(flagAddr string, cfg *config.Config) string {
	if a := strings.TrimSpace(flagAddr); a != "" {
		return a
	}
	if a := getEnv("GCPM_ADDR", ""); a != "" {
		return a
	}
	if port := getEnv("PORT", ""); port != "" {
		return ":" + port
	}
	if cfg != nil && strings.TrimSpace(cfg.ServeAddr) != "" {
		return strings.TrimSpace(cfg.ServeAddr)
	}
	return defaultAddr
}

// getEnv gets environment variable or returns default value
func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}
