package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/holon-run/drafter/pkg/drafter"
	"github.com/holon-run/drafter/pkg/log"
	"github.com/holon-run/drafter/pkg/webhook"
)

var (
	serveAddr            string
	serveRunTimeout      time.Duration
	serveShutdownTimeout time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the webhook server",
	Long: `Serve GitHub webhooks. Every push delivery to POST /webhook starts an
independent drafter run in the background; GET /healthz reports liveness.

Deliveries are verified with X-Hub-Signature-256 when the secret environment
variable (DRAFTER_WEBHOOK_SECRET by default) is set.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := settings.ResolveServerAddr(serveAddr)
		timeout, err := settings.ResolveRunTimeout(serveRunTimeout)
		if err != nil {
			return err
		}

		client, err := newClient()
		if err != nil {
			return err
		}

		secret := settings.ResolveWebhookSecret()
		if secret == "" {
			log.Warn("webhook secret not set, deliveries are not verified")
		}

		d := drafter.New(client, drafter.WithConfigPath(resolvedConfigName()))
		srv := webhook.NewServer(d,
			webhook.WithAddr(addr),
			webhook.WithSecret(secret),
			webhook.WithRunTimeout(timeout),
		)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		log.Info("shutting down, waiting for running drafts")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), serveShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default :8080)")
	serveCmd.Flags().DurationVar(&serveRunTimeout, "run-timeout", 0, "Timeout of one drafter run (default 2m)")
	serveCmd.Flags().DurationVar(&serveShutdownTimeout, "shutdown-timeout", 30*time.Second, "How long to wait for running drafts on shutdown")
	rootCmd.AddCommand(serveCmd)
}
