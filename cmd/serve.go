package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"chorus/pkg/bus"
	"chorus/pkg/engine"
	"chorus/pkg/gateway"
	"chorus/pkg/notify"
)

var (
	serveKeywords  []string
	serveSentiment bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the decision engine as an HTTP gateway",
	Long:  "Runs the decision engine behind an HTTP gateway with health and status endpoints, optionally forwarding escalation alerts to Telegram.",
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd
		_ = args

		cfg, client, err := bootstrap()
		if err != nil {
			fmt.Printf("%v\n", err)
			return
		}
		log := slog.Default().With("component", "cmd.serve")

		runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		events := bus.NewEventBus()
		defer events.Close()

		// Escalation alerts depend on the sentiment pass.
		analyzeSentiment := serveSentiment || cfg.Notify.Enabled

		eng := engine.New(client, events, engine.Options{
			Keywords:         serveKeywords,
			AnalyzeSentiment: analyzeSentiment,
		})

		if cfg.Notify.Enabled {
			notifier, err := notify.New(cfg.Notify, log)
			if err != nil {
				log.Error("Failed to initialize notifier", "error", err)
				return
			}
			go func() {
				if err := notifier.Run(runCtx, events); err != nil && !errors.Is(err, context.Canceled) {
					log.Error("Notifier stopped", "error", err)
				}
			}()
		}

		svc, err := gateway.NewService(cfg, eng, log)
		if err != nil {
			log.Error("Failed to initialize gateway service", "error", err)
			return
		}

		log.Info("Serving decisions", "vendor", cfg.Engine.Vendor, "model", cfg.Engine.Model, "sentiment", analyzeSentiment)
		if err := svc.Run(runCtx); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			log.Error("Gateway runtime failed", "error", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringSliceVarP(&serveKeywords, "keyword", "k", nil, "trigger keyword to flag (repeatable)")
	serveCmd.Flags().BoolVar(&serveSentiment, "sentiment", false, "run sentiment analysis on accepted messages")
}
