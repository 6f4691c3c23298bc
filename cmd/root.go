package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"chorus/pkg/config"
	"chorus/pkg/llm"
	"chorus/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:   "chorus",
	Short: "Conversation orchestration for multi-bot chat rooms",
	Long:  "Chorus decides whether a bot should reply in a multi-bot chat room, which bot it should be, and what system prompt its reply is generated with.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// bootstrap loads config, installs the logger, and builds the model client.
func bootstrap() (*config.Config, llm.Client, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	appLogger, err := logger.New(cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize logger: %w", err)
	}
	slog.SetDefault(appLogger)

	client, err := llm.DefaultClient(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize model client: %w", err)
	}

	return cfg, client, nil
}
