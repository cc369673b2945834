package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/groupguard/modbot/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "modbot",
	Short: "Context-aware spam moderation for chat groups",
	Long:  "Scores group messages with an LLM grounded in collected sender context (linked channel, stories, account age, reply thread), then enforces or notifies per admin policy.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
