package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var (
	flagConfig  string
	flagSession string
	flagDebug   bool
)

var rootCmd = &cobra.Command{
	Use:          "cortex",
	Short:        "Chat with your codebase using retrieval-augmented answers",
	SilenceUsage: true,
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default ./cortex.yaml, then ~/.config/cortex/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagSession, "session", "", "session id (default derived from the project path)")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "verbose logging")
}
