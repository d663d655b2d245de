package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/akolanti/ResumeRAG/internal/config"
	"github.com/akolanti/ResumeRAG/pkg/logger_i"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "indexer",
	Short: "Build and inspect the base index",
	Long: `indexer prepares the pinned base corpus every session starts with:
the owner's resume, chunked by paragraph, and a free-form profile kept as
one chunk. The result is a directory holding manifest.yaml, the source texts
and vectors.bin, which the API loads at start-up.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		_ = godotenv.Load()
		logger_i.InitTo(cmd.ErrOrStderr(), os.Getenv("LOG_LEVEL"))
		settings, err := config.Load(configPath)
		if err != nil {
			return err
		}
		config.Set(settings)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("CONFIG_FILE"), "path to a YAML settings file")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
