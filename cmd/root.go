package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ytshelf",
	Short: "Search YouTube and keep a per-user library of songs and downloads",
	Long: `ytshelf resolves YouTube video URLs, playlist URLs and keyword queries into
normalized video records, saves them to per-user libraries backed by
PostgreSQL and produces MP3 files on demand.`,
	SilenceUsage: true,
}

// Execute runs the root command until it finishes or the process is interrupted
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
