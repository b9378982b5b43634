package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/Taichi-iskw/ytshelf/internal/app"
	"github.com/Taichi-iskw/ytshelf/internal/config"
	"github.com/Taichi-iskw/ytshelf/internal/server"
)

// serveCmd runs the HTTP API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long:  `Serve the search, library and download endpoints until interrupted.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		factory := app.NewServiceFactory(os.Stderr)
		svc, cleanup, err := factory.CreateServices(ctx, true)
		if err != nil {
			return err
		}
		defer cleanup()

		cfg := svc.Config
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.ListenAddr = addr
		}
		if cfg.LogLevel != "debug" {
			gin.SetMode(gin.ReleaseMode)
		}

		srv := server.New(server.Dependencies{
			Search:   svc.Search,
			Library:  svc.Library,
			Bulk:     svc.Bulk,
			Progress: svc.Progress,
			Health: func(ctx context.Context) error {
				return config.PingDatabase(ctx, svc.Pool)
			},
		}, server.Settings{
			ListenAddr:    cfg.Server.ListenAddr,
			RatePerSecond: cfg.Server.RatePerSecond,
			Burst:         cfg.Server.Burst,
			StaticDir:     cfg.Audio.OutputDir,
			StaticPrefix:  cfg.Audio.PublicBaseURL,
		}, svc.Log)

		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("server stopped: %w", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides server.listen_addr)")
	rootCmd.AddCommand(serveCmd)
}
