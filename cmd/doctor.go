package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Taichi-iskw/ytshelf/internal/config"
	"github.com/Taichi-iskw/ytshelf/internal/logging"
	"github.com/Taichi-iskw/ytshelf/internal/service/extraction"
)

// doctorCmd checks external prerequisites
var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that yt-dlp, the database and redis are reachable",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := config.NewConfig()
		if err != nil {
			cfg = config.FromEnv()
			cmd.Printf("config:   %v (using environment only)\n", err)
		} else {
			cmd.Println("config:   ok")
		}

		failed := 0
		check := func(name string, err error) {
			if err != nil {
				failed++
				cmd.Printf("%-9s %v\n", name+":", err)
				return
			}
			cmd.Printf("%-9s ok\n", name+":")
		}

		log := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
		extractor := extraction.NewExtractor(extraction.Settings{ToolPath: cfg.Extraction.ToolPath}, log)
		check("yt-dlp", extractor.Available())

		if cfg.DatabaseURL != "" {
			pool, err := config.NewDatabasePool(ctx, cfg)
			if err == nil {
				config.CloseDatabasePool(pool)
			}
			check("database", err)
		}

		if cfg.RedisURL != "" {
			client, err := config.NewRedisClient(ctx, cfg)
			if err == nil {
				client.Close()
			}
			check("redis", err)
		}

		if cfg.Search.Provider == config.ProviderAPI && cfg.YouTubeAPIKey == "" {
			check("api key", fmt.Errorf("search.provider is api but no YouTube API key is set"))
		}

		if failed > 0 {
			return fmt.Errorf("%d %s failed", failed, pluralize(failed, "check"))
		}
		return nil
	},
}

func pluralize(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

