package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Taichi-iskw/ytshelf/internal/config"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration settings",
	Long:  `Manage configuration settings for ytshelf.`,
}

// configInitCmd represents the config init command
var configInitCmd = &cobra.Command{
	Use:   "init [DATABASE_URL]",
	Short: "Initialize configuration file",
	Long:  `Create a new configuration file with database connection settings.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var databaseURL string
		if len(args) > 0 {
			databaseURL = args[0]
		}

		if err := config.InitConfig(databaseURL); err != nil {
			return err
		}

		configPath, err := config.GetConfigPath()
		if err != nil {
			return err
		}

		cmd.Printf("Created configuration file: %s\n", configPath)
		cmd.Println("Please edit the database_url in this file to match your PostgreSQL database.")

		return nil
	},
}

// configShowCmd represents the config show command
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the configuration file path and the effective settings.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, err := config.GetConfigPath()
		if err != nil {
			return err
		}

		cmd.Printf("Configuration file: %s\n\n", configPath)

		cfg, err := config.NewConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		cmd.Printf("DATABASE_URL:     %s\n", cfg.DatabaseURL)
		cmd.Printf("REDIS_URL:        %s\n", valueOrNone(cfg.RedisURL))
		cmd.Printf("YOUTUBE_API_KEY:  %s\n", valueOrNone(cfg.MaskedAPIKey()))
		cmd.Printf("Search provider:  %s\n", cfg.Search.Provider)
		cmd.Printf("yt-dlp:           %s\n", cfg.Extraction.ToolPath)
		cmd.Printf("Audio directory:  %s (served at %s)\n", cfg.Audio.OutputDir, cfg.Audio.PublicBaseURL)
		cmd.Printf("Listen address:   %s\n", cfg.Server.ListenAddr)

		return nil
	},
}

func valueOrNone(v string) string {
	if v == "" {
		return "(not set)"
	}
	return v
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}
