package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Taichi-iskw/ytshelf/cmd/library"
	"github.com/Taichi-iskw/ytshelf/internal/app"
)

// searchCmd resolves a URL or keyword query
var searchCmd = &cobra.Command{
	Use:   "search [URL|QUERY]",
	Short: "Search YouTube by video URL, playlist URL or keywords",
	Long: `Resolve a query into video records. Video URLs are looked up directly,
playlist URLs are expanded and anything else is a keyword search.
With --user, videos already in that user's library are left out.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")
		userID, _ := cmd.Flags().GetString("user")
		format, _ := cmd.Flags().GetString("format")

		ctx := cmd.Context()
		factory := app.NewServiceFactory(os.Stderr)
		svc, cleanup, err := factory.CreateServices(ctx, userID != "")
		if err != nil {
			return err
		}
		defer cleanup()

		result, err := svc.Search.Search(ctx, query, userID)
		if err != nil {
			return fmt.Errorf("failed to search: %w", err)
		}

		if format == "json" {
			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to format result: %w", err)
			}
			cmd.Println(string(out))
			return nil
		}

		if result.Playlist != nil {
			cmd.Printf("Playlist: %s (%s), %d videos\n", result.Playlist.Title, result.Playlist.Channel, result.Playlist.VideoCount)
		}
		if len(result.Results) == 0 {
			cmd.Println("No videos found")
		}
		cmd.Print(library.FormatRecords(result.Results))
		if result.Excluded > 0 {
			cmd.Printf("%d already in your library\n", result.Excluded)
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().String("user", os.Getenv("YTSHELF_USER"), "Leave out videos already in this user's library")
	searchCmd.Flags().String("format", "text", "Output format (text, json)")
	rootCmd.AddCommand(searchCmd)
}
