package library

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewAddCommand creates the add command
func NewAddCommand(services *Services) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add [URL|QUERY]",
		Short: "Search for videos and add the results to the library",
		Long: `Resolve a video URL, a playlist URL or a keyword query and add every
result to the library. Videos that are already saved are reported as
duplicates.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			limit, _ := cmd.Flags().GetInt("limit")
			dryRun, _ := cmd.Flags().GetBool("dry-run")

			ctx := cmd.Context()
			svc, cleanup, err := services.open(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			found, err := svc.Search.Search(ctx, query, "")
			if err != nil {
				return fmt.Errorf("failed to search: %w", err)
			}

			records := found.Results
			if limit > 0 && len(records) > limit {
				records = records[:limit]
			}
			if len(records) == 0 {
				cmd.Printf("No videos found for %q\n", query)
				return nil
			}

			if dryRun {
				cmd.Println("=== DRY RUN MODE ===")
				cmd.Printf("Would add %d %s:\n", len(records), plural(len(records), "song"))
				printRecords(cmd, records)
				return nil
			}

			result, err := svc.Library.Add(ctx, userFlag(cmd), records)
			if err != nil {
				return fmt.Errorf("failed to add songs: %w", err)
			}

			cmd.Println(addMessage(*result))
			return nil
		},
	}

	cmd.Flags().Int("limit", 0, "Maximum number of results to add (0 adds all)")
	cmd.Flags().Bool("dry-run", false, "Show what would be added without saving")

	return cmd
}
