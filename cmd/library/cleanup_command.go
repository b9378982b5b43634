package library

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewCleanupCommand creates the cleanup command
func NewCleanupCommand(services *Services) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Delete audio files older than the retention period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, cleanup, err := services.open(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := svc.Library.CleanupArtifacts(ctx)
			if err != nil {
				return fmt.Errorf("failed to clean up downloads: %w", err)
			}

			cmd.Printf("Cleaned up %d old download files, %d remaining\n", result.Deleted, result.Kept)
			return nil
		},
	}
}
