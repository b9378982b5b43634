package library

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Taichi-iskw/ytshelf/internal/service/bulk"
)

// NewBulkCommand creates a command that applies the named bulk operation to
// the library entry ids given as arguments
func NewBulkCommand(services *Services, operation, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   operation + " [ID...]",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, cleanup, err := services.open(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			op, ok := bulk.Lookup(svc.Library, operation)
			if !ok {
				return fmt.Errorf("unknown operation: %s", operation)
			}

			summary, err := svc.Bulk.Run(ctx, op, userFlag(cmd), args, "")
			if summary != nil {
				cmd.Println(summaryMessage(summary))
			}
			if err != nil {
				return fmt.Errorf("%s failed: %w", operation, err)
			}
			return nil
		},
	}

	return cmd
}
