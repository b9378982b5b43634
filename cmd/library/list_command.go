package library

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewListCommand creates the list command
func NewListCommand(services *Services) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the songs saved in the library",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			offset, _ := cmd.Flags().GetInt("offset")
			format, _ := cmd.Flags().GetString("format")

			formatter, err := NewFormatter(format)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			svc, cleanup, err := services.open(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			items, err := svc.Library.ListLibrary(ctx, userFlag(cmd), limit, offset)
			if err != nil {
				return fmt.Errorf("failed to list library: %w", err)
			}

			if len(items) == 0 && format == "text" {
				cmd.Println("Your library is empty")
				return nil
			}

			output, err := formatter.FormatLibrary(items)
			if err != nil {
				return err
			}
			cmd.Print(output)
			return nil
		},
	}

	addListFlags(cmd)
	return cmd
}

// NewDownloadsCommand creates the downloads command
func NewDownloadsCommand(services *Services) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "downloads",
		Short: "List recorded downloads, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			offset, _ := cmd.Flags().GetInt("offset")
			format, _ := cmd.Flags().GetString("format")

			formatter, err := NewFormatter(format)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			svc, cleanup, err := services.open(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			items, err := svc.Library.ListDownloads(ctx, userFlag(cmd), limit, offset)
			if err != nil {
				return fmt.Errorf("failed to list downloads: %w", err)
			}

			if len(items) == 0 && format == "text" {
				cmd.Println("No downloads recorded")
				return nil
			}

			output, err := formatter.FormatDownloads(items)
			if err != nil {
				return err
			}
			cmd.Print(output)
			return nil
		},
	}

	addListFlags(cmd)
	return cmd
}

func addListFlags(cmd *cobra.Command) {
	cmd.Flags().Int("limit", 20, "Maximum number of entries to list")
	cmd.Flags().Int("offset", 0, "Number of entries to skip")
	cmd.Flags().String("format", "text", "Output format (text, json)")
}
