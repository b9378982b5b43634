package library

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Taichi-iskw/ytshelf/internal/app"
	"github.com/Taichi-iskw/ytshelf/internal/model"
	"github.com/Taichi-iskw/ytshelf/internal/service/audio"
	"github.com/Taichi-iskw/ytshelf/internal/service/bulk"
)

// Service is the library surface the commands drive
type Service interface {
	bulk.Library
	Add(ctx context.Context, userID string, records []model.VideoRecord) (*model.AddResult, error)
	ListLibrary(ctx context.Context, userID string, limit, offset int) ([]*model.LibraryItem, error)
	ListDownloads(ctx context.Context, userID string, limit, offset int) ([]*model.DownloadItem, error)
	CleanupArtifacts(ctx context.Context) (*audio.CleanupResult, error)
}

// Searcher resolves a URL or keyword query into video records
type Searcher interface {
	Search(ctx context.Context, query, userID string) (*model.SearchResult, error)
}

// Services bundles the dependencies of every library command. A nil
// *Services makes each command build real services from the configuration.
type Services struct {
	Library Service
	Search  Searcher
	Bulk    *bulk.Executor
}

func (s *Services) open(ctx context.Context) (*Services, func(), error) {
	if s != nil {
		return s, func() {}, nil
	}

	svc, cleanup, err := app.NewServiceFactory(os.Stderr).CreateServices(ctx, true)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create library service: %w", err)
	}
	return &Services{Library: svc.Library, Search: svc.Search, Bulk: svc.Bulk}, cleanup, nil
}

// NewLibraryCommand creates the main library command
func NewLibraryCommand(services *Services) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "library",
		Short: "Manage a user's saved songs and downloads",
		Long: `Add videos to a user's library, record downloads, produce audio files
and delete entries. Every subcommand acts on behalf of the user given by
--user (or YTSHELF_USER).`,
	}

	cmd.PersistentFlags().String("user", os.Getenv("YTSHELF_USER"), "User ID to act for")

	cmd.AddCommand(NewAddCommand(services))
	cmd.AddCommand(NewListCommand(services))
	cmd.AddCommand(NewDownloadsCommand(services))
	cmd.AddCommand(NewBulkCommand(services, bulk.OpDownload,
		"Record downloads for library entries"))
	cmd.AddCommand(NewBulkCommand(services, bulk.OpRemove,
		"Remove entries from the library, keeping their downloads"))
	cmd.AddCommand(NewBulkCommand(services, bulk.OpDeleteDownload,
		"Delete download records, keeping the library entries"))
	cmd.AddCommand(NewBulkCommand(services, bulk.OpDelete,
		"Delete library entries together with their downloads"))
	cmd.AddCommand(NewBulkCommand(services, bulk.OpMaterialize,
		"Produce MP3 files for library entries"))
	cmd.AddCommand(NewCleanupCommand(services))

	return cmd
}

func userFlag(cmd *cobra.Command) string {
	user, _ := cmd.Flags().GetString("user")
	return user
}
