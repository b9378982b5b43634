package cmd

import (
	"github.com/Taichi-iskw/ytshelf/cmd/library"
)

func init() {
	// nil services: each subcommand builds real ones from the configuration
	rootCmd.AddCommand(library.NewLibraryCommand(nil))
}
