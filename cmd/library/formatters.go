package library

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Taichi-iskw/ytshelf/internal/model"
	"github.com/Taichi-iskw/ytshelf/internal/service/bulk"
)

// Formatter renders listings for terminal output
type Formatter interface {
	FormatLibrary(items []*model.LibraryItem) (string, error)
	FormatDownloads(items []*model.DownloadItem) (string, error)
}

// NewFormatter returns the formatter for the given format name
func NewFormatter(format string) (Formatter, error) {
	switch format {
	case "text":
		return &TextFormatter{}, nil
	case "json":
		return &JSONFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (expected text or json)", format)
	}
}

// TextFormatter formats listings as plain text
type TextFormatter struct{}

// FormatLibrary formats library entries as plain text
func (f *TextFormatter) FormatLibrary(items []*model.LibraryItem) (string, error) {
	var output strings.Builder
	for _, item := range items {
		output.WriteString(fmt.Sprintf("ID: %s\n", item.ID))
		writeSong(&output, item.Song)
		output.WriteString(fmt.Sprintf("Added: %s\n", item.AddedAt.Format(time.DateTime)))
		if item.Downloaded {
			output.WriteString("Downloaded: yes")
			if item.Download != nil && item.Download.ArtifactURL != nil {
				output.WriteString(" (" + *item.Download.ArtifactURL + ")")
			}
			output.WriteString("\n")
		}
		output.WriteString("---\n")
	}
	return output.String(), nil
}

// FormatDownloads formats download records as plain text
func (f *TextFormatter) FormatDownloads(items []*model.DownloadItem) (string, error) {
	var output strings.Builder
	for _, item := range items {
		output.WriteString(fmt.Sprintf("ID: %s\n", item.ID))
		writeSong(&output, item.Song)
		output.WriteString(fmt.Sprintf("Downloaded: %s\n", item.DownloadedAt.Format(time.DateTime)))
		if item.ArtifactURL != nil {
			output.WriteString(fmt.Sprintf("File: %s\n", *item.ArtifactURL))
		}
		output.WriteString("---\n")
	}
	return output.String(), nil
}

func writeSong(output *strings.Builder, song model.CatalogEntry) {
	output.WriteString(fmt.Sprintf("Title: %s\n", song.Title))
	output.WriteString(fmt.Sprintf("Channel: %s\n", song.ChannelName))
	output.WriteString(fmt.Sprintf("Duration: %s\n", song.Duration))
	output.WriteString(fmt.Sprintf("URL: %s\n", song.SourceURL))
}

// JSONFormatter formats listings as JSON
type JSONFormatter struct{}

func (f *JSONFormatter) FormatLibrary(items []*model.LibraryItem) (string, error) {
	if items == nil {
		items = []*model.LibraryItem{}
	}
	return marshal(items)
}

func (f *JSONFormatter) FormatDownloads(items []*model.DownloadItem) (string, error) {
	if items == nil {
		items = []*model.DownloadItem{}
	}
	return marshal(items)
}

func marshal(v any) (string, error) {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(jsonBytes) + "\n", nil
}

// FormatRecords renders search results one per line
func FormatRecords(records []model.VideoRecord) string {
	var output strings.Builder
	for i, r := range records {
		output.WriteString(fmt.Sprintf("[%d] %s - %s (%s)\n    %s\n", i+1, r.Title, r.ChannelName, r.Duration, r.SourceURL))
	}
	return output.String()
}

func printRecords(cmd *cobra.Command, records []model.VideoRecord) {
	cmd.Print(FormatRecords(records))
}

func addMessage(r model.AddResult) string {
	msg := fmt.Sprintf("Added %d %s to your library", r.Added, plural(r.Added, "song"))
	if r.Duplicate > 0 {
		msg += fmt.Sprintf(", %d already existed", r.Duplicate)
	}
	if r.Failed > 0 {
		msg += fmt.Sprintf(", %d failed", r.Failed)
	}
	return msg
}

func summaryMessage(s *bulk.Summary) string {
	parts := []string{fmt.Sprintf("%d succeeded", s.Succeeded)}
	for _, p := range []struct {
		n     int
		label string
	}{
		{s.Duplicate, "duplicate"},
		{s.AlreadyDone, "already done"},
		{s.Missing, "not found"},
		{s.Failed, "failed"},
	} {
		if p.n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", p.n, p.label))
		}
	}
	return fmt.Sprintf("%s: %d requested, %s", s.Operation, s.Requested, strings.Join(parts, ", "))
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
