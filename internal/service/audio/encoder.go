package audio

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	apperrors "github.com/Taichi-iskw/ytshelf/internal/errors"
	"github.com/Taichi-iskw/ytshelf/internal/service/common"
)

// Settings configures the Encoder
type Settings struct {
	ToolPath      string
	OutputDir     string
	PublicBaseURL string
	Format        string
	Quality       string
	Timeout       time.Duration
}

// Source identifies the video to encode
type Source struct {
	ExternalID string
	SourceURL  string
	Title      string
}

// Artifact is a produced (or reused) audio file
type Artifact struct {
	FileName  string
	Path      string
	URL       string
	SizeBytes int64
	Reused    bool
}

// CleanupResult reports an artifact prune
type CleanupResult struct {
	Deleted int `json:"deleted"`
	Kept    int `json:"kept"`
}

// Encoder produces downloadable audio artifacts through yt-dlp
type Encoder interface {
	Encode(ctx context.Context, src Source) (*Artifact, error)
	// Cleanup removes artifacts whose modification time is older than olderThan
	Cleanup(ctx context.Context, olderThan time.Duration) (*CleanupResult, error)
}

type encoder struct {
	cmdRunner common.CmdRunner
	settings  Settings
	log       zerolog.Logger
	now       func() time.Time
}

// NewEncoder creates an Encoder with default CmdRunner
func NewEncoder(settings Settings, log zerolog.Logger) Encoder {
	return NewEncoderWithCmdRunner(common.NewCmdRunner(), settings, log)
}

// NewEncoderWithCmdRunner creates an Encoder with custom CmdRunner (for testing)
func NewEncoderWithCmdRunner(cmdRunner common.CmdRunner, settings Settings, log zerolog.Logger) Encoder {
	if settings.ToolPath == "" {
		settings.ToolPath = "yt-dlp"
	}
	if settings.OutputDir == "" {
		settings.OutputDir = filepath.Join("public", "downloads")
	}
	if settings.PublicBaseURL == "" {
		settings.PublicBaseURL = "/downloads"
	}
	if settings.Format == "" {
		settings.Format = "mp3"
	}
	if settings.Quality == "" {
		settings.Quality = "192K"
	}
	if settings.Timeout <= 0 {
		settings.Timeout = 5 * time.Minute
	}
	return &encoder{
		cmdRunner: cmdRunner,
		settings:  settings,
		log:       log.With().Str("component", "audio").Logger(),
		now:       time.Now,
	}
}

func (e *encoder) Encode(ctx context.Context, src Source) (*Artifact, error) {
	if src.ExternalID == "" || src.SourceURL == "" {
		return nil, apperrors.New(apperrors.CodeInvalidArg, "video id and URL are required")
	}

	if err := os.MkdirAll(e.settings.OutputDir, 0755); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to create output directory")
	}

	fileName := FileName(src.Title, src.ExternalID, e.settings.Format)
	outputPath := filepath.Join(e.settings.OutputDir, fileName)
	artifact := &Artifact{
		FileName: fileName,
		Path:     outputPath,
		URL:      strings.TrimRight(e.settings.PublicBaseURL, "/") + "/" + path.Base(fileName),
	}

	if info, err := os.Stat(outputPath); err == nil && !info.IsDir() {
		e.log.Debug().Str("file", fileName).Msg("audio: reusing existing artifact")
		artifact.SizeBytes = info.Size()
		artifact.Reused = true
		return artifact, nil
	}

	ctx, cancel := context.WithTimeout(ctx, e.settings.Timeout)
	defer cancel()

	template := strings.TrimSuffix(outputPath, filepath.Ext(outputPath)) + ".%(ext)s"
	args := []string{
		"--extract-audio",
		"--audio-format", e.settings.Format,
		"--audio-quality", e.settings.Quality,
		"--output", template,
		"--no-playlist",
		"--embed-metadata",
		"--no-warnings",
		src.SourceURL,
	}

	start := e.now()
	if _, err := e.cmdRunner.Run(ctx, e.settings.ToolPath, args...); err != nil {
		return nil, e.classify(ctx, err, src)
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		e.log.Error().Err(err).Str("file", fileName).Msg("audio: tool exited cleanly but produced no artifact")
		return nil, apperrors.Wrap(err, apperrors.CodeToolFailed, "failed to generate audio file")
	}
	artifact.SizeBytes = info.Size()

	e.log.Info().
		Str("file", fileName).
		Int64("bytes", artifact.SizeBytes).
		Dur("elapsed", e.now().Sub(start)).
		Msg("audio: artifact created")

	return artifact, nil
}

func (e *encoder) Cleanup(ctx context.Context, olderThan time.Duration) (*CleanupResult, error) {
	result := &CleanupResult{}

	entries, err := os.ReadDir(e.settings.OutputDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return result, nil
		}
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to read output directory")
	}

	ext := "." + e.settings.Format
	cutoff := e.now().Add(-olderThan)
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return result, apperrors.Wrap(err, apperrors.CodeInternal, "cleanup interrupted")
		}
		if entry.IsDir() || filepath.Ext(entry.Name()) != ext {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		if !info.ModTime().Before(cutoff) {
			result.Kept++
			continue
		}

		if err := os.Remove(filepath.Join(e.settings.OutputDir, entry.Name())); err != nil {
			e.log.Warn().Err(err).Str("file", entry.Name()).Msg("audio: failed to delete old artifact")
			result.Kept++
			continue
		}
		result.Deleted++
	}

	e.log.Info().Int("deleted", result.Deleted).Int("kept", result.Kept).Msg("audio: cleanup finished")
	return result, nil
}

func (e *encoder) classify(ctx context.Context, err error, src Source) error {
	logEvent := e.log.Error().Err(err).Str("url", src.SourceURL)

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		logEvent.Dur("budget", e.settings.Timeout).Msg("audio: encoding timed out")
		return apperrors.Wrap(err, apperrors.CodeTimeout, "download timeout - video may be too long or unavailable")
	}
	if errors.Is(err, context.Canceled) {
		logEvent.Msg("audio: encoding canceled")
		return apperrors.Wrap(err, apperrors.CodeExternal, "audio encoding canceled")
	}
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		logEvent.Msg("audio: tool unavailable")
		return apperrors.Wrap(err, apperrors.CodeToolUnavailable,
			fmt.Sprintf("%s is not installed or not found in PATH. Please install yt-dlp", e.settings.ToolPath))
	}

	var exitErr *common.ExitError
	if errors.As(err, &exitErr) {
		logEvent.Int("exit_code", exitErr.Code).Bytes("stderr", tail(exitErr.Stderr)).Msg("audio: tool failed")
		return apperrors.Wrap(err, apperrors.CodeToolFailed, fmt.Sprintf("failed to download audio from video '%s'", src.ExternalID))
	}

	logEvent.Msg("audio: tool failed")
	return apperrors.Wrap(err, apperrors.CodeToolFailed, "audio encoding failed")
}

var (
	unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9\s-]`)
	whitespace  = regexp.MustCompile(`\s+`)
)

// FileName builds "<sanitized title>_<id>.<ext>"
func FileName(title, externalID, format string) string {
	clean := unsafeChars.ReplaceAllString(title, "")
	clean = whitespace.ReplaceAllString(strings.TrimSpace(clean), "_")
	if clean == "" {
		return externalID + "." + format
	}
	return clean + "_" + externalID + "." + format
}

func tail(b []byte) []byte {
	const limit = 500
	if len(b) > limit {
		return b[len(b)-limit:]
	}
	return b
}
