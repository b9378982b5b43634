package extraction

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	apperrors "github.com/Taichi-iskw/ytshelf/internal/errors"
	"github.com/Taichi-iskw/ytshelf/internal/metadata"
	"github.com/Taichi-iskw/ytshelf/internal/service/common"
)

// Mode selects how the tool resolves its target
type Mode int

const (
	// ModeSingleVideo emits one full JSON document for a video URL
	ModeSingleVideo Mode = iota
	// ModeFlatPlaylist emits one playlist document with shallow entries
	ModeFlatPlaylist
	// ModeSearch runs a keyword search and emits one JSON object per line
	ModeSearch
)

func (m Mode) String() string {
	switch m {
	case ModeFlatPlaylist:
		return "flat-playlist"
	case ModeSearch:
		return "search"
	default:
		return "single-video"
	}
}

// Options for a single Extract call. Zero Timeout uses the mode's default budget.
type Options struct {
	Mode    Mode
	Limit   int
	Timeout time.Duration
}

// Settings configures an Extractor
type Settings struct {
	ToolPath        string
	VideoTimeout    time.Duration
	SearchTimeout   time.Duration
	PlaylistTimeout time.Duration
	RatePerSecond   float64
	Burst           int
}

// DefaultSettings returns the stock yt-dlp budgets
func DefaultSettings() Settings {
	return Settings{
		ToolPath:        "yt-dlp",
		VideoTimeout:    30 * time.Second,
		SearchTimeout:   30 * time.Second,
		PlaylistTimeout: 90 * time.Second,
	}
}

// Extraction is the parsed tool output
type Extraction struct {
	// Playlist holds the playlist document header (without entries) in flat-playlist mode
	Playlist *metadata.RawRecord
	Records  []metadata.RawRecord
	// Dropped counts output lines that were not valid JSON
	Dropped int
}

// Extractor resolves URLs and queries into raw metadata through the external tool
type Extractor interface {
	Extract(ctx context.Context, target string, opts Options) (*Extraction, error)
	// Available reports whether the tool binary can be found
	Available() error
}

type extractor struct {
	cmdRunner common.CmdRunner
	settings  Settings
	limiter   *rate.Limiter
	log       zerolog.Logger
}

// NewExtractor creates an Extractor that spawns real processes
func NewExtractor(settings Settings, log zerolog.Logger) Extractor {
	return NewExtractorWithCmdRunner(common.NewCmdRunner(), settings, log)
}

// NewExtractorWithCmdRunner creates an Extractor with custom CmdRunner (for testing)
func NewExtractorWithCmdRunner(cmdRunner common.CmdRunner, settings Settings, log zerolog.Logger) Extractor {
	defaults := DefaultSettings()
	if settings.ToolPath == "" {
		settings.ToolPath = defaults.ToolPath
	}
	if settings.VideoTimeout <= 0 {
		settings.VideoTimeout = defaults.VideoTimeout
	}
	if settings.SearchTimeout <= 0 {
		settings.SearchTimeout = defaults.SearchTimeout
	}
	if settings.PlaylistTimeout <= 0 {
		settings.PlaylistTimeout = defaults.PlaylistTimeout
	}

	var limiter *rate.Limiter
	if settings.RatePerSecond > 0 {
		burst := settings.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(settings.RatePerSecond), burst)
	}

	return &extractor{
		cmdRunner: cmdRunner,
		settings:  settings,
		limiter:   limiter,
		log:       log.With().Str("component", "extraction").Logger(),
	}
}

func (e *extractor) Available() error {
	if _, err := e.cmdRunner.LookPath(e.settings.ToolPath); err != nil {
		return apperrors.Wrap(err, apperrors.CodeToolUnavailable,
			fmt.Sprintf("%s is not installed or not found in PATH. Please install yt-dlp", e.settings.ToolPath))
	}
	return nil
}

// Extract runs the tool once. It never retries; the subprocess is killed when
// the budget expires.
func (e *extractor) Extract(ctx context.Context, target string, opts Options) (*Extraction, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, apperrors.New(apperrors.CodeInvalidArg, "extraction target is required")
	}
	if opts.Mode != ModeSearch && !isHTTPURL(target) {
		return nil, apperrors.New(apperrors.CodeInvalidArg, "extraction target must be an http(s) URL")
	}

	budget := opts.Timeout
	if budget <= 0 {
		budget = e.budgetFor(opts.Mode)
	}

	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil, e.classify(ctx, err, target, opts.Mode, budget)
			}
			e.log.Warn().Err(err).Str("target", target).Msg("extraction: spawn rate limit outlasted budget")
			return nil, apperrors.Wrap(err, apperrors.CodeTimeout, fmt.Sprintf("extraction timed out after %s", budget))
		}
	}

	args := BuildArgs(target, opts)
	start := time.Now()
	output, err := e.cmdRunner.Run(ctx, e.settings.ToolPath, args...)
	if err != nil {
		return nil, e.classify(ctx, err, target, opts.Mode, budget)
	}

	result, err := ParseOutput(output)
	if err != nil {
		e.log.Error().Err(err).Str("target", target).Str("mode", opts.Mode.String()).Msg("extraction: unusable tool output")
		return nil, err
	}
	if result.Dropped > 0 {
		e.log.Warn().Int("dropped", result.Dropped).Str("target", target).Msg("extraction: skipped unparsable output lines")
	}

	e.log.Debug().
		Str("target", target).
		Str("mode", opts.Mode.String()).
		Int("records", len(result.Records)).
		Dur("elapsed", time.Since(start)).
		Msg("extraction: completed")

	return result, nil
}

func (e *extractor) budgetFor(mode Mode) time.Duration {
	switch mode {
	case ModeFlatPlaylist:
		return e.settings.PlaylistTimeout
	case ModeSearch:
		return e.settings.SearchTimeout
	default:
		return e.settings.VideoTimeout
	}
}

// BuildArgs returns the tool arguments for a target and mode
func BuildArgs(target string, opts Options) []string {
	switch opts.Mode {
	case ModeFlatPlaylist:
		args := []string{target, "--dump-single-json", "--flat-playlist"}
		if opts.Limit > 0 {
			args = append(args, "--playlist-end", strconv.Itoa(opts.Limit))
		}
		return append(args, "--no-warnings", "--skip-download")
	case ModeSearch:
		limit := opts.Limit
		if limit <= 0 {
			limit = 25
		}
		return []string{fmt.Sprintf("ytsearch%d:%s", limit, target), "--dump-json", "--flat-playlist", "--no-warnings", "--skip-download"}
	default:
		return []string{target, "--dump-json", "--no-warnings", "--skip-download"}
	}
}

func (e *extractor) classify(ctx context.Context, err error, target string, mode Mode, budget time.Duration) error {
	logEvent := e.log.Error().Err(err).Str("target", target).Str("mode", mode.String())

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		logEvent.Dur("budget", budget).Msg("extraction: timed out, process killed")
		return apperrors.Wrap(err, apperrors.CodeTimeout, fmt.Sprintf("extraction timed out after %s", budget))

	case errors.Is(err, context.Canceled):
		logEvent.Msg("extraction: canceled")
		return apperrors.Wrap(err, apperrors.CodeExternal, "extraction canceled")

	case isLaunchFailure(err):
		logEvent.Msg("extraction: tool unavailable")
		return apperrors.Wrap(err, apperrors.CodeToolUnavailable,
			fmt.Sprintf("%s is not installed or not found in PATH. Please install yt-dlp", e.settings.ToolPath))
	}

	var exitErr *common.ExitError
	if errors.As(err, &exitErr) {
		toolErr := &ToolError{ExitCode: exitErr.Code, Stderr: excerpt(exitErr.Stderr)}
		logEvent.Int("exit_code", exitErr.Code).Str("stderr", toolErr.Stderr).Msg("extraction: tool failed")
		return apperrors.Wrap(toolErr, apperrors.CodeToolFailed, describeFailure(toolErr.Stderr, target))
	}

	logEvent.Msg("extraction: tool failed")
	return apperrors.Wrap(err, apperrors.CodeToolFailed, "extraction tool failed")
}

func isLaunchFailure(err error) bool {
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
		return true
	}
	var pathErr *fs.PathError
	return errors.As(err, &pathErr)
}

func isHTTPURL(s string) bool {
	return strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "http://")
}
