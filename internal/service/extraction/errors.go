package extraction

import (
	"fmt"
	"strings"
)

const stderrExcerptLimit = 500

// ToolError carries the exit status and tail of stderr of a failed run
type ToolError struct {
	ExitCode int
	Stderr   string
}

func (e *ToolError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("exit status %d", e.ExitCode)
	}
	return fmt.Sprintf("exit status %d: %s", e.ExitCode, e.Stderr)
}

func excerpt(stderr []byte) string {
	s := strings.TrimSpace(string(stderr))
	if len(s) > stderrExcerptLimit {
		s = "..." + s[len(s)-stderrExcerptLimit:]
	}
	return s
}

// describeFailure turns common yt-dlp stderr patterns into user-facing messages
func describeFailure(stderr, target string) string {
	switch {
	case strings.Contains(stderr, "Private video"):
		return "video is private and cannot be accessed"
	case strings.Contains(stderr, "Video unavailable"), strings.Contains(stderr, "This video is not available"):
		return "video is not available (may be private, deleted, or region-blocked)"
	case strings.Contains(stderr, "Video removed"):
		return "video has been removed by the uploader"
	case strings.Contains(stderr, "HTTP Error 404"), strings.Contains(stderr, "does not exist"):
		return "video or playlist not found - please check the URL"
	case strings.Contains(stderr, "Sign in to confirm"):
		return "the source requires sign-in for this content"
	case strings.Contains(stderr, "429"):
		return "rate limited by YouTube - please try again later"
	case strings.Contains(stderr, "403"):
		return "access denied - content may be region-blocked or require login"
	case strings.Contains(strings.ToLower(stderr), "network"), strings.Contains(stderr, "Unable to download"):
		return "network connection error - please check your internet connection"
	default:
		return fmt.Sprintf("extraction failed for %s", target)
	}
}
