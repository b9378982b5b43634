package youtube

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	videoIDPattern    = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
	playlistIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

var videoHosts = map[string]bool{
	"youtube.com":       true,
	"www.youtube.com":   true,
	"m.youtube.com":     true,
	"music.youtube.com": true,
}

// ExtractVideoID returns the 11-character id of a strict video URL
// (watch?v=, youtu.be/, embed/, v/, shorts/), or "" when raw is not one.
// Bare ids are not accepted.
func ExtractVideoID(raw string) string {
	u, ok := parseURL(raw)
	if !ok {
		return ""
	}

	host := strings.ToLower(u.Hostname())
	if host == "youtu.be" {
		return validVideoID(strings.Trim(u.Path, "/"))
	}
	if !videoHosts[host] {
		return ""
	}

	if u.Path == "/watch" {
		return validVideoID(u.Query().Get("v"))
	}
	for _, prefix := range []string{"/embed/", "/v/", "/shorts/", "/live/"} {
		if rest, found := strings.CutPrefix(u.Path, prefix); found {
			return validVideoID(strings.SplitN(rest, "/", 2)[0])
		}
	}
	return ""
}

// ExtractPlaylistID returns the list= parameter of a YouTube URL, or "".
func ExtractPlaylistID(raw string) string {
	u, ok := parseURL(raw)
	if !ok {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	if !videoHosts[host] && host != "youtu.be" {
		return ""
	}
	id := u.Query().Get("list")
	if !playlistIDPattern.MatchString(id) {
		return ""
	}
	return id
}

// CanonicalPlaylistURL returns the playlist page URL for an id
func CanonicalPlaylistURL(id string) string {
	return "https://www.youtube.com/playlist?list=" + id
}

func validVideoID(id string) string {
	if videoIDPattern.MatchString(id) {
		return id
	}
	return ""
}

func parseURL(raw string) (*url.URL, bool) {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return nil, false
	}
	return u, true
}
