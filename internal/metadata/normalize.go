package metadata

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Taichi-iskw/ytshelf/internal/model"
)

const (
	DefaultTitle   = "Unknown Title"
	DefaultChannel = "Unknown Channel"

	thumbnailMinWidth = 300
	thumbnailMaxWidth = 500
)

var isoDurationPattern = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+(?:\.\d+)?)S)?)?$`)

// Normalize maps a raw record from either source into a VideoRecord. Every
// field except ExternalID degrades to a default instead of being left empty.
func Normalize(raw RawRecord, kind SourceKind, now time.Time) model.VideoRecord {
	id := strings.TrimSpace(raw.ID)

	seconds := 0
	if raw.DurationISO != "" {
		seconds = ParseISODuration(raw.DurationISO)
	} else if raw.Duration != nil && *raw.Duration > 0 {
		seconds = int(math.Round(*raw.Duration))
	}

	var views int64
	if raw.ViewCount != nil && *raw.ViewCount > 0 {
		views = *raw.ViewCount
	}

	return model.VideoRecord{
		ExternalID:      id,
		SourceURL:       sourceURL(raw, kind, id),
		Title:           FirstNonEmpty(raw.Title, DefaultTitle),
		ChannelName:     FirstNonEmpty(raw.Uploader, raw.Channel, DefaultChannel),
		Duration:        FormatDuration(seconds),
		DurationSeconds: seconds,
		ThumbnailURL:    thumbnailURL(raw, id),
		ViewCount:       views,
		PublishedAt:     publishedAt(raw, now),
	}
}

// NormalizeAll normalizes records, skipping entries without an id and
// entries the source marks unavailable.
func NormalizeAll(raws []RawRecord, kind SourceKind, now time.Time) []model.VideoRecord {
	out := make([]model.VideoRecord, 0, len(raws))
	for _, raw := range raws {
		if strings.TrimSpace(raw.ID) == "" || raw.Title == "[Unavailable]" || raw.Title == "[Private video]" || raw.Title == "[Deleted video]" {
			continue
		}
		out = append(out, Normalize(raw, kind, now))
	}
	return out
}

// Fill applies the same defaults as Normalize to a record supplied by a
// caller. Duration and DurationSeconds are derived from each other when only
// one is present; seconds win when both are set.
func Fill(rec model.VideoRecord, now time.Time) model.VideoRecord {
	rec.ExternalID = strings.TrimSpace(rec.ExternalID)
	rec.Title = FirstNonEmpty(rec.Title, DefaultTitle)
	rec.ChannelName = FirstNonEmpty(rec.ChannelName, DefaultChannel)

	if rec.DurationSeconds <= 0 {
		rec.DurationSeconds = ParseClockDuration(rec.Duration)
	}
	rec.Duration = FormatDuration(rec.DurationSeconds)

	if rec.ViewCount < 0 {
		rec.ViewCount = 0
	}
	if strings.TrimSpace(rec.SourceURL) == "" && rec.ExternalID != "" {
		rec.SourceURL = CanonicalVideoURL(rec.ExternalID)
	}
	if strings.TrimSpace(rec.ThumbnailURL) == "" {
		rec.ThumbnailURL = thumbnailURL(RawRecord{}, rec.ExternalID)
	}
	if rec.PublishedAt.IsZero() {
		rec.PublishedAt = now
	}
	return rec
}

// FormatDuration renders seconds as H:MM:SS from one hour up, otherwise M:SS
func FormatDuration(seconds int) string {
	if seconds <= 0 {
		return "0:00"
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// ParseISODuration converts tokens like PT4M13S or P1DT2H into seconds.
// Malformed input yields 0.
func ParseISODuration(value string) int {
	match := isoDurationPattern.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(value)))
	if match == nil {
		return 0
	}
	days, _ := strconv.Atoi(match[1])
	hours, _ := strconv.Atoi(match[2])
	minutes, _ := strconv.Atoi(match[3])
	secs, _ := strconv.ParseFloat(match[4], 64)
	return days*86400 + hours*3600 + minutes*60 + int(secs)
}

// ParseClockDuration converts M:SS or H:MM:SS into seconds. A bare integer
// is taken as seconds. Malformed or negative input yields 0.
func ParseClockDuration(value string) int {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) > 3 || parts[0] == "" {
		return 0
	}
	total := 0
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0
		}
		if i > 0 && (len(p) != 2 || n > 59) {
			return 0
		}
		total = total*60 + n
	}
	return total
}

// SelectThumbnail prefers the first candidate whose width falls in the
// 300-500px band, else the last candidate (usually the largest).
func SelectThumbnail(candidates []Thumbnail) string {
	var last string
	for _, t := range candidates {
		if t.URL == "" {
			continue
		}
		if t.Width >= thumbnailMinWidth && t.Width <= thumbnailMaxWidth {
			return t.URL
		}
		last = t.URL
	}
	return last
}

// CanonicalVideoURL returns the watch URL for an external id
func CanonicalVideoURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

func thumbnailURL(raw RawRecord, id string) string {
	if url := SelectThumbnail(raw.Thumbnails); url != "" {
		return url
	}
	if raw.Thumbnail != "" {
		return raw.Thumbnail
	}
	if id == "" {
		return ""
	}
	return "https://img.youtube.com/vi/" + id + "/mqdefault.jpg"
}

func sourceURL(raw RawRecord, kind SourceKind, id string) string {
	if raw.WebpageURL != "" {
		return raw.WebpageURL
	}
	// flat entries sometimes carry only the bare id in url
	if kind == SourceTool && strings.HasPrefix(raw.URL, "http") {
		return raw.URL
	}
	if id == "" {
		return ""
	}
	return CanonicalVideoURL(id)
}

func publishedAt(raw RawRecord, now time.Time) time.Time {
	if raw.PublishedAt != "" {
		if t, err := time.Parse(time.RFC3339, raw.PublishedAt); err == nil {
			return t.UTC()
		}
	}
	if raw.Timestamp != nil && *raw.Timestamp > 0 {
		return time.Unix(*raw.Timestamp, 0).UTC()
	}
	if raw.UploadDate != "" {
		if t, err := time.Parse("20060102", raw.UploadDate); err == nil {
			return t.UTC()
		}
	}
	return now
}

// FirstNonEmpty returns the first value that is not blank, trimmed
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
