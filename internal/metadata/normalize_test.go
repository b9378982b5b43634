package metadata

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Taichi-iskw/ytshelf/internal/model"
)

func ptr[T any](v T) *T { return &v }

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{seconds: 0, want: "0:00"},
		{seconds: -5, want: "0:00"},
		{seconds: 9, want: "0:09"},
		{seconds: 75, want: "1:15"},
		{seconds: 213, want: "3:33"},
		{seconds: 3599, want: "59:59"},
		{seconds: 3600, want: "1:00:00"},
		{seconds: 3725, want: "1:02:05"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDuration(tt.seconds))
		})
	}
}

func TestParseISODuration(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{input: "PT4M13S", want: 253},
		{input: "PT1H2M5S", want: 3725},
		{input: "PT45S", want: 45},
		{input: "PT1H", want: 3600},
		{input: "P1DT1S", want: 86401},
		{input: "pt2m", want: 120},
		{input: "P0D", want: 0},
		{input: "", want: 0},
		{input: "4:13", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseISODuration(tt.input))
		})
	}
}

func TestParseClockDuration(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{input: "3:33", want: 213},
		{input: "0:09", want: 9},
		{input: "59:59", want: 3599},
		{input: "1:02:05", want: 3725},
		{input: "213", want: 213},
		{input: " 4:13 ", want: 253},
		{input: "4:7", want: 0},
		{input: "4:60", want: 0},
		{input: "1:2:3:4", want: 0},
		{input: "-1:00", want: 0},
		{input: "PT4M13S", want: 0},
		{input: "", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseClockDuration(tt.input))
		})
	}
}

func TestSelectThumbnail(t *testing.T) {
	tests := []struct {
		name       string
		candidates []Thumbnail
		want       string
	}{
		{name: "none", candidates: nil, want: ""},
		{
			name: "band match wins over larger",
			candidates: []Thumbnail{
				{URL: "small", Width: 120},
				{URL: "medium", Width: 320},
				{URL: "large", Width: 1280},
			},
			want: "medium",
		},
		{
			name: "falls back to last",
			candidates: []Thumbnail{
				{URL: "small", Width: 120},
				{URL: "large", Width: 1280},
			},
			want: "large",
		},
		{
			name: "ignores empty urls",
			candidates: []Thumbnail{
				{URL: "small", Width: 120},
				{URL: "", Width: 400},
			},
			want: "small",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SelectThumbnail(tt.candidates))
		})
	}
}

func TestNormalize_ToolRecord(t *testing.T) {
	raw := `{
		"id": "dQw4w9WgXcQ",
		"title": "Never Gonna Give You Up",
		"uploader": "Rick Astley",
		"channel": "RickAstleyVEVO",
		"duration": 212.6,
		"view_count": 1500000000,
		"upload_date": "20091025",
		"thumbnails": [
			{"url": "https://i.ytimg.com/vi/dQw4w9WgXcQ/default.jpg", "width": 120},
			{"url": "https://i.ytimg.com/vi/dQw4w9WgXcQ/hqdefault.jpg", "width": 480},
			{"url": "https://i.ytimg.com/vi/dQw4w9WgXcQ/maxresdefault.jpg", "width": 1280}
		],
		"webpage_url": "https://www.youtube.com/watch?v=dQw4w9WgXcQ"
	}`
	var rec RawRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &rec))

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	got := Normalize(rec, SourceTool, now)

	assert.Equal(t, "dQw4w9WgXcQ", got.ExternalID)
	assert.Equal(t, "Never Gonna Give You Up", got.Title)
	assert.Equal(t, "Rick Astley", got.ChannelName)
	assert.Equal(t, 213, got.DurationSeconds)
	assert.Equal(t, "3:33", got.Duration)
	assert.Equal(t, int64(1500000000), got.ViewCount)
	assert.Equal(t, "https://i.ytimg.com/vi/dQw4w9WgXcQ/hqdefault.jpg", got.ThumbnailURL)
	assert.Equal(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", got.SourceURL)
	assert.Equal(t, time.Date(2009, 10, 25, 0, 0, 0, 0, time.UTC), got.PublishedAt)
}

func TestNormalize_Defaults(t *testing.T) {
	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	got := Normalize(RawRecord{ID: "abc123"}, SourceTool, now)

	assert.Equal(t, "abc123", got.ExternalID)
	assert.Equal(t, DefaultTitle, got.Title)
	assert.Equal(t, DefaultChannel, got.ChannelName)
	assert.Equal(t, "0:00", got.Duration)
	assert.Equal(t, 0, got.DurationSeconds)
	assert.Equal(t, int64(0), got.ViewCount)
	assert.Equal(t, now, got.PublishedAt)
	assert.Equal(t, "https://www.youtube.com/watch?v=abc123", got.SourceURL)
	assert.Equal(t, "https://img.youtube.com/vi/abc123/mqdefault.jpg", got.ThumbnailURL)
}

func TestFill_SparseRecord(t *testing.T) {
	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	got := Fill(model.VideoRecord{ExternalID: " v1 ", Title: "Song A", DurationSeconds: 213}, now)

	assert.Equal(t, "v1", got.ExternalID)
	assert.Equal(t, "Song A", got.Title)
	assert.Equal(t, DefaultChannel, got.ChannelName)
	assert.Equal(t, "3:33", got.Duration)
	assert.Equal(t, 213, got.DurationSeconds)
	assert.Equal(t, now, got.PublishedAt)
	assert.Equal(t, "https://www.youtube.com/watch?v=v1", got.SourceURL)
	assert.Equal(t, "https://img.youtube.com/vi/v1/mqdefault.jpg", got.ThumbnailURL)
}

func TestFill_DurationDerivation(t *testing.T) {
	now := time.Now().UTC()

	fromClock := Fill(model.VideoRecord{ExternalID: "v1", Duration: "1:02:05"}, now)
	assert.Equal(t, 3725, fromClock.DurationSeconds)
	assert.Equal(t, "1:02:05", fromClock.Duration)

	secondsWin := Fill(model.VideoRecord{ExternalID: "v1", Duration: "9:99", DurationSeconds: 75}, now)
	assert.Equal(t, 75, secondsWin.DurationSeconds)
	assert.Equal(t, "1:15", secondsWin.Duration)

	empty := Fill(model.VideoRecord{ExternalID: "v1", Title: "   "}, now)
	assert.Equal(t, DefaultTitle, empty.Title)
	assert.Equal(t, "0:00", empty.Duration)
	assert.Equal(t, 0, empty.DurationSeconds)
}

func TestFill_KeepsSuppliedFields(t *testing.T) {
	published := time.Date(2009, 10, 25, 0, 0, 0, 0, time.UTC)
	rec := model.VideoRecord{
		ExternalID:      "v1",
		SourceURL:       "https://youtu.be/v1",
		Title:           "Song A",
		ChannelName:     "Band",
		Duration:        "3:33",
		DurationSeconds: 213,
		ThumbnailURL:    "https://i.ytimg.com/vi/v1/hqdefault.jpg",
		ViewCount:       42,
		PublishedAt:     published,
	}

	assert.Equal(t, rec, Fill(rec, time.Now()))
	assert.Equal(t, int64(0), Fill(model.VideoRecord{ExternalID: "v1", ViewCount: -3}, time.Now()).ViewCount)
}

func TestNormalize_APIRecord(t *testing.T) {
	raw := RawRecord{
		ID:          "abc123",
		Title:       "Song A",
		Channel:     "Band",
		DurationISO: "PT3M33S",
		Duration:    ptr(1.0),
		ViewCount:   ptr(int64(-4)),
		PublishedAt: "2024-05-01T12:00:00Z",
		Thumbnails: []Thumbnail{
			{URL: "default", Width: 120},
			{URL: "medium", Width: 320},
			{URL: "high", Width: 480},
		},
	}

	got := Normalize(raw, SourceAPI, time.Now())

	assert.Equal(t, 213, got.DurationSeconds, "ISO duration takes priority")
	assert.Equal(t, "Band", got.ChannelName)
	assert.Equal(t, int64(0), got.ViewCount, "negative views clamp to zero")
	assert.Equal(t, "medium", got.ThumbnailURL)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), got.PublishedAt)
	assert.Equal(t, CanonicalVideoURL("abc123"), got.SourceURL)
}

func TestNormalize_FlatEntryURL(t *testing.T) {
	got := Normalize(RawRecord{ID: "abc123", URL: "https://www.youtube.com/watch?v=abc123&pp=x"}, SourceTool, time.Now())
	assert.Equal(t, "https://www.youtube.com/watch?v=abc123&pp=x", got.SourceURL)

	got = Normalize(RawRecord{ID: "abc123", URL: "abc123"}, SourceTool, time.Now())
	assert.Equal(t, CanonicalVideoURL("abc123"), got.SourceURL)
}

func TestNormalizeAll_SkipsUnusableEntries(t *testing.T) {
	raws := []RawRecord{
		{ID: "a1", Title: "One"},
		{ID: "", Title: "No id"},
		{ID: "a2", Title: "[Unavailable]"},
		{ID: "a3", Title: "[Private video]"},
		{ID: "a4"},
	}

	got := NormalizeAll(raws, SourceTool, time.Now())

	require.Len(t, got, 2)
	assert.Equal(t, "a1", got[0].ExternalID)
	assert.Equal(t, "a4", got[1].ExternalID)
	assert.Equal(t, DefaultTitle, got[1].Title)
}
