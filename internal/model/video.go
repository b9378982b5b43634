package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// VideoRecord is the canonical shape every metadata source is normalized into.
// ExternalID is always set and is the dedup key across users.
type VideoRecord struct {
	ExternalID      string    `json:"external_id"`
	SourceURL       string    `json:"source_url"`
	Title           string    `json:"title"`
	ChannelName     string    `json:"channel_name"`
	Duration        string    `json:"duration"`         // H:MM:SS or M:SS
	DurationSeconds int       `json:"duration_seconds"` // duration in seconds
	ThumbnailURL    string    `json:"thumbnail_url"`
	ViewCount       int64     `json:"view_count"`
	PublishedAt     time.Time `json:"published_at"`
}

// UnmarshalJSON accepts duration either as a clock string ("3:33") or as a
// number of seconds. A numeric duration fills DurationSeconds unless that
// field is also present.
func (v *VideoRecord) UnmarshalJSON(data []byte) error {
	type plain VideoRecord
	aux := struct {
		*plain
		Duration json.RawMessage `json:"duration"`
	}{plain: (*plain)(v)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	raw := bytes.TrimSpace(aux.Duration)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if raw[0] == '"' {
		return json.Unmarshal(raw, &v.Duration)
	}

	var seconds float64
	if err := json.Unmarshal(raw, &seconds); err != nil {
		return fmt.Errorf("duration must be a number of seconds or M:SS: %w", err)
	}
	if v.DurationSeconds <= 0 && seconds > 0 {
		v.DurationSeconds = int(math.Round(seconds))
	}
	return nil
}
