package extraction

import (
	"bytes"
	"encoding/json"

	apperrors "github.com/Taichi-iskw/ytshelf/internal/errors"
	"github.com/Taichi-iskw/ytshelf/internal/metadata"
)

// ParseOutput accepts either one playlist document with an entries array or
// newline-delimited video objects. Unparsable lines are skipped; output with
// nothing usable is an error.
func ParseOutput(output []byte) (*Extraction, error) {
	output = bytes.TrimSpace(output)
	if len(output) == 0 {
		return nil, apperrors.New(apperrors.CodeToolFailed, "extraction tool produced no output")
	}

	result := &Extraction{}
	parsed := 0
	for _, line := range bytes.Split(output, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		var raw metadata.RawRecord
		if err := json.Unmarshal(line, &raw); err != nil {
			result.Dropped++
			continue
		}
		parsed++
		result.add(raw)
	}

	// a pretty-printed single document spans many lines
	if parsed == 0 {
		var raw metadata.RawRecord
		if err := json.Unmarshal(output, &raw); err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeToolFailed, "failed to parse extraction tool output")
		}
		result.Dropped = 0
		result.add(raw)
	}

	if result.Playlist == nil && len(result.Records) == 0 {
		return nil, apperrors.New(apperrors.CodeToolFailed, "extraction tool output contained no records")
	}
	return result, nil
}

func (e *Extraction) add(raw metadata.RawRecord) {
	if raw.IsPlaylist() {
		entries := raw.Entries
		raw.Entries = nil
		if e.Playlist == nil {
			header := raw
			e.Playlist = &header
		}
		e.Records = append(e.Records, entries...)
		return
	}
	if raw.ID == "" {
		return
	}
	e.Records = append(e.Records, raw)
}
