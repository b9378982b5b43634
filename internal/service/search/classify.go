package search

import (
	"strings"
	"unicode/utf8"

	"github.com/Taichi-iskw/ytshelf/internal/model"
	"github.com/Taichi-iskw/ytshelf/internal/service/youtube"
)

// MaxQueryLength caps free-text queries, in runes
const MaxQueryLength = 500

// Classification is the resolved kind of a query plus the id it carries
type Classification struct {
	Kind model.SearchKind
	ID   string
}

// Classify decides how a query is resolved. A URL carrying list= is a
// playlist even when it also names a video; a strict video URL is a video;
// everything else, bare ids included, is free text.
func Classify(query string) Classification {
	if id := youtube.ExtractPlaylistID(query); id != "" {
		return Classification{Kind: model.SearchKindPlaylist, ID: id}
	}
	if id := youtube.ExtractVideoID(query); id != "" {
		return Classification{Kind: model.SearchKindVideo, ID: id}
	}
	return Classification{Kind: model.SearchKindText}
}

// Sanitize trims the query and caps its length
func Sanitize(query string) string {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) <= MaxQueryLength {
		return query
	}
	runes := []rune(query)
	return strings.TrimSpace(string(runes[:MaxQueryLength]))
}
