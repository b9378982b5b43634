package model

// SearchKind tags the shape of a search response
type SearchKind string

const (
	SearchKindVideo    SearchKind = "video"
	SearchKindPlaylist SearchKind = "playlist"
	SearchKindText     SearchKind = "text"
)

// PlaylistInfo accompanies playlist results
type PlaylistInfo struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Channel    string `json:"channel"`
	VideoCount int    `json:"video_count"`
}

// TextInfo accompanies keyword search results
type TextInfo struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

// VideoInfo accompanies a direct video lookup
type VideoInfo struct {
	URL string `json:"url"`
}

// SearchResult is a tagged union: exactly one of Playlist, Text or Video is
// set and it matches Kind. Use the New*Result constructors.
type SearchResult struct {
	Kind     SearchKind    `json:"type"`
	Results  []VideoRecord `json:"results"`
	Excluded int           `json:"excluded"`
	Playlist *PlaylistInfo `json:"playlistInfo,omitempty"`
	Text     *TextInfo     `json:"textInfo,omitempty"`
	Video    *VideoInfo    `json:"videoInfo,omitempty"`
}

func NewVideoResult(url string, records []VideoRecord) *SearchResult {
	return &SearchResult{Kind: SearchKindVideo, Results: nonNil(records), Video: &VideoInfo{URL: url}}
}

func NewPlaylistResult(info PlaylistInfo, records []VideoRecord) *SearchResult {
	return &SearchResult{Kind: SearchKindPlaylist, Results: nonNil(records), Playlist: &info}
}

func NewTextResult(query string, limit int, records []VideoRecord) *SearchResult {
	return &SearchResult{Kind: SearchKindText, Results: nonNil(records), Text: &TextInfo{Query: query, Limit: limit}}
}

// Exclude drops records whose external id is in ids and records how many were dropped
func (r *SearchResult) Exclude(ids map[string]struct{}) {
	if len(ids) == 0 {
		return
	}
	kept := r.Results[:0]
	for _, rec := range r.Results {
		if _, ok := ids[rec.ExternalID]; ok {
			r.Excluded++
			continue
		}
		kept = append(kept, rec)
	}
	r.Results = kept
}

func nonNil(records []VideoRecord) []VideoRecord {
	if records == nil {
		return []VideoRecord{}
	}
	return records
}
