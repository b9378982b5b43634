package metadata

// SourceKind identifies where a raw record came from
type SourceKind int

const (
	// SourceTool records come from the extraction tool's JSON output
	SourceTool SourceKind = iota
	// SourceAPI records come from the hosted video metadata API
	SourceAPI
)

func (k SourceKind) String() string {
	switch k {
	case SourceAPI:
		return "api"
	default:
		return "tool"
	}
}

// Thumbnail is one candidate image
type Thumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// RawRecord holds the loosely-typed fields either source can emit. Pointer
// fields distinguish "absent" from zero.
type RawRecord struct {
	Type          string      `json:"_type"`
	ID            string      `json:"id"`
	Title         string      `json:"title"`
	Uploader      string      `json:"uploader"`
	Channel       string      `json:"channel"`
	Duration      *float64    `json:"duration"`
	DurationISO   string      `json:"-"`
	ViewCount     *int64      `json:"view_count"`
	UploadDate    string      `json:"upload_date"` // YYYYMMDD
	Timestamp     *int64      `json:"timestamp"`
	PublishedAt   string      `json:"-"` // RFC3339, API only
	Thumbnail     string      `json:"thumbnail"`
	Thumbnails    []Thumbnail `json:"thumbnails"`
	WebpageURL    string      `json:"webpage_url"`
	URL           string      `json:"url"`
	PlaylistCount *int        `json:"playlist_count"`
	Entries       []RawRecord `json:"entries"`
}

// IsPlaylist reports whether the record is a playlist document rather than a video
func (r RawRecord) IsPlaylist() bool {
	return r.Type == "playlist"
}
