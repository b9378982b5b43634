package model

import "time"

// CatalogEntry represents a video shared by every user ("songs")
type CatalogEntry struct {
	ID                 string    `json:"id" db:"id"`
	ExternalID         string    `json:"external_id" db:"external_id"`
	SourceURL          string    `json:"source_url" db:"source_url"`
	Title              string    `json:"title" db:"title"`
	ChannelName        string    `json:"channel_name" db:"channel_name"`
	Duration           string    `json:"duration" db:"duration"`
	DurationSeconds    int       `json:"duration_seconds" db:"duration_seconds"`
	ThumbnailURL       string    `json:"thumbnail_url" db:"thumbnail_url"`
	ViewCount          int64     `json:"view_count" db:"view_count"`
	PublishedAt        time.Time `json:"published_at" db:"published_at"`
	TotalDownloadCount int64     `json:"total_download_count" db:"total_download_count"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
}

// LibraryReference is a user's saved pointer to a catalog entry ("user_songs")
type LibraryReference struct {
	ID      string    `json:"id" db:"id"`
	UserID  string    `json:"user_id" db:"user_id"`
	SongID  string    `json:"song_id" db:"song_id"` // catalog entry id
	AddedAt time.Time `json:"added_at" db:"added_at"`
}

// DownloadRecord marks that an audio artifact was requested or produced ("user_downloads")
type DownloadRecord struct {
	ID            string    `json:"id" db:"id"`
	UserID        string    `json:"user_id" db:"user_id"`
	SongID        string    `json:"song_id" db:"song_id"`
	DownloadedAt  time.Time `json:"downloaded_at" db:"downloaded_at"`
	ArtifactURL   *string   `json:"artifact_url,omitempty" db:"artifact_url"`
	FileSizeBytes *int64    `json:"file_size_bytes,omitempty" db:"file_size_bytes"`
}

// LibraryItem is a library reference joined with its catalog entry for listing
type LibraryItem struct {
	LibraryReference
	Song       CatalogEntry    `json:"song"`
	Download   *DownloadRecord `json:"download,omitempty"`
	Downloaded bool            `json:"downloaded"`
}

// DownloadItem is a download record joined with its catalog entry for listing
type DownloadItem struct {
	DownloadRecord
	Song CatalogEntry `json:"song"`
}
