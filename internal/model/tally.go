package model

import "strings"

// AddResult tallies a library add call
type AddResult struct {
	Added     int `json:"added"`
	Duplicate int `json:"duplicate"`
	Failed    int `json:"failed"`
}

// Total returns the number of items the call processed
func (r AddResult) Total() int {
	return r.Added + r.Duplicate + r.Failed
}

// DownloadResult tallies a download call
type DownloadResult struct {
	Downloaded        int `json:"downloaded"`
	AlreadyDownloaded int `json:"already_downloaded"`
	Failed            int `json:"failed"`
}

func (r DownloadResult) Total() int {
	return r.Downloaded + r.AlreadyDownloaded + r.Failed
}

// DeleteResult tallies any of the delete variants. Missing counts ids that
// did not resolve under the caller; they are not failures.
type DeleteResult struct {
	Deleted          int `json:"deleted"`
	Missing          int `json:"missing"`
	Failed           int `json:"failed"`
	LibraryDeleted   int `json:"library_deleted,omitempty"`
	DownloadsDeleted int `json:"downloads_deleted,omitempty"`
}

func (r DeleteResult) Total() int {
	return r.Deleted + r.Missing + r.Failed
}

// MaterializeResult describes a produced audio artifact
type MaterializeResult struct {
	Download      DownloadRecord `json:"download"`
	Created       bool           `json:"created"`
	FileName      string         `json:"file_name"`
	FileSizeBytes int64          `json:"file_size_bytes"`
	Reused        bool           `json:"reused"`
}

// UniqueIDs trims ids and drops blanks and repeats, keeping first-seen order
func UniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
