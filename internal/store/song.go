package store

import "time"

// Status is the review status of a song.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Song is a catalog or preview track. The playback controller only ever
// sees AudioURL.
type Song struct {
	ID         string
	Title      string
	Artist     string
	Genre      string
	Duration   time.Duration
	UploadDate time.Time
	Status     Status
	AudioURL   string
	CoverArt   string
	Lyrics     string

	// Size is the audio file size in bytes, zero when unknown.
	Size int64
}

// Playable reports whether the song has an audio source.
func (s *Song) Playable() bool {
	return s != nil && s.AudioURL != ""
}
