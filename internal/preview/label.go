package preview

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/llehouerou/tunedeck/internal/store"
)

// Label summarizes a song's review status, file size and upload age,
// e.g. "pending · 4.2 MiB · 3 days ago". Unknown parts are left out.
func Label(song *store.Song, now time.Time) string {
	if song == nil {
		return ""
	}
	var parts []string
	if song.Status != "" {
		parts = append(parts, string(song.Status))
	}
	if song.Size > 0 {
		parts = append(parts, humanize.IBytes(uint64(song.Size))) //nolint:gosec // checked positive above
	}
	if !song.UploadDate.IsZero() {
		parts = append(parts, humanize.RelTime(song.UploadDate, now, "ago", "from now"))
	}
	return strings.Join(parts, " · ")
}
