package preview

import (
	"os"
	"path/filepath"
)

// coverNames lists common album art filenames in priority order.
var coverNames = []string{
	"cover.jpg", "cover.png", "cover.jpeg",
	"folder.jpg", "folder.png", "folder.jpeg",
	"album.jpg", "album.png", "album.jpeg",
	"front.jpg", "front.png", "front.jpeg",
}

// FindCoverArt looks for an image named after the track, then for a
// common album art file in the track's directory. Returns "" if none.
func FindCoverArt(trackPath string) string {
	dir := filepath.Dir(trackPath)
	stem := trimExt(filepath.Base(trackPath))

	candidates := make([]string, 0, 3+len(coverNames))
	for _, ext := range []string{".jpg", ".png", ".jpeg"} {
		candidates = append(candidates, stem+ext)
	}
	candidates = append(candidates, coverNames...)

	for _, name := range candidates {
		p := filepath.Join(dir, name)
		if fi, err := os.Stat(p); err == nil && fi.Mode().IsRegular() {
			return p
		}
	}
	return ""
}

func trimExt(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}
