// Package preview builds ephemeral song records for files and urls that
// are not in the catalog yet, such as uploads awaiting review.
package preview

import (
	"errors"
	"fmt"
	"hash/fnv"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"

	"github.com/llehouerou/tunedeck/internal/store"
)

// idPrefix marks songs that exist only for the current session.
const idPrefix = "preview:"

// ErrNotRegular is returned for directories and other non-file paths.
var ErrNotRegular = errors.New("not a regular file")

// FromSource previews a local file, or an http(s) url as-is.
func FromSource(src string) (store.Song, error) {
	if u, err := url.Parse(src); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return FromURL(src), nil
	}
	return FromFile(strings.TrimPrefix(src, "file://"))
}

// FromURL returns a pending song for a remote source. The title falls back
// to the last path segment.
func FromURL(src string) store.Song {
	title := src
	if u, err := url.Parse(src); err == nil {
		if base := path.Base(u.Path); base != "/" && base != "." {
			title = strings.TrimSuffix(base, path.Ext(base))
		}
	}
	return store.Song{
		ID:       id(src),
		Title:    title,
		Status:   store.StatusPending,
		AudioURL: src,
	}
}

// FromFile reads tags, cover art and lyrics for a local audio file.
// Missing or unreadable tags are not an error: the title falls back to the
// file name.
func FromFile(p string) (store.Song, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return store.Song{}, fmt.Errorf("resolve %s: %w", p, err)
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return store.Song{}, err
	}
	if !fi.Mode().IsRegular() {
		return store.Song{}, fmt.Errorf("%s: %w", p, ErrNotRegular)
	}

	song := store.Song{
		ID:         id(abs),
		Title:      strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs)),
		UploadDate: fi.ModTime(),
		Status:     store.StatusPending,
		AudioURL:   (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(),
		CoverArt:   FindCoverArt(abs),
		Lyrics:     ReadLyrics(abs),
		Size:       fi.Size(),
	}

	if m, err := readTags(abs); err == nil {
		if m.Title() != "" {
			song.Title = m.Title()
		}
		song.Artist = m.Artist()
		if song.Artist == "" {
			song.Artist = m.AlbumArtist()
		}
		song.Genre = m.Genre()
		if song.Lyrics == "" {
			song.Lyrics = strings.TrimSpace(m.Lyrics())
		}
	}
	return song, nil
}

func readTags(p string) (tag.Metadata, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return tag.ReadFrom(f)
}

func id(key string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	return fmt.Sprintf("%s%016x", idPrefix, h.Sum64())
}

// IsPreview reports whether song was built by this package.
func IsPreview(song *store.Song) bool {
	return song != nil && strings.HasPrefix(song.ID, idPrefix)
}
