package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
)

// maxSourceBytes caps how much of an http(s) source is buffered in memory.
var maxSourceBytes int64 = 512 << 20

// source is an opened, seekable audio source plus a format hint.
type source struct {
	rsc io.ReadSeekCloser
	ext string // lower-case extension including the dot, may be empty
}

var contentTypeExt = map[string]string{
	"audio/mpeg":   extMP3,
	"audio/mp3":    extMP3,
	"audio/flac":   extFLAC,
	"audio/x-flac": extFLAC,
	"audio/ogg":    extOGG,
	"audio/vorbis": extOGG,
	"audio/opus":   extOPUS,
	"audio/mp4":    extM4A,
	"audio/x-m4a":  extM4A,
	"audio/aac":    extM4A,
	"audio/wav":    extWAV,
	"audio/x-wav":  extWAV,
	"audio/wave":   extWAV,
}

// openSource resolves loc into a readable source. loc may be an http(s)
// URL, a file URL, or a plain filesystem path. Errors are *MediaError.
func openSource(ctx context.Context, client *http.Client, loc string) (*source, error) {
	u, err := url.Parse(loc)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// Plain path (a one-letter scheme is a Windows drive).
		return openFile(loc)
	}

	switch u.Scheme {
	case "http", "https":
		return fetchHTTP(ctx, client, u)
	case "file":
		return openFile(filepath.FromSlash(u.Path))
	default:
		return nil, &MediaError{
			Code:    ErrSrcNotSupported,
			Message: fmt.Sprintf("unsupported scheme %q", u.Scheme),
		}
	}
}

func openFile(p string) (*source, error) {
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			return nil, &MediaError{Code: ErrSrcNotSupported, Message: err.Error()}
		}
		return nil, &MediaError{Code: ErrNetwork, Message: err.Error()}
	}
	return &source{rsc: f, ext: strings.ToLower(filepath.Ext(p))}, nil
}

func fetchHTTP(ctx context.Context, client *http.Client, u *url.URL) (*source, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &MediaError{Code: ErrSrcNotSupported, Message: fmt.Sprintf("create request: %v", err)}
	}

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &MediaError{Code: ErrAborted, Message: ctx.Err().Error()}
		}
		return nil, &MediaError{Code: ErrNetwork, Message: fmt.Sprintf("execute request: %v", err)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound,
		resp.StatusCode == http.StatusForbidden,
		resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusGone:
		return nil, &MediaError{Code: ErrSrcNotSupported, Message: "unexpected status: " + resp.Status}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &MediaError{Code: ErrNetwork, Message: "unexpected status: " + resp.Status}
	}

	tooLarge := &MediaError{
		Code:    ErrNetwork,
		Message: "response body exceeds " + humanize.IBytes(uint64(maxSourceBytes)),
	}
	if resp.ContentLength > maxSourceBytes {
		return nil, tooLarge
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSourceBytes+1))
	if err != nil {
		if ctx.Err() != nil {
			return nil, &MediaError{Code: ErrAborted, Message: ctx.Err().Error()}
		}
		return nil, &MediaError{Code: ErrNetwork, Message: fmt.Sprintf("read response body: %v", err)}
	}
	if int64(len(body)) > maxSourceBytes {
		return nil, tooLarge
	}

	ext := strings.ToLower(path.Ext(u.Path))
	if ct, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type")); err == nil {
		if e, ok := contentTypeExt[ct]; ok {
			ext = e
		}
	}

	return &source{rsc: nopCloser{bytes.NewReader(body)}, ext: ext}, nil
}

type nopCloser struct {
	io.ReadSeeker
}

func (nopCloser) Close() error { return nil }
