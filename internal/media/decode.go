package media

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/wav"
)

const (
	extMP3  = ".mp3"
	extFLAC = ".flac"
	extOGG  = ".ogg"
	extOGA  = ".oga"
	extOPUS = ".opus"
	extM4A  = ".m4a"
	extMP4  = ".mp4"
	extWAV  = ".wav"
)

// SupportedExtensions lists the file extensions the speaker element decodes.
var SupportedExtensions = []string{extMP3, extFLAC, extOGG, extOGA, extOPUS, extM4A, extMP4, extWAV}

var errUnsupportedFormat = errors.New("unsupported format")

// decode picks a decoder from the extension hint, falling back to the
// stream's magic bytes when the hint is missing or unknown.
func decode(src *source) (beep.StreamSeekCloser, beep.Format, error) {
	ext := src.ext
	if !isSupported(ext) {
		sniffed, err := sniff(src.rsc)
		if err != nil {
			return nil, beep.Format{}, err
		}
		ext = sniffed
	}

	switch ext {
	case extMP3:
		return decodeMP3(src.rsc)
	case extFLAC:
		// Some taggers prepend an ID3v2 tag the FLAC decoder can't skip.
		if err := skipID3v2(src.rsc); err != nil {
			return nil, beep.Format{}, err
		}
		return flac.Decode(src.rsc)
	case extOGG, extOGA, extOPUS:
		return decodeOgg(src.rsc)
	case extM4A, extMP4:
		return decodeM4A(src.rsc)
	case extWAV:
		return wav.Decode(src.rsc)
	default:
		return nil, beep.Format{}, fmt.Errorf("%w: %q", errUnsupportedFormat, ext)
	}
}

func isSupported(ext string) bool {
	for _, e := range SupportedExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

// sniff inspects the first bytes of r and rewinds it.
func sniff(r io.ReadSeeker) (string, error) {
	header := make([]byte, 12)
	n, err := io.ReadFull(r, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	header = header[:n]
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	switch {
	case bytes.HasPrefix(header, []byte("fLaC")):
		return extFLAC, nil
	case bytes.HasPrefix(header, []byte("OggS")):
		return extOGG, nil
	case len(header) >= 8 && string(header[4:8]) == "ftyp":
		return extM4A, nil
	case bytes.HasPrefix(header, []byte("RIFF")) && len(header) >= 12 && string(header[8:12]) == "WAVE":
		return extWAV, nil
	case bytes.HasPrefix(header, []byte("ID3")):
		// ID3v2 is mostly mp3, FLAC files with a prepended tag are rare.
		return extMP3, nil
	case len(header) >= 2 && header[0] == 0xFF && header[1]&0xE0 == 0xE0:
		return extMP3, nil
	}
	return "", errUnsupportedFormat
}

// skipID3v2 skips an ID3v2 tag at the start of r, if any.
func skipID3v2(r io.ReadSeeker) error {
	header := make([]byte, 10)
	n, err := io.ReadFull(r, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return err
	}
	if n < 10 || string(header[0:3]) != "ID3" {
		_, err = r.Seek(0, io.SeekStart)
		return err
	}

	// Syncsafe size: 7 bits per byte.
	size := int64(header[6])<<21 | int64(header[7])<<14 | int64(header[8])<<7 | int64(header[9])
	_, err = r.Seek(10+size, io.SeekStart)
	return err
}
