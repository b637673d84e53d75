package media

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestSniff(t *testing.T) {
	tests := []struct {
		name   string
		header []byte
		want   string
	}{
		{"flac", []byte("fLaC\x00\x00\x00\x22"), extFLAC},
		{"ogg", []byte("OggS\x00\x02"), extOGG},
		{"m4a", []byte("\x00\x00\x00\x20ftypM4A "), extM4A},
		{"wav", []byte("RIFF\x24\x00\x00\x00WAVEfmt "), extWAV},
		{"id3", []byte("ID3\x04\x00\x00\x00\x00\x00\x00"), extMP3},
		{"mpeg frame sync", []byte{0xFF, 0xFB, 0x90, 0x64}, extMP3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := bytes.NewReader(tt.header)
			got, err := sniff(r)
			if err != nil {
				t.Fatalf("sniff() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("sniff() = %q, want %q", got, tt.want)
			}
			pos, _ := r.Seek(0, io.SeekCurrent)
			if pos != 0 {
				t.Errorf("reader position after sniff = %d, want 0", pos)
			}
		})
	}
}

func TestSniff_Unknown(t *testing.T) {
	_, err := sniff(bytes.NewReader([]byte("<html>not audio</html>")))
	if !errors.Is(err, errUnsupportedFormat) {
		t.Errorf("sniff() error = %v, want errUnsupportedFormat", err)
	}
}

func TestSkipID3v2(t *testing.T) {
	// 10-byte header with syncsafe size 5, then 5 tag bytes, then payload.
	data := append([]byte("ID3\x03\x00\x00\x00\x00\x00\x05"), []byte("xxxxxfLaC")...)
	r := bytes.NewReader(data)
	if err := skipID3v2(r); err != nil {
		t.Fatalf("skipID3v2() error = %v", err)
	}
	rest, _ := io.ReadAll(r)
	if string(rest) != "fLaC" {
		t.Errorf("remaining = %q, want %q", rest, "fLaC")
	}
}

func TestSkipID3v2_NoTag(t *testing.T) {
	r := bytes.NewReader([]byte("fLaC\x00\x00\x00\x22\x00\x00\x00"))
	if err := skipID3v2(r); err != nil {
		t.Fatalf("skipID3v2() error = %v", err)
	}
	pos, _ := r.Seek(0, io.SeekCurrent)
	if pos != 0 {
		t.Errorf("position = %d, want 0", pos)
	}
}

func TestDecode_UnsupportedPayload(t *testing.T) {
	src := &source{rsc: nopCloser{bytes.NewReader([]byte("plain text"))}, ext: ".txt"}
	if _, _, err := decode(src); !errors.Is(err, errUnsupportedFormat) {
		t.Errorf("decode() error = %v, want errUnsupportedFormat", err)
	}
}

func TestLevelToVolume(t *testing.T) {
	tests := []struct {
		level float64
		want  float64
	}{
		{0, -10},
		{-1, -10},
		{1, 0},
		{2, 0},
		{0.5, -1},
		{0.25, -2},
	}
	for _, tt := range tests {
		if got := levelToVolume(tt.level); got != tt.want {
			t.Errorf("levelToVolume(%v) = %v, want %v", tt.level, got, tt.want)
		}
	}
}
