package preview

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// lyricsExts are sidecar extensions checked in order.
var lyricsExts = []string{".lrc", ".txt"}

// ReadLyrics returns the lyrics sidecar next to trackPath, with LRC time
// tags removed. Returns "" if there is none.
func ReadLyrics(trackPath string) string {
	base := filepath.Join(filepath.Dir(trackPath), trimExt(filepath.Base(trackPath)))
	for _, ext := range lyricsExts {
		data, err := os.ReadFile(base + ext)
		if err != nil {
			continue
		}
		text := string(data)
		if ext == ".lrc" {
			text = StripLRC(text)
		}
		return strings.TrimSpace(text)
	}
	return ""
}

// StripLRC removes [mm:ss.xx] time tags and [key:value] header lines.
func StripLRC(s string) string {
	var b strings.Builder
	sc := bufio.NewScanner(strings.NewReader(s))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		text, timed := stripTimeTags(line)
		if !timed && isHeaderTag(line) {
			continue
		}
		b.WriteString(text)
		b.WriteByte('\n')
	}
	return b.String()
}

// stripTimeTags drops leading [digits:...] tags. timed reports whether any
// were found.
func stripTimeTags(line string) (text string, timed bool) {
	for strings.HasPrefix(line, "[") {
		end := strings.IndexByte(line, ']')
		if end < 0 || !isTimeTag(line[1:end]) {
			break
		}
		line = line[end+1:]
		timed = true
	}
	return strings.TrimSpace(line), timed
}

func isTimeTag(s string) bool {
	mins, rest, ok := strings.Cut(s, ":")
	if !ok || mins == "" || rest == "" {
		return false
	}
	for _, r := range mins + strings.Replace(rest, ".", "", 1) {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isHeaderTag(line string) bool {
	return strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") && strings.Contains(line, ":")
}
