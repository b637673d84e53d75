// Package errmsg provides consistent error formatting for user-facing messages.
package errmsg

import "fmt"

// Op represents an operation that can fail.
type Op string

// Operation constants - grouped by domain.
const (
	// Playback operations
	OpSongLoad      Op = "load song"
	OpPlaybackStart Op = "start playback"
	OpPlaybackRetry Op = "retry playback"
	OpPlaybackSeek  Op = "seek"
	OpVolumeSet     Op = "set volume"

	// Preview operations
	OpPreviewFile Op = "preview file"

	// Desktop integration
	OpMPRISStart Op = "start media controls"

	// Initialization
	OpConfigLoad Op = "load config"
	OpLogOpen    Op = "open log file"
	OpAudioOpen  Op = "open audio output"
	OpInitialize Op = "initialize application"
)

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %v", op, err)
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %v", op, context, err)
}
