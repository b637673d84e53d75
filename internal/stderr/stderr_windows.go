//go:build windows

// Package stderr is a no-op on Windows, where the audio backend does not
// write to stderr.
package stderr

import (
	"os"

	"github.com/charmbracelet/log"
)

func Start(*log.Logger) error {
	return nil
}

// WriteOriginal writes to stderr.
func WriteOriginal(msg string) {
	_, _ = os.Stderr.WriteString(msg)
}

func Stop() {}
