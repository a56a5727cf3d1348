package triage

import (
	"fmt"
	"log/slog"

	"github.com/atotto/clipboard"
	"github.com/pkg/browser"
)

// OpenCurrent opens the current image in the system's default viewer.
func (s *Service) OpenCurrent() error {
	path := s.CurrentPath()
	slog.Debug("Opening image", "path", path)
	if err := browser.OpenFile(path); err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	return nil
}

// CopyCurrentPath puts the current image's path on the clipboard and
// returns it.
func (s *Service) CopyCurrentPath() (string, error) {
	path := s.CurrentPath()
	if err := clipboard.WriteAll(path); err != nil {
		return path, fmt.Errorf("failed to copy path to clipboard: %w", err)
	}
	return path, nil
}
