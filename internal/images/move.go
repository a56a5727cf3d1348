package images

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// Move destinations with a special meaning. Anything else is a directory.
const (
	DestKeep   = "keep"
	DestDelete = "delete"
)

// Move relocates the image to dest and updates its bookkeeping.
//
// DestKeep moves the image back to its proper path and DestDelete moves it
// into its delete directory. Any other dest is treated as a directory; the
// image is moved into it and that location becomes the new proper path.
// When the source is missing but the destination already exists the move is
// considered done.
func Move(img *ImagePath, dest string) error {
	var target string
	switch dest {
	case DestKeep:
		target = img.ProperPath()
	case DestDelete:
		target = img.DeletePath()
	default:
		target = filepath.Join(dest, img.Filename())
	}

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}

	source := img.Path()
	if source != target {
		if err := moveFile(source, target); err != nil {
			if !errors.Is(err, fs.ErrNotExist) || !fileExists(target) {
				return fmt.Errorf("failed to move %s: %w", source, err)
			}
			slog.Debug("Source already moved", "source", source, "target", target)
		}
	}

	switch dest {
	case DestDelete:
		img.Status = Deleted
	case DestKeep:
		img.Status = Kept
	default:
		img.SetProperPath(target)
		img.Status = Kept
	}

	slog.Debug("Moved image", "source", source, "target", target, "status", img.Status)
	return nil
}

func moveFile(source, target string) error {
	err := os.Rename(source, target)
	if err == nil {
		return nil
	}
	if !fileExists(source) {
		return err
	}
	// Rename fails across devices; copy and remove instead.
	if cerr := copyFile(source, target); cerr != nil {
		return fmt.Errorf("rename failed (%v), copy failed: %w", err, cerr)
	}
	return os.Remove(source)
}

func copyFile(source, target string) error {
	in, err := os.Open(source)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(target)
		return err
	}
	return out.Close()
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
