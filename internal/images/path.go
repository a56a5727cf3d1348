package images

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
)

// Status records the judgement passed on an image.
type Status int

const (
	Undecided Status = iota
	Kept
	Deleted
)

func (s Status) String() string {
	switch s {
	case Kept:
		return "kept"
	case Deleted:
		return "deleted"
	default:
		return "undecided"
	}
}

// ImagePath tracks where a single image lives and where it goes when deleted.
//
// The proper path is the location the image should be at. It starts as the
// original location and only changes when the image is moved somewhere that
// is not the delete directory.
type ImagePath struct {
	properPath string
	DeleteDir  string
	Status     Status
}

// NewImagePath creates an undecided ImagePath. The path is made absolute.
func NewImagePath(path, deleteDir string) *ImagePath {
	p := &ImagePath{DeleteDir: deleteDir}
	p.SetProperPath(path)
	return p
}

func (p *ImagePath) String() string {
	return fmt.Sprintf("ImagePath(%s, status=%s)", p.properPath, p.Status)
}

// ProperPath returns the non-deleted location of the image.
func (p *ImagePath) ProperPath() string {
	return p.properPath
}

// SetProperPath replaces the proper path, resolving it to an absolute path.
func (p *ImagePath) SetProperPath(path string) {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	p.properPath = path
}

// UpdateProperDir keeps the filename but moves the proper path into dir.
func (p *ImagePath) UpdateProperDir(dir string) {
	p.SetProperPath(filepath.Join(dir, p.Filename()))
}

// DeletePath is where the image lives once it has been deleted.
func (p *ImagePath) DeletePath() string {
	path := filepath.Join(p.DeleteDir, p.Filename())
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

// Path is the current location: the delete path for deleted images and the
// proper path otherwise.
func (p *ImagePath) Path() string {
	if p.Status == Deleted {
		return p.DeletePath()
	}
	return p.properPath
}

func (p *ImagePath) Filename() string {
	return filepath.Base(p.properPath)
}

// Dir is the directory of the proper path.
func (p *ImagePath) Dir() string {
	return filepath.Dir(p.properPath)
}

// PathEnd returns at most the last 4 parent directories of the proper path.
func (p *ImagePath) PathEnd() string {
	parts := strings.Split(filepath.ToSlash(filepath.Dir(p.properPath)), "/")
	kept := parts[:0]
	for _, part := range parts {
		if part != "" {
			kept = append(kept, part)
		}
	}
	if len(kept) > 4 {
		kept = kept[len(kept)-4:]
	}
	return filepath.Join(kept...)
}

// Exists reports whether a file is present at the current path.
func (p *ImagePath) Exists() bool {
	_, err := os.Stat(p.Path())
	return err == nil
}

// Size is the human readable size of the file at the current path, or an
// empty string when the file is gone.
func (p *ImagePath) Size() string {
	info, err := os.Stat(p.Path())
	if err != nil {
		return ""
	}
	return humanize.Bytes(uint64(info.Size()))
}

// IsFile reports whether entry of dir is a regular file or a symlink to one.
func IsFile(dir string, entry fs.DirEntry) bool {
	if entry.Type().IsRegular() {
		return true
	}
	if entry.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(filepath.Join(dir, entry.Name()))
	return err == nil && info.Mode().IsRegular()
}
