package images

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/corona10/goimagehash"
	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Frame is a decoded image held in memory for display.
type Frame struct {
	Image  image.Image
	Width  int // original pixel width
	Height int // original pixel height
	Size   string
	Taken  time.Time
	Camera string
	Hash   *goimagehash.ImageHash
}

// Decode reads and decodes the image at its current path. When maxEdge is
// positive the pixels are scaled down to fit a maxEdge square; Width and
// Height always describe the file on disk.
func Decode(img *ImagePath, maxEdge int) (*Frame, error) {
	path := img.Path()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	decoded, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}

	bounds := decoded.Bounds()
	frame := &Frame{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Size:   img.Size(),
	}

	if maxEdge > 0 && (frame.Width > maxEdge || frame.Height > maxEdge) {
		decoded = imaging.Fit(decoded, maxEdge, maxEdge, imaging.Lanczos)
	}
	frame.Image = decoded

	readExif(frame, data)

	if hash, err := goimagehash.PerceptionHash(decoded); err == nil {
		frame.Hash = hash
	} else {
		slog.Debug("Failed to compute perceptual hash", "path", path, "error", err)
	}

	return frame, nil
}

// readExif fills the capture metadata. Most non-JPEG files carry no EXIF.
func readExif(frame *Frame, data []byte) {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return
	}
	if taken, err := x.DateTime(); err == nil {
		frame.Taken = taken
	}
	if tag, err := x.Get(exif.Model); err == nil {
		if model, err := tag.StringVal(); err == nil {
			frame.Camera = strings.TrimSpace(model)
		}
	}
}

// Ratio is width over height of the original image.
func (f *Frame) Ratio() float64 {
	if f.Height == 0 {
		return 0
	}
	return float64(f.Width) / float64(f.Height)
}

// Info is the short description shown next to the image.
func (f *Frame) Info() string {
	var b strings.Builder
	fmt.Fprintf(&b, "res: %d x %d\nsize: %s", f.Width, f.Height, f.Size)
	if !f.Taken.IsZero() {
		fmt.Fprintf(&b, "\ntaken: %s", f.Taken.Format("2006-01-02 15:04"))
	}
	if f.Camera != "" {
		fmt.Fprintf(&b, "\ncamera: %s", f.Camera)
	}
	return b.String()
}

// Distance is the perceptual hash distance to other, or -1 when either frame
// has no hash.
func (f *Frame) Distance(other *Frame) int {
	if f.Hash == nil || other == nil || other.Hash == nil {
		return -1
	}
	d, err := f.Hash.Distance(other.Hash)
	if err != nil {
		return -1
	}
	return d
}
