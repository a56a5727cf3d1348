package imagelist

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/lehigh-university-libraries/culler/internal/images"
)

// LoadBuffer is how many images are kept decoded on each side of the cursor.
const LoadBuffer = 2

// minMaxLen keeps the history long enough to hold a full decode window.
const minMaxLen = 2*LoadBuffer + 2

// maxDrops bounds how many images in a row may be dropped as vanished or
// undecodable before the list gives up.
const maxDrops = maxDirSamples

// DecodeFunc turns an ImagePath into a displayable frame.
type DecodeFunc func(*images.ImagePath) (*images.Frame, error)

// Options configure a List.
type Options struct {
	// DeleteDir is the delete directory given to new images.
	DeleteDir string
	// MaxLen caps the number of remembered images. Zero means unbounded.
	MaxLen int
	// Decode defaults to images.Decode with MaxDecodeEdge.
	Decode        DecodeFunc
	MaxDecodeEdge int
}

// List is the sequence of images the user walks through: the history behind
// the cursor and a short lookahead in front of it.
//
// Only the images within LoadBuffer of the cursor are decoded. Moving the
// cursor by one decodes one image and evicts one. Images whose file has
// disappeared are dropped from the list when the window reaches them.
type List struct {
	sampler   *Sampler
	deleteDir string
	maxLen    int
	decode    DecodeFunc

	images []*images.ImagePath
	index  int

	// frames[i] is the decode of images[lo+i].
	frames []*images.Frame
	lo     int
}

// New creates a list and preloads the cursor image and its lookahead.
func New(sampler *Sampler, opts Options) (*List, error) {
	l := &List{
		sampler:   sampler,
		deleteDir: opts.DeleteDir,
		maxLen:    opts.MaxLen,
		decode:    opts.Decode,
	}
	if l.maxLen > 0 && l.maxLen < minMaxLen {
		l.maxLen = minMaxLen
	}
	if l.decode == nil {
		edge := opts.MaxDecodeEdge
		l.decode = func(img *images.ImagePath) (*images.Frame, error) {
			return images.Decode(img, edge)
		}
	}

	if err := l.rebuild(func() int { return 0 }); err != nil {
		return nil, err
	}
	return l, nil
}

// Index is the cursor position.
func (l *List) Index() int {
	return l.index
}

// Len is the number of images in the list, lookahead included.
func (l *List) Len() int {
	return len(l.images)
}

// Current is the image under the cursor.
func (l *List) Current() *images.ImagePath {
	return l.images[l.index]
}

// At returns the image at index i.
func (l *List) At(i int) *images.ImagePath {
	return l.images[i]
}

// CurrentFrame is the decoded form of Current.
func (l *List) CurrentFrame() *images.Frame {
	return l.frames[l.index-l.lo]
}

// CurrentInfo is the info line of the current image.
func (l *List) CurrentInfo() string {
	return l.CurrentFrame().Info()
}

func (l *List) CurrentRatio() float64 {
	return l.CurrentFrame().Ratio()
}

// Window returns the images that are currently decoded, in list order.
func (l *List) Window() []*images.ImagePath {
	return append([]*images.ImagePath(nil), l.images[l.lo:l.lo+len(l.frames)]...)
}

// Similar returns the decoded neighbours whose perceptual hash is within
// maxDistance of the current image.
func (l *List) Similar(maxDistance int) []*images.ImagePath {
	current := l.CurrentFrame()
	var out []*images.ImagePath
	for i, frame := range l.frames {
		if l.lo+i == l.index {
			continue
		}
		if d := current.Distance(frame); d >= 0 && d <= maxDistance {
			out = append(out, l.images[l.lo+i])
		}
	}
	return out
}

// Next marks nothing and advances the cursor by one.
func (l *List) Next() error {
	return l.advance()
}

// NextWithStatus sets the status of the current image and advances.
func (l *List) NextWithStatus(status images.Status) error {
	l.Current().Status = status
	return l.advance()
}

func (l *List) advance() error {
	l.index++
	for drops := 0; ; drops++ {
		if drops >= maxDrops {
			l.index--
			return dropLimitError(drops)
		}
		bi := l.index + LoadBuffer
		if bi >= len(l.images) {
			if err := l.appendRandom(); err != nil {
				l.index--
				return err
			}
		}
		frame, ok := l.load(bi)
		if !ok {
			l.removeAt(bi)
			continue
		}
		if len(l.frames) == 2*LoadBuffer+1 {
			l.frames = l.frames[1:]
			l.lo++
		}
		l.frames = append(l.frames, frame)
		break
	}

	if l.maxLen > 0 && len(l.images) > l.maxLen {
		l.removeAt(0)
	}
	return nil
}

// Previous moves the cursor back by one. It does nothing at the start.
func (l *List) Previous() {
	if l.index == 0 {
		return
	}
	l.index--
	for {
		if l.index < LoadBuffer {
			l.frames = l.frames[:len(l.frames)-1]
			return
		}
		bi := l.index - LoadBuffer
		frame, ok := l.load(bi)
		if !ok {
			l.removeAt(bi)
			continue
		}
		l.frames = append([]*images.Frame{frame}, l.frames[:len(l.frames)-1]...)
		l.lo = bi
		return
	}
}

// First jumps to the oldest remembered image.
func (l *List) First() error {
	if l.index == 0 {
		return nil
	}
	return l.rebuild(func() int { return 0 })
}

// Last jumps to the newest image that still has a full lookahead.
func (l *List) Last() error {
	if l.index >= len(l.images)-1-LoadBuffer {
		return nil
	}
	return l.rebuild(func() int { return len(l.images) - 1 - LoadBuffer })
}

// Move relocates img (see images.Move) and invalidates cached listings of
// the directories involved.
func (l *List) Move(img *images.ImagePath, dest string) error {
	before := img.Dir()
	if err := images.Move(img, dest); err != nil {
		return err
	}
	l.sampler.Forget(before)
	l.sampler.Forget(img.Dir())
	return nil
}

// MoveCurrent moves the image under the cursor.
func (l *List) MoveCurrent(dest string) error {
	return l.Move(l.Current(), dest)
}

// rebuild places the cursor at target() and decodes its window from scratch.
// target is re-evaluated whenever a vanished image is removed.
func (l *List) rebuild(target func() int) error {
	drops := 0
restart:
	for {
		if drops >= maxDrops {
			return dropLimitError(drops)
		}
		for len(l.images) < LoadBuffer+1 {
			if err := l.appendRandom(); err != nil {
				return err
			}
		}
		idx := target()
		for len(l.images) < idx+LoadBuffer+1 {
			if err := l.appendRandom(); err != nil {
				return err
			}
		}

		lo := max(0, idx-LoadBuffer)
		frames := make([]*images.Frame, 0, 2*LoadBuffer+1)
		for i := lo; i <= idx+LoadBuffer; i++ {
			frame, ok := l.load(i)
			if !ok {
				l.removeAt(i)
				drops++
				continue restart
			}
			frames = append(frames, frame)
		}

		l.index = idx
		l.lo = lo
		l.frames = frames
		return nil
	}
}

func (l *List) appendRandom() error {
	last := ""
	if n := len(l.images); n > 0 {
		last = l.images[n-1].ProperPath()
	}
	path, err := l.sampler.Pick(last, len(l.images))
	if err != nil {
		return fmt.Errorf("failed to pick image: %w", err)
	}
	l.images = append(l.images, images.NewImagePath(path, l.deleteDir))
	return nil
}

// load decodes the image at i. A false result means the image should be
// dropped from the list.
func (l *List) load(i int) (*images.Frame, bool) {
	img := l.images[i]
	if !img.Exists() {
		slog.Debug("Image no longer exists", "path", img.Path())
		l.sampler.Forget(img.Dir())
		return nil, false
	}
	frame, err := l.decode(img)
	if err != nil {
		slog.Warn("Skipping image", "path", img.Path(), "error", err)
		l.sampler.Reject(img.ProperPath())
		return nil, false
	}
	return frame, true
}

// removeAt drops images[i] and keeps the cursor and window aligned.
func (l *List) removeAt(i int) {
	if l.index > i {
		l.index--
	}
	switch {
	case i < l.lo:
		l.lo--
	case i < l.lo+len(l.frames):
		k := i - l.lo
		l.frames = append(l.frames[:k], l.frames[k+1:]...)
	}
	l.images = append(l.images[:i], l.images[i+1:]...)
}

func dropLimitError(drops int) error {
	return fmt.Errorf("%w: %d images in a row could not be loaded", ErrExhausted, drops)
}

// IsExhausted reports whether err means the population has run dry.
func IsExhausted(err error) bool {
	return errors.Is(err, ErrExhausted)
}
