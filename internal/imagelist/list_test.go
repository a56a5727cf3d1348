package imagelist

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lehigh-university-libraries/culler/internal/images"
)

// fakeDecode records the path it decoded in Frame.Size so tests can check
// the window lines up with the list.
func fakeDecode(img *images.ImagePath) (*images.Frame, error) {
	return &images.Frame{Width: 4, Height: 3, Size: img.ProperPath()}, nil
}

func newTestList(t *testing.T, files int, opts Options) (*List, string) {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "photos")
	for i := 0; i < files; i++ {
		touch(t, filepath.Join(dir, fmt.Sprintf("img%03d.jpg", i)))
	}
	s, err := NewSampler([]string{dir}, []int{files}, []string{".jpg"}, seeded())
	if err != nil {
		t.Fatal(err)
	}
	if opts.Decode == nil {
		opts.Decode = fakeDecode
	}
	if opts.DeleteDir == "" {
		opts.DeleteDir = filepath.Join(root, "deleted")
	}
	l, err := New(s, opts)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return l, root
}

// checkWindow asserts the decode window is exactly the images within
// LoadBuffer of the cursor and that each frame belongs to its image.
func checkWindow(t *testing.T, l *List) {
	t.Helper()
	wantLo := max(0, l.index-LoadBuffer)
	wantHi := l.index + LoadBuffer
	if l.lo != wantLo {
		t.Fatalf("window starts at %d, expected %d (index %d)", l.lo, wantLo, l.index)
	}
	if got := l.lo + len(l.frames) - 1; got != wantHi {
		t.Fatalf("window ends at %d, expected %d (index %d)", got, wantHi, l.index)
	}
	if wantHi >= len(l.images) {
		t.Fatalf("window end %d beyond list length %d", wantHi, len(l.images))
	}
	for i, frame := range l.frames {
		if frame.Size != l.images[l.lo+i].ProperPath() {
			t.Fatalf("frame %d decoded %s but image is %s", i, frame.Size, l.images[l.lo+i].ProperPath())
		}
	}
	if l.CurrentFrame().Size != l.Current().ProperPath() {
		t.Fatalf("current frame does not match current image")
	}
}

func TestNewPreloads(t *testing.T) {
	l, _ := newTestList(t, 20, Options{})

	if l.Len() != LoadBuffer+1 {
		t.Errorf("Expected %d images, got %d", LoadBuffer+1, l.Len())
	}
	if l.Index() != 0 {
		t.Errorf("Expected index 0, got %d", l.Index())
	}
	checkWindow(t, l)
}

func TestNextGrowsAndSlidesWindow(t *testing.T) {
	l, _ := newTestList(t, 20, Options{})

	for step := 1; step <= 10; step++ {
		if err := l.Next(); err != nil {
			t.Fatalf("Next failed at step %d: %v", step, err)
		}
		if l.Index() != step {
			t.Fatalf("Expected index %d, got %d", step, l.Index())
		}
		if l.Len() != step+LoadBuffer+1 {
			t.Fatalf("Expected length %d, got %d", step+LoadBuffer+1, l.Len())
		}
		if len(l.frames) > 2*LoadBuffer+1 {
			t.Fatalf("window grew to %d frames", len(l.frames))
		}
		checkWindow(t, l)
	}
}

func TestNextThenPreviousRestoresWindow(t *testing.T) {
	l, _ := newTestList(t, 30, Options{})

	for step := 0; step < 8; step++ {
		before := l.Window()
		beforeIndex := l.Index()

		if err := l.Next(); err != nil {
			t.Fatal(err)
		}
		l.Previous()

		after := l.Window()
		if l.Index() != beforeIndex {
			t.Fatalf("step %d: expected index %d, got %d", step, beforeIndex, l.Index())
		}
		if len(after) != len(before) {
			t.Fatalf("step %d: window size %d, expected %d", step, len(after), len(before))
		}
		for i := range before {
			if before[i] != after[i] {
				t.Fatalf("step %d: window slot %d changed from %s to %s", step, i, before[i], after[i])
			}
		}
		checkWindow(t, l)

		if err := l.Next(); err != nil {
			t.Fatal(err)
		}
	}
}

func TestPreviousAtStartIsNoop(t *testing.T) {
	l, _ := newTestList(t, 10, Options{})
	current := l.Current()

	l.Previous()

	if l.Index() != 0 || l.Current() != current {
		t.Error("Expected Previous at index 0 to do nothing")
	}
	checkWindow(t, l)
}

func TestFirstAndLast(t *testing.T) {
	l, _ := newTestList(t, 30, Options{})
	for i := 0; i < 7; i++ {
		if err := l.Next(); err != nil {
			t.Fatal(err)
		}
	}
	last := l.Current()
	first := l.At(0)

	if err := l.First(); err != nil {
		t.Fatalf("First failed: %v", err)
	}
	if l.Index() != 0 || l.Current() != first {
		t.Errorf("Expected cursor on the first image")
	}
	checkWindow(t, l)

	if err := l.Last(); err != nil {
		t.Fatalf("Last failed: %v", err)
	}
	if l.Current() != last {
		t.Errorf("Expected cursor back on %s, got %s", last, l.Current())
	}
	checkWindow(t, l)
}

func removeFile(t *testing.T, img *images.ImagePath) {
	t.Helper()
	if err := os.Remove(img.Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		t.Fatal(err)
	}
}

func inWindow(l *List, path string) bool {
	for _, img := range l.Window() {
		if img.Path() == path {
			return true
		}
	}
	return false
}

func TestNextDropsVanishedLookahead(t *testing.T) {
	l, _ := newTestList(t, 500, Options{})
	for i := 0; i < 4; i++ {
		if err := l.Next(); err != nil {
			t.Fatal(err)
		}
	}
	if err := l.First(); err != nil {
		t.Fatal(err)
	}

	// images[LoadBuffer+1] is remembered but not decoded yet.
	victim := l.At(LoadBuffer + 1)
	gone := victim.Path()
	removeFile(t, victim)
	before := l.Len()

	if err := l.Next(); err != nil {
		t.Fatalf("Next failed: %v", err)
	}

	if l.Len() >= before {
		t.Errorf("Expected vanished image to be dropped, length went from %d to %d", before, l.Len())
	}
	if inWindow(l, gone) {
		t.Errorf("Expected %s to be out of the window", gone)
	}
	checkWindow(t, l)
}

func TestPreviousDropsVanishedHistory(t *testing.T) {
	l, _ := newTestList(t, 500, Options{})
	for i := 0; i < 5; i++ {
		if err := l.Next(); err != nil {
			t.Fatal(err)
		}
	}
	current := l.Current()

	// Index 5 decodes [3..7]; retreating needs index 2.
	victim := l.At(l.Index() - LoadBuffer - 1)
	gone := victim.Path()
	removeFile(t, victim)
	before := l.Len()

	l.Previous()

	if l.Len() >= before {
		t.Errorf("Expected vanished image to be dropped, length stayed %d", l.Len())
	}
	if inWindow(l, gone) {
		t.Errorf("Expected %s to be out of the window", gone)
	}
	if l.At(l.Index()+1) != current {
		t.Errorf("Expected previous current image right after the cursor")
	}
	checkWindow(t, l)
}

func TestLastDropsVanishedImages(t *testing.T) {
	l, _ := newTestList(t, 500, Options{})
	for i := 0; i < 6; i++ {
		if err := l.Next(); err != nil {
			t.Fatal(err)
		}
	}
	if err := l.First(); err != nil {
		t.Fatal(err)
	}

	victim := l.At(l.Len() - 1)
	gone := victim.Path()
	removeFile(t, victim)

	if err := l.Last(); err != nil {
		t.Fatalf("Last failed: %v", err)
	}
	if inWindow(l, gone) {
		t.Errorf("Expected %s to be out of the window", gone)
	}
	checkWindow(t, l)
}

func TestMaxLenDropsOldest(t *testing.T) {
	l, _ := newTestList(t, 40, Options{MaxLen: 8})

	for i := 0; i < 20; i++ {
		if err := l.Next(); err != nil {
			t.Fatal(err)
		}
		if l.Len() > 8 {
			t.Fatalf("Expected at most 8 images, got %d", l.Len())
		}
		checkWindow(t, l)
	}
}

func TestMaxLenIsRaisedToWindow(t *testing.T) {
	l, _ := newTestList(t, 40, Options{MaxLen: 1})
	if l.maxLen != minMaxLen {
		t.Errorf("Expected maxLen raised to %d, got %d", minMaxLen, l.maxLen)
	}
}

func TestNewExhausted(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "lonely.jpg"))

	s, err := NewSampler([]string{dir}, nil, []string{".jpg"}, seeded())
	if err != nil {
		t.Fatal(err)
	}
	_, err = New(s, Options{Decode: fakeDecode})
	if !IsExhausted(err) {
		t.Errorf("Expected exhausted error, got %v", err)
	}
}

func TestNextExhaustedWhenEveryFileVanishes(t *testing.T) {
	l, root := newTestList(t, 10, Options{})
	if err := l.Next(); err != nil {
		t.Fatal(err)
	}
	index, length := l.Index(), l.Len()

	if err := os.RemoveAll(filepath.Join(root, "photos")); err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() { done <- l.Next() }()
	select {
	case err := <-done:
		if !IsExhausted(err) {
			t.Fatalf("Expected exhausted error, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Next did not return with every file gone")
	}

	if l.Index() != index {
		t.Errorf("Expected index %d, got %d", index, l.Index())
	}
	if l.Len() != length {
		t.Errorf("Expected length %d, got %d", length, l.Len())
	}
	checkWindow(t, l)
}

func TestUndecodableImagesAreDropped(t *testing.T) {
	// Every third file fails to decode.
	broken := func(path string) bool {
		var n int
		fmt.Sscanf(filepath.Base(path), "img%03d.jpg", &n)
		return n%3 == 0
	}
	decode := func(img *images.ImagePath) (*images.Frame, error) {
		if broken(img.ProperPath()) {
			return nil, errors.New("corrupt image")
		}
		return fakeDecode(img)
	}
	l, _ := newTestList(t, 30, Options{Decode: decode})

	for step := 0; step < 20; step++ {
		if err := l.Next(); err != nil {
			t.Fatalf("Next failed at step %d: %v", step, err)
		}
		for i := 0; i < l.Len(); i++ {
			if i <= l.Index()+LoadBuffer && broken(l.At(i).ProperPath()) {
				t.Fatalf("Expected %s to be dropped", l.At(i).ProperPath())
			}
		}
		checkWindow(t, l)
	}
}

func TestNewExhaustedWhenNothingDecodes(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 5; i++ {
		touch(t, filepath.Join(dir, fmt.Sprintf("img%d.jpg", i)))
	}
	s, err := NewSampler([]string{dir}, nil, []string{".jpg"}, seeded())
	if err != nil {
		t.Fatal(err)
	}
	decode := func(*images.ImagePath) (*images.Frame, error) {
		return nil, errors.New("corrupt image")
	}

	done := make(chan error, 1)
	go func() {
		_, err := New(s, Options{Decode: decode})
		done <- err
	}()
	select {
	case err := <-done:
		if !IsExhausted(err) {
			t.Errorf("Expected exhausted error, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("New did not return over a population of undecodable files")
	}
}

func TestMoveCurrent(t *testing.T) {
	l, root := newTestList(t, 10, Options{})
	current := l.Current()
	original := current.ProperPath()

	if err := l.MoveCurrent(images.DestDelete); err != nil {
		t.Fatalf("MoveCurrent failed: %v", err)
	}
	if current.Status != images.Deleted {
		t.Errorf("Expected status deleted, got %s", current.Status)
	}
	if _, err := os.Stat(filepath.Join(root, "deleted", filepath.Base(original))); err != nil {
		t.Errorf("Expected file in delete directory: %v", err)
	}

	if err := l.MoveCurrent(images.DestKeep); err != nil {
		t.Fatalf("MoveCurrent keep failed: %v", err)
	}
	if _, err := os.Stat(original); err != nil {
		t.Errorf("Expected file restored to %s: %v", original, err)
	}
}

func TestNextWithStatus(t *testing.T) {
	l, _ := newTestList(t, 10, Options{})
	current := l.Current()

	if err := l.NextWithStatus(images.Kept); err != nil {
		t.Fatal(err)
	}
	if current.Status != images.Kept {
		t.Errorf("Expected status kept, got %s", current.Status)
	}
}

func TestSimilar(t *testing.T) {
	l, _ := newTestList(t, 10, Options{})
	if got := l.Similar(10); len(got) != 0 {
		t.Errorf("Expected no similar images without hashes, got %d", len(got))
	}
}
