package imagelist

import (
	"errors"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
}

func seeded() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

func TestPickDirFollowsWeights(t *testing.T) {
	root := t.TempDir()
	dirs := []string{filepath.Join(root, "a"), filepath.Join(root, "b"), filepath.Join(root, "c")}
	weights := []int{1, 3, 6}

	s, err := NewSampler(dirs, weights, []string{".jpg"}, seeded())
	if err != nil {
		t.Fatal(err)
	}

	const draws = 60000
	counts := make([]int, len(dirs))
	for i := 0; i < draws; i++ {
		counts[s.pickDir()]++
	}

	for i, w := range weights {
		expected := float64(w) / 10
		got := float64(counts[i]) / draws
		if math.Abs(expected-got) > 0.02 {
			t.Errorf("dir %d: expected frequency %.2f, got %.3f", i, expected, got)
		}
	}
}

func TestPickDirUniformWithoutWeights(t *testing.T) {
	s, err := NewSampler([]string{"a", "b"}, nil, nil, seeded())
	if err != nil {
		t.Fatal(err)
	}

	const draws = 20000
	counts := make([]int, 2)
	for i := 0; i < draws; i++ {
		counts[s.pickDir()]++
	}
	if got := float64(counts[0]) / draws; math.Abs(got-0.5) > 0.02 {
		t.Errorf("Expected roughly even split, got %.3f", got)
	}
}

func TestPickDirSkipsZeroWeights(t *testing.T) {
	s, err := NewSampler([]string{"a", "b", "c"}, []int{0, 5, 0}, nil, seeded())
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 1000; i++ {
		if idx := s.pickDir(); idx != 1 {
			t.Fatalf("Expected only dir 1 to be picked, got %d", idx)
		}
	}
}

func TestNewSamplerRejectsMismatchedWeights(t *testing.T) {
	if _, err := NewSampler([]string{"a", "b"}, []int{1}, nil, seeded()); err == nil {
		t.Error("Expected error for mismatched weights")
	}
}

func TestPickRejectsUnsupportedFiles(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "notes.txt"))
	touch(t, filepath.Join(dir, "photo.JPG"))

	s, err := NewSampler([]string{dir}, []int{2}, []string{".jpg", ".png"}, seeded())
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 50; i++ {
		got, err := s.Pick("", 0)
		if err != nil {
			t.Fatalf("Pick failed: %v", err)
		}
		if filepath.Base(got) != "photo.JPG" {
			t.Fatalf("Expected photo.JPG, got %s", got)
		}
	}
}

func TestPickAvoidsImmediateRepeat(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.jpg")
	touch(t, a)
	touch(t, filepath.Join(dir, "b.jpg"))

	s, err := NewSampler([]string{dir}, nil, []string{".jpg"}, seeded())
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 50; i++ {
		got, err := s.Pick(a, 5)
		if err != nil {
			t.Fatalf("Pick failed: %v", err)
		}
		if got == a {
			t.Fatalf("Expected %s not to be repeated", a)
		}
	}
}

func TestPickDropsEmptyDirectories(t *testing.T) {
	root := t.TempDir()
	empty := filepath.Join(root, "empty")
	if err := os.MkdirAll(empty, 0755); err != nil {
		t.Fatal(err)
	}
	full := filepath.Join(root, "full")
	touch(t, filepath.Join(full, "one.png"))

	s, err := NewSampler([]string{empty, full}, []int{1, 1}, []string{".png"}, seeded())
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 20; i++ {
		if _, err := s.Pick("", 0); err != nil {
			t.Fatalf("Pick failed: %v", err)
		}
	}
	if s.Dirs() != 1 {
		t.Errorf("Expected empty directory to be dropped, have %d dirs", s.Dirs())
	}
}

func TestPickExhausted(t *testing.T) {
	dir := t.TempDir()
	only := filepath.Join(dir, "only.jpg")
	touch(t, only)

	tests := []struct {
		name  string
		dirs  []string
		last  string
		count int
	}{
		{"single file already shown", []string{dir}, only, 3},
		{"no directories", nil, "", 0},
		{"only empty directories", []string{t.TempDir()}, "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSampler(tt.dirs, nil, []string{".jpg"}, seeded())
			if err != nil {
				t.Fatal(err)
			}
			_, err = s.Pick(tt.last, tt.count)
			if !errors.Is(err, ErrExhausted) {
				t.Errorf("Expected ErrExhausted, got %v", err)
			}
		})
	}
}

func TestForgetRefreshesListing(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.jpg")
	touch(t, first)

	s, err := NewSampler([]string{dir}, nil, []string{".jpg"}, seeded())
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := s.Pick("", 0); got != first {
		t.Fatalf("Expected %s, got %s", first, got)
	}

	if err := os.Remove(first); err != nil {
		t.Fatal(err)
	}
	second := filepath.Join(dir, "second.jpg")
	touch(t, second)

	if got, _ := s.Pick("", 0); got != first {
		t.Errorf("Expected cached listing to return %s, got %s", first, got)
	}

	s.Forget(dir)
	if got, _ := s.Pick("", 0); got != second {
		t.Errorf("Expected %s after Forget, got %s", second, got)
	}
}

func TestPickSkipsRejected(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.jpg")
	good := filepath.Join(dir, "good.jpg")
	touch(t, bad)
	touch(t, good)

	s, err := NewSampler([]string{dir}, nil, []string{".jpg"}, seeded())
	if err != nil {
		t.Fatal(err)
	}
	s.Reject(bad)
	for i := 0; i < 50; i++ {
		got, err := s.Pick("", 0)
		if err != nil {
			t.Fatal(err)
		}
		if got != good {
			t.Fatalf("Expected %s, got %s", good, got)
		}
	}

	s.Reject(good)
	if _, err := s.Pick("", 0); !errors.Is(err, ErrExhausted) {
		t.Errorf("Expected ErrExhausted with every file rejected, got %v", err)
	}

	if err := s.Reset([]string{dir}, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Pick("", 0); err != nil {
		t.Errorf("Expected Reset to clear rejections, got %v", err)
	}
}

func TestPickFollowsSymlinks(t *testing.T) {
	src := t.TempDir()
	target := filepath.Join(src, "photo.jpg")
	touch(t, target)

	dir := t.TempDir()
	link := filepath.Join(dir, "photo.jpg")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	s, err := NewSampler([]string{dir}, nil, []string{".jpg"}, seeded())
	if err != nil {
		t.Fatal(err)
	}
	got, err := s.Pick("", 0)
	if err != nil {
		t.Fatalf("Pick failed: %v", err)
	}
	if got != link {
		t.Errorf("Expected %s, got %s", link, got)
	}
}
