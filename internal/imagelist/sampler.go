package imagelist

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/lehigh-university-libraries/culler/internal/images"
)

// ErrExhausted is returned when no further candidate file can be drawn.
var ErrExhausted = errors.New("no candidate images left")

const (
	// drawsPerDir is how many files are drawn from a directory before a new
	// directory is sampled.
	drawsPerDir = 20

	// maxDirSamples bounds the search when no directory holds a supported file.
	maxDirSamples = 1000

	listingCacheSize = 256
)

// Sampler draws random files from a weighted directory population.
type Sampler struct {
	dirs       []string
	weights    []int
	extensions []string
	rng        *rand.Rand
	listings   *lru.Cache[string, []string]
	// rejected holds paths that exist but could not be decoded.
	rejected map[string]struct{}
}

// NewSampler creates a sampler over dirs. weights may be nil for a uniform
// choice; otherwise it must be the same length as dirs. extensions are
// matched case-insensitively against the end of the filename.
func NewSampler(dirs []string, weights []int, extensions []string, rng *rand.Rand) (*Sampler, error) {
	cache, err := lru.New[string, []string](listingCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create listing cache: %w", err)
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	s := &Sampler{
		extensions: normalizeExtensions(extensions),
		rng:        rng,
		listings:   cache,
		rejected:   make(map[string]struct{}),
	}
	if err := s.Reset(dirs, weights); err != nil {
		return nil, err
	}
	return s, nil
}

// Reset replaces the directory population and forgets cached listings.
func (s *Sampler) Reset(dirs []string, weights []int) error {
	if weights != nil && len(weights) != len(dirs) {
		return fmt.Errorf("got %d weights for %d directories", len(weights), len(dirs))
	}
	s.dirs = append([]string(nil), dirs...)
	if weights != nil {
		s.weights = append([]int(nil), weights...)
	} else {
		s.weights = nil
	}
	s.listings.Purge()
	clear(s.rejected)
	return nil
}

// Dirs returns the current population size.
func (s *Sampler) Dirs() int {
	return len(s.dirs)
}

// Forget drops the cached listing for dir so the next draw re-reads it.
func (s *Sampler) Forget(dir string) {
	s.listings.Remove(dir)
}

// Reject excludes path from future draws until the next Reset.
func (s *Sampler) Reject(path string) {
	s.rejected[path] = struct{}{}
}

// Supported reports whether name ends with one of the configured extensions.
func (s *Sampler) Supported(name string) bool {
	if len(s.extensions) == 0 {
		return true
	}
	lower := strings.ToLower(name)
	for _, ext := range s.extensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// Pick draws a random supported file. last is the proper path of the newest
// image in the list and history its length; the same file is not returned
// twice in a row once the history holds more than one image.
func (s *Sampler) Pick(last string, history int) (string, error) {
	for attempt := 0; attempt < maxDirSamples; attempt++ {
		if len(s.dirs) == 0 {
			return "", ErrExhausted
		}
		idx := s.pickDir()
		dir := s.dirs[idx]
		files := s.listing(dir)
		if len(files) == 0 {
			slog.Debug("Dropping empty directory from population", "dir", dir)
			s.removeDir(idx)
			continue
		}

		for i := 0; i < drawsPerDir; i++ {
			name := files[s.rng.IntN(len(files))]
			candidate := filepath.Join(dir, name)
			if history > 1 && candidate == last {
				if len(s.dirs) == 1 && len(files) == 1 {
					return "", ErrExhausted
				}
				if len(files) == 1 {
					break
				}
				continue
			}
			if _, bad := s.rejected[candidate]; bad {
				continue
			}
			if s.Supported(name) {
				return candidate, nil
			}
		}
	}
	return "", ErrExhausted
}

// pickDir chooses a directory index with probability proportional to its
// weight, or uniformly when there are no positive weights.
func (s *Sampler) pickDir() int {
	total := 0
	for _, w := range s.weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return s.rng.IntN(len(s.dirs))
	}

	r := s.rng.IntN(total)
	for i, w := range s.weights {
		if w <= 0 {
			continue
		}
		if r < w {
			return i
		}
		r -= w
	}
	return len(s.weights) - 1
}

func (s *Sampler) removeDir(idx int) {
	s.listings.Remove(s.dirs[idx])
	s.dirs = append(s.dirs[:idx], s.dirs[idx+1:]...)
	if s.weights != nil {
		s.weights = append(s.weights[:idx], s.weights[idx+1:]...)
	}
}

// listing returns the file names in dir, cached.
func (s *Sampler) listing(dir string) []string {
	if files, ok := s.listings.Get(dir); ok {
		return files
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		slog.Debug("Failed to list directory", "dir", dir, "error", err)
		return nil
	}
	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if images.IsFile(dir, entry) {
			files = append(files, entry.Name())
		}
	}
	s.listings.Add(dir, files)
	return files
}

func normalizeExtensions(extensions []string) []string {
	out := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" {
			out = append(out, ext)
		}
	}
	return out
}
