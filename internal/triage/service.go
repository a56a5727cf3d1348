// Package triage holds the keep/delete session that both front-ends drive.
package triage

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/lehigh-university-libraries/culler/internal/catalog"
	"github.com/lehigh-university-libraries/culler/internal/config"
	"github.com/lehigh-university-libraries/culler/internal/imagelist"
	"github.com/lehigh-university-libraries/culler/internal/images"
	"github.com/lehigh-university-libraries/culler/internal/models"
	"github.com/lehigh-university-libraries/culler/internal/rules"
	"github.com/lehigh-university-libraries/culler/internal/storage"
)

// Options tune how a Service is built.
type Options struct {
	// Rescan rebuilds the directory list instead of reading the cached one.
	Rescan bool
	// Decode overrides image decoding, mostly for tests.
	Decode imagelist.DecodeFunc
	Rand   *rand.Rand
}

type Service struct {
	mu sync.Mutex

	cfg       *config.Config
	session   *storage.SessionLog
	blacklist []string
	sampler   *imagelist.Sampler
	list      *imagelist.List
}

func NewService(cfg *config.Config, opts Options) (*Service, error) {
	blacklist, err := catalog.ReadBlacklist(cfg.BlacklistPath())
	if err != nil {
		return nil, err
	}

	var entries []catalog.Entry
	if opts.Rescan {
		entries, err = catalog.Rebuild(cfg.DirListPath(), cfg.MainPath(), cfg.DefaultPath(), blacklist)
		if err == nil && len(entries) == 0 {
			entries = []catalog.Entry{{Dir: cfg.DefaultPath(), Count: 1}}
		}
	} else {
		entries, err = catalog.Load(cfg.DirListPath(), cfg.MainPath(), cfg.DefaultPath(), blacklist)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load directory list: %w", err)
	}

	rng := opts.Rand
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>32))
	}
	dirs, weights := catalog.Split(entries)
	sampler, err := imagelist.NewSampler(dirs, weights, cfg.Behaviour.SupportedFiletypes, rng)
	if err != nil {
		return nil, err
	}

	list, err := imagelist.New(sampler, imagelist.Options{
		DeleteDir:     cfg.DeletePath(),
		MaxLen:        cfg.Behaviour.MaxLenImageList,
		Decode:        opts.Decode,
		MaxDecodeEdge: cfg.Behaviour.MaxDecodeEdge,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load images: %w", err)
	}

	slog.Info("Triage session started", "dirs", len(dirs), "main_path", cfg.MainPath(), "delete_path", cfg.DeletePath())
	return &Service{
		cfg:       cfg,
		session:   storage.New(),
		blacklist: blacklist,
		sampler:   sampler,
		list:      list,
	}, nil
}

// Keep marks the current image kept and advances. A deleted image is moved
// back to its proper path; a matching auto-move rule sends it to the rule's
// directory instead. Already kept images just advance.
func (s *Service) Keep() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.list.Current()
	if current.Status == images.Kept {
		return s.list.Next()
	}

	dest, deleted := "", 0
	if current.Status == images.Deleted {
		dest, deleted = images.DestKeep, -1
	}
	if rule, ok := rules.AutoMove(s.cfg.AutoMove, current.ProperPath()); ok {
		slog.Debug("Auto move rule matched", "rule", rule.Name, "path", current.ProperPath(), "to", rule.To)
		dest = rule.To
	}

	if dest != "" {
		if err := s.list.Move(current, dest); err != nil {
			return err
		}
	}
	s.session.Update(1, deleted)
	return s.list.NextWithStatus(images.Kept)
}

// Delete moves the current image into the delete directory and advances.
// Already deleted images just advance.
func (s *Service) Delete() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.list.Current()
	if current.Status == images.Deleted {
		return s.list.Next()
	}

	wasKept := current.Status == images.Kept
	if err := s.list.Move(current, images.DestDelete); err != nil {
		return err
	}
	if wasKept {
		s.session.Update(-1, 1)
	} else {
		s.session.Update(0, 1)
	}
	return s.list.NextWithStatus(images.Deleted)
}

func (s *Service) Next() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list.Next()
}

func (s *Service) Previous() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.list.Previous()
}

func (s *Service) First() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list.First()
}

func (s *Service) Last() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list.Last()
}

// View describes the current image for display.
func (s *Service) View() *models.View {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.list.Current()
	frame := s.list.CurrentFrame()
	tally := s.session.Get()

	view := &models.View{
		Filename:       current.Filename(),
		PathEnd:        current.PathEnd(),
		Path:           current.Path(),
		Status:         current.Status.String(),
		Info:           s.list.CurrentInfo(),
		Ratio:          s.list.CurrentRatio(),
		Width:          frame.Width,
		Height:         frame.Height,
		SourceMatches:  rules.Match(s.cfg.SourcePatterns, current.Filename()),
		BadNameMatches: rules.Match(s.cfg.BadPatterns, current.Filename()),
		BadPathMatches: rules.Match(s.cfg.BadPaths, current.ProperPath()),
		Index:          s.list.Index(),
		Len:            s.list.Len(),
		Kept:           tally.Kept,
		Deleted:        tally.Deleted,
	}
	for _, img := range s.list.Similar(s.cfg.Behaviour.SimilarDistance) {
		view.Similar = append(view.Similar, img.Filename())
	}
	return view
}

// CurrentFrame is the decoded current image.
func (s *Service) CurrentFrame() *images.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list.CurrentFrame()
}

// CurrentPath is where the current image is on disk right now.
func (s *Service) CurrentPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list.Current().Path()
}

// Rescan walks the main path again, rewrites the directory list and resets
// the population images are drawn from.
func (s *Service) Rescan() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := catalog.Rebuild(s.cfg.DirListPath(), s.cfg.MainPath(), s.cfg.DefaultPath(), s.blacklist)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		entries = []catalog.Entry{{Dir: s.cfg.DefaultPath(), Count: 1}}
	}
	return s.sampler.Reset(catalog.Split(entries))
}

// BlacklistCurrentDir excludes the current image's directory from future
// scans. It takes effect on the next Rescan.
func (s *Service) BlacklistCurrentDir() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.list.Current().Dir()
	if !slices.Contains(s.blacklist, dir) {
		s.blacklist = append(s.blacklist, dir)
		slog.Info("Directory blacklisted", "dir", dir)
	}
	return dir
}

// Blacklist returns a copy of the blacklisted paths.
func (s *Service) Blacklist() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.blacklist)
}

// Session returns the current keep/delete tally.
func (s *Service) Session() storage.Session {
	return s.session.Get()
}

// Config is the configuration the service was built with.
func (s *Service) Config() *config.Config {
	return s.cfg
}

// Close records the session and persists the blacklist and configuration.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	if err := s.session.Append(s.cfg.LogPath()); err != nil {
		errs = append(errs, err)
	}
	if err := catalog.WriteBlacklist(s.cfg.BlacklistPath(), s.blacklist); err != nil {
		errs = append(errs, err)
	}
	if err := s.cfg.Save(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
