package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/lehigh-university-libraries/culler/internal/rules"
	"gopkg.in/yaml.v3"
)

// Config is the YAML configuration file of the tool
type Config struct {
	path string

	Locations      Locations         `yaml:"locations"`
	Behaviour      Behaviour         `yaml:"behaviour"`
	SourcePatterns map[string]string `yaml:"sourcePatterns"`
	BadPatterns    map[string]string `yaml:"badPatterns"`
	BadPaths       map[string]string `yaml:"badPaths"`
	AutoMove       []rules.MoveRule  `yaml:"autoMove"`
	KeyBinds       map[string]string `yaml:"keyBinds"`
	Appearance     Appearance        `yaml:"appearance"`
}

// Locations holds every directory and file the tool reads or writes
type Locations struct {
	MainPaths      []string `yaml:"mainPaths"`
	UsedPath       int      `yaml:"usedPath"`
	DeletePaths    []string `yaml:"deletePaths"`
	UsedDeletePath int      `yaml:"usedDeletePath"`
	DefaultPath    string   `yaml:"defaultPath"`
	BlacklistPath  string   `yaml:"blacklistPath"`
	LogPath        string   `yaml:"logPath"`
	DirListDir     string   `yaml:"dirListDir"`
}

// Behaviour tunes image selection and decoding
type Behaviour struct {
	SupportedFiletypes []string `yaml:"supportedFiletypes"`
	MaxLenImageList    int      `yaml:"maxLenImageList"`
	MaxDecodeEdge      int      `yaml:"maxDecodeEdge"`
	SimilarDistance    int      `yaml:"similarDistance"`
}

// Appearance is the desktop window state
type Appearance struct {
	Title  string `yaml:"title"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

// Actions that can be bound to keys.
const (
	ActionKeep     = "keep"
	ActionDelete   = "delete"
	ActionNext     = "next"
	ActionPrevious = "previous"
	ActionFirst    = "first"
	ActionLast     = "last"
	ActionOpen     = "open"
	ActionCopy     = "copy"
)

// Default returns the configuration used when no file exists yet
func Default() *Config {
	return &Config{
		Locations: Locations{
			MainPaths:     []string{filepath.Join("static", "images")},
			DeletePaths:   []string{"deleted"},
			DefaultPath:   filepath.Join("static", "images"),
			BlacklistPath: "blacklist.txt",
			LogPath:       "sessions.log",
			DirListDir:    "generated",
		},
		Behaviour: Behaviour{
			SupportedFiletypes: []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tif", ".tiff", ".webp"},
			MaxLenImageList:    200,
			MaxDecodeEdge:      2048,
			SimilarDistance:    6,
		},
		SourcePatterns: map[string]string{},
		BadPatterns:    map[string]string{},
		BadPaths:       map[string]string{},
		KeyBinds: map[string]string{
			ActionKeep:     "K",
			ActionDelete:   "X",
			ActionNext:     "Right",
			ActionPrevious: "Left",
			ActionFirst:    "Home",
			ActionLast:     "End",
			ActionOpen:     "O",
			ActionCopy:     "C",
		},
		Appearance: Appearance{
			Title:  "culler",
			Width:  1200,
			Height: 800,
		},
	}
}

// Load reads the configuration at path. A missing file is created with the
// defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	cfg.path = path

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Info("Config file not found, writing defaults", "path", path)
		if err := cfg.Save(); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the indexes into the location lists
func (c *Config) Validate() error {
	l := c.Locations
	if len(l.MainPaths) > 0 && (l.UsedPath < 0 || l.UsedPath >= len(l.MainPaths)) {
		return fmt.Errorf("usedPath %d out of range for %d main paths", l.UsedPath, len(l.MainPaths))
	}
	if len(l.DeletePaths) == 0 {
		return errors.New("at least one delete path is required")
	}
	if l.UsedDeletePath < 0 || l.UsedDeletePath >= len(l.DeletePaths) {
		return fmt.Errorf("usedDeletePath %d out of range for %d delete paths", l.UsedDeletePath, len(l.DeletePaths))
	}
	return nil
}

// Save writes the configuration back to the file it was loaded from
func (c *Config) Save() error {
	if c.path == "" {
		return errors.New("config has no file path")
	}
	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Path is the file the configuration was loaded from
func (c *Config) Path() string {
	return c.path
}

// MainPath is the root directory images are drawn from
func (c *Config) MainPath() string {
	l := c.Locations
	if len(l.MainPaths) == 0 {
		return c.DefaultPath()
	}
	return absPath(l.MainPaths[l.UsedPath])
}

// DefaultPath is used when the main path does not exist
func (c *Config) DefaultPath() string {
	return absPath(c.Locations.DefaultPath)
}

// DeletePath is the directory deleted images are moved to
func (c *Config) DeletePath() string {
	return absPath(c.Locations.DeletePaths[c.Locations.UsedDeletePath])
}

func (c *Config) BlacklistPath() string {
	return absPath(c.Locations.BlacklistPath)
}

func (c *Config) LogPath() string {
	return absPath(c.Locations.LogPath)
}

// DirListPath is the directory listing cache for the main path in use
func (c *Config) DirListPath() string {
	return absPath(filepath.Join(c.Locations.DirListDir, fmt.Sprintf("dirList%d.txt", c.Locations.UsedPath)))
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
