// Package config handles loading and saving storytour configuration.
//
// Configuration follows the XDG Base Directory layout:
//   - Config:  ~/.config/storytour/config.yaml
//   - State:   ~/.local/state/storytour/ (completion marker stores)
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vanderheijden86/storytour/pkg/debug"
	"github.com/vanderheijden86/storytour/pkg/persist"
	"github.com/vanderheijden86/storytour/pkg/tour"
	"gopkg.in/yaml.v3"
)

const appName = "storytour"

// Backend names accepted in PersistenceConfig.Backends.
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
	BackendMemory = "memory"
)

// TourConfig holds the sequencer settings.
type TourConfig struct {
	StorageKey     string        `yaml:"storage_key,omitempty"`
	Marker         string        `yaml:"marker,omitempty"`
	AutoStart      *bool         `yaml:"auto_start,omitempty"`
	StartDelay     time.Duration `yaml:"start_delay,omitempty"`
	NoticeDuration time.Duration `yaml:"notice_duration,omitempty"`
	WelcomePrompt  bool          `yaml:"welcome_prompt,omitempty"`
	PromptTimeout  time.Duration `yaml:"prompt_timeout,omitempty"`
	Gap            float64       `yaml:"gap,omitempty"`     // Distance between target and tooltip
	Padding        float64       `yaml:"padding,omitempty"` // Minimum distance from viewport edges

	// Terminal pages measure in cells, so they get their own geometry.
	TerminalGap     float64 `yaml:"terminal_gap,omitempty"`
	TerminalPadding float64 `yaml:"terminal_padding,omitempty"`
}

// PersistenceConfig controls where the completion marker is kept.
type PersistenceConfig struct {
	Backends   []string `yaml:"backends,omitempty"` // Tried in order: sqlite, file, memory
	SQLitePath string   `yaml:"sqlite_path,omitempty"`
	FilePath   string   `yaml:"file_path,omitempty"`
}

// Config is the top-level configuration for storytour.
type Config struct {
	Tour        TourConfig        `yaml:"tour,omitempty"`
	Persistence PersistenceConfig `yaml:"persistence,omitempty"`
	StepsFile   string            `yaml:"steps_file,omitempty"` // YAML step list; built-in steps when empty
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	autoStart := true
	return Config{
		Tour: TourConfig{
			StorageKey:     tour.DefaultStorageKey,
			Marker:         tour.DefaultMarker,
			AutoStart:      &autoStart,
			StartDelay:     tour.DefaultStartDelay,
			NoticeDuration: tour.DefaultNoticeDuration,
			PromptTimeout:  tour.DefaultPromptTimeout,
			Gap:            tour.DefaultGap,
			Padding:        tour.DefaultPadding,

			TerminalGap:     1,
			TerminalPadding: 1,
		},
		Persistence: PersistenceConfig{
			Backends: []string{BackendSQLite, BackendFile, BackendMemory},
		},
	}
}

// ConfigDir returns the XDG config directory for storytour.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName)
}

// StateDir returns the XDG state directory for storytour.
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", appName)
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path.
// Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	cfg.StepsFile = expandHome(cfg.StepsFile)
	cfg.Persistence.SQLitePath = expandHome(cfg.Persistence.SQLitePath)
	cfg.Persistence.FilePath = expandHome(cfg.Persistence.FilePath)

	return cfg, nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// Geometry returns the configured tooltip geometry, falling back to the
// defaults for unset values.
func (c Config) Geometry() tour.Geometry {
	g := tour.DefaultGeometry()
	if c.Tour.Gap > 0 {
		g.Gap = c.Tour.Gap
	}
	if c.Tour.Padding > 0 {
		g.Padding = c.Tour.Padding
	}
	return g
}

// TerminalGeometry returns the geometry used when the tour runs in a
// terminal page.
func (c Config) TerminalGeometry() tour.Geometry {
	g := tour.Geometry{Gap: 1, Padding: 1}
	if c.Tour.TerminalGap > 0 {
		g.Gap = c.Tour.TerminalGap
	}
	if c.Tour.TerminalPadding > 0 {
		g.Padding = c.Tour.TerminalPadding
	}
	return g
}

// TourOptions converts the tour section into sequencer options.
func (c Config) TourOptions() []tour.Option {
	autoStart := c.Tour.AutoStart == nil || *c.Tour.AutoStart
	return []tour.Option{
		tour.WithStorageKey(c.Tour.StorageKey),
		tour.WithMarker(c.Tour.Marker),
		tour.WithGeometry(c.Geometry()),
		tour.WithAutoStart(autoStart, c.Tour.StartDelay),
		tour.WithNoticeDuration(c.Tour.NoticeDuration),
		tour.WithWelcomePrompt(c.Tour.WelcomePrompt, c.Tour.PromptTimeout),
	}
}

// SQLitePath returns the configured SQLite path or the default under StateDir.
func (c Config) SQLitePath() string {
	if c.Persistence.SQLitePath != "" {
		return c.Persistence.SQLitePath
	}
	return stateFile("tour.db")
}

// FilePath returns the configured JSON store path or the default under StateDir.
func (c Config) FilePath() string {
	if c.Persistence.FilePath != "" {
		return c.Persistence.FilePath
	}
	return stateFile("tour.json")
}

func stateFile(name string) string {
	dir := StateDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, name)
}

// OpenStore builds the fallback chain named by Persistence.Backends. A
// backend that cannot be opened is left out of the chain and logged; the
// returned closer releases whatever was opened.
func (c Config) OpenStore() (*persist.Chain, io.Closer, error) {
	var (
		backends []persist.Store
		closers  multiCloser
	)
	for _, name := range c.Persistence.Backends {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case BackendSQLite:
			path := c.SQLitePath()
			if err := ensureDir(path); err != nil {
				debug.Log("config: sqlite backend unavailable: %v", err)
				continue
			}
			s, err := persist.OpenSQLiteStore(path)
			if err != nil {
				debug.Log("config: sqlite backend unavailable: %v", err)
				continue
			}
			backends = append(backends, s)
			closers = append(closers, s)
		case BackendFile:
			path := c.FilePath()
			if err := ensureDir(path); err != nil {
				debug.Log("config: file backend unavailable: %v", err)
				continue
			}
			backends = append(backends, persist.NewFileStore(path))
		case BackendMemory:
			backends = append(backends, persist.NewMemoryStore())
		default:
			closers.Close()
			return nil, nil, fmt.Errorf("unknown persistence backend %q", name)
		}
	}
	return persist.NewChain(backends...), closers, nil
}

func ensureDir(path string) error {
	if path == "" {
		return fmt.Errorf("cannot determine state directory")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}
	return nil
}

type multiCloser []io.Closer

func (m multiCloser) Close() error {
	var first error
	for _, c := range m {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
