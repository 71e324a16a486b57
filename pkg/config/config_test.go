package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vanderheijden86/storytour/pkg/persist"
	"github.com/vanderheijden86/storytour/pkg/testutil"
	"github.com/vanderheijden86/storytour/pkg/tour"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Tour.StorageKey != "onboarding-tutorial-completed" {
		t.Errorf("expected default storage key, got %q", cfg.Tour.StorageKey)
	}
	if cfg.Tour.Marker != "1.0" {
		t.Errorf("expected marker '1.0', got %q", cfg.Tour.Marker)
	}
	if cfg.Tour.AutoStart == nil || !*cfg.Tour.AutoStart {
		t.Error("expected auto start enabled")
	}
	if cfg.Tour.StartDelay != time.Second {
		t.Errorf("expected 1s start delay, got %v", cfg.Tour.StartDelay)
	}
	if cfg.Tour.Gap != 20 || cfg.Tour.Padding != 20 {
		t.Errorf("expected gap/padding 20/20, got %v/%v", cfg.Tour.Gap, cfg.Tour.Padding)
	}
	if len(cfg.Persistence.Backends) != 3 || cfg.Persistence.Backends[0] != BackendSQLite {
		t.Errorf("expected sqlite,file,memory backends, got %v", cfg.Persistence.Backends)
	}
}

func TestLoadFrom_NonExistent(t *testing.T) {
	cfg, err := LoadFrom("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	if cfg.Tour.Marker != tour.DefaultMarker {
		t.Errorf("expected default config, got marker %q", cfg.Tour.Marker)
	}
}

func TestLoadFrom_ValidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
tour:
  storage_key: story-tour
  marker: "2.0"
  auto_start: false
  start_delay: 2s
  notice_duration: 6s
  welcome_prompt: true
  prompt_timeout: 15s
  gap: 2
  padding: 1

persistence:
  backends: [file, memory]
  file_path: ~/tour/state.json

steps_file: /etc/storytour/steps.yaml
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Tour.StorageKey != "story-tour" {
		t.Errorf("expected storage key 'story-tour', got %q", cfg.Tour.StorageKey)
	}
	if cfg.Tour.Marker != "2.0" {
		t.Errorf("expected marker '2.0', got %q", cfg.Tour.Marker)
	}
	if cfg.Tour.AutoStart == nil || *cfg.Tour.AutoStart {
		t.Error("expected auto start disabled")
	}
	if cfg.Tour.StartDelay != 2*time.Second {
		t.Errorf("expected 2s start delay, got %v", cfg.Tour.StartDelay)
	}
	if cfg.Tour.PromptTimeout != 15*time.Second {
		t.Errorf("expected 15s prompt timeout, got %v", cfg.Tour.PromptTimeout)
	}
	if !cfg.Tour.WelcomePrompt {
		t.Error("expected welcome prompt enabled")
	}
	if g := cfg.Geometry(); g.Gap != 2 || g.Padding != 1 {
		t.Errorf("expected geometry 2/1, got %+v", g)
	}

	home, _ := os.UserHomeDir()
	if cfg.Persistence.FilePath != filepath.Join(home, "tour/state.json") {
		t.Errorf("expected expanded file path, got %q", cfg.Persistence.FilePath)
	}
	if cfg.StepsFile != "/etc/storytour/steps.yaml" {
		t.Errorf("expected steps file preserved, got %q", cfg.StepsFile)
	}
}

func TestLoadFrom_PartialKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	if err := os.WriteFile(path, []byte("tour:\n  marker: \"3\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Tour.Marker != "3" {
		t.Errorf("expected marker '3', got %q", cfg.Tour.Marker)
	}
	if cfg.Tour.StorageKey != tour.DefaultStorageKey {
		t.Errorf("expected default storage key kept, got %q", cfg.Tour.StorageKey)
	}
	if cfg.Tour.NoticeDuration != tour.DefaultNoticeDuration {
		t.Errorf("expected default notice duration kept, got %v", cfg.Tour.NoticeDuration)
	}
}

func TestLoadFrom_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	if err := os.WriteFile(path, []byte("{{invalid yaml"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFrom(path)
	if err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestSaveAndLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Tour.Marker = "1.1"
	cfg.Tour.StartDelay = 1500 * time.Millisecond
	cfg.Persistence.Backends = []string{BackendMemory}

	if err := SaveTo(cfg, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("Load after save failed: %v", err)
	}
	if loaded.Tour.Marker != "1.1" {
		t.Errorf("expected marker '1.1', got %q", loaded.Tour.Marker)
	}
	if loaded.Tour.StartDelay != 1500*time.Millisecond {
		t.Errorf("expected 1.5s start delay, got %v", loaded.Tour.StartDelay)
	}
	if len(loaded.Persistence.Backends) != 1 || loaded.Persistence.Backends[0] != BackendMemory {
		t.Errorf("expected [memory] backends, got %v", loaded.Persistence.Backends)
	}
}

func TestTourOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Tour.StorageKey = "custom-key"
	cfg.Tour.Marker = "9"
	off := false
	cfg.Tour.AutoStart = &off

	f := testutil.NewFixture(map[string]tour.Rect{"#a": {Top: 10, Left: 10, Width: 10, Height: 10}})
	s, err := tour.New([]tour.Step{{Target: "#a", Title: "A"}}, f.Env(), cfg.TourOptions()...)
	if err != nil {
		t.Fatal(err)
	}

	s.Init()
	if f.Scheduler.Pending() != 0 {
		t.Errorf("expected auto start disabled, got %d pending", f.Scheduler.Pending())
	}
	s.Start()
	s.Skip()
	testutil.AssertMarker(t, f.Store, "custom-key", "9")
}

func TestOpenStore(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Persistence.SQLitePath = filepath.Join(dir, "state", "tour.db")
	cfg.Persistence.FilePath = filepath.Join(dir, "state", "tour.json")

	chain, closer, err := cfg.OpenStore()
	if err != nil {
		t.Fatalf("OpenStore failed: %v", err)
	}
	if chain.Len() != 3 {
		t.Errorf("expected 3 backends, got %d", chain.Len())
	}
	if err := chain.Set("k", "v"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := closer.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}

	// The first backend took the write.
	s, err := persist.OpenSQLiteStore(cfg.Persistence.SQLitePath)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if v, err := s.Get("k"); err != nil || v != "v" {
		t.Errorf("expected sqlite to hold 'v', got %q (%v)", v, err)
	}
	if _, err := persist.NewFileStore(cfg.Persistence.FilePath).Get("k"); !errors.Is(err, persist.ErrNotFound) {
		t.Errorf("expected file backend untouched, got %v", err)
	}
}

func TestOpenStore_UnknownBackend(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Persistence.Backends = []string{"memory", "cookies"}

	if _, _, err := cfg.OpenStore(); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot determine home dir")
	}

	tests := []struct {
		input    string
		expected string
	}{
		{"~/foo", filepath.Join(home, "foo")},
		{"~/", filepath.Join(home, "")},
		{"/absolute", "/absolute"},
		{"relative", "relative"},
		{"", ""},
	}

	for _, tt := range tests {
		got := expandHome(tt.input)
		if got != tt.expected {
			t.Errorf("expandHome(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestConfigDir_XDGOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	got := ConfigDir()
	expected := filepath.Join(dir, "storytour")
	if got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
	if ConfigPath() != filepath.Join(expected, "config.yaml") {
		t.Errorf("unexpected config path %q", ConfigPath())
	}
}

func TestStateDir_XDGOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_STATE_HOME", dir)

	got := StateDir()
	expected := filepath.Join(dir, "storytour")
	if got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
	cfg := DefaultConfig()
	if cfg.SQLitePath() != filepath.Join(expected, "tour.db") {
		t.Errorf("expected default sqlite path under state dir, got %q", cfg.SQLitePath())
	}
	if cfg.FilePath() != filepath.Join(expected, "tour.json") {
		t.Errorf("expected default file path under state dir, got %q", cfg.FilePath())
	}
}

func TestGeometry(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.Geometry(); got != tour.DefaultGeometry() {
		t.Errorf("expected default geometry, got %+v", got)
	}
	if got := cfg.TerminalGeometry(); got != (tour.Geometry{Gap: 1, Padding: 1}) {
		t.Errorf("expected 1-cell terminal geometry, got %+v", got)
	}

	cfg.Tour.Gap, cfg.Tour.Padding = 0, 0
	cfg.Tour.TerminalGap, cfg.Tour.TerminalPadding = 2, 0
	if got := cfg.Geometry(); got != tour.DefaultGeometry() {
		t.Errorf("unset gap/padding should fall back to defaults, got %+v", got)
	}
	if got := cfg.TerminalGeometry(); got != (tour.Geometry{Gap: 2, Padding: 1}) {
		t.Errorf("expected terminal gap 2 padding 1, got %+v", got)
	}
}
