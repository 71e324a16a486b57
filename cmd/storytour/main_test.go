package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vanderheijden86/storytour/pkg/config"
	"github.com/vanderheijden86/storytour/pkg/hooks"
	"github.com/vanderheijden86/storytour/pkg/metrics"
	"github.com/vanderheijden86/storytour/pkg/persist"
	"github.com/vanderheijden86/storytour/pkg/tour"
	"github.com/vanderheijden86/storytour/pkg/ui"
)

func fileConfig(t *testing.T) (config.Config, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state", "tour.json")
	cfg := config.DefaultConfig()
	cfg.Persistence = config.PersistenceConfig{
		Backends: []string{config.BackendFile},
		FilePath: path,
	}
	return cfg, path
}

func stubConfirm(t *testing.T, ok bool, err error) *int {
	t.Helper()
	calls := 0
	orig := confirmReset
	confirmReset = func(string) (bool, error) {
		calls++
		return ok, err
	}
	t.Cleanup(func() { confirmReset = orig })
	return &calls
}

func TestRunReset_RemovesMarker(t *testing.T) {
	cfg, path := fileConfig(t)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	store := persist.NewFileStore(path)
	if err := store.Set(tour.DefaultStorageKey, tour.DefaultMarker); err != nil {
		t.Fatalf("seed marker: %v", err)
	}
	calls := stubConfirm(t, false, nil)

	var out bytes.Buffer
	if err := runReset(cfg, true, &out); err != nil {
		t.Fatalf("runReset: %v", err)
	}
	if *calls != 0 {
		t.Errorf("confirmation asked %d times with -yes", *calls)
	}
	if _, err := store.Get(tour.DefaultStorageKey); !errors.Is(err, persist.ErrNotFound) {
		t.Errorf("marker still present, Get err = %v", err)
	}
	if !strings.Contains(out.String(), "Tour reset") {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestRunReset_Cancelled(t *testing.T) {
	cfg, path := fileConfig(t)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	store := persist.NewFileStore(path)
	if err := store.Set(tour.DefaultStorageKey, tour.DefaultMarker); err != nil {
		t.Fatalf("seed marker: %v", err)
	}
	calls := stubConfirm(t, false, nil)

	var out bytes.Buffer
	if err := runReset(cfg, false, &out); err != nil {
		t.Fatalf("runReset: %v", err)
	}
	if *calls != 1 {
		t.Errorf("confirmation asked %d times, want 1", *calls)
	}
	if v, err := store.Get(tour.DefaultStorageKey); err != nil || v != tour.DefaultMarker {
		t.Errorf("marker = %q, %v; want it kept", v, err)
	}
	if !strings.Contains(out.String(), "cancelled") {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestRunReset_ConfirmError(t *testing.T) {
	cfg, _ := fileConfig(t)
	boom := errors.New("no tty")
	stubConfirm(t, false, boom)

	if err := runReset(cfg, false, &bytes.Buffer{}); !errors.Is(err, boom) {
		t.Errorf("runReset err = %v, want %v", err, boom)
	}
}

func TestRunReset_CustomKey(t *testing.T) {
	cfg, path := fileConfig(t)
	cfg.Tour.StorageKey = "storybook-tour"
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	store := persist.NewFileStore(path)
	_ = store.Set("storybook-tour", "2.0")
	_ = store.Set("other", "keep")

	if err := runReset(cfg, true, &bytes.Buffer{}); err != nil {
		t.Fatalf("runReset: %v", err)
	}
	if _, err := store.Get("storybook-tour"); !errors.Is(err, persist.ErrNotFound) {
		t.Errorf("custom key still present, err = %v", err)
	}
	if v, _ := store.Get("other"); v != "keep" {
		t.Errorf("unrelated key = %q, want keep", v)
	}
}

func TestLoadSteps_DefaultsWithoutFile(t *testing.T) {
	steps, path, err := loadSteps(config.DefaultConfig(), "")
	if err != nil {
		t.Fatalf("loadSteps: %v", err)
	}
	if path != "" {
		t.Errorf("path = %q, want empty", path)
	}
	if len(steps) != len(ui.DefaultSteps()) {
		t.Errorf("got %d steps, want the %d built-in ones", len(steps), len(ui.DefaultSteps()))
	}
}

func TestLoadSteps_OverrideWinsOverConfig(t *testing.T) {
	dir := t.TempDir()
	fromConfig := filepath.Join(dir, "config-steps.yaml")
	override := filepath.Join(dir, "override.yaml")
	if err := os.WriteFile(fromConfig, []byte("steps:\n  - target: '#welcome'\n    title: Config\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(override, []byte("steps:\n  - target: footer\n    title: Override\n    position: top\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := config.DefaultConfig()
	cfg.StepsFile = fromConfig

	steps, path, err := loadSteps(cfg, override)
	if err != nil {
		t.Fatalf("loadSteps: %v", err)
	}
	if path != override {
		t.Errorf("path = %q, want %q", path, override)
	}
	if len(steps) != 1 || steps[0].Title != "Override" || steps[0].Position != tour.PositionTop {
		t.Errorf("unexpected steps %+v", steps)
	}
}

func TestLoadSteps_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "steps.yaml")
	if err := os.WriteFile(path, []byte("steps: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, _, err := loadSteps(config.DefaultConfig(), path)
	if !errors.Is(err, config.ErrInvalidSteps) {
		t.Errorf("err = %v, want ErrInvalidSteps", err)
	}
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"a.svg", 1},
		{"a.svg,b.png", 2},
		{" a.svg , , b.png ,", 2},
	}
	for _, tt := range tests {
		if got := splitList(tt.in); len(got) != tt.want {
			t.Errorf("splitList(%q) = %v, want %d entries", tt.in, got, tt.want)
		}
	}
}

func TestPreviewSize_ExplicitWins(t *testing.T) {
	if w, h := previewSize(80, 24); w != 80 || h != 24 {
		t.Errorf("previewSize(80, 24) = %d, %d", w, h)
	}
	w, h := previewSize(120, 0)
	if w != 120 || h <= 0 {
		t.Errorf("previewSize(120, 0) = %d, %d", w, h)
	}
}

func TestRunPreview_WritesFiles(t *testing.T) {
	dir := t.TempDir()
	paths := []string{filepath.Join(dir, "board.svg"), filepath.Join(dir, "board.png")}
	var out bytes.Buffer

	err := runPreview(context.Background(), ui.DefaultSteps(), config.DefaultConfig(), paths, 100, 29, &out)
	if err != nil {
		t.Fatalf("runPreview: %v", err)
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("stat %s: %v", p, err)
		}
	}
	if !strings.Contains(out.String(), "7 of 7 steps resolved") {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestRunPreview_NoPaths(t *testing.T) {
	err := runPreview(context.Background(), ui.DefaultSteps(), config.DefaultConfig(), nil, 100, 29, &bytes.Buffer{})
	if err == nil {
		t.Error("expected error without output files")
	}
}

func TestTrackers(t *testing.T) {
	if trackers(nil, nil) != nil {
		t.Error("no trackers should give a nil tracker")
	}

	rec := metrics.NewRecorder()
	exec := hooks.NewExecutor(nil)
	tr := trackers(rec, exec)
	if tr == nil {
		t.Fatal("expected a combined tracker")
	}
	tr.Track(tour.Event{Kind: tour.EventStarted, Step: -1})
	if rec.Count(tour.EventStarted) != 1 {
		t.Errorf("recorder saw %d started events, want 1", rec.Count(tour.EventStarted))
	}
	exec.Close()
}

func TestRun_Version(t *testing.T) {
	var out, errOut bytes.Buffer
	if code := run([]string{"-version"}, &out, &errOut); code != 0 {
		t.Fatalf("exit code = %d, stderr %q", code, errOut.String())
	}
	if !strings.HasPrefix(out.String(), "storytour ") {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestRun_UnknownFlag(t *testing.T) {
	if code := run([]string{"-bogus"}, &bytes.Buffer{}, &bytes.Buffer{}); code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
}

func TestRun_FailureStillWritesStats(t *testing.T) {
	dir := t.TempDir()
	var out, errOut bytes.Buffer
	code := run([]string{
		"-config", filepath.Join(dir, "missing.yaml"),
		"-stats",
		"-preview", filepath.Join(dir, "board.gif"),
	}, &out, &errOut)

	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if !strings.Contains(errOut.String(), "Preview failed") {
		t.Errorf("stderr missing failure message: %q", errOut.String())
	}
	if !strings.Contains(errOut.String(), `"events"`) {
		t.Errorf("stats not written on the failure path: %q", errOut.String())
	}
}

func TestRun_PreviewSucceeds(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "board.svg")
	var out bytes.Buffer
	code := run([]string{
		"-config", filepath.Join(dir, "missing.yaml"),
		"-preview", target,
		"-width", "100", "-height", "29",
	}, &out, &bytes.Buffer{})
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if _, err := os.Stat(target); err != nil {
		t.Errorf("stat %s: %v", target, err)
	}
}
