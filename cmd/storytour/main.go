package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/vanderheijden86/storytour/pkg/browser"
	"github.com/vanderheijden86/storytour/pkg/config"
	"github.com/vanderheijden86/storytour/pkg/debug"
	"github.com/vanderheijden86/storytour/pkg/hooks"
	"github.com/vanderheijden86/storytour/pkg/metrics"
	"github.com/vanderheijden86/storytour/pkg/persist"
	"github.com/vanderheijden86/storytour/pkg/preview"
	"github.com/vanderheijden86/storytour/pkg/tour"
	"github.com/vanderheijden86/storytour/pkg/ui"
	"github.com/vanderheijden86/storytour/pkg/version"
	"github.com/vanderheijden86/storytour/pkg/watcher"

	tea "github.com/charmbracelet/bubbletea"
)

// Preview page size when neither flags nor the terminal give one.
const (
	defaultPreviewWidth  = 100
	defaultPreviewHeight = 29
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run is the whole CLI. It returns the exit code so deferred cleanup
// (hook queue, stats) happens on every path.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("storytour", flag.ContinueOnError)
	fs.SetOutput(stderr)
	help := fs.Bool("help", false, "Show help")
	versionFlag := fs.Bool("version", false, "Show version")
	configPath := fs.String("config", "", "Config file (default ~/.config/storytour/config.yaml)")
	stepsPath := fs.String("steps", "", "YAML steps file (overrides steps_file in the config)")
	resetFlag := fs.Bool("reset", false, "Forget that the tour was completed so it plays again")
	yesFlag := fs.Bool("yes", false, "Skip confirmation prompts (use with --reset)")
	previewFlag := fs.String("preview", "", "Render a storyboard to comma-separated .svg/.png files")
	width := fs.Int("width", 0, "Page width: cells for --preview, CSS pixels for --audit/--live")
	height := fs.Int("height", 0, "Page height: cells for --preview, CSS pixels for --audit/--live")
	auditURL := fs.String("audit", "", "Walk the tour against a live page in headless Chrome")
	liveURL := fs.String("live", "", "Play the tour in a visible Chrome window on this page")
	jsonFlag := fs.Bool("json", false, "Print the audit report as JSON")
	chromePath := fs.String("chrome", "", "Chrome binary for --audit/--live (default: search PATH)")
	style := fs.String("style", "auto", "Glamour style for step descriptions (auto, dark, light, notty)")
	statsFlag := fs.Bool("stats", false, "Print tour event and timing stats to stderr on exit")
	noHooks := fs.Bool("no-hooks", false, "Do not run the commands configured in hooks.yaml")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if *help {
		fmt.Fprintln(stdout, "Usage: storytour [options]")
		fmt.Fprintln(stdout, "\nA guided tour of the storybook, in the terminal or against a live page.")
		fs.SetOutput(stdout)
		fs.PrintDefaults()
		return 0
	}

	if *versionFlag {
		fmt.Fprintf(stdout, "storytour %s\n", version.Version)
		return 0
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading config: %v\n", err)
		return 1
	}

	if *resetFlag {
		if err := runReset(cfg, *yesFlag, stdout); err != nil {
			fmt.Fprintf(stderr, "Reset failed: %v\n", err)
			return 1
		}
		return 0
	}

	steps, path, err := loadSteps(cfg, *stepsPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading steps: %v\n", err)
		return 1
	}

	var rec *metrics.Recorder
	if *statsFlag {
		rec = metrics.NewRecorder()
		defer func() {
			if err := rec.WriteJSON(stderr); err != nil {
				fmt.Fprintf(stderr, "Error writing stats: %v\n", err)
			}
		}()
	}

	var exec *hooks.Executor
	// Hooks follow real tours only, never previews or audits.
	if !*noHooks && *previewFlag == "" && *auditURL == "" {
		exec, err = hooks.Load(config.ConfigDir())
		if err != nil {
			fmt.Fprintf(stderr, "Warning: hooks disabled: %v\n", err)
		}
		if exec != nil {
			defer func() {
				exec.Close()
				if summary := exec.Summary(); summary != "" && *statsFlag {
					fmt.Fprint(stderr, summary)
				}
			}()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case *previewFlag != "":
		w, h := previewSize(*width, *height)
		if err := runPreview(ctx, steps, cfg, splitList(*previewFlag), w, h, stdout); err != nil {
			fmt.Fprintf(stderr, "Preview failed: %v\n", err)
			return 1
		}

	case *auditURL != "":
		missing, err := runAudit(ctx, steps, cfg, auditRequest{
			URL:      *auditURL,
			Width:    *width,
			Height:   *height,
			ExecPath: *chromePath,
			JSON:     *jsonFlag,
			Tracker:  trackers(rec, nil),
		}, stdout)
		if err != nil {
			fmt.Fprintf(stderr, "Audit failed: %v\n", err)
			return 1
		}
		if missing > 0 {
			return 1
		}

	case *liveURL != "":
		err := runLive(ctx, steps, cfg, liveRequest{
			URL:      *liveURL,
			Width:    *width,
			Height:   *height,
			ExecPath: *chromePath,
			Tracker:  trackers(rec, exec),
		})
		if err != nil {
			fmt.Fprintf(stderr, "Live tour failed: %v\n", err)
			return 1
		}

	default:
		if err := runTour(ctx, cfg, steps, path, *style, trackers(rec, exec)); err != nil {
			fmt.Fprintf(stderr, "Error running storytour: %v\n", err)
			return 1
		}
	}
	return 0
}

// trackers combines the enabled trackers. Nil pointers are left out so
// the sequencer never sees a typed nil.
func trackers(rec *metrics.Recorder, exec *hooks.Executor) tour.Tracker {
	var ts []tour.Tracker
	if rec != nil {
		ts = append(ts, rec)
	}
	if exec != nil {
		ts = append(ts, exec)
	}
	if len(ts) == 0 {
		return nil
	}
	return tour.Trackers(ts...)
}

func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

// loadSteps returns the steps to run and the file they came from. The
// built-in storybook steps are used when no file is configured.
func loadSteps(cfg config.Config, override string) ([]tour.Step, string, error) {
	path := cfg.StepsFile
	if override != "" {
		path = override
	}
	if path == "" {
		return ui.DefaultSteps(), "", nil
	}
	steps, err := config.LoadSteps(path)
	if err != nil {
		return nil, path, err
	}
	return steps, path, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func storageKey(cfg config.Config) string {
	if cfg.Tour.StorageKey != "" {
		return cfg.Tour.StorageKey
	}
	return tour.DefaultStorageKey
}

// --- reset -------------------------------------------------------------------

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// confirmReset asks before the completion marker is removed.
var confirmReset = func(key string) (bool, error) {
	confirmed := false
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Reset the storybook tour?").
				Description(fmt.Sprintf("Removes %q from every configured store", key)).
				Value(&confirmed).
				Affirmative("Yes, reset").
				Negative("No"),
		),
	).WithTheme(huh.ThemeDracula())
	if !isTerminal() {
		form = form.WithAccessible(true)
	}
	if err := form.Run(); err != nil {
		return false, err
	}
	return confirmed, nil
}

func runReset(cfg config.Config, yes bool, out io.Writer) error {
	key := storageKey(cfg)
	if !yes {
		ok, err := confirmReset(key)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, "Reset cancelled")
			return nil
		}
	}

	store, closer, err := cfg.OpenStore()
	if err != nil {
		return err
	}
	defer closer.Close()

	if err := store.Remove(key); err != nil && !errors.Is(err, persist.ErrNotFound) {
		return fmt.Errorf("removing %q: %w", key, err)
	}
	fmt.Fprintln(out, "Tour reset. It will play again on the next start.")
	return nil
}

// --- preview -----------------------------------------------------------------

// previewSize fills unset dimensions from the terminal on stdout, then
// from the defaults. The last terminal row is left for the footer, as the
// TUI does.
func previewSize(w, h int) (int, int) {
	if w > 0 && h > 0 {
		return w, h
	}
	tw, th := defaultPreviewWidth, defaultPreviewHeight
	if term.IsTerminal(int(os.Stdout.Fd())) {
		if cols, rows, err := term.GetSize(int(os.Stdout.Fd())); err == nil && cols > 0 && rows > 2 {
			tw, th = cols, rows-1
		}
	}
	if w <= 0 {
		w = tw
	}
	if h <= 0 {
		h = th
	}
	return w, h
}

func runPreview(ctx context.Context, steps []tour.Step, cfg config.Config, paths []string, w, h int, out io.Writer) error {
	if len(paths) == 0 {
		return fmt.Errorf("no output files given")
	}
	sb, err := preview.Build(steps, w, h, cfg.TerminalGeometry())
	if err != nil {
		return err
	}
	if err := sb.SaveAll(ctx, paths); err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Fprintf(out, "Wrote %s (%d of %d steps resolved at %dx%d)\n", p, sb.Resolved(), len(sb.Frames), w, h)
	}
	return nil
}

// --- audit -------------------------------------------------------------------

type auditRequest struct {
	URL      string
	Width    int
	Height   int
	ExecPath string
	JSON     bool
	Tracker  tour.Tracker
}

// runAudit prints the report and returns how many steps did not resolve.
func runAudit(ctx context.Context, steps []tour.Step, cfg config.Config, req auditRequest, out io.Writer) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	tab, closeTab := browser.Launch(ctx, browser.LaunchOptions{
		Headless: true,
		Width:    req.Width,
		Height:   req.Height,
		ExecPath: req.ExecPath,
	})
	defer closeTab()

	report, err := browser.Audit(tab, req.URL, steps, browser.AuditOptions{
		Width:    int64(req.Width),
		Height:   int64(req.Height),
		Geometry: cfg.Geometry(),
		Tracker:  req.Tracker,
	})
	if err != nil {
		return 0, err
	}
	if req.JSON {
		err = report.WriteJSON(out)
	} else {
		err = report.WriteText(out)
	}
	return report.Missing(), err
}

// --- live --------------------------------------------------------------------

type liveRequest struct {
	URL      string
	Width    int
	Height   int
	ExecPath string
	Tracker  tour.Tracker
}

// runLive opens a visible Chrome window and plays the tour there until the
// window closes or ctx is cancelled. The configured stores back up the
// page's localStorage.
func runLive(ctx context.Context, steps []tour.Step, cfg config.Config, req liveRequest) error {
	store, closer, err := cfg.OpenStore()
	if err != nil {
		return err
	}
	defer closer.Close()

	tab, closeTab := browser.Launch(ctx, browser.LaunchOptions{
		Headless: false,
		Width:    req.Width,
		Height:   req.Height,
		ExecPath: req.ExecPath,
	})
	defer closeTab()

	return browser.Run(tab, req.URL, steps, browser.LiveOptions{
		Width:    int64(req.Width),
		Height:   int64(req.Height),
		Fallback: store,
		Tracker:  req.Tracker,
		Tour:     cfg.TourOptions(),
	})
}

// --- tui ---------------------------------------------------------------------

func runTour(ctx context.Context, cfg config.Config, steps []tour.Step, stepsPath, style string, tr tour.Tracker) error {
	store, closer, err := cfg.OpenStore()
	if err != nil {
		return err
	}
	defer closer.Close()

	tourOpts := append(cfg.TourOptions(), tour.WithGeometry(cfg.TerminalGeometry()))
	opts := []ui.ModelOption{
		ui.WithTourOptions(tourOpts...),
		ui.WithMarkdownStyle(style),
	}
	if tr != nil {
		opts = append(opts, ui.WithTracker(tr))
	}

	if stepsPath != "" {
		w, err := watcher.New(stepsPath,
			watcher.WithOnError(func(err error) { debug.Log("steps watcher: %v", err) }),
		)
		if err == nil {
			err = w.Start(ctx)
		}
		if err != nil {
			// Live reload is optional; the tour still runs.
			debug.Log("steps watcher unavailable: %v", err)
		} else {
			defer w.Stop()
			opts = append(opts, ui.WithStepsSource(w.Changed(), func() ([]tour.Step, error) {
				return config.LoadSteps(stepsPath)
			}))
		}
	}

	m, err := ui.NewModel(steps, store, opts...)
	if err != nil {
		return err
	}
	return runTUIProgram(ctx, m)
}

func runTUIProgram(ctx context.Context, m ui.Model) error {
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithoutSignalHandler(),
	)

	runDone := make(chan struct{})
	defer close(runDone)

	// Graceful shutdown when ctx is cancelled by SIGINT/SIGTERM.
	go func() {
		select {
		case <-runDone:
			return
		case <-ctx.Done():
		}

		p.Quit()

		select {
		case <-runDone:
		case <-time.After(5 * time.Second):
			p.Kill()
		}
	}()

	// Optional auto-quit for automated tests: set STORYTOUR_TUI_AUTOCLOSE_MS.
	if v := os.Getenv("STORYTOUR_TUI_AUTOCLOSE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			go func() {
				timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
				defer timer.Stop()

				select {
				case <-runDone:
					return
				case <-timer.C:
				}

				p.Quit()

				select {
				case <-runDone:
				case <-time.After(2 * time.Second):
					p.Kill()
				}
			}()
		}
	}

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted) {
		return nil
	}
	return err
}
