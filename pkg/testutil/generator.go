package testutil

import (
	"fmt"
	"math/rand"

	"github.com/vanderheijden86/storytour/pkg/tour"
	"pgregory.net/rapid"
)

var positions = []tour.Position{
	tour.PositionTop, tour.PositionBottom, tour.PositionLeft, tour.PositionRight,
}

// GeneratorConfig controls deterministic step generation.
type GeneratorConfig struct {
	Seed        int64   // Random seed for determinism
	Steps       int     // Number of steps (default 5)
	MissingRate float64 // Fraction of steps whose target is absent
	Viewport    tour.Size
}

// DefaultConfig returns a config suitable for most tests.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Seed:        42,
		Steps:       5,
		MissingRate: 0.3,
		Viewport:    tour.Size{Width: 800, Height: 600},
	}
}

// Generate returns steps plus the boxes of the targets that exist.
func Generate(cfg GeneratorConfig) ([]tour.Step, map[string]tour.Rect) {
	if cfg.Steps <= 0 {
		cfg.Steps = 5
	}
	if cfg.Viewport.Width == 0 || cfg.Viewport.Height == 0 {
		cfg.Viewport = tour.Size{Width: 800, Height: 600}
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	steps := make([]tour.Step, cfg.Steps)
	boxes := make(map[string]tour.Rect)
	for i := range steps {
		target := fmt.Sprintf("#target-%d", i)
		steps[i] = tour.Step{
			ID:          fmt.Sprintf("step-%d", i),
			Target:      target,
			Title:       fmt.Sprintf("Step %d", i+1),
			Description: "Generated step",
			Position:    positions[rng.Intn(len(positions))],
		}
		if rng.Float64() < cfg.MissingRate {
			continue
		}
		w := 20 + rng.Float64()*200
		h := 10 + rng.Float64()*100
		boxes[target] = tour.Rect{
			Top:    rng.Float64() * (cfg.Viewport.Height - h),
			Left:   rng.Float64() * (cfg.Viewport.Width - w),
			Width:  w,
			Height: h,
		}
	}
	return steps, boxes
}

// RectGen draws a box that may hang off any viewport edge.
func RectGen() *rapid.Generator[tour.Rect] {
	return rapid.Custom(func(t *rapid.T) tour.Rect {
		return tour.Rect{
			Top:    rapid.Float64Range(-200, 1200).Draw(t, "top"),
			Left:   rapid.Float64Range(-200, 1600).Draw(t, "left"),
			Width:  rapid.Float64Range(0, 600).Draw(t, "width"),
			Height: rapid.Float64Range(0, 400).Draw(t, "height"),
		}
	})
}

// PositionGen draws one of the four sides or an unrecognized value.
func PositionGen() *rapid.Generator[tour.Position] {
	return rapid.SampledFrom([]tour.Position{
		tour.PositionTop, tour.PositionBottom, tour.PositionLeft, tour.PositionRight, "center", "",
	})
}

// TourGen draws a non-empty step list where each target independently
// resolves or not, along with the boxes of the resolvable ones.
func TourGen() *rapid.Generator[GeneratedTour] {
	return rapid.Custom(func(t *rapid.T) GeneratedTour {
		n := rapid.IntRange(1, 12).Draw(t, "steps")
		gt := GeneratedTour{Boxes: make(map[string]tour.Rect)}
		for i := 0; i < n; i++ {
			target := fmt.Sprintf("#t%d", i)
			gt.Steps = append(gt.Steps, tour.Step{
				Target:   target,
				Title:    fmt.Sprintf("Step %d", i+1),
				Position: PositionGen().Draw(t, "position"),
			})
			if rapid.Bool().Draw(t, "present") {
				gt.Boxes[target] = tour.Rect{Top: 100, Left: 100, Width: 50, Height: 20}
				gt.Present = append(gt.Present, i)
			}
		}
		return gt
	})
}

// GeneratedTour is a rapid-drawn tour. Present lists the indexes of steps
// whose target resolves, ascending.
type GeneratedTour struct {
	Steps   []tour.Step
	Boxes   map[string]tour.Rect
	Present []int
}
