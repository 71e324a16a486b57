package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vanderheijden86/storytour/pkg/tour"
	"gopkg.in/yaml.v3"
)

// ErrInvalidSteps is returned when a steps file parses but cannot drive a tour.
var ErrInvalidSteps = errors.New("invalid steps file")

// StepsFile is the on-disk shape of a step definition file.
type StepsFile struct {
	Steps []tour.Step `yaml:"steps"`
}

// LoadSteps reads and validates a step definition file.
func LoadSteps(path string) ([]tour.Step, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading steps: %w", err)
	}
	return ParseSteps(data)
}

// ParseSteps decodes a step definition document.
func ParseSteps(data []byte) ([]tour.Step, error) {
	var f StepsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing steps: %w", err)
	}
	if err := ValidateSteps(f.Steps); err != nil {
		return nil, err
	}
	return f.Steps, nil
}

// ValidateSteps checks that steps is non-empty, every step has a target and
// title, positions are recognized, and IDs are unique.
func ValidateSteps(steps []tour.Step) error {
	if len(steps) == 0 {
		return fmt.Errorf("%w: no steps", ErrInvalidSteps)
	}
	seen := make(map[string]int, len(steps))
	for i, s := range steps {
		if s.Target == "" {
			return fmt.Errorf("%w: step %d has no target", ErrInvalidSteps, i+1)
		}
		if s.Title == "" {
			return fmt.Errorf("%w: step %d has no title", ErrInvalidSteps, i+1)
		}
		if s.Position != "" && !s.Position.Valid() {
			return fmt.Errorf("%w: step %d has unknown position %q", ErrInvalidSteps, i+1, s.Position)
		}
		if s.ID == "" {
			continue
		}
		if prev, dup := seen[s.ID]; dup {
			return fmt.Errorf("%w: steps %d and %d share id %q", ErrInvalidSteps, prev+1, i+1, s.ID)
		}
		seen[s.ID] = i
	}
	return nil
}

// SaveSteps writes steps as a step definition file.
func SaveSteps(steps []tour.Step, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating steps directory: %w", err)
	}
	data, err := yaml.Marshal(StepsFile{Steps: steps})
	if err != nil {
		return fmt.Errorf("marshaling steps: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing steps: %w", err)
	}
	return nil
}
