package view

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fleet-dashboard/backend/internal/models"
)

// Palette is the optional color-override file format. Any entry left out
// keeps its built-in default.
type Palette struct {
	Status map[string]string `yaml:"status"`
	Phases map[string]string `yaml:"phases"`
}

// LoadPalette applies color overrides from a YAML file. A missing file is
// not an error; a present but unparsable file is. Called once at startup,
// before any projection runs.
func LoadPalette(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading palette %s: %w", path, err)
	}

	var p Palette
	if err := yaml.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("parsing palette %s: %w", path, err)
	}

	for status, color := range p.Status {
		s := NormalizeStatus(status)
		if s == models.StatusUnknown {
			return fmt.Errorf("palette %s: unknown status %q", path, status)
		}
		statusColors[s] = color
	}
	for phase, color := range p.Phases {
		name := canonicalPhase(phase)
		if name == "" {
			return fmt.Errorf("palette %s: unknown phase %q", path, phase)
		}
		phaseColors[name] = color
	}
	return nil
}
