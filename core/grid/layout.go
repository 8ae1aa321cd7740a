package grid

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/kilianp07/ehsim/core/commodity"
)

// Meter is the relation target naming the grid boundary.
const Meter = "meter"

// Type selects the physical combination rule of a grid.
type Type string

const (
	Electrical Type = "electrical"
	Thermal    Type = "thermal"
)

// Relation connects an active source entity to a passive target entity or
// to the meter.
type Relation struct {
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
}

// Descriptor describes one named grid.
type Descriptor struct {
	Name        string                `json:"name" yaml:"name"`
	Type        Type                  `json:"type" yaml:"type"`
	Commodities []commodity.Commodity `json:"commodities" yaml:"commodities"`
	Relations   []Relation            `json:"relations" yaml:"relations"`
}

// Layout is the full grid topology of a household.
type Layout struct {
	Grids []Descriptor `json:"grids" yaml:"grids"`
}

// Validate checks grid types, commodity partitions and entity references.
func (l Layout) Validate() error {
	names := make(map[string]bool, len(l.Grids))
	for _, d := range l.Grids {
		if d.Name == "" {
			return fmt.Errorf("grid name is required")
		}
		if names[d.Name] {
			return fmt.Errorf("duplicate grid %s", d.Name)
		}
		names[d.Name] = true
		if err := d.Validate(); err != nil {
			return fmt.Errorf("grid %s: %w", d.Name, err)
		}
	}
	return nil
}

// Validate checks a single grid descriptor.
func (d Descriptor) Validate() error {
	if len(d.Commodities) == 0 {
		return fmt.Errorf("no commodities")
	}
	for _, c := range d.Commodities {
		switch d.Type {
		case Electrical:
			if !c.IsElectrical() {
				return fmt.Errorf("commodity %s is not electrical", c)
			}
		case Thermal:
			if !c.IsThermal() {
				return fmt.Errorf("commodity %s is not thermal", c)
			}
		default:
			return fmt.Errorf("unknown grid type %q", d.Type)
		}
	}
	for i, r := range d.Relations {
		if strings.EqualFold(r.Source, Meter) {
			return fmt.Errorf("relation %d: the meter cannot be a source", i)
		}
		if _, err := uuid.Parse(r.Source); err != nil {
			return fmt.Errorf("relation %d: source: %w", i, err)
		}
		if strings.EqualFold(r.Target, Meter) {
			continue
		}
		if _, err := uuid.Parse(r.Target); err != nil {
			return fmt.Errorf("relation %d: target: %w", i, err)
		}
	}
	return nil
}

// LoadLayout reads a layout from a JSON or YAML file.
func LoadLayout(path string) (Layout, error) {
	f, err := os.Open(path)
	if err != nil {
		return Layout{}, err
	}
	defer func() { _ = f.Close() }()
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	return DecodeLayout(f, ext)
}

// DecodeLayout reads a layout in the given format from r and validates it.
func DecodeLayout(r io.Reader, format string) (Layout, error) {
	var l Layout
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.NewDecoder(r).Decode(&l); err != nil {
			return l, err
		}
	case "json":
		if err := json.NewDecoder(r).Decode(&l); err != nil {
			return l, err
		}
	default:
		return l, fmt.Errorf("unsupported layout format: %s", format)
	}
	return l, l.Validate()
}
