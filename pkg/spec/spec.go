// Package spec loads per-variable plot specifications: contour levels,
// colormap names, tick policies, units, and overlay styling.
//
// Specs live in a TOML file keyed by variable short name. A built-in
// default set covers the standard fields; a user file can replace it
// entirely. Anything needing computation (level expansion, colormap
// construction) happens here or in pkg/render/colormap, not in the config.
package spec

import (
	_ "embed"
	"fmt"
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/nbrenner/wxplot/pkg/errors"
)

//go:embed default_specs.toml
var defaultSpecs []byte

// Range expands to contour levels like an arange: start, start+step, ...
// up to but not including stop. Step must be positive.
type Range struct {
	Start float64 `toml:"start"`
	Stop  float64 `toml:"stop"`
	Step  float64 `toml:"step"`
}

// LineStyle describes how an overlay (contour or hatch) family is drawn.
type LineStyle struct {
	Color  string    `toml:"color"`
	Width  float64   `toml:"width"`
	Levels []float64 `toml:"levels"`
}

// VarSpec is the plot specification for one variable.
type VarSpec struct {
	Title     string  `toml:"title"`
	Unit      string  `toml:"unit"`
	CMap      string  `toml:"cmap"`
	Transform string  `toml:"transform"`
	Wind      bool    `toml:"wind"`
	Ticks     float64 `toml:"ticks"`

	// Contour levels: either explicit or a range, not both.
	Clevs []float64 `toml:"clevs"`
	Range *Range    `toml:"range"`

	Contour *LineStyle `toml:"contour"`
	Hatch   *LineStyle `toml:"hatch"`
}

// Levels returns the variable's contour levels, expanding a range spec when
// no explicit list is given.
func (s *VarSpec) Levels() []float64 {
	if len(s.Clevs) > 0 {
		return s.Clevs
	}
	if s.Range == nil || s.Range.Step <= 0 {
		return nil
	}
	var levels []float64
	for v := s.Range.Start; v < s.Range.Stop; v += s.Range.Step {
		levels = append(levels, v)
	}
	return levels
}

// Specs is the loaded set of variable specifications.
type Specs struct {
	vars map[string]VarSpec
}

// LoadDefault parses the built-in spec set.
func LoadDefault() (*Specs, error) {
	return parse(defaultSpecs)
}

// Load reads a TOML spec file at path.
func Load(path string) (*Specs, error) {
	var vars map[string]VarSpec
	if _, err := toml.DecodeFile(path, &vars); err != nil {
		return nil, fmt.Errorf("load specs %s: %w", path, err)
	}
	return validate(vars)
}

func parse(data []byte) (*Specs, error) {
	var vars map[string]VarSpec
	if err := toml.Unmarshal(data, &vars); err != nil {
		return nil, fmt.Errorf("parse specs: %w", err)
	}
	return validate(vars)
}

func validate(vars map[string]VarSpec) (*Specs, error) {
	for name, v := range vars {
		if len(v.Clevs) > 0 && v.Range != nil {
			return nil, errors.New(errors.ErrCodeInvalidInput, "spec %s: clevs and range are mutually exclusive", name)
		}
		if v.Range != nil && v.Range.Step <= 0 {
			return nil, errors.New(errors.ErrCodeInvalidInput, "spec %s: range step must be positive", name)
		}
	}
	return &Specs{vars: vars}, nil
}

// Get looks up the spec for a variable short name.
func (s *Specs) Get(name string) (VarSpec, error) {
	v, ok := s.vars[name]
	if !ok {
		return VarSpec{}, errors.New(errors.ErrCodeInvalidVariable, "no spec for variable: %s", name)
	}
	return v, nil
}

// Names returns the sorted variable names with specs.
func (s *Specs) Names() []string {
	names := make([]string, 0, len(s.vars))
	for name := range s.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
