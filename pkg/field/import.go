package field

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/nbrenner/wxplot/pkg/errors"
)

// fieldFile is the on-disk JSON shape of a gridded field.
type fieldFile struct {
	ShortName string `json:"short_name"`
	LongName  string `json:"long_name"`
	Unit      string `json:"unit"`

	Level     float64 `json:"level"`
	LevelUnit string  `json:"level_unit"`

	AnalysisTime string `json:"anl_time"` // YYYYMMDDHH
	FcstHour     int    `json:"fhr"`

	NX     int       `json:"nx"`
	NY     int       `json:"ny"`
	Lats   []float64 `json:"lats"`
	Lons   []float64 `json:"lons"`
	Values []float64 `json:"values"`

	U []float64 `json:"u,omitempty"`
	V []float64 `json:"v,omitempty"`
}

// ReadField decodes a JSON field from r.
//
// The input must carry a short_name, an anl_time in YYYYMMDDHH form, grid
// dimensions, and lats/lons/values slices of exactly nx*ny entries.
// Optional u/v slices enable wind-barb overlays and must match the grid
// size when present.
//
// The returned Field is independent of r. ReadField does not close r.
func ReadField(r io.Reader) (*Field, error) {
	var data fieldFile
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	if data.ShortName == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "field has no short_name")
	}
	anl, err := ParseTimestamp(data.AnalysisTime)
	if err != nil {
		return nil, err
	}

	f := &Field{
		ShortName:    data.ShortName,
		LongName:     data.LongName,
		Unit:         data.Unit,
		Level:        data.Level,
		LevelUnit:    data.LevelUnit,
		AnalysisTime: anl,
		FcstHour:     data.FcstHour,
		Grid: Grid{
			NX:     data.NX,
			NY:     data.NY,
			Lats:   data.Lats,
			Lons:   data.Lons,
			Values: data.Values,
		},
		U: data.U,
		V: data.V,
	}
	if err := f.Grid.Validate(); err != nil {
		return nil, err
	}
	if (len(f.U) > 0 || len(f.V) > 0) && !f.HasWind() {
		return nil, errors.New(errors.ErrCodeInvalidGrid,
			"wind components have %d/%d entries, want %d", len(f.U), len(f.V), len(f.Grid.Values))
	}
	return f, nil
}

// ImportField reads a JSON field file at path.
// Errors wrap the underlying cause with the file path for context.
func ImportField(path string) (*Field, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	fld, err := ReadField(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return fld, nil
}

// profileFile is the on-disk JSON shape of a sounding profile.
type profileFile struct {
	Site         Site   `json:"site"`
	AnalysisTime string `json:"anl_time"`
	FcstHour     int    `json:"fhr"`

	Pressure []float64 `json:"pres"`
	Height   []float64 `json:"gh"`
	Temp     []float64 `json:"temp"`
	Dewpoint []float64 `json:"dewpt"`
	SpecHum  []float64 `json:"sphum"`
	U        []float64 `json:"u"`
	V        []float64 `json:"v"`

	Thermo map[string]float64 `json:"thermo"`
}

// ReadProfile decodes a JSON sounding from r. All level slices must share
// the pressure slice's length, and pressure must decrease with height.
func ReadProfile(r io.Reader) (*Profile, error) {
	var data profileFile
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	anl, err := ParseTimestamp(data.AnalysisTime)
	if err != nil {
		return nil, err
	}

	p := &Profile{
		Site:         data.Site,
		AnalysisTime: anl,
		FcstHour:     data.FcstHour,
		Pressure:     data.Pressure,
		Height:       data.Height,
		Temp:         data.Temp,
		Dewpoint:     data.Dewpoint,
		SpecHum:      data.SpecHum,
		U:            data.U,
		V:            data.V,
		Thermo:       data.Thermo,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// ImportProfile reads a JSON sounding file at path.
func ImportProfile(path string) (*Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	p, err := ReadProfile(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}
