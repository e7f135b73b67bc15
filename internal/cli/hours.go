package cli

import (
	"fmt"
	"strings"

	"github.com/nbrenner/wxplot/pkg/errors"
)

// fhrToken is the placeholder replaced with the zero-padded forecast hour
// when expanding data file patterns.
const fhrToken = "{fhr}"

// siteToken is the placeholder replaced with the lowercase site code.
const siteToken = "{site}"

// parseHours expands a --fhr argument list into the forecast hours to
// process. The length of the list decides the expansion:
//
//	1 value:  that single hour
//	2 values: start, stop with increment 1
//	3 values: start, stop, increment
//	4+:       the list as given
//
// Ranges exclude the stop value, so "0 12" is hours 0 through 11. An
// expansion that yields no hours is rejected rather than rendering
// nothing.
func parseHours(args []int) ([]int, error) {
	switch len(args) {
	case 0:
		return nil, errors.New(errors.ErrCodeInvalidInput, "at least one forecast hour is required")
	case 1:
		return args, nil
	case 2:
		return hourRange(args[0], args[1], 1)
	case 3:
		return hourRange(args[0], args[1], args[2])
	default:
		return args, nil
	}
}

func hourRange(start, stop, step int) ([]int, error) {
	if step <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "forecast hour increment must be positive, got %d", step)
	}
	var hours []int
	for h := start; h < stop; h += step {
		hours = append(hours, h)
	}
	if len(hours) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "forecast hour range %d-%d is empty", start, stop)
	}
	return hours, nil
}

// expandDataPath substitutes the {fhr} and {site} tokens in a data file
// pattern. Forecast hours are zero-padded to three digits; site codes are
// lowercased. A pattern without tokens is returned unchanged, which covers
// single-file runs.
func expandDataPath(pattern string, fhr int, site string) string {
	out := strings.ReplaceAll(pattern, fhrToken, fmt.Sprintf("%03d", fhr))
	return strings.ReplaceAll(out, siteToken, strings.ToLower(site))
}

// outputName builds the artifact file name for one rendered figure.
// Preview artifacts get a _preview suffix before the extension.
func outputName(stem string, fhr int, format string) string {
	suffix := ""
	if format == "preview" {
		suffix = "_preview"
	}
	return fmt.Sprintf("%s_f%03d%s.png", stem, fhr, suffix)
}
