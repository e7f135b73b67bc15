// Package render holds the raster helpers shared by the figure renderers:
// PNG encoding and preview downscaling. The figure logic itself lives in the
// subpackages (maps, skewt) with the shared drawing pieces in barb and
// colormap.
package render

import (
	"bytes"
	"image"

	"github.com/disintegration/imaging"

	"github.com/nbrenner/wxplot/pkg/errors"
)

// EncodePNG encodes a rendered figure to PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode png")
	}
	return buf.Bytes(), nil
}

// Preview downscales a figure to fit in a maxDim square, preserving aspect
// ratio. Used for thumbnail artifacts next to the full-size render.
func Preview(img image.Image, maxDim int) image.Image {
	return imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
}

// PreviewPNG downscales and encodes in one step.
func PreviewPNG(img image.Image, maxDim int) ([]byte, error) {
	return EncodePNG(Preview(img, maxDim))
}
