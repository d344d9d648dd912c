package grid

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"

	"github.com/kiesman99/retile/pkg/tile"
)

// Options controls the overlay
type Options struct {
	Spacing int
	Color   color.Color
}

func (o Options) withDefaults() Options {
	if o.Spacing <= 0 {
		o.Spacing = tile.Size
	}
	if o.Color == nil {
		o.Color = color.NRGBA{A: 255}
	}
	return o
}

// Positions returns the line offsets 0, spacing, 2*spacing, ... up to and
// including extent. An offset equal to extent is pulled back to extent-1 so
// the closing line stays inside the image.
func Positions(extent, spacing int) []int {
	if extent <= 0 || spacing <= 0 {
		return nil
	}

	var out []int
	for p := 0; p <= extent; p += spacing {
		pos := p
		if pos == extent {
			pos = extent - 1
		}
		if n := len(out); n > 0 && out[n-1] == pos {
			continue
		}
		out = append(out, pos)
	}
	return out
}

// Draw returns a copy of img with vertical and horizontal 1px lines at every
// grid position
func Draw(img image.Image, opts Options) *image.NRGBA {
	opts = opts.withDefaults()

	result := imaging.Clone(img)
	bounds := result.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	line := image.NewUniform(opts.Color)

	for _, x := range Positions(width, opts.Spacing) {
		draw.Draw(result, image.Rect(x, 0, x+1, height), line, image.Point{}, draw.Over)
	}
	for _, y := range Positions(height, opts.Spacing) {
		draw.Draw(result, image.Rect(0, y, width, y+1), line, image.Point{}, draw.Over)
	}

	return result
}

// DrawFile reads input, overlays the grid and writes the result to output
func DrawFile(input, output string, opts Options) error {
	img, err := tile.Open(input)
	if err != nil {
		return fmt.Errorf("failed to read grid input: %w", err)
	}

	return tile.Save(Draw(img, opts), output)
}
