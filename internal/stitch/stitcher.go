package stitch

import (
	"context"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"

	"github.com/kiesman99/retile/internal/tilestore"
	"github.com/kiesman99/retile/pkg/tile"
)

// Options contains the canvas configuration
type Options struct {
	Columns  int // canvas width in tiles, also the x placement period
	Rows     int // canvas height in tiles, also the y placement divisor
	TileSize int
	Fill     color.Color
}

// Stitcher composites tiles onto a fixed-size canvas
type Stitcher struct {
	opts Options
}

// NewStitcher creates a new stitcher instance
func NewStitcher(opts Options) *Stitcher {
	if opts.Columns <= 0 {
		opts.Columns = tile.DefaultCanvasColumns
	}
	if opts.Rows <= 0 {
		opts.Rows = tile.DefaultCanvasRows
	}
	if opts.TileSize <= 0 {
		opts.TileSize = tile.Size
	}
	if opts.Fill == nil {
		opts.Fill, _ = tile.ParseColor(tile.DefaultFill)
	}
	return &Stitcher{opts: opts}
}

// CanvasSize returns the canvas dimensions in pixels
func (s *Stitcher) CanvasSize() (int, int) {
	return s.opts.Columns * s.opts.TileSize, s.opts.Rows * s.opts.TileSize
}

// Position returns the top-left canvas pixel of the tile at sequence index i.
// The x period and the y divisor differ (i mod Columns, i div Rows), so with
// the default 4x3 canvas the placements do not form a clean rectangle.
func (s *Stitcher) Position(i int) image.Point {
	return image.Pt((i%s.opts.Columns)*s.opts.TileSize, (i/s.opts.Rows)*s.opts.TileSize)
}

// Rearrange builds a new canvas and draws the tile of each coordinate over it
// in sequence order. Later tiles occlude earlier ones where they overlap and
// anything placed past the canvas edge is clipped.
func (s *Stitcher) Rearrange(ctx context.Context, coords []tile.Coord, src tilestore.Source) (*image.NRGBA, error) {
	width, height := s.CanvasSize()
	canvas := imaging.New(width, height, s.opts.Fill)

	for i, c := range coords {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		img, err := src.Tile(c)
		if err != nil {
			return nil, fmt.Errorf("coordinate %d: %w", i, err)
		}

		pos := s.Position(i)
		b := img.Bounds()
		draw.Draw(canvas, image.Rectangle{Min: pos, Max: pos.Add(b.Size())}, img, b.Min, draw.Over)
	}

	return canvas, nil
}

// RearrangeToFile rearranges coords and writes the canvas to output
func (s *Stitcher) RearrangeToFile(ctx context.Context, coords []tile.Coord, src tilestore.Source, output string) (*image.NRGBA, error) {
	canvas, err := s.Rearrange(ctx, coords, src)
	if err != nil {
		return nil, err
	}

	if err := tile.Save(canvas, output); err != nil {
		return nil, err
	}
	return canvas, nil
}
