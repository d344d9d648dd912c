package slicer

import (
	"context"
	"fmt"
	"image"
	"os"

	"github.com/disintegration/imaging"

	"github.com/kiesman99/retile/internal/tilestore"
	"github.com/kiesman99/retile/pkg/tile"
)

// DefaultSources are the inputs sliced when none are given
var DefaultSources = []string{"raz1.png", "raz2.png", "raz3.png"}

// Options controls the slicing grid
type Options struct {
	Columns  int
	Rows     int
	TileSize int
}

// BoundsError reports a grid cell that does not fit inside its source image
type BoundsError struct {
	Coord  tile.Coord
	Cell   image.Rectangle
	Bounds image.Rectangle
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("tile %s: cell %v outside source bounds %v", e.Coord, e.Cell, e.Bounds)
}

// Slicer cuts source images into a fixed grid of fixed-size tiles
type Slicer struct {
	opts Options
}

// New creates a slicer, filling unset options with defaults
func New(opts Options) *Slicer {
	if opts.Columns <= 0 {
		opts.Columns = tile.DefaultColumns
	}
	if opts.Rows <= 0 {
		opts.Rows = tile.DefaultRows
	}
	if opts.TileSize <= 0 {
		opts.TileSize = tile.Size
	}
	return &Slicer{opts: opts}
}

// Cell returns the pixel rectangle of grid cell (column, row)
func (s *Slicer) Cell(column, row int) image.Rectangle {
	size := s.opts.TileSize
	return image.Rect(column*size, row*size, (column+1)*size, (row+1)*size)
}

// SliceAll reads every source into memory first, then slices each one in
// order. Source i produces tiles keyed with Source == i.
func (s *Slicer) SliceAll(ctx context.Context, sources []string, sink tilestore.Sink) ([]tile.Coord, error) {
	data := make([][]byte, len(sources))
	for i, path := range sources {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read source %d: %w", i, err)
		}
		data[i] = b
	}

	written := make([]tile.Coord, 0, len(sources)*s.opts.Columns*s.opts.Rows)
	for i, blob := range data {
		img, err := tile.DecodeImage(blob)
		if err != nil {
			return written, fmt.Errorf("source %d (%s): %w", i, sources[i], err)
		}

		coords, err := s.SliceImage(ctx, i, img, sink)
		written = append(written, coords...)
		if err != nil {
			return written, err
		}
	}

	return written, nil
}

// SliceImage cuts img row by row and stores each cell under (source, column, row)
func (s *Slicer) SliceImage(ctx context.Context, source int, img image.Image, sink tilestore.Sink) ([]tile.Coord, error) {
	bounds := img.Bounds()
	written := make([]tile.Coord, 0, s.opts.Columns*s.opts.Rows)

	for y := 0; y < s.opts.Rows; y++ {
		for x := 0; x < s.opts.Columns; x++ {
			select {
			case <-ctx.Done():
				return written, ctx.Err()
			default:
			}

			c := tile.Coord{Source: source, Column: x, Row: y}
			cell := s.Cell(x, y).Add(bounds.Min)
			if !cell.In(bounds) {
				return written, &BoundsError{Coord: c, Cell: cell, Bounds: bounds}
			}

			if err := sink.Put(c, imaging.Crop(img, cell)); err != nil {
				return written, fmt.Errorf("failed to store tile %s: %w", c, err)
			}
			written = append(written, c)
		}
	}

	return written, nil
}
