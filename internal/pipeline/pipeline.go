// Package pipeline runs slice, rearrange and grid as one explicit sequence.
//
// When sources are given, tiles flow from the slicer to the stitcher through
// an in-memory store and only touch disk if KeepTiles is set. Without
// sources the tiles are read from the tile directory that an earlier
// "retile slice" run left behind.
package pipeline

import (
	"context"
	"fmt"
	"io"

	"github.com/kiesman99/retile/internal/grid"
	"github.com/kiesman99/retile/internal/slicer"
	"github.com/kiesman99/retile/internal/stitch"
	"github.com/kiesman99/retile/internal/tilestore"
	"github.com/kiesman99/retile/pkg/tile"
)

// DefaultCoords is the tile order the tool was first built to produce
var DefaultCoords = []tile.Coord{
	{Source: 2, Column: 2, Row: 0},
	{Source: 2, Column: 0, Row: 1},
	{Source: 2, Column: 2, Row: 2},
	{Source: 2, Column: 1, Row: 1},
	{Source: 2, Column: 0, Row: 2},
	{Source: 2, Column: 2, Row: 1},
	{Source: 2, Column: 1, Row: 2},
	{Source: 2, Column: 1, Row: 0},
}

// Default output paths
const (
	DefaultOutput     = "tilecache-after.png"
	DefaultGridOutput = "tilecache-after-grid.png"
)

// Config describes one pipeline run
type Config struct {
	Sources    []string
	TileDir    string
	KeepTiles  bool
	Coords     []tile.Coord
	Output     string
	GridOutput string

	Slice  slicer.Options
	Canvas stitch.Options
	Grid   grid.Options

	// Progress receives one "writing <path>" line per output file. May be nil.
	Progress io.Writer
}

// Result summarizes a run
type Result struct {
	Tiles      int
	Output     string
	GridOutput string
}

// Run executes the configured steps in order and stops at the first error
func Run(ctx context.Context, cfg Config) (*Result, error) {
	if cfg.Output == "" {
		return nil, fmt.Errorf("output path is required")
	}
	if len(cfg.Coords) == 0 {
		return nil, fmt.Errorf("at least one coordinate is required")
	}

	progress := cfg.Progress
	if progress == nil {
		progress = io.Discard
	}

	dir := tilestore.NewDir(cfg.TileDir)
	var src tilestore.Source = dir
	result := &Result{}

	if len(cfg.Sources) > 0 {
		mem := tilestore.NewMemory()
		var sink tilestore.Sink = mem
		if cfg.KeepTiles {
			sink = tilestore.Tee(mem, dir)
		}

		coords, err := slicer.New(cfg.Slice).SliceAll(ctx, cfg.Sources, sink)
		if err != nil {
			return nil, fmt.Errorf("slice: %w", err)
		}
		result.Tiles = len(coords)
		src = mem
	}

	fmt.Fprintf(progress, "writing %s\n", cfg.Output)
	canvas, err := stitch.NewStitcher(cfg.Canvas).RearrangeToFile(ctx, cfg.Coords, src, cfg.Output)
	if err != nil {
		return nil, fmt.Errorf("rearrange: %w", err)
	}
	result.Output = cfg.Output

	if cfg.GridOutput != "" {
		fmt.Fprintf(progress, "writing %s\n", cfg.GridOutput)
		if err := tile.Save(grid.Draw(canvas, cfg.Grid), cfg.GridOutput); err != nil {
			return nil, fmt.Errorf("grid: %w", err)
		}
		result.GridOutput = cfg.GridOutput
	}

	return result, nil
}
