// Package tilestore holds sliced tiles between the slice and rearrange steps.
//
// Memory keeps tiles as decoded rasters for runs where both steps happen in
// one process. Dir is the file-based contract: each tile lives in its own
// PNG named after its coordinate, so separate invocations can share tiles.
package tilestore

import (
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/kiesman99/retile/pkg/tile"
)

// ErrTileNotFound is returned when a store has no tile for a coordinate
var ErrTileNotFound = errors.New("tile not found")

// Source looks up tiles by coordinate
type Source interface {
	Tile(c tile.Coord) (image.Image, error)
}

// Sink stores tiles by coordinate, replacing any existing tile
type Sink interface {
	Put(c tile.Coord, img image.Image) error
}

// Store is both ends
type Store interface {
	Source
	Sink
}

// Memory is an in-memory tile map. It is safe for concurrent use.
type Memory struct {
	mu    sync.RWMutex
	tiles map[tile.Coord]image.Image
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{
		tiles: make(map[tile.Coord]image.Image),
	}
}

// Tile returns the tile stored under c
func (m *Memory) Tile(c tile.Coord) (image.Image, error) {
	m.mu.RLock()
	img, ok := m.tiles[c]
	m.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("tile %s: %w", c, ErrTileNotFound)
	}
	return img, nil
}

// Put stores img under c
func (m *Memory) Put(c tile.Coord, img image.Image) error {
	m.mu.Lock()
	m.tiles[c] = img
	m.mu.Unlock()
	return nil
}

// Len returns the number of stored tiles
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tiles)
}

// Coords returns the stored coordinates sorted by source, row, then column
func (m *Memory) Coords() []tile.Coord {
	m.mu.RLock()
	coords := make([]tile.Coord, 0, len(m.tiles))
	for c := range m.tiles {
		coords = append(coords, c)
	}
	m.mu.RUnlock()

	sort.Slice(coords, func(i, j int) bool {
		a, b := coords[i], coords[j]
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		if a.Row != b.Row {
			return a.Row < b.Row
		}
		return a.Column < b.Column
	})
	return coords
}

// Dir stores tiles as PNG files under Root
type Dir struct {
	Root string
}

// NewDir returns a directory-backed store. An empty root means the working directory.
func NewDir(root string) *Dir {
	if root == "" {
		root = "."
	}
	return &Dir{Root: root}
}

// Path returns the file path of the tile at c
func (d *Dir) Path(c tile.Coord) string {
	return filepath.Join(d.Root, c.Filename())
}

// Tile reads and decodes the tile file for c
func (d *Dir) Tile(c tile.Coord) (image.Image, error) {
	path := d.Path(c)
	img, err := tile.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("tile %s (%s): %w", c, path, ErrTileNotFound)
		}
		return nil, fmt.Errorf("tile %s: %w", c, err)
	}
	return img, nil
}

// Put writes img to the tile file for c, overwriting an existing file
func (d *Dir) Put(c tile.Coord, img image.Image) error {
	if err := os.MkdirAll(d.Root, 0o755); err != nil {
		return err
	}
	return tile.Save(img, d.Path(c))
}

type tee []Sink

// Tee returns a sink that writes each tile to every given sink in order,
// stopping at the first failure.
func Tee(sinks ...Sink) Sink {
	return tee(sinks)
}

func (t tee) Put(c tile.Coord, img image.Image) error {
	for _, s := range t {
		if err := s.Put(c, img); err != nil {
			return err
		}
	}
	return nil
}
