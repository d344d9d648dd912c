package tilestore

import (
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/kiesman99/retile/pkg/tile"
)

func createInMemoryImage(width, height int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestMemory_PutTile(t *testing.T) {
	m := NewMemory()
	c := tile.Coord{Source: 1, Column: 2, Row: 0}
	img := createInMemoryImage(8, 8, color.White)

	if err := m.Put(c, img); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := m.Tile(c)
	if err != nil {
		t.Fatalf("Tile failed: %v", err)
	}
	if got != image.Image(img) {
		t.Error("Tile did not return the stored image")
	}
	if m.Len() != 1 {
		t.Errorf("Len: got %d, want 1", m.Len())
	}
}

func TestMemory_Replace(t *testing.T) {
	m := NewMemory()
	c := tile.Coord{}
	first := createInMemoryImage(1, 1, color.White)
	second := createInMemoryImage(1, 1, color.Black)

	m.Put(c, first)
	m.Put(c, second)

	got, _ := m.Tile(c)
	if got != image.Image(second) {
		t.Error("second Put did not replace the tile")
	}
	if m.Len() != 1 {
		t.Errorf("Len: got %d, want 1", m.Len())
	}
}

func TestMemory_NotFound(t *testing.T) {
	m := NewMemory()
	_, err := m.Tile(tile.Coord{Source: 9})
	if !errors.Is(err, ErrTileNotFound) {
		t.Errorf("expected ErrTileNotFound, got %v", err)
	}
}

func TestMemory_Coords(t *testing.T) {
	m := NewMemory()
	img := createInMemoryImage(1, 1, color.White)
	for _, c := range []tile.Coord{{Source: 1, Column: 0, Row: 0}, {Source: 0, Column: 1, Row: 1}, {Source: 0, Column: 2, Row: 0}, {Source: 0, Column: 0, Row: 1}} {
		m.Put(c, img)
	}

	want := []tile.Coord{{Source: 0, Column: 2, Row: 0}, {Source: 0, Column: 0, Row: 1}, {Source: 0, Column: 1, Row: 1}, {Source: 1, Column: 0, Row: 0}}
	got := m.Coords()
	if len(got) != len(want) {
		t.Fatalf("got %d coords, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Coords[%d]: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestMemory_ConcurrentAccess(t *testing.T) {
	m := NewMemory()
	img := createInMemoryImage(1, 1, color.White)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c := tile.Coord{Source: i}
			m.Put(c, img)
			if _, err := m.Tile(c); err != nil {
				t.Errorf("concurrent Tile error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if m.Len() != 50 {
		t.Errorf("Len: got %d, want 50", m.Len())
	}
}

func TestDir_PutTile(t *testing.T) {
	root := filepath.Join(t.TempDir(), "tiles")
	d := NewDir(root)
	c := tile.Coord{Source: 2, Column: 1, Row: 0}

	if err := d.Put(c, createInMemoryImage(16, 16, color.NRGBA{200, 100, 50, 255})); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(root, "slice2.1.0.png")); err != nil {
		t.Fatalf("tile file not written: %v", err)
	}

	img, err := d.Tile(c)
	if err != nil {
		t.Fatalf("Tile failed: %v", err)
	}
	if img.Bounds().Dx() != 16 || img.Bounds().Dy() != 16 {
		t.Errorf("dimensions: got %dx%d, want 16x16", img.Bounds().Dx(), img.Bounds().Dy())
	}

	r, g, b, _ := img.At(3, 3).RGBA()
	if r>>8 != 200 || g>>8 != 100 || b>>8 != 50 {
		t.Errorf("unexpected pixel: %d %d %d", r>>8, g>>8, b>>8)
	}
}

func TestDir_NotFound(t *testing.T) {
	d := NewDir(t.TempDir())
	_, err := d.Tile(tile.Coord{Source: 0, Column: 0, Row: 0})
	if !errors.Is(err, ErrTileNotFound) {
		t.Errorf("expected ErrTileNotFound, got %v", err)
	}
}

func TestDir_CorruptTile(t *testing.T) {
	d := NewDir(t.TempDir())
	c := tile.Coord{}
	if err := os.WriteFile(d.Path(c), []byte("garbage"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	_, err := d.Tile(c)
	if err == nil {
		t.Fatal("Tile should fail for corrupt file")
	}
	if errors.Is(err, ErrTileNotFound) {
		t.Error("corrupt tile should not be reported as missing")
	}
}

func TestNewDir_DefaultRoot(t *testing.T) {
	if d := NewDir(""); d.Root != "." {
		t.Errorf("Root: got %q, want \".\"", d.Root)
	}
}

type failingSink struct{ err error }

func (f failingSink) Put(tile.Coord, image.Image) error { return f.err }

func TestTee(t *testing.T) {
	a, b := NewMemory(), NewMemory()
	sink := Tee(a, b)
	c := tile.Coord{Row: 1}

	if err := sink.Put(c, createInMemoryImage(1, 1, color.White)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if a.Len() != 1 || b.Len() != 1 {
		t.Errorf("expected both sinks to hold the tile, got %d and %d", a.Len(), b.Len())
	}
}

func TestTee_StopsOnError(t *testing.T) {
	boom := errors.New("boom")
	after := NewMemory()
	sink := Tee(failingSink{boom}, after)

	if err := sink.Put(tile.Coord{}, createInMemoryImage(1, 1, color.White)); !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}
	if after.Len() != 0 {
		t.Error("sink after the failing one should not receive the tile")
	}
}
