package tile

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
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

func TestDecodeImage_PNG(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, createInMemoryImage(10, 20, color.NRGBA{255, 0, 0, 255})); err != nil {
		t.Fatalf("failed to encode: %v", err)
	}

	img, err := DecodeImage(buf.Bytes())
	if err != nil {
		t.Fatalf("DecodeImage failed: %v", err)
	}
	if img.Bounds().Dx() != 10 || img.Bounds().Dy() != 20 {
		t.Errorf("dimensions: got %dx%d, want 10x20", img.Bounds().Dx(), img.Bounds().Dy())
	}

	r, g, b, a := img.At(5, 5).RGBA()
	if r>>8 != 255 || g != 0 || b != 0 || a>>8 != 255 {
		t.Errorf("unexpected pixel: %d %d %d %d", r>>8, g>>8, b>>8, a>>8)
	}
}

func TestDecodeImage_JPEG(t *testing.T) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, createInMemoryImage(16, 16, color.NRGBA{0, 0, 255, 255}), nil); err != nil {
		t.Fatalf("failed to encode: %v", err)
	}

	img, err := DecodeImage(buf.Bytes())
	if err != nil {
		t.Fatalf("DecodeImage failed: %v", err)
	}
	if img.Bounds().Dx() != 16 {
		t.Errorf("width: got %d, want 16", img.Bounds().Dx())
	}
}

func TestDecodeImage_Unrecognized(t *testing.T) {
	_, err := DecodeImage([]byte("not an image"))
	if !errors.Is(err, ErrUnrecognizedFormat) {
		t.Errorf("expected ErrUnrecognizedFormat, got %v", err)
	}

	_, err = DecodeImage(nil)
	if !errors.Is(err, ErrUnrecognizedFormat) {
		t.Errorf("expected ErrUnrecognizedFormat for empty data, got %v", err)
	}
}

func TestDecodeImage_TruncatedPNG(t *testing.T) {
	var buf bytes.Buffer
	png.Encode(&buf, createInMemoryImage(10, 10, color.White))

	_, err := DecodeImage(buf.Bytes()[:20])
	if err == nil {
		t.Fatal("DecodeImage should fail for truncated data")
	}
	if errors.Is(err, ErrUnrecognizedFormat) {
		t.Error("truncated PNG should fail decoding, not sniffing")
	}
}

func TestOpenSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.png")

	src := createInMemoryImage(30, 40, color.NRGBA{10, 20, 30, 255})
	if err := Save(src, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	img, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if img.Bounds().Dx() != 30 || img.Bounds().Dy() != 40 {
		t.Errorf("dimensions: got %dx%d, want 30x40", img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestOpen_NonExistent(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.png"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestSave_UnsupportedExtension(t *testing.T) {
	err := Save(createInMemoryImage(2, 2, color.White), filepath.Join(t.TempDir(), "out.xyz"))
	if err == nil {
		t.Error("Save should fail for unknown extension")
	}
}

func TestSave_UnwritablePath(t *testing.T) {
	err := Save(createInMemoryImage(2, 2, color.White), filepath.Join(t.TempDir(), "missing", "dir", "out.png"))
	if err == nil {
		t.Error("Save should fail when the directory does not exist")
	}
}

func TestEncodePNG(t *testing.T) {
	data, err := EncodePNG(createInMemoryImage(4, 4, color.Black))
	if err != nil {
		t.Fatalf("EncodePNG failed: %v", err)
	}
	if sniffFormat(data) != "png" {
		t.Error("EncodePNG output is not PNG")
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.NRGBA
	}{
		{"#999999ff", color.NRGBA{0x99, 0x99, 0x99, 0xff}},
		{"#999999", color.NRGBA{0x99, 0x99, 0x99, 0xff}},
		{"ff000080", color.NRGBA{0xff, 0x00, 0x00, 0x80}},
		{"#000", color.NRGBA{0, 0, 0, 0xff}},
		{"#fff", color.NRGBA{0xff, 0xff, 0xff, 0xff}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseColor(tt.in)
			if err != nil {
				t.Fatalf("ParseColor failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseColor_Invalid(t *testing.T) {
	for _, in := range []string{"", "#12", "#zzzzzz", "#999999zz"} {
		if _, err := ParseColor(in); err == nil {
			t.Errorf("ParseColor(%q) should fail", in)
		}
	}
}
