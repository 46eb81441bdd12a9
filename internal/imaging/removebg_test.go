package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// garmentOnBackdrop draws a solid dark square centered on a uniform light
// backdrop, the simplest shape the flood fill must handle.
func garmentOnBackdrop(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))

	backdrop := color.NRGBA{R: 240, G: 240, B: 240, A: 255}
	garment := color.NRGBA{R: 20, G: 20, B: 80, A: 255}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, backdrop)
		}
	}

	for y := h / 4; y < 3*h/4; y++ {
		for x := w / 4; x < 3*w/4; x++ {
			img.SetNRGBA(x, y, garment)
		}
	}

	return img
}

func writeTempPNG(t *testing.T, img image.Image) string {
	t.Helper()

	var buf bytes.Buffer

	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode failed: %v", err)
	}

	p := filepath.Join(t.TempDir(), "photo.png")

	if err := os.WriteFile(p, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	return p
}

func TestRemoveBackground(t *testing.T) {
	p := writeTempPNG(t, garmentOnBackdrop(32, 32))

	if err := RemoveBackground(p); err != nil {
		t.Fatalf("remove background failed: %v", err)
	}

	data, err := os.ReadFile(p)

	if err != nil {
		t.Fatalf("read back failed: %v", err)
	}

	img, format, err := image.Decode(bytes.NewReader(data))

	if err != nil || format != "png" {
		t.Fatalf("output not png: format=%q err=%v", format, err)
	}

	// backdrop corner should now be transparent
	_, _, _, a := img.At(1, 1).RGBA()

	if a != 0 {
		t.Fatalf("border pixel still opaque, alpha=%d", a)
	}

	// the garment itself must survive
	r, g, b, a := img.At(16, 16).RGBA()

	if a == 0 {
		t.Fatal("garment pixel was wiped")
	}

	if r>>8 != 20 || g>>8 != 20 || b>>8 != 80 {
		t.Fatalf("garment color changed: %d %d %d", r>>8, g>>8, b>>8)
	}
}

func TestRemoveBackgroundLeavesFileOnDecodeFailure(t *testing.T) {
	p := filepath.Join(t.TempDir(), "broken.png")

	original := []byte("not an image at all")

	if err := os.WriteFile(p, original, 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	if err := RemoveBackground(p); err == nil {
		t.Fatal("expected decode error")
	}

	data, err := os.ReadFile(p)

	if err != nil {
		t.Fatalf("read back failed: %v", err)
	}

	if !bytes.Equal(data, original) {
		t.Fatal("file was modified despite the failure")
	}
}

func TestRemoveBackgroundMissingFile(t *testing.T) {
	if err := RemoveBackground(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestMatteKeepsTinyImagesOpaque(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))

	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})

	out := matte(img)

	if out.NRGBAAt(0, 0).A != 255 {
		t.Fatal("tiny image was matted")
	}
}
