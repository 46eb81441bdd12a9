package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
)

// colorTolerance is the squared RGB distance under which a pixel counts as
// part of the background region seeded from the image border. Tuned for the
// flat backdrops typical of clothing photos taken against a wall or floor.
const colorTolerance = 1800

// RemoveBackground rewrites the image at path with its background turned
// transparent. The output is always PNG and replaces the file atomically, so
// a reader never observes a half-written image. On any failure the original
// file is left untouched.
func RemoveBackground(path string) error {
	data, err := os.ReadFile(path)

	if err != nil {
		return err
	}

	img, _, err := image.Decode(bytes.NewReader(data))

	if err != nil {
		return err
	}

	out := matte(img)

	var buf bytes.Buffer

	err = png.Encode(&buf, out)

	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".matte-*")

	if err != nil {
		return err
	}

	_, err = tmp.Write(buf.Bytes())

	if cerr := tmp.Close(); err == nil {
		err = cerr
	}

	if err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}

	return os.Rename(tmp.Name(), path)
}

// matte flood-fills from the border: every pixel reachable from the edge
// through colors close to the edge's average becomes fully transparent.
// Garment pixels enclosed by contrasting color survive, including holes the
// fill cannot reach (sleeve gaps keep their backdrop, acceptable for a
// best-effort transform).
func matte(img image.Image) *image.NRGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	out := image.NewNRGBA(image.Rect(0, 0, w, h))

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out.Set(x, y, img.At(b.Min.X+x, b.Min.Y+y))
		}
	}

	if w < 3 || h < 3 {
		return out
	}

	bg := borderAverage(out, w, h)

	visited := make([]bool, w*h)
	queue := make([]int, 0, w+h)

	push := func(x, y int) {
		i := y*w + x
		if visited[i] {
			return
		}
		if !closeTo(out.NRGBAAt(x, y), bg) {
			return
		}
		visited[i] = true
		queue = append(queue, i)
	}

	for x := 0; x < w; x++ {
		push(x, 0)
		push(x, h-1)
	}
	for y := 0; y < h; y++ {
		push(0, y)
		push(w-1, y)
	}

	for len(queue) > 0 {
		i := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		x, y := i%w, i/w

		if x > 0 {
			push(x-1, y)
		}
		if x < w-1 {
			push(x+1, y)
		}
		if y > 0 {
			push(x, y-1)
		}
		if y < h-1 {
			push(x, y+1)
		}
	}

	for i, isBG := range visited {
		if isBG {
			x, y := i%w, i/w
			out.SetNRGBA(x, y, color.NRGBA{})
		}
	}

	return out
}

func borderAverage(img *image.NRGBA, w, h int) color.NRGBA {
	var rSum, gSum, bSum, n uint64

	add := func(c color.NRGBA) {
		rSum += uint64(c.R)
		gSum += uint64(c.G)
		bSum += uint64(c.B)
		n++
	}

	for x := 0; x < w; x++ {
		add(img.NRGBAAt(x, 0))
		add(img.NRGBAAt(x, h-1))
	}
	for y := 1; y < h-1; y++ {
		add(img.NRGBAAt(0, y))
		add(img.NRGBAAt(w-1, y))
	}

	return color.NRGBA{
		R: uint8(rSum / n),
		G: uint8(gSum / n),
		B: uint8(bSum / n),
		A: 255,
	}
}

func closeTo(c, ref color.NRGBA) bool {
	dr := int(c.R) - int(ref.R)
	dg := int(c.G) - int(ref.G)
	db := int(c.B) - int(ref.B)

	return dr*dr+dg*dg+db*db <= colorTolerance
}
