// Package imaging decodes uploaded photos and runs the background-removal
// transform. The synchronous fast path only decodes and re-encodes; the slow
// matte runs later, off the request path.
package imaging

import (
	"bytes"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	"image/png"

	_ "golang.org/x/image/webp" // Register WebP decoder
)

// FastPath re-encodes an upload as PNG so every stored item image shares one
// format the post-processor can overwrite in place. Decode failure is not
// fatal: the original bytes come back verbatim with ok=false and the caller
// stores them as-is.
func FastPath(data []byte) (out []byte, ok bool) {
	img, _, err := image.Decode(bytes.NewReader(data))

	if err != nil {
		return data, false
	}

	var buf bytes.Buffer

	err = png.Encode(&buf, img)

	if err != nil {
		return data, false
	}

	return buf.Bytes(), true
}
