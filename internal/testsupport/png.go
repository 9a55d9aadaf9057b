package testsupport

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

// PNG encodes a width x height RGBA image with a simple gradient.
func PNG(t testing.TB, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := range height {
		for x := range width {
			img.Set(x, y, color.RGBA{R: uint8(x * 40), G: uint8(y * 40), B: 0x80, A: 0xff})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// MinimalPNG returns a valid 1x1 PNG.
func MinimalPNG(t testing.TB) []byte {
	t.Helper()
	return PNG(t, 1, 1)
}

// DecodeConfig runs the standard library decoder over stream and returns the
// image dimensions it reports.
func DecodeConfig(t testing.TB, stream []byte) (int, int) {
	t.Helper()

	cfg, err := png.DecodeConfig(bytes.NewReader(stream))
	if err != nil {
		t.Fatalf("png.DecodeConfig: %v", err)
	}
	return cfg.Width, cfg.Height
}

// DecodePixels fully decodes stream with the standard library decoder.
func DecodePixels(t testing.TB, stream []byte) image.Image {
	t.Helper()

	img, err := png.Decode(bytes.NewReader(stream))
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	return img
}
