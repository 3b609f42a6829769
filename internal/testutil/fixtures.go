// Package testutil provides shared fixtures for backend tests.
package testutil

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
)

// PNGBytes returns an encoded PNG of the given dimensions.
func PNGBytes(width, height int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// OversizedPNGBytes returns a valid PNG padded past size bytes. PNG decoders
// ignore trailing data, so the payload still sniffs and decodes as an image.
func OversizedPNGBytes(size int64) []byte {
	base := PNGBytes(8, 8)
	if int64(len(base)) > size {
		return base
	}
	padded := make([]byte, size+1)
	copy(padded, base)
	return padded
}
