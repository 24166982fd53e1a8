package frames

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"golang.org/x/image/draw"
)

// maxLongestSidePixels bounds the resized frame's longest side, per spec.md
// §4.1 ("resize to fit within a model-friendly bound").
const maxLongestSidePixels = 1024

// resizeToBound decodes a JPEG-encoded frame, resizes it so its longest
// side is at most maxLongestSidePixels while preserving aspect ratio, and
// re-encodes it as JPEG. Images already within bound are returned decoded
// and re-encoded unchanged (idempotent re-encoding keeps the encoding path
// uniform regardless of source size).
func resizeToBound(encoded []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("decode frame image: %w", err)
	}

	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	newWidth, newHeight := scaledDimensions(width, height, maxLongestSidePixels)

	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("encode resized frame: %w", err)
	}
	return buf.Bytes(), nil
}

// scaledDimensions computes output dimensions whose longest side is at most
// maxSide, preserving the original aspect ratio. Images already within
// bound are returned unchanged.
func scaledDimensions(width, height, maxSide int) (int, int) {
	longest := width
	if height > longest {
		longest = height
	}
	if longest <= maxSide {
		return width, height
	}
	scale := float64(maxSide) / float64(longest)
	newWidth := int(float64(width)*scale + 0.5)
	newHeight := int(float64(height)*scale + 0.5)
	if newWidth < 1 {
		newWidth = 1
	}
	if newHeight < 1 {
		newHeight = 1
	}
	return newWidth, newHeight
}
