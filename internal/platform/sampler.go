//go:build windows || linux || darwin
// +build windows linux darwin

package platform

import (
	"fmt"
	"image"

	"github.com/kbinani/screenshot"
)

// samplePixel grabs a 1x1 rectangle at a screen point
func samplePixel(x, y int) (string, error) {
	img, err := screenshot.CaptureRect(image.Rect(x, y, x+1, y+1))
	if err != nil {
		return "", fmt.Errorf("failed to capture pixel at (%d,%d): %w", x, y, err)
	}

	bounds := img.Bounds()
	if bounds.Empty() {
		return "", fmt.Errorf("empty capture at (%d,%d)", x, y)
	}

	r, g, b, _ := img.At(bounds.Min.X, bounds.Min.Y).RGBA()
	return HexColor(uint8(r>>8), uint8(g>>8), uint8(b>>8)), nil
}
