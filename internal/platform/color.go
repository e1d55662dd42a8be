package platform

import "fmt"

// HexColor formats an RGB triple as #rrggbb
func HexColor(r, g, b uint8) string {
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}
