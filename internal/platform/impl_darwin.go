//go:build darwin
// +build darwin

package platform

import (
	"fmt"
	"os"
	"runtime"

	"gamehub/automation-agent/internal/models"

	"go.uber.org/zap"
)

// darwinImpl synthesizes global input and samples the screen. Capturing
// input and targeting background windows need accessibility APIs that are
// not wired up, so those report ErrUnsupported.
type darwinImpl struct {
	log *zap.Logger
}

func newDarwinPlatform(log *zap.Logger) (Platform, error) {
	return &darwinImpl{log: log}, nil
}

func (p *darwinImpl) StartInputCapture(_ func(CapturedInput)) error {
	return fmt.Errorf("input capture: %w", ErrUnsupported)
}

func (p *darwinImpl) StopInputCapture() error {
	return nil
}

func (p *darwinImpl) Emit(ev models.InputEvent) error {
	return emitGlobal(ev)
}

func (p *darwinImpl) EmitToWindow(_ models.WindowHandle, _ models.InputEvent) error {
	return fmt.Errorf("background input: %w", ErrUnsupported)
}

func (p *darwinImpl) ListWindows() ([]models.WindowInfo, error) {
	return []models.WindowInfo{}, nil
}

func (p *darwinImpl) IsWindow(_ models.WindowHandle) bool {
	return false
}

func (p *darwinImpl) ScreenToClient(_ models.WindowHandle, _, _ int) (int, int, error) {
	return 0, 0, ErrUnsupported
}

func (p *darwinImpl) CursorPosition() (int, int, error) {
	x, y := cursorPosition()
	return x, y, nil
}

func (p *darwinImpl) PixelColor(x, y int) (string, error) {
	return samplePixel(x, y)
}

func (p *darwinImpl) GetSystemInfo() (*SystemInfo, error) {
	hostname, _ := os.Hostname()
	return &SystemInfo{
		OS:        "darwin",
		OSVersion: runtime.GOOS,
		Arch:      runtime.GOARCH,
		Hostname:  hostname,
		Display:   true,
	}, nil
}

func (p *darwinImpl) Close() error {
	return nil
}
