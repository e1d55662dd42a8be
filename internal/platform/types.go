package platform

import (
	"errors"
	"time"

	"gamehub/automation-agent/internal/models"

	"go.uber.org/zap"
)

var (
	// ErrUnsupported is returned for capabilities the host cannot provide
	ErrUnsupported = errors.New("not supported on this platform")
	// ErrWindowGone is returned when a target window no longer exists
	ErrWindowGone = errors.New("target window no longer exists")
)

// Platform defines the interface for platform-specific operations
type Platform interface {
	InputSource
	InputSink
	WindowEnumerator
	ScreenSampler

	// GetSystemInfo returns system information
	GetSystemInfo() (*SystemInfo, error)

	// Close releases hooks and display connections
	Close() error
}

// CapturedInput is a raw input observed by the OS hook. Event.Time is left
// zero; the recorder stamps offsets from At.
type CapturedInput struct {
	Event models.InputEvent
	At    time.Time
}

// InputSource observes global mouse and keyboard input
type InputSource interface {
	// StartInputCapture installs the hook. The callback runs on the hook
	// thread and must return quickly.
	StartInputCapture(callback func(CapturedInput)) error

	// StopInputCapture removes the hook; no callback runs after it returns
	StopInputCapture() error
}

// InputSink synthesizes input
type InputSink interface {
	// Emit injects an event into the global input stream
	Emit(ev models.InputEvent) error

	// EmitToWindow delivers an event to a single window without moving the
	// real cursor or changing focus. Coordinates are client coordinates.
	EmitToWindow(hwnd models.WindowHandle, ev models.InputEvent) error
}

// WindowEnumerator lists and probes top-level windows
type WindowEnumerator interface {
	// ListWindows returns visible top-level windows with a title
	ListWindows() ([]models.WindowInfo, error)

	// IsWindow reports whether the handle still names a live window
	IsWindow(hwnd models.WindowHandle) bool

	// ScreenToClient converts screen coordinates into the window's client area
	ScreenToClient(hwnd models.WindowHandle, x, y int) (int, int, error)
}

// ScreenSampler reads the cursor and screen pixels
type ScreenSampler interface {
	CursorPosition() (int, int, error)

	// PixelColor returns the colour at a screen point as #rrggbb
	PixelColor(x, y int) (string, error)
}

// SystemInfo contains system information
type SystemInfo struct {
	OS        string
	OSVersion string
	Arch      string
	Hostname  string
	Display   bool
}

// Fields returns the info as structured log fields
func (i SystemInfo) Fields() []zap.Field {
	return []zap.Field{
		zap.String("os", i.OS),
		zap.String("os_version", i.OSVersion),
		zap.String("arch", i.Arch),
		zap.String("hostname", i.Hostname),
		zap.Bool("display", i.Display),
	}
}
