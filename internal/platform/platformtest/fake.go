// Package platformtest provides an in-memory Platform for tests.
package platformtest

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"gamehub/automation-agent/internal/models"
	"gamehub/automation-agent/internal/platform"
)

// Emission is one synthesized event as the fake saw it
type Emission struct {
	Hwnd  models.WindowHandle // zero for global emission
	Event models.InputEvent
	At    time.Time
}

type fakeWindow struct {
	title            string
	originX, originY int
}

// Fake implements platform.Platform without touching the OS
type Fake struct {
	mu sync.Mutex

	callback   func(platform.CapturedInput)
	captureErr error
	emitErr    error
	emitted    []Emission

	windows     map[models.WindowHandle]fakeWindow
	windowOrder []models.WindowHandle

	cursorX, cursorY int
	pixels           map[[2]int]string
	defaultColor     string
}

var _ platform.Platform = (*Fake)(nil)

// NewFake returns a fake with no windows and a black screen
func NewFake() *Fake {
	return &Fake{
		windows:      make(map[models.WindowHandle]fakeWindow),
		pixels:       make(map[[2]int]string),
		defaultColor: "#000000",
	}
}

// AddWindow registers a live window whose client area starts at the screen origin
func (f *Fake) AddWindow(hwnd models.WindowHandle, title string) {
	f.AddWindowAt(hwnd, title, 0, 0)
}

// AddWindowAt registers a live window with its client origin at (x, y)
func (f *Fake) AddWindowAt(hwnd models.WindowHandle, title string, x, y int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.windows[hwnd]; !ok {
		f.windowOrder = append(f.windowOrder, hwnd)
	}
	f.windows[hwnd] = fakeWindow{title: title, originX: x, originY: y}
}

// CloseWindow makes hwnd dead
func (f *Fake) CloseWindow(hwnd models.WindowHandle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.windows, hwnd)
	for i, h := range f.windowOrder {
		if h == hwnd {
			f.windowOrder = append(f.windowOrder[:i], f.windowOrder[i+1:]...)
			break
		}
	}
}

// SetCursor moves the fake cursor
func (f *Fake) SetCursor(x, y int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cursorX, f.cursorY = x, y
}

// SetPixel paints one screen pixel
func (f *Fake) SetPixel(x, y int, color string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pixels[[2]int{x, y}] = color
}

// SetEmitError makes every later emission fail with err (nil clears it)
func (f *Fake) SetEmitError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emitErr = err
}

// SetCaptureError makes StartInputCapture fail with err
func (f *Fake) SetCaptureError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.captureErr = err
}

// Capturing reports whether a capture callback is installed
func (f *Fake) Capturing() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.callback != nil
}

// Inject delivers an input as if the OS hook saw it. It reports false
// when no capture is running.
func (f *Fake) Inject(ev models.InputEvent, at time.Time) bool {
	f.mu.Lock()
	callback := f.callback
	f.mu.Unlock()

	if callback == nil {
		return false
	}
	callback(platform.CapturedInput{Event: ev, At: at})
	return true
}

// Emitted returns a copy of every emission so far
func (f *Fake) Emitted() []Emission {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Emission, len(f.emitted))
	copy(out, f.emitted)
	return out
}

// EmittedCount is len(Emitted()) without the copy
func (f *Fake) EmittedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.emitted)
}

func (f *Fake) StartInputCapture(callback func(platform.CapturedInput)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.captureErr != nil {
		return f.captureErr
	}
	if f.callback != nil {
		return errors.New("input capture already running")
	}
	f.callback = callback
	return nil
}

func (f *Fake) StopInputCapture() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callback = nil
	return nil
}

func (f *Fake) Emit(ev models.InputEvent) error {
	return f.record(0, ev)
}

func (f *Fake) EmitToWindow(hwnd models.WindowHandle, ev models.InputEvent) error {
	f.mu.Lock()
	_, alive := f.windows[hwnd]
	f.mu.Unlock()
	if !alive {
		return platform.ErrWindowGone
	}
	return f.record(hwnd, ev)
}

func (f *Fake) record(hwnd models.WindowHandle, ev models.InputEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.emitErr != nil {
		return f.emitErr
	}
	f.emitted = append(f.emitted, Emission{Hwnd: hwnd, Event: ev, At: time.Now()})
	return nil
}

func (f *Fake) ListWindows() ([]models.WindowInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.WindowInfo, 0, len(f.windowOrder))
	for _, hwnd := range f.windowOrder {
		out = append(out, models.WindowInfo{Handle: hwnd, Title: f.windows[hwnd].title})
	}
	return out, nil
}

func (f *Fake) IsWindow(hwnd models.WindowHandle) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.windows[hwnd]
	return ok
}

func (f *Fake) ScreenToClient(hwnd models.WindowHandle, x, y int) (int, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.windows[hwnd]
	if !ok {
		return 0, 0, platform.ErrWindowGone
	}
	return x - w.originX, y - w.originY, nil
}

func (f *Fake) CursorPosition() (int, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cursorX, f.cursorY, nil
}

func (f *Fake) PixelColor(x, y int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if x < 0 || y < 0 {
		return "", fmt.Errorf("point (%d,%d) is off screen", x, y)
	}
	if c, ok := f.pixels[[2]int{x, y}]; ok {
		return c, nil
	}
	return f.defaultColor, nil
}

func (f *Fake) GetSystemInfo() (*platform.SystemInfo, error) {
	return &platform.SystemInfo{OS: "fake", Arch: "none", Hostname: "test", Display: true}, nil
}

func (f *Fake) Close() error {
	return f.StopInputCapture()
}
