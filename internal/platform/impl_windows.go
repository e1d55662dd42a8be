//go:build windows
// +build windows

package platform

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"
	"syscall"
	"time"
	"unsafe"

	"gamehub/automation-agent/internal/models"

	"go.uber.org/zap"
	"golang.org/x/sys/windows"
)

type windowsImpl struct {
	log *zap.Logger

	mu            sync.Mutex
	inputCallback func(CapturedInput)
	hookThreadID  uint32
	hookDone      chan struct{}

	mouseHookProc    uintptr
	keyboardHookProc uintptr
	enumWindowsProc  uintptr

	enumMu  sync.Mutex
	enumOut []models.WindowInfo
}

var (
	user32 = windows.NewLazyDLL("user32.dll")

	procGetWindowTextW      = user32.NewProc("GetWindowTextW")
	procGetWindowTextLength = user32.NewProc("GetWindowTextLengthW")
	procIsWindowVisible     = user32.NewProc("IsWindowVisible")
	procIsWindow            = user32.NewProc("IsWindow")
	procEnumWindows         = user32.NewProc("EnumWindows")
	procScreenToClient      = user32.NewProc("ScreenToClient")
	procPostMessageW        = user32.NewProc("PostMessageW")
	procSetWindowsHookEx    = user32.NewProc("SetWindowsHookExW")
	procUnhookWindowsHookEx = user32.NewProc("UnhookWindowsHookEx")
	procCallNextHookEx      = user32.NewProc("CallNextHookEx")
	procGetMessageW         = user32.NewProc("GetMessageW")
	procPostThreadMessageW  = user32.NewProc("PostThreadMessageW")
)

const (
	WH_MOUSE_LL    = 14
	WH_KEYBOARD_LL = 13

	WM_QUIT        = 0x0012
	WM_KEYDOWN     = 0x0100
	WM_KEYUP       = 0x0101
	WM_SYSKEYDOWN  = 0x0104
	WM_SYSKEYUP    = 0x0105
	WM_MOUSEMOVE   = 0x0200
	WM_LBUTTONDOWN = 0x0201
	WM_LBUTTONUP   = 0x0202
	WM_RBUTTONDOWN = 0x0204
	WM_RBUTTONUP   = 0x0205
	WM_MBUTTONDOWN = 0x0207
	WM_MBUTTONUP   = 0x0208

	MK_LBUTTON = 0x0001
	MK_RBUTTON = 0x0002
	MK_MBUTTON = 0x0010

	LLMHF_INJECTED = 0x00000001
	LLKHF_INJECTED = 0x00000010
)

type point struct {
	X, Y int32
}

type msllHookStruct struct {
	Pt          point
	MouseData   uint32
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

type kbdllHookStruct struct {
	VkCode      uint32
	ScanCode    uint32
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

type winMsg struct {
	Hwnd    uintptr
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	Pt      point
}

func newWindowsPlatform(log *zap.Logger) (Platform, error) {
	p := &windowsImpl{log: log}
	// syscall callbacks are never freed, so create each one once
	p.mouseHookProc = syscall.NewCallback(p.onMouseHook)
	p.keyboardHookProc = syscall.NewCallback(p.onKeyboardHook)
	p.enumWindowsProc = syscall.NewCallback(p.onEnumWindow)
	return p, nil
}

func (p *windowsImpl) StartInputCapture(callback func(CapturedInput)) error {
	p.mu.Lock()
	if p.hookDone != nil {
		p.mu.Unlock()
		return fmt.Errorf("input capture already running")
	}
	p.inputCallback = callback
	p.mu.Unlock()

	ready := make(chan error, 1)
	done := make(chan struct{})
	go p.runHookThread(ready, done)

	if err := <-ready; err != nil {
		p.mu.Lock()
		p.inputCallback = nil
		p.mu.Unlock()
		return err
	}

	p.mu.Lock()
	p.hookDone = done
	p.mu.Unlock()
	return nil
}

// runHookThread owns both low-level hooks. Windows delivers hook callbacks
// to the installing thread's message loop, so the goroutine is pinned.
func (p *windowsImpl) runHookThread(ready chan<- error, done chan<- struct{}) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(done)

	mouseHook, _, _ := procSetWindowsHookEx.Call(WH_MOUSE_LL, p.mouseHookProc, 0, 0)
	if mouseHook == 0 {
		ready <- fmt.Errorf("failed to set mouse hook")
		return
	}
	defer procUnhookWindowsHookEx.Call(mouseHook)

	keyboardHook, _, _ := procSetWindowsHookEx.Call(WH_KEYBOARD_LL, p.keyboardHookProc, 0, 0)
	if keyboardHook == 0 {
		ready <- fmt.Errorf("failed to set keyboard hook")
		return
	}
	defer procUnhookWindowsHookEx.Call(keyboardHook)

	p.mu.Lock()
	p.hookThreadID = windows.GetCurrentThreadId()
	p.mu.Unlock()
	ready <- nil

	var msg winMsg
	for {
		ret, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&msg)), 0, 0, 0)
		// 0 is WM_QUIT, -1 is an error
		if int32(ret) <= 0 {
			return
		}
	}
}

func (p *windowsImpl) StopInputCapture() error {
	p.mu.Lock()
	done := p.hookDone
	threadID := p.hookThreadID
	p.inputCallback = nil
	p.hookDone = nil
	p.hookThreadID = 0
	p.mu.Unlock()

	if done == nil {
		return nil
	}

	procPostThreadMessageW.Call(uintptr(threadID), WM_QUIT, 0, 0)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		return fmt.Errorf("hook thread did not exit")
	}
	return nil
}

func (p *windowsImpl) currentCallback() func(CapturedInput) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inputCallback
}

func (p *windowsImpl) onMouseHook(nCode int, wParam uintptr, lParam uintptr) uintptr {
	if nCode >= 0 {
		if callback := p.currentCallback(); callback != nil {
			info := (*msllHookStruct)(unsafe.Pointer(lParam))
			if info.Flags&LLMHF_INJECTED == 0 {
				ev := models.InputEvent{X: int(info.Pt.X), Y: int(info.Pt.Y)}
				ok := true
				switch wParam {
				case WM_MOUSEMOVE:
					ev.Type = models.EventMouseMove
				case WM_LBUTTONDOWN:
					ev.Type, ev.Button = models.EventMouseDown, models.ButtonLeft
				case WM_LBUTTONUP:
					ev.Type, ev.Button = models.EventMouseUp, models.ButtonLeft
				case WM_RBUTTONDOWN:
					ev.Type, ev.Button = models.EventMouseDown, models.ButtonRight
				case WM_RBUTTONUP:
					ev.Type, ev.Button = models.EventMouseUp, models.ButtonRight
				case WM_MBUTTONDOWN:
					ev.Type, ev.Button = models.EventMouseDown, models.ButtonMiddle
				case WM_MBUTTONUP:
					ev.Type, ev.Button = models.EventMouseUp, models.ButtonMiddle
				default:
					ok = false
				}
				if ok {
					callback(CapturedInput{Event: ev, At: time.Now()})
				}
			}
		}
	}
	ret, _, _ := procCallNextHookEx.Call(0, uintptr(nCode), wParam, lParam)
	return ret
}

func (p *windowsImpl) onKeyboardHook(nCode int, wParam uintptr, lParam uintptr) uintptr {
	if nCode >= 0 {
		if callback := p.currentCallback(); callback != nil {
			info := (*kbdllHookStruct)(unsafe.Pointer(lParam))
			if info.Flags&LLKHF_INJECTED == 0 {
				var evType models.EventType
				switch wParam {
				case WM_KEYDOWN, WM_SYSKEYDOWN:
					evType = models.EventKeyDown
				case WM_KEYUP, WM_SYSKEYUP:
					evType = models.EventKeyUp
				}
				if name := vkName(info.VkCode); evType != "" && name != "" {
					callback(CapturedInput{
						Event: models.InputEvent{Type: evType, Key: name},
						At:    time.Now(),
					})
				}
			}
		}
	}
	ret, _, _ := procCallNextHookEx.Call(0, uintptr(nCode), wParam, lParam)
	return ret
}

func (p *windowsImpl) Emit(ev models.InputEvent) error {
	return emitGlobal(ev)
}

// EmitToWindow posts mouse and key messages straight into the target's
// queue. Press and release of a click are posted back to back.
func (p *windowsImpl) EmitToWindow(hwnd models.WindowHandle, ev models.InputEvent) error {
	if !p.IsWindow(hwnd) {
		return ErrWindowGone
	}

	lParam := makeLParam(ev.X, ev.Y)

	switch ev.Type {
	case models.EventMouseMove:
		return postMessage(hwnd, WM_MOUSEMOVE, 0, lParam)
	case models.EventMouseDown:
		down, _, mk := buttonMessages(ev.Button)
		return postMessage(hwnd, down, mk, lParam)
	case models.EventMouseUp:
		_, up, _ := buttonMessages(ev.Button)
		return postMessage(hwnd, up, 0, lParam)
	case models.EventClick:
		down, up, mk := buttonMessages(ev.Button)
		if err := postMessage(hwnd, down, mk, lParam); err != nil {
			return err
		}
		return postMessage(hwnd, up, 0, lParam)
	case models.EventKeyDown, models.EventKeyUp:
		vk, ok := vkCode(ev.Key)
		if !ok {
			return fmt.Errorf("no virtual-key code for %q", ev.Key)
		}
		msg := uint32(WM_KEYDOWN)
		if ev.Type == models.EventKeyUp {
			msg = WM_KEYUP
		}
		return postMessage(hwnd, msg, uintptr(vk), 1)
	default:
		return fmt.Errorf("cannot post %q event", ev.Type)
	}
}

func buttonMessages(button string) (down, up uint32, mk uintptr) {
	switch button {
	case models.ButtonRight:
		return WM_RBUTTONDOWN, WM_RBUTTONUP, MK_RBUTTON
	case models.ButtonMiddle:
		return WM_MBUTTONDOWN, WM_MBUTTONUP, MK_MBUTTON
	default:
		return WM_LBUTTONDOWN, WM_LBUTTONUP, MK_LBUTTON
	}
}

func makeLParam(x, y int) uintptr {
	return uintptr(uint32(uint16(int16(y)))<<16 | uint32(uint16(int16(x))))
}

func postMessage(hwnd models.WindowHandle, msg uint32, wParam, lParam uintptr) error {
	ret, _, err := procPostMessageW.Call(uintptr(hwnd), uintptr(msg), wParam, lParam)
	if ret == 0 {
		if errors.Is(err, windows.ERROR_INVALID_WINDOW_HANDLE) {
			return ErrWindowGone
		}
		return fmt.Errorf("PostMessageW failed: %w", err)
	}
	return nil
}

func (p *windowsImpl) ListWindows() ([]models.WindowInfo, error) {
	p.enumMu.Lock()
	defer p.enumMu.Unlock()

	p.enumOut = nil
	procEnumWindows.Call(p.enumWindowsProc, 0)

	windowsList := p.enumOut
	p.enumOut = nil
	if windowsList == nil {
		windowsList = []models.WindowInfo{}
	}
	return windowsList, nil
}

// onEnumWindow runs synchronously inside EnumWindows while enumMu is held
func (p *windowsImpl) onEnumWindow(hwnd uintptr, _ uintptr) uintptr {
	if hwnd == 0 {
		return 1
	}
	visible, _, _ := procIsWindowVisible.Call(hwnd)
	if visible == 0 {
		return 1
	}
	if title := windowTitle(hwnd); title != "" {
		p.enumOut = append(p.enumOut, models.WindowInfo{
			Handle: models.WindowHandle(hwnd),
			Title:  title,
		})
	}
	return 1
}

func windowTitle(hwnd uintptr) string {
	length, _, _ := procGetWindowTextLength.Call(hwnd)
	if length == 0 {
		return ""
	}

	length++ // Include null terminator
	buf := make([]uint16, length)
	procGetWindowTextW.Call(hwnd, uintptr(unsafe.Pointer(&buf[0])), uintptr(length))
	return windows.UTF16ToString(buf)
}

func (p *windowsImpl) IsWindow(hwnd models.WindowHandle) bool {
	if hwnd == 0 {
		return false
	}
	ret, _, _ := procIsWindow.Call(uintptr(hwnd))
	return ret != 0
}

func (p *windowsImpl) ScreenToClient(hwnd models.WindowHandle, x, y int) (int, int, error) {
	pt := point{X: int32(x), Y: int32(y)}
	ret, _, _ := procScreenToClient.Call(uintptr(hwnd), uintptr(unsafe.Pointer(&pt)))
	if ret == 0 {
		return 0, 0, ErrWindowGone
	}
	return int(pt.X), int(pt.Y), nil
}

func (p *windowsImpl) CursorPosition() (int, int, error) {
	x, y := cursorPosition()
	return x, y, nil
}

func (p *windowsImpl) PixelColor(x, y int) (string, error) {
	return samplePixel(x, y)
}

func (p *windowsImpl) GetSystemInfo() (*SystemInfo, error) {
	hostname, _ := os.Hostname()
	return &SystemInfo{
		OS:        "windows",
		OSVersion: runtime.GOOS,
		Arch:      runtime.GOARCH,
		Hostname:  hostname,
		Display:   true,
	}, nil
}

func (p *windowsImpl) Close() error {
	return p.StopInputCapture()
}
