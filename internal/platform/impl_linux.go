//go:build linux
// +build linux

package platform

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"
	"time"

	"gamehub/automation-agent/internal/models"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/keybind"
	"go.uber.org/zap"
)

// X11 has no global hook without extensions, so capture polls the pointer
// and keymap at this rate and reports the differences.
const inputPollInterval = 10 * time.Millisecond

type linuxImpl struct {
	log *zap.Logger
	xu  *xgbutil.XUtil // nil without a display

	mu       sync.Mutex
	stopChan chan struct{}
	wg       sync.WaitGroup
}

var pointerButtons = []struct {
	mask   uint16
	button string
	detail xproto.Button
}{
	{xproto.KeyButMaskButton1, models.ButtonLeft, 1},
	{xproto.KeyButMaskButton2, models.ButtonMiddle, 2},
	{xproto.KeyButMaskButton3, models.ButtonRight, 3},
}

func newLinuxPlatform(log *zap.Logger) (Platform, error) {
	xgb.Logger.SetOutput(io.Discard)

	xu, err := xgbutil.NewConn()
	if err != nil {
		log.Warn("X11 display unavailable, input automation disabled", zap.Error(err))
		return &linuxImpl{log: log}, nil
	}
	keybind.Initialize(xu)

	return &linuxImpl{log: log, xu: xu}, nil
}

func (p *linuxImpl) requireDisplay() error {
	if p.xu == nil {
		return fmt.Errorf("no X11 display: %w", ErrUnsupported)
	}
	return nil
}

func (p *linuxImpl) StartInputCapture(callback func(CapturedInput)) error {
	if err := p.requireDisplay(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopChan != nil {
		return fmt.Errorf("input capture already running")
	}

	state, err := p.readInputState()
	if err != nil {
		return fmt.Errorf("failed to read initial input state: %w", err)
	}

	p.stopChan = make(chan struct{})
	p.wg.Add(1)
	go p.pollInput(state, callback, p.stopChan)
	return nil
}

func (p *linuxImpl) StopInputCapture() error {
	p.mu.Lock()
	stopChan := p.stopChan
	p.stopChan = nil
	p.mu.Unlock()

	if stopChan == nil {
		return nil
	}
	close(stopChan)
	p.wg.Wait()
	return nil
}

type inputState struct {
	x, y int16
	mask uint16
	keys []byte
}

func (p *linuxImpl) readInputState() (inputState, error) {
	conn := p.xu.Conn()

	pointer, err := xproto.QueryPointer(conn, p.xu.RootWin()).Reply()
	if err != nil {
		return inputState{}, err
	}
	keymap, err := xproto.QueryKeymap(conn).Reply()
	if err != nil {
		return inputState{}, err
	}

	return inputState{
		x:    pointer.RootX,
		y:    pointer.RootY,
		mask: pointer.Mask,
		keys: append([]byte(nil), keymap.Keys...),
	}, nil
}

func (p *linuxImpl) pollInput(last inputState, callback func(CapturedInput), stopChan <-chan struct{}) {
	defer p.wg.Done()

	ticker := time.NewTicker(inputPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopChan:
			return
		case <-ticker.C:
			current, err := p.readInputState()
			if err != nil {
				p.log.Debug("input poll failed", zap.Error(err))
				continue
			}
			p.diffInput(last, current, time.Now(), callback)
			last = current
		}
	}
}

func (p *linuxImpl) diffInput(last, current inputState, now time.Time, callback func(CapturedInput)) {
	x, y := int(current.x), int(current.y)

	if current.x != last.x || current.y != last.y {
		callback(CapturedInput{
			Event: models.InputEvent{Type: models.EventMouseMove, X: x, Y: y},
			At:    now,
		})
	}

	for _, b := range pointerButtons {
		was, is := last.mask&b.mask != 0, current.mask&b.mask != 0
		if was == is {
			continue
		}
		evType := models.EventMouseUp
		if is {
			evType = models.EventMouseDown
		}
		callback(CapturedInput{
			Event: models.InputEvent{Type: evType, X: x, Y: y, Button: b.button},
			At:    now,
		})
	}

	for i := 0; i < len(current.keys) && i < len(last.keys); i++ {
		changed := current.keys[i] ^ last.keys[i]
		if changed == 0 {
			continue
		}
		for bit := 0; bit < 8; bit++ {
			if changed&(1<<bit) == 0 {
				continue
			}
			keycode := xproto.Keycode(i*8 + bit)
			name := CanonicalKey(keybind.LookupString(p.xu, 0, keycode))
			if name == "" {
				continue
			}
			evType := models.EventKeyUp
			if current.keys[i]&(1<<bit) != 0 {
				evType = models.EventKeyDown
			}
			callback(CapturedInput{
				Event: models.InputEvent{Type: evType, Key: name},
				At:    now,
			})
		}
	}
}

func (p *linuxImpl) Emit(ev models.InputEvent) error {
	if err := p.requireDisplay(); err != nil {
		return err
	}
	return emitGlobal(ev)
}

// EmitToWindow delivers synthetic X events with SendEvent. Many toolkits
// ignore events flagged as sent, which is the X11 counterpart of posting
// messages to a background window.
func (p *linuxImpl) EmitToWindow(hwnd models.WindowHandle, ev models.InputEvent) error {
	if err := p.requireDisplay(); err != nil {
		return err
	}
	if !p.IsWindow(hwnd) {
		return ErrWindowGone
	}

	win := xproto.Window(hwnd)
	root := p.xu.RootWin()
	x, y := int16(ev.X), int16(ev.Y)

	switch ev.Type {
	case models.EventMouseMove:
		motion := xproto.MotionNotifyEvent{
			Time: xproto.TimeCurrentTime, Root: root, Event: win,
			EventX: x, EventY: y, SameScreen: true,
		}
		return p.send(win, xproto.EventMaskPointerMotion, motion.Bytes())
	case models.EventMouseDown:
		return p.send(win, xproto.EventMaskButtonPress, p.buttonPress(win, ev).Bytes())
	case models.EventMouseUp:
		release := xproto.ButtonReleaseEvent(p.buttonPress(win, ev))
		return p.send(win, xproto.EventMaskButtonRelease, release.Bytes())
	case models.EventClick:
		press := p.buttonPress(win, ev)
		if err := p.send(win, xproto.EventMaskButtonPress, press.Bytes()); err != nil {
			return err
		}
		release := xproto.ButtonReleaseEvent(press)
		return p.send(win, xproto.EventMaskButtonRelease, release.Bytes())
	case models.EventKeyDown, models.EventKeyUp:
		codes := keybind.StrToKeycodes(p.xu, X11Keysym(ev.Key))
		if len(codes) == 0 {
			return fmt.Errorf("no keycode for %q", ev.Key)
		}
		press := xproto.KeyPressEvent{
			Detail: codes[0], Time: xproto.TimeCurrentTime, Root: root, Event: win,
			SameScreen: true,
		}
		if ev.Type == models.EventKeyDown {
			return p.send(win, xproto.EventMaskKeyPress, press.Bytes())
		}
		release := xproto.KeyReleaseEvent(press)
		return p.send(win, xproto.EventMaskKeyRelease, release.Bytes())
	default:
		return fmt.Errorf("cannot send %q event", ev.Type)
	}
}

func (p *linuxImpl) buttonPress(win xproto.Window, ev models.InputEvent) xproto.ButtonPressEvent {
	detail := xproto.Button(1)
	for _, b := range pointerButtons {
		if b.button == ev.Button {
			detail = b.detail
		}
	}
	return xproto.ButtonPressEvent{
		Detail: detail, Time: xproto.TimeCurrentTime, Root: p.xu.RootWin(), Event: win,
		EventX: int16(ev.X), EventY: int16(ev.Y), SameScreen: true,
	}
}

func (p *linuxImpl) send(win xproto.Window, mask uint32, event []byte) error {
	err := xproto.SendEventChecked(p.xu.Conn(), false, win, mask, string(event)).Check()
	if err != nil {
		if _, ok := err.(xproto.WindowError); ok {
			return ErrWindowGone
		}
		return fmt.Errorf("SendEvent failed: %w", err)
	}
	return nil
}

func (p *linuxImpl) ListWindows() ([]models.WindowInfo, error) {
	windowsList := []models.WindowInfo{}
	if p.xu == nil {
		return windowsList, nil
	}

	clients, err := ewmh.ClientListGet(p.xu)
	if err != nil {
		p.log.Debug("window manager does not publish _NET_CLIENT_LIST", zap.Error(err))
		return windowsList, nil
	}

	for _, win := range clients {
		attrs, err := xproto.GetWindowAttributes(p.xu.Conn(), win).Reply()
		if err != nil || attrs.MapState != xproto.MapStateViewable {
			continue
		}

		title, err := ewmh.WmNameGet(p.xu, win)
		if err != nil || title == "" {
			title, _ = icccm.WmNameGet(p.xu, win)
		}
		if title == "" {
			continue
		}

		windowsList = append(windowsList, models.WindowInfo{
			Handle: models.WindowHandle(win),
			Title:  title,
		})
	}

	return windowsList, nil
}

func (p *linuxImpl) IsWindow(hwnd models.WindowHandle) bool {
	if p.xu == nil || hwnd == 0 {
		return false
	}
	_, err := xproto.GetWindowAttributes(p.xu.Conn(), xproto.Window(hwnd)).Reply()
	return err == nil
}

func (p *linuxImpl) ScreenToClient(hwnd models.WindowHandle, x, y int) (int, int, error) {
	if err := p.requireDisplay(); err != nil {
		return 0, 0, err
	}
	reply, err := xproto.TranslateCoordinates(p.xu.Conn(), p.xu.RootWin(), xproto.Window(hwnd), int16(x), int16(y)).Reply()
	if err != nil {
		return 0, 0, ErrWindowGone
	}
	return int(reply.DstX), int(reply.DstY), nil
}

func (p *linuxImpl) CursorPosition() (int, int, error) {
	if err := p.requireDisplay(); err != nil {
		return 0, 0, err
	}
	pointer, err := xproto.QueryPointer(p.xu.Conn(), p.xu.RootWin()).Reply()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to query pointer: %w", err)
	}
	return int(pointer.RootX), int(pointer.RootY), nil
}

func (p *linuxImpl) PixelColor(x, y int) (string, error) {
	if err := p.requireDisplay(); err != nil {
		return "", err
	}
	return samplePixel(x, y)
}

func (p *linuxImpl) GetSystemInfo() (*SystemInfo, error) {
	hostname, _ := os.Hostname()
	return &SystemInfo{
		OS:        "linux",
		OSVersion: runtime.GOOS,
		Arch:      runtime.GOARCH,
		Hostname:  hostname,
		Display:   p.xu != nil,
	}, nil
}

func (p *linuxImpl) Close() error {
	if err := p.StopInputCapture(); err != nil {
		return err
	}
	if p.xu != nil {
		p.xu.Conn().Close()
	}
	return nil
}
