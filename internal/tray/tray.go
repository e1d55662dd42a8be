// Package tray provides the optional system tray menu using getlantern/systray.
package tray

import (
	"encoding/binary"

	"gamehub/automation-agent/internal/models"

	"github.com/getlantern/systray"
	"go.uber.org/zap"
)

// Controls is what the tray menu can drive
type Controls interface {
	StartRecording() (string, error)
	StopRecording() (models.Macro, error)
	StopPlayback() error
	Status() models.AutomationStatus
}

// Tray shows recording and playback state and offers quick controls.
// Run must be called from the main goroutine.
type Tray struct {
	controls Controls
	onQuit   func()
	logger   *zap.Logger

	updates chan models.AutomationStatus
	quitCh  chan struct{}
}

func New(controls Controls, onQuit func(), logger *zap.Logger) *Tray {
	return &Tray{
		controls: controls,
		onQuit:   onQuit,
		logger:   logger,
		updates:  make(chan models.AutomationStatus, 1),
		quitCh:   make(chan struct{}),
	}
}

// Publish implements service.StatusPublisher. It keeps only the newest status.
func (t *Tray) Publish(status models.AutomationStatus) {
	for {
		select {
		case t.updates <- status:
			return
		default:
		}
		select {
		case <-t.updates:
		default:
		}
	}
}

// Run starts the tray event loop and blocks until Stop or Quit
func (t *Tray) Run() {
	systray.Run(t.onReady, func() { close(t.quitCh) })
}

// Stop ends the tray event loop
func (t *Tray) Stop() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("Automation")
	systray.SetIcon(icon())

	status := t.controls.Status()
	systray.SetTooltip(tooltip(status))

	record := systray.AddMenuItem(recordLabel(status), "Toggle macro recording")
	stop := systray.AddMenuItem("Stop playback", "Stop macro playback or the background clicker")
	if !status.Playing {
		stop.Disable()
	}
	systray.AddSeparator()
	quit := systray.AddMenuItem("Quit", "Stop the automation agent")

	go func() {
		for {
			select {
			case <-record.ClickedCh:
				t.toggleRecording()
			case <-stop.ClickedCh:
				if err := t.controls.StopPlayback(); err != nil {
					t.logger.Warn("Tray stop playback failed", zap.Error(err))
				}
			case <-quit.ClickedCh:
				t.logger.Info("Quit requested from tray")
				if t.onQuit != nil {
					t.onQuit()
				}
			case st := <-t.updates:
				record.SetTitle(recordLabel(st))
				systray.SetTooltip(tooltip(st))
				if st.Playing {
					stop.Enable()
				} else {
					stop.Disable()
				}
			case <-t.quitCh:
				return
			}
		}
	}()
}

func (t *Tray) toggleRecording() {
	if t.controls.Status().Recording {
		macro, err := t.controls.StopRecording()
		if err != nil {
			t.logger.Warn("Tray stop recording failed", zap.Error(err))
			return
		}
		t.logger.Info("Recording stopped from tray", zap.Int("events", len(macro)))
		return
	}
	if _, err := t.controls.StartRecording(); err != nil {
		t.logger.Warn("Tray start recording failed", zap.Error(err))
	}
}

func recordLabel(st models.AutomationStatus) string {
	if st.Recording {
		return "Stop recording"
	}
	return "Start recording"
}

func tooltip(st models.AutomationStatus) string {
	switch {
	case st.Recording:
		return "Automation agent: recording"
	case st.Mode == models.ModeBackgroundClicker:
		return "Automation agent: background clicker running"
	case st.Playing:
		return "Automation agent: playing macro"
	default:
		return "Automation agent: idle"
	}
}

// icon builds a 16x16 32-bit ICO filled with a single colour
func icon() []byte {
	const (
		size       = 16
		headerSize = 6 + 16
		dibSize    = 40
		pixelBytes = size * size * 4
		maskBytes  = size * 4 // 1bpp rows padded to 32 bits
	)
	imageSize := dibSize + pixelBytes + maskBytes
	buf := make([]byte, headerSize+imageSize)

	// ICONDIR
	binary.LittleEndian.PutUint16(buf[2:], 1)
	binary.LittleEndian.PutUint16(buf[4:], 1)

	// ICONDIRENTRY
	buf[6] = size
	buf[7] = size
	binary.LittleEndian.PutUint16(buf[10:], 1)
	binary.LittleEndian.PutUint16(buf[12:], 32)
	binary.LittleEndian.PutUint32(buf[14:], uint32(imageSize))
	binary.LittleEndian.PutUint32(buf[18:], headerSize)

	// BITMAPINFOHEADER, height doubled for the mask
	dib := buf[headerSize:]
	binary.LittleEndian.PutUint32(dib[0:], dibSize)
	binary.LittleEndian.PutUint32(dib[4:], size)
	binary.LittleEndian.PutUint32(dib[8:], size*2)
	binary.LittleEndian.PutUint16(dib[12:], 1)
	binary.LittleEndian.PutUint16(dib[14:], 32)
	binary.LittleEndian.PutUint32(dib[20:], pixelBytes)

	// BGRA pixels
	pixels := dib[dibSize : dibSize+pixelBytes]
	for i := 0; i < len(pixels); i += 4 {
		pixels[i+0] = 0x3c
		pixels[i+1] = 0x9a
		pixels[i+2] = 0xe8
		pixels[i+3] = 0xff
	}
	return buf
}
