package platform

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownKey is returned for key names the synthesizer cannot press
var ErrUnknownKey = errors.New("unknown key")

// keyAliases folds names from X11 keysyms and older macro files onto the
// names the synthesizer understands.
var keyAliases = map[string]string{
	"return":       "enter",
	"kp_enter":     "enter",
	"escape":       "esc",
	"back_space":   "backspace",
	"prior":        "pageup",
	"page_up":      "pageup",
	"next":         "pagedown",
	"page_down":    "pagedown",
	"caps_lock":    "capslock",
	"num_lock":     "numlock",
	"print":        "printscreen",
	"print_screen": "printscreen",

	"shift_l":          "shift",
	"shift_r":          "rshift",
	"control_l":        "ctrl",
	"control_r":        "rctrl",
	"control":          "ctrl",
	"ctrl_l":           "ctrl",
	"ctrl_r":           "rctrl",
	"alt_l":            "alt",
	"alt_r":            "ralt",
	"alt_gr":           "ralt",
	"iso_level3_shift": "ralt",
	"super_l":          "cmd",
	"super_r":          "rcmd",
	"cmd_l":            "cmd",
	"cmd_r":            "rcmd",
	"meta_l":           "cmd",
	"win":              "cmd",
}

// CanonicalKey normalizes a key name. Single characters keep their case.
func CanonicalKey(name string) string {
	name = strings.TrimSpace(name)
	if len([]rune(name)) == 1 {
		return name
	}
	lower := strings.ToLower(name)
	if alias, ok := keyAliases[lower]; ok {
		return alias
	}
	return lower
}

// x11Keysyms maps canonical names back to keysym names
var x11Keysyms = map[string]string{
	"enter":       "Return",
	"esc":         "Escape",
	"backspace":   "BackSpace",
	"tab":         "Tab",
	"space":       "space",
	"delete":      "Delete",
	"insert":      "Insert",
	"home":        "Home",
	"end":         "End",
	"pageup":      "Prior",
	"pagedown":    "Next",
	"up":          "Up",
	"down":        "Down",
	"left":        "Left",
	"right":       "Right",
	"capslock":    "Caps_Lock",
	"numlock":     "Num_Lock",
	"printscreen": "Print",
	"shift":       "Shift_L",
	"rshift":      "Shift_R",
	"ctrl":        "Control_L",
	"rctrl":       "Control_R",
	"alt":         "Alt_L",
	"ralt":        "Alt_R",
	"cmd":         "Super_L",
	"rcmd":        "Super_R",
}

// X11Keysym returns the keysym name for a canonical key
func X11Keysym(key string) string {
	key = CanonicalKey(key)
	if sym, ok := x11Keysyms[key]; ok {
		return sym
	}
	// f1..f12
	if len(key) >= 2 && key[0] == 'f' && key[1] >= '1' && key[1] <= '9' {
		return strings.ToUpper(key)
	}
	return key
}

// synthNames are the multi-character names the global synthesizer accepts,
// keyed by canonical name.
var synthNames = map[string]string{
	"enter": "enter", "esc": "esc", "backspace": "backspace", "tab": "tab",
	"space": "space", "delete": "delete", "insert": "insert", "menu": "menu",
	"home": "home", "end": "end", "pageup": "pageup", "pagedown": "pagedown",
	"up": "up", "down": "down", "left": "left", "right": "right",
	"capslock": "capslock", "numlock": "num_lock", "printscreen": "printscreen",
	"shift": "shift", "lshift": "lshift", "rshift": "rshift",
	"ctrl": "ctrl", "lctrl": "lctrl", "rctrl": "rctrl",
	"alt": "alt", "lalt": "lalt", "ralt": "ralt",
	"cmd": "cmd", "lcmd": "lcmd", "rcmd": "rcmd",

	"audio_mute": "audio_mute", "audio_vol_down": "audio_vol_down",
	"audio_vol_up": "audio_vol_up", "audio_play": "audio_play",
	"audio_stop": "audio_stop", "audio_pause": "audio_pause",
	"audio_prev": "audio_prev", "audio_next": "audio_next",
}

// SynthKey resolves a recorded key name to the name passed to the global
// synthesizer. Names it cannot press return ErrUnknownKey.
func SynthKey(name string) (string, error) {
	key := CanonicalKey(name)
	if len([]rune(key)) == 1 {
		return key, nil
	}
	if n, ok := functionKey(key); ok && n <= 24 {
		return key, nil
	}
	if strings.HasPrefix(key, "num") && len(key) == 4 && key[3] >= '0' && key[3] <= '9' {
		return key, nil
	}
	if synth, ok := synthNames[key]; ok {
		return synth, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKey, name)
}

// functionKey parses f1..fN
func functionKey(key string) (int, bool) {
	if len(key) < 2 || key[0] != 'f' {
		return 0, false
	}
	n := 0
	for _, r := range key[1:] {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, n >= 1
}
