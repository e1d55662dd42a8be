//go:build windows
// +build windows

package platform

import (
	"strconv"
	"strings"
)

var vkNames = map[uint32]string{
	0x08: "backspace",
	0x09: "tab",
	0x0D: "enter",
	0x10: "shift",
	0x11: "ctrl",
	0x12: "alt",
	0x13: "pause",
	0x14: "capslock",
	0x1B: "esc",
	0x20: "space",
	0x21: "pageup",
	0x22: "pagedown",
	0x23: "end",
	0x24: "home",
	0x25: "left",
	0x26: "up",
	0x27: "right",
	0x28: "down",
	0x2C: "printscreen",
	0x2D: "insert",
	0x2E: "delete",
	0x5B: "cmd",
	0x5C: "rcmd",
	0x90: "numlock",
	0xA0: "shift",
	0xA1: "rshift",
	0xA2: "ctrl",
	0xA3: "rctrl",
	0xA4: "alt",
	0xA5: "ralt",
	0xBA: ";",
	0xBB: "=",
	0xBC: ",",
	0xBD: "-",
	0xBE: ".",
	0xBF: "/",
	0xC0: "`",
	0xDB: "[",
	0xDC: "\\",
	0xDD: "]",
	0xDE: "'",
}

var vkCodes = func() map[string]uint16 {
	codes := make(map[string]uint16, len(vkNames))
	for code, name := range vkNames {
		// prefer the generic code for shift/ctrl/alt
		if existing, ok := codes[name]; ok && uint32(existing) < code {
			continue
		}
		codes[name] = uint16(code)
	}
	return codes
}()

// vkName maps a virtual-key code to a canonical key name
func vkName(vk uint32) string {
	switch {
	case vk >= '0' && vk <= '9':
		return string(rune(vk))
	case vk >= 'A' && vk <= 'Z':
		return strings.ToLower(string(rune(vk)))
	case vk >= 0x70 && vk <= 0x7B:
		return "f" + strconv.Itoa(int(vk-0x70+1))
	}
	return vkNames[vk]
}

// vkCode maps a key name to a virtual-key code
func vkCode(key string) (uint16, bool) {
	key = CanonicalKey(key)
	if len(key) == 1 {
		c := strings.ToUpper(key)[0]
		if (c >= '0' && c <= '9') || (c >= 'A' && c <= 'Z') {
			return uint16(c), true
		}
	}
	if n, ok := functionKey(key); ok && n <= 12 {
		return uint16(0x70 + n - 1), true
	}
	code, ok := vkCodes[key]
	return code, ok
}
