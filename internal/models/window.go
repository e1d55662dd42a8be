package models

// WindowHandle is an opaque OS window identifier (HWND on Windows, XID on X11)
type WindowHandle uint64

// WindowInfo describes a top-level window offered as a background target
type WindowInfo struct {
	Handle WindowHandle `json:"hwnd"`
	Title  string       `json:"title"`
}
