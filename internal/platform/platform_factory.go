package platform

import (
	"runtime"

	"go.uber.org/zap"
)

// NewPlatform creates a platform-specific implementation based on the current OS.
// Build one per process: it owns the global input hook.
func NewPlatform(log *zap.Logger) (Platform, error) {
	switch runtime.GOOS {
	case "windows":
		return newWindowsPlatform(log)
	case "darwin":
		return newDarwinPlatform(log)
	case "linux":
		return newLinuxPlatform(log)
	default:
		return nil, &UnsupportedPlatformError{OS: runtime.GOOS}
	}
}

// UnsupportedPlatformError represents an error for unsupported platforms
type UnsupportedPlatformError struct {
	OS string
}

func (e *UnsupportedPlatformError) Error() string {
	return "unsupported platform: " + e.OS
}

// Is lets errors.Is(err, ErrUnsupported) match
func (e *UnsupportedPlatformError) Is(target error) bool {
	return target == ErrUnsupported
}
