//go:build !windows
// +build !windows

package platform

import "go.uber.org/zap"

func newWindowsPlatform(_ *zap.Logger) (Platform, error) {
	return nil, &UnsupportedPlatformError{OS: "windows (not compiled for this platform)"}
}
