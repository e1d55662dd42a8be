//go:build !linux
// +build !linux

package platform

import "go.uber.org/zap"

func newLinuxPlatform(_ *zap.Logger) (Platform, error) {
	return nil, &UnsupportedPlatformError{OS: "linux (not compiled for this platform)"}
}
