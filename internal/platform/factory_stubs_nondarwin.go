//go:build !darwin
// +build !darwin

package platform

import "go.uber.org/zap"

func newDarwinPlatform(_ *zap.Logger) (Platform, error) {
	return nil, &UnsupportedPlatformError{OS: "darwin (not compiled for this platform)"}
}
