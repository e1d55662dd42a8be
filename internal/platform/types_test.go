package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSystemInfoFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	info := SystemInfo{OS: "linux", OSVersion: "6.1", Arch: "amd64", Hostname: "rig", Display: true}

	zap.New(core).Info("Platform ready", info.Fields()...)

	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "linux", fields["os"])
	assert.Equal(t, "amd64", fields["arch"])
	assert.Equal(t, "rig", fields["hostname"])
	assert.Equal(t, true, fields["display"])
}
