package automation

import (
	"context"
	"testing"
	"time"

	"gamehub/automation-agent/internal/models"
	"gamehub/automation-agent/internal/platform/platformtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func intPtr(v int) *int { return &v }

func TestNormalizeColor(t *testing.T) {
	for input, want := range map[string]string{
		"#FF00aa":  "#ff00aa",
		"ff00AA":   "#ff00aa",
		" #123456": "#123456",
	} {
		got, err := NormalizeColor(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got)
	}

	for _, input := range []string{"", "#fff", "#gg0000", "red", "#1234567"} {
		_, err := NormalizeColor(input)
		require.ErrorIs(t, err, ErrInvalidColor, input)
	}
}

func TestCursorInfo(t *testing.T) {
	fake := platformtest.NewFake()
	fake.SetCursor(12, 34)
	fake.SetPixel(12, 34, "#00ff00")

	cp := NewColorPicker(fake, 0, zaptest.NewLogger(t))
	info, err := cp.CursorInfo()
	require.NoError(t, err)
	assert.Equal(t, models.CursorInfo{X: 12, Y: 34, Color: "#00ff00"}, info)
}

func TestCheckColor(t *testing.T) {
	fake := platformtest.NewFake()
	fake.SetCursor(5, 5)
	fake.SetPixel(5, 5, "#abcdef")
	fake.SetPixel(1, 2, "#ff0000")

	cp := NewColorPicker(fake, 0, zaptest.NewLogger(t))

	res, err := cp.CheckColor(models.CheckColorRequest{X: intPtr(1), Y: intPtr(2), Color: "#FF0000"})
	require.NoError(t, err)
	assert.True(t, res.Matches)
	assert.Equal(t, "#ff0000", res.Color)

	res, err = cp.CheckColor(models.CheckColorRequest{Color: "ABCDEF"})
	require.NoError(t, err)
	assert.True(t, res.Matches)
	assert.Equal(t, 5, res.X)

	res, err = cp.CheckColor(models.CheckColorRequest{X: intPtr(1), Y: intPtr(2), Color: "#00ff00"})
	require.NoError(t, err)
	assert.False(t, res.Matches)

	// no colour given and nothing picked yet
	res, err = cp.CheckColor(models.CheckColorRequest{})
	require.NoError(t, err)
	assert.False(t, res.Matches)
	assert.Empty(t, res.Target)

	_, err = cp.CheckColor(models.CheckColorRequest{Color: "blue"})
	require.ErrorIs(t, err, ErrInvalidColor)
}

func TestPickColorWaitsThenCaptures(t *testing.T) {
	fake := platformtest.NewFake()
	fake.SetCursor(7, 8)
	fake.SetPixel(7, 8, "#102030")

	cp := NewColorPicker(fake, 30*time.Millisecond, zaptest.NewLogger(t))
	_, ok := cp.TriggerColor()
	require.False(t, ok)

	start := time.Now()
	trigger, err := cp.PickColor(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	assert.Equal(t, "#102030", trigger.Color)

	stored, ok := cp.TriggerColor()
	require.True(t, ok)
	assert.Equal(t, trigger, stored)

	// the trigger colour is the default target
	res, err := cp.CheckColor(models.CheckColorRequest{X: intPtr(7), Y: intPtr(8)})
	require.NoError(t, err)
	assert.True(t, res.Matches)
}

func TestPickColorCancelled(t *testing.T) {
	cp := NewColorPicker(platformtest.NewFake(), time.Hour, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := cp.PickColor(ctx)
	require.ErrorIs(t, err, context.Canceled)
	_, ok := cp.TriggerColor()
	assert.False(t, ok)
}
