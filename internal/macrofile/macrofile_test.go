package macrofile

import (
	"testing"

	"gamehub/automation-agent/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRejectsNonArrays(t *testing.T) {
	cases := map[string]string{
		"string":  `"not an array"`,
		"object":  `{"type":"click","time":0}`,
		"number":  `42`,
		"garbage": `[{"type":`,
		"empty":   ``,
	}

	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(input))
			require.ErrorIs(t, err, ErrInvalidMacroFile)
		})
	}
}

func TestParseRejectsMalformedElements(t *testing.T) {
	cases := map[string]string{
		"scalar element":  `[1, 2]`,
		"missing time":    `[{"type":"click"}]`,
		"string time":     `[{"type":"click","time":"0.5"}]`,
		"missing type":    `[{"time":0}]`,
		"unknown type":    `[{"type":"teleport","time":0}]`,
		"time backwards":  `[{"type":"click","time":1},{"type":"click","time":0.5}]`,
		"key without key": `[{"type":"key_down","time":0}]`,
	}

	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(input))
			require.ErrorIs(t, err, ErrInvalidMacroFile)
		})
	}
}

func TestParseEmptyArray(t *testing.T) {
	macro, err := Parse([]byte(`[]`))
	require.NoError(t, err)
	assert.NotNil(t, macro)
	assert.Empty(t, macro)
}

func TestParseLegacyFormat(t *testing.T) {
	input := `[
		{"type":"move","x":10.4,"y":20,"time":0.0},
		{"type":"click","x":10,"y":20,"button":"Button.right","pressed":true,"time":0.1},
		{"type":"click","x":10,"y":20,"button":"Button.right","pressed":false,"time":0.2},
		{"type":"key_down","key":"'a'","time":0.3},
		{"type":"key_up","key":"Key.space","time":0.4},
		{"type":"click","time":0.5}
	]`

	macro, err := Parse([]byte(input))
	require.NoError(t, err)
	require.Len(t, macro, 6)

	assert.Equal(t, models.InputEvent{Type: models.EventMouseMove, X: 10, Y: 20, Time: 0}, macro[0])
	assert.Equal(t, models.EventMouseDown, macro[1].Type)
	assert.Equal(t, models.ButtonRight, macro[1].Button)
	assert.Equal(t, models.EventMouseUp, macro[2].Type)
	assert.Equal(t, "a", macro[3].Key)
	assert.Equal(t, "space", macro[4].Key)
	assert.Equal(t, models.EventClick, macro[5].Type)
	assert.Equal(t, models.ButtonLeft, macro[5].Button)
}

func TestEncodeThenParse(t *testing.T) {
	macro := models.Macro{
		{Type: models.EventMouseMove, X: 5, Y: 6, Time: 0},
		{Type: models.EventClick, X: 5, Y: 6, Button: models.ButtonLeft, Time: 0.25},
		{Type: models.EventKeyDown, Key: "enter", Time: 0.5},
	}

	data, err := Encode(macro)
	require.NoError(t, err)

	decoded, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, macro, decoded)
}

func TestEncodeNilMacro(t *testing.T) {
	data, err := Encode(nil)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))
}
