// Package macrofile reads and writes the JSON macro files the desktop UI
// imports and exports.
package macrofile

import (
	"encoding/json"
	"errors"
	"fmt"

	"gamehub/automation-agent/internal/models"

	"github.com/tidwall/gjson"
)

// ErrInvalidMacroFile is returned for anything that is not a JSON array of events
var ErrInvalidMacroFile = errors.New("invalid macro file")

// Parse decodes a macro file. The input must be a JSON array whose elements
// carry at least a string "type" and a numeric "time".
func Parse(data []byte) (models.Macro, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: not valid JSON", ErrInvalidMacroFile)
	}

	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return nil, fmt.Errorf("%w: expected a JSON array", ErrInvalidMacroFile)
	}

	var shapeErr error
	index := 0
	root.ForEach(func(_, value gjson.Result) bool {
		if !value.IsObject() {
			shapeErr = fmt.Errorf("%w: element %d is not an object", ErrInvalidMacroFile, index)
			return false
		}
		if t := value.Get("type"); t.Type != gjson.String {
			shapeErr = fmt.Errorf("%w: element %d has no string type", ErrInvalidMacroFile, index)
			return false
		}
		if t := value.Get("time"); t.Type != gjson.Number {
			shapeErr = fmt.Errorf("%w: element %d has no numeric time", ErrInvalidMacroFile, index)
			return false
		}
		index++
		return true
	})
	if shapeErr != nil {
		return nil, shapeErr
	}

	macro := models.Macro{}
	if err := json.Unmarshal(data, &macro); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMacroFile, err)
	}
	if err := macro.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMacroFile, err)
	}

	return macro, nil
}

// Encode renders a macro in the file format, indented for humans
func Encode(macro models.Macro) ([]byte, error) {
	if macro == nil {
		macro = models.Macro{}
	}
	data, err := json.MarshalIndent(macro, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode macro: %w", err)
	}
	return data, nil
}
