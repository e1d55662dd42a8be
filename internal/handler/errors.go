package handler

import (
	"errors"
	"net/http"

	"gamehub/automation-agent/internal/automation"
	"gamehub/automation-agent/internal/macrofile"
	"gamehub/automation-agent/internal/platform"
	"gamehub/automation-agent/internal/repository"
	"gamehub/automation-agent/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type errorKind struct {
	err    error
	status int
	code   string
}

// errorKinds is checked in order; the first match wins
var errorKinds = []errorKind{
	{automation.ErrAlreadyRecording, http.StatusConflict, "already_recording"},
	{automation.ErrNotRecording, http.StatusConflict, "not_recording"},
	{automation.ErrAlreadyPlaying, http.StatusConflict, "already_playing"},
	{automation.ErrEmptyMacro, http.StatusBadRequest, "empty_macro"},
	{automation.ErrInvalidMacro, http.StatusBadRequest, "invalid_macro"},
	{macrofile.ErrInvalidMacroFile, http.StatusBadRequest, "invalid_macro_file"},
	{automation.ErrInvalidInterval, http.StatusBadRequest, "invalid_interval"},
	{automation.ErrInvalidWindow, http.StatusBadRequest, "invalid_window"},
	{automation.ErrInvalidColor, http.StatusBadRequest, "invalid_color"},
	{automation.ErrTargetWindowLost, http.StatusUnprocessableEntity, "window_lost"},
	{platform.ErrWindowGone, http.StatusUnprocessableEntity, "window_lost"},
	{automation.ErrNoTriggerColor, http.StatusNotFound, "no_trigger_color"},
	{repository.ErrNotFound, http.StatusNotFound, "not_found"},
	{service.ErrHistoryDisabled, http.StatusNotFound, "history_disabled"},
	{platform.ErrUnsupported, http.StatusNotImplemented, "unsupported"},
}

func classify(err error) (int, string) {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.status, k.code
		}
	}
	return http.StatusInternalServerError, "internal"
}

// respondError writes err as JSON. Server-side failures are logged.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.String("code", code),
			zap.Error(err),
		)
	} else {
		logger.Debug("Request rejected",
			zap.String("path", c.FullPath()),
			zap.String("code", code),
			zap.Error(err),
		)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: err.Error(), Code: code})
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: message, Code: "invalid_request"})
}
