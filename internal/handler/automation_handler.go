package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"gamehub/automation-agent/internal/models"
	"gamehub/automation-agent/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxMacroFileSize = 8 << 20

type AutomationHandler struct {
	service *service.AutomationService
	logger  *zap.Logger
}

func NewAutomationHandler(service *service.AutomationService, logger *zap.Logger) *AutomationHandler {
	return &AutomationHandler{
		service: service,
		logger:  logger,
	}
}

// bindOptionalJSON decodes the body into dst; an empty body leaves dst as is
func bindOptionalJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func (h *AutomationHandler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Status())
}

func (h *AutomationHandler) StartRecording(c *gin.Context) {
	id, err := h.service.StartRecording()
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "started", "session_id": id})
}

func (h *AutomationHandler) StopRecording(c *gin.Context) {
	macro, err := h.service.StopRecording()
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if macro == nil {
		macro = models.Macro{}
	}
	c.JSON(http.StatusOK, gin.H{"status": "stopped", "macro": macro})
}

func (h *AutomationHandler) PlayMacro(c *gin.Context) {
	var req models.PlayMacroRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	id, err := h.service.PlayMacro(req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "playing", "session_id": id})
}

func (h *AutomationHandler) StopPlayback(c *gin.Context) {
	if err := h.service.StopPlayback(); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "stopped"})
}

func (h *AutomationHandler) StartBackgroundClicker(c *gin.Context) {
	var req models.BackgroundClickerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	id, err := h.service.StartBackgroundClicker(req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "started", "session_id": id})
}

func (h *AutomationHandler) ListWindows(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.ListWindows())
}

func (h *AutomationHandler) GetCursorInfo(c *gin.Context) {
	info, err := h.service.CursorInfo()
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// PickColor blocks for the configured delay, then captures the trigger colour
func (h *AutomationHandler) PickColor(c *gin.Context) {
	color, err := h.service.PickColor(c.Request.Context())
	if err != nil {
		if c.Request.Context().Err() != nil {
			h.logger.Debug("Colour pick abandoned by client")
			c.Abort()
			return
		}
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, color)
}

func (h *AutomationHandler) GetTriggerColor(c *gin.Context) {
	color, ok := h.service.TriggerColor()
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, ErrorResponse{Error: "no trigger colour captured", Code: "no_trigger_color"})
		return
	}
	c.JSON(http.StatusOK, color)
}

func (h *AutomationHandler) CheckColor(c *gin.Context) {
	var req models.CheckColorRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	result, err := h.service.CheckColor(req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// LoadMacro takes a raw macro file as the request body
func (h *AutomationHandler) LoadMacro(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxMacroFileSize)
	data, err := c.GetRawData()
	if err != nil {
		badRequest(c, "failed to read macro file: "+err.Error())
		return
	}

	macro, err := h.service.LoadMacro(data)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "loaded", "macro_length": len(macro)})
}

func (h *AutomationHandler) GetMacro(c *gin.Context) {
	macro := h.service.CurrentMacro()
	if macro == nil {
		macro = models.Macro{}
	}
	c.JSON(http.StatusOK, macro)
}

func (h *AutomationHandler) ListSessions(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			badRequest(c, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	sessions, err := h.service.ListSessions(limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, sessions)
}

func (h *AutomationHandler) GetSession(c *gin.Context) {
	session, err := h.service.GetSession(c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, session)
}
