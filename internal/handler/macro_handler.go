package handler

import (
	"net/http"

	"gamehub/automation-agent/internal/models"
	"gamehub/automation-agent/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MacroHandler serves the saved macro library
type MacroHandler struct {
	service *service.AutomationService
	logger  *zap.Logger
}

func NewMacroHandler(service *service.AutomationService, logger *zap.Logger) *MacroHandler {
	return &MacroHandler{
		service: service,
		logger:  logger,
	}
}

func (h *MacroHandler) CreateMacro(c *gin.Context) {
	var req models.SaveMacroRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	if req.Name == "" {
		badRequest(c, "name is required")
		return
	}

	saved, err := h.service.SaveMacro(req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.logger.Info("Macro saved",
		zap.String("id", saved.ID),
		zap.String("name", saved.Name),
		zap.Int("events", saved.EventCount),
	)
	c.JSON(http.StatusCreated, saved)
}

func (h *MacroHandler) ListMacros(c *gin.Context) {
	macros, err := h.service.ListMacros()
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, macros)
}

func (h *MacroHandler) GetMacro(c *gin.Context) {
	saved, err := h.service.GetMacro(c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (h *MacroHandler) DeleteMacro(c *gin.Context) {
	if err := h.service.DeleteMacro(c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ActivateMacro makes a saved macro the current one
func (h *MacroHandler) ActivateMacro(c *gin.Context) {
	saved, err := h.service.ActivateMacro(c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "loaded", "macro_length": saved.EventCount})
}
