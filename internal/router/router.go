package router

import (
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"gamehub/automation-agent/internal/handler"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers groups everything the router mounts
type Handlers struct {
	Automation *handler.AutomationHandler
	Macros     *handler.MacroHandler
	Stream     http.Handler
}

func New(h Handlers, allowedOrigins []string, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(Recovery(logger), RequestLogger(logger), CORSMiddleware(allowedOrigins))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	a := h.Automation
	r.GET("/status", a.GetStatus)
	r.POST("/start-recording", a.StartRecording)
	r.POST("/stop-recording", a.StopRecording)
	r.POST("/play-macro", a.PlayMacro)
	r.POST("/stop-playback", a.StopPlayback)
	r.POST("/start-background-clicker", a.StartBackgroundClicker)
	r.GET("/get-cursor-info", a.GetCursorInfo)
	r.GET("/windows", a.ListWindows)
	r.POST("/check-color", a.CheckColor)
	r.POST("/pick-color", a.PickColor)
	r.GET("/trigger-color", a.GetTriggerColor)
	r.POST("/load-macro", a.LoadMacro)
	r.GET("/macro", a.GetMacro)
	r.GET("/sessions", a.ListSessions)
	r.GET("/sessions/:id", a.GetSession)

	macros := r.Group("/macros")
	{
		macros.GET("", h.Macros.ListMacros)
		macros.POST("", h.Macros.CreateMacro)
		macros.GET("/:id", h.Macros.GetMacro)
		macros.DELETE("/:id", h.Macros.DeleteMacro)
		macros.POST("/:id/activate", h.Macros.ActivateMacro)
	}

	if h.Stream != nil {
		r.GET("/ws", gin.WrapH(h.Stream))
	}

	return r
}

// CORSMiddleware answers preflight requests and allows the configured
// origins. "*" or an empty list allows any origin.
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowAll := len(allowedOrigins) == 0
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[strings.TrimSpace(o)] = true
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		switch {
		case allowAll:
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "" && allowed[origin]:
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Add("Vary", "Origin")
		}
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, DELETE")
		c.Writer.Header().Set("Access-Control-Max-Age", "3600")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// RequestLogger logs one line per request. Polled endpoints log at debug.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("remote_addr", c.ClientIP()),
		}

		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			logger.Warn("HTTP request", fields...)
		case isPolled(c.Request.URL.Path):
			logger.Debug("HTTP request", fields...)
		default:
			logger.Info("HTTP request", fields...)
		}
	}
}

func isPolled(path string) bool {
	switch path {
	case "/status", "/get-cursor-info", "/health", "/check-color":
		return true
	}
	return false
}

// Recovery turns handler panics into 500 responses
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("Panic in HTTP handler",
					zap.Any("panic", rec),
					zap.String("path", c.Request.URL.Path),
					zap.ByteString("stack", debug.Stack()),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, handler.ErrorResponse{
					Error: "internal server error",
					Code:  "internal",
				})
			}
		}()
		c.Next()
	}
}
