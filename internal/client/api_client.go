package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"gamehub/automation-agent/internal/models"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// APIClient talks to a running automation agent
type APIClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewAPIClient creates a new API client
func NewAPIClient(baseURL string, timeout time.Duration, logger *zap.Logger) *APIClient {
	return &APIClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// APIError is a non-2xx answer from the agent
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("agent returned status %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("agent returned status %d: %s", e.StatusCode, e.Message)
}

// IsConflict reports whether the agent refused because of its current state
func (e *APIError) IsConflict() bool {
	return e.StatusCode == http.StatusConflict
}

type startResponse struct {
	Status    string `json:"status"`
	SessionID string `json:"session_id"`
}

func (c *APIClient) do(method, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequest(method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(startTime)
	if err != nil {
		c.logger.Debug("Request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug("Request completed",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status_code", resp.StatusCode),
		zap.Duration("duration", duration),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: string(data)}
		if gjson.ValidBytes(data) {
			if msg := gjson.GetBytes(data, "error"); msg.Exists() {
				apiErr.Message = msg.String()
			}
			apiErr.Code = gjson.GetBytes(data, "code").String()
		}
		return apiErr
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func (c *APIClient) doJSON(method, path string, in, out any) error {
	if in == nil {
		return c.do(method, path, "", nil, out)
	}
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	return c.do(method, path, "application/json", bytes.NewReader(data), out)
}

// HealthCheck checks if the agent is reachable
func (c *APIClient) HealthCheck() error {
	return c.doJSON(http.MethodGet, "/health", nil, nil)
}

func (c *APIClient) Status() (*models.AutomationStatus, error) {
	var st models.AutomationStatus
	if err := c.doJSON(http.MethodGet, "/status", nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// StartRecording returns the recording session id
func (c *APIClient) StartRecording() (string, error) {
	var resp startResponse
	if err := c.doJSON(http.MethodPost, "/start-recording", nil, &resp); err != nil {
		return "", err
	}
	return resp.SessionID, nil
}

func (c *APIClient) StopRecording() (models.Macro, error) {
	var resp struct {
		Macro models.Macro `json:"macro"`
	}
	if err := c.doJSON(http.MethodPost, "/stop-recording", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Macro, nil
}

// PlayMacro starts playback and returns the session id
func (c *APIClient) PlayMacro(req models.PlayMacroRequest) (string, error) {
	var resp startResponse
	if err := c.doJSON(http.MethodPost, "/play-macro", req, &resp); err != nil {
		return "", err
	}
	return resp.SessionID, nil
}

func (c *APIClient) StopPlayback() error {
	return c.doJSON(http.MethodPost, "/stop-playback", nil, nil)
}

func (c *APIClient) StartBackgroundClicker(hwnd models.WindowHandle, interval time.Duration) (string, error) {
	var resp startResponse
	req := models.BackgroundClickerRequest{Hwnd: hwnd, Interval: interval.Milliseconds()}
	if err := c.doJSON(http.MethodPost, "/start-background-clicker", req, &resp); err != nil {
		return "", err
	}
	return resp.SessionID, nil
}

func (c *APIClient) Windows() ([]models.WindowInfo, error) {
	var windows []models.WindowInfo
	if err := c.doJSON(http.MethodGet, "/windows", nil, &windows); err != nil {
		return nil, err
	}
	return windows, nil
}

func (c *APIClient) CursorInfo() (*models.CursorInfo, error) {
	var info models.CursorInfo
	if err := c.doJSON(http.MethodGet, "/get-cursor-info", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// PickColor blocks while the agent waits out its pick delay
func (c *APIClient) PickColor() (*models.TriggerColor, error) {
	var color models.TriggerColor
	if err := c.doJSON(http.MethodPost, "/pick-color", nil, &color); err != nil {
		return nil, err
	}
	return &color, nil
}

func (c *APIClient) CheckColor(req models.CheckColorRequest) (*models.CheckColorResult, error) {
	var result models.CheckColorResult
	if err := c.doJSON(http.MethodPost, "/check-color", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// LoadMacroFile sends a raw macro file and returns the new macro length
func (c *APIClient) LoadMacroFile(data []byte) (int, error) {
	var resp struct {
		MacroLength int `json:"macro_length"`
	}
	if err := c.do(http.MethodPost, "/load-macro", "application/json", bytes.NewReader(data), &resp); err != nil {
		return 0, err
	}
	return resp.MacroLength, nil
}

func (c *APIClient) CurrentMacro() (models.Macro, error) {
	var macro models.Macro
	if err := c.doJSON(http.MethodGet, "/macro", nil, &macro); err != nil {
		return nil, err
	}
	return macro, nil
}

func (c *APIClient) SaveMacro(req models.SaveMacroRequest) (*models.SavedMacro, error) {
	var saved models.SavedMacro
	if err := c.doJSON(http.MethodPost, "/macros", req, &saved); err != nil {
		return nil, err
	}
	return &saved, nil
}

func (c *APIClient) ListMacros() ([]models.SavedMacro, error) {
	var macros []models.SavedMacro
	if err := c.doJSON(http.MethodGet, "/macros", nil, &macros); err != nil {
		return nil, err
	}
	return macros, nil
}

func (c *APIClient) ActivateMacro(id string) error {
	return c.doJSON(http.MethodPost, "/macros/"+url.PathEscape(id)+"/activate", nil, nil)
}

func (c *APIClient) DeleteMacro(id string) error {
	return c.doJSON(http.MethodDelete, "/macros/"+url.PathEscape(id), nil, nil)
}

// Sessions lists recent sessions; limit 0 uses the agent's default
func (c *APIClient) Sessions(limit int) ([]models.Session, error) {
	path := "/sessions"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var sessions []models.Session
	if err := c.doJSON(http.MethodGet, path, nil, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}
