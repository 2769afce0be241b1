package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"

	"github.com/vidgrab/vidgrab/internal/services/ytdlp"
)

type HealthHandler struct {
	engine  ytdlp.Client
	fs      afero.Fs
	tempDir string
}

type HealthResponse struct {
	Status    string                   `json:"status"`
	Timestamp string                   `json:"timestamp"`
	Version   string                   `json:"version"`
	Services  map[string]ServiceHealth `json:"services"`
}

type ServiceHealth struct {
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
	Error  string `json:"error,omitempty"`
}

func NewHealthHandler(engine ytdlp.Client, fs afero.Fs, tempDir string) *HealthHandler {
	return &HealthHandler{
		engine:  engine,
		fs:      fs,
		tempDir: tempDir,
	}
}

// Health godoc
// @Summary Health check endpoint
// @Description Check the health of the service and its dependencies
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Success 503 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	ctx := c.Request.Context()

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
		Version:   "1.0.0",
		Services:  make(map[string]ServiceHealth),
	}

	response.Services["extractor"] = h.checkExtractor()
	response.Services["storage"] = h.checkStorage(ctx)

	for _, service := range response.Services {
		if service.Status != "healthy" {
			response.Status = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, response)
			return
		}
	}

	c.JSON(http.StatusOK, response)
}

// Readiness godoc
// @Summary Readiness check endpoint
// @Description Check if the service is ready to accept requests
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Success 503 {object} map[string]interface{}
// @Router /ready [get]
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx := c.Request.Context()

	ready := true
	checks := make(map[string]interface{})

	if storage := h.checkStorage(ctx); storage.Status != "healthy" {
		ready = false
		checks["storage"] = map[string]interface{}{
			"ready": false,
			"error": storage.Error,
		}
	} else {
		checks["storage"] = map[string]interface{}{"ready": true}
	}

	response := map[string]interface{}{
		"ready":     ready,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}

	if ready {
		c.JSON(http.StatusOK, response)
	} else {
		c.JSON(http.StatusServiceUnavailable, response)
	}
}

// Liveness godoc
// @Summary Liveness check endpoint
// @Description Check if the service is alive
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /live [get]
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, map[string]interface{}{
		"alive":     true,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (h *HealthHandler) checkExtractor() ServiceHealth {
	path := h.engine.BinaryPath()
	if path == "" {
		return ServiceHealth{
			Status: "unhealthy",
			Error:  "extraction binary not resolved",
		}
	}
	return ServiceHealth{
		Status: "healthy",
		Detail: path,
	}
}

func (h *HealthHandler) checkStorage(_ context.Context) ServiceHealth {
	info, err := h.fs.Stat(h.tempDir)
	if err != nil || !info.IsDir() {
		return ServiceHealth{
			Status: "unhealthy",
			Error:  "artifact directory unavailable",
		}
	}
	return ServiceHealth{
		Status: "healthy",
		Detail: h.tempDir,
	}
}
