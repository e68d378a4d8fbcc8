package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"citywatch-worker/internal/config"
	"citywatch-worker/internal/services/detection"
	"citywatch-worker/internal/services/messaging"
)

type HealthHandler struct {
	cfg       *config.Config
	detector  *detection.Service
	messaging *messaging.Service
}

func NewHealthHandler(cfg *config.Config, detector *detection.Service, msg *messaging.Service) *HealthHandler {
	return &HealthHandler{
		cfg:       cfg,
		detector:  detector,
		messaging: msg,
	}
}

type HealthResponse struct {
	Status          string `json:"status" example:"healthy"`
	WorkerID        string `json:"worker_id" example:"worker-1"`
	DetectorHealthy bool   `json:"detector_healthy"`
	NatsConnected   bool   `json:"nats_connected"`
}

type WorkerInfoResponse struct {
	WorkerID     string   `json:"worker_id" example:"worker-1"`
	Status       string   `json:"status" example:"running"`
	Version      string   `json:"version" example:"1.0.0"`
	Capabilities []string `json:"capabilities"`
}

// @Summary Health check
// @Description Check if the worker and its collaborators are healthy
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	resp := HealthResponse{
		Status:   "healthy",
		WorkerID: h.cfg.WorkerID,
	}
	if h.detector != nil {
		resp.DetectorHealthy = h.detector.IsHealthy()
	}
	if h.messaging != nil {
		resp.NatsConnected = h.messaging.IsConnected()
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Worker information
// @Description Get basic worker information and capabilities
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} WorkerInfoResponse
// @Router / [get]
func (h *HealthHandler) WorkerInfo(c *gin.Context) {
	c.JSON(http.StatusOK, WorkerInfoResponse{
		WorkerID: h.cfg.WorkerID,
		Status:   "running",
		Version:  h.cfg.Version,
		Capabilities: []string{
			"frame_ingest",
			"onnx_detection",
			"alert_dispatch",
		},
	})
}
