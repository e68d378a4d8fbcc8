package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"citywatch-worker/internal/services/dispatch"
	"citywatch-worker/internal/websocket"
)

// SystemHandler handles system-related endpoints
type SystemHandler struct {
	WorkerID   string
	dispatcher *dispatch.Service
	hub        *websocket.Hub
}

// NewSystemHandler creates a new system handler
func NewSystemHandler(workerID string, dispatcher *dispatch.Service, hub *websocket.Hub) *SystemHandler {
	return &SystemHandler{
		WorkerID:   workerID,
		dispatcher: dispatcher,
		hub:        hub,
	}
}

// @Summary Get system stats
// @Description Get system statistics and performance metrics
// @Tags system
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /system/stats [get]
func (h *SystemHandler) GetStats(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats": gin.H{
			"worker_id":     h.WorkerID,
			"memory_mb":     m.Alloc / 1024 / 1024,
			"cpu_cores":     runtime.NumCPU(),
			"goroutines":    runtime.NumGoroutine(),
			"go_version":    runtime.Version(),
			"cooldown_keys": h.dispatcher.Ledger().Len(),
			"feed_clients":  h.hub.ClientCount(),
		},
		"timestamp": time.Now().Unix(),
	})
}
