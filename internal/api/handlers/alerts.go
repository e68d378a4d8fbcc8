package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"citywatch-worker/internal/models"
	"citywatch-worker/internal/services/recorder"
)

// AlertStore is the audit surface the alert endpoints need.
type AlertStore interface {
	RecentAlerts(ctx context.Context, limit int) ([]models.AlertRecord, error)
	Acknowledge(ctx context.Context, alertID int64, at time.Time) error
}

type AlertsHandler struct {
	store AlertStore
}

func NewAlertsHandler(store AlertStore) *AlertsHandler {
	return &AlertsHandler{store: store}
}

// RecentAlerts lists recently dispatched alerts
// @Summary List recent alerts
// @Description Get the most recently dispatched alerts, newest first
// @Tags alerts
// @Produce json
// @Param limit query int false "Max alerts to return" default(50)
// @Success 200 {array} models.AlertRecord
// @Failure 500 {object} map[string]string
// @Router /alerts/recent [get]
func (h *AlertsHandler) RecentAlerts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	alerts, err := h.store.RecentAlerts(c.Request.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to query recent alerts")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"alerts": alerts, "count": len(alerts)})
}

// Acknowledge marks an alert as acknowledged
// @Summary Acknowledge an alert
// @Description Stamp an alert with an acknowledgement time
// @Tags alerts
// @Produce json
// @Param id path int true "Alert ID"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /alerts/{id}/ack [post]
func (h *AlertsHandler) Acknowledge(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid alert id"})
		return
	}

	if err := h.store.Acknowledge(c.Request.Context(), id, time.Now()); err != nil {
		if errors.Is(err, recorder.ErrAlertNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "alert not found"})
			return
		}
		log.Error().Err(err).Int64("alert_id", id).Msg("Failed to acknowledge alert")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	log.Info().Int64("alert_id", id).Msg("Alert acknowledged")
	c.JSON(http.StatusOK, gin.H{"message": "alert acknowledged"})
}
