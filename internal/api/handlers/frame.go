package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gocv.io/x/gocv"

	"citywatch-worker/internal/models"
	"citywatch-worker/internal/services/directory"
)

// FrameProcessor runs the detection and dispatch pipeline for one frame.
type FrameProcessor interface {
	ProcessFrame(ctx context.Context, frame []byte, cameraID string) (models.DispatchResult, error)
}

type FrameHandler struct {
	processor FrameProcessor
}

func NewFrameHandler(processor FrameProcessor) *FrameHandler {
	return &FrameHandler{processor: processor}
}

// SubmitFrame accepts one frame for processing
// @Summary Submit a camera frame
// @Description Run detection on a single frame and dispatch alerts for actionable labels
// @Tags frames
// @Accept mpfd
// @Produce json
// @Param frame formData file true "Frame image"
// @Param camera_id formData string true "Camera ID"
// @Success 200 {object} models.DispatchResult
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /frames [post]
func (h *FrameHandler) SubmitFrame(c *gin.Context) {
	cameraID := c.PostForm("camera_id")
	if cameraID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "camera_id is required"})
		return
	}

	file, _, err := c.Request.FormFile("frame")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "frame is required"})
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil || len(raw) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "frame is required"})
		return
	}

	// Decode up front so an undecodable upload is rejected before any
	// state is touched, and re-encode to a canonical JPEG for the
	// pipeline.
	img, err := gocv.IMDecode(raw, gocv.IMReadColor)
	if err != nil || img.Empty() {
		if err == nil {
			img.Close()
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid image"})
		return
	}
	jpeg, err := gocv.IMEncode(".jpg", img)
	img.Close()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid image"})
		return
	}
	frame := make([]byte, len(jpeg.GetBytes()))
	copy(frame, jpeg.GetBytes())
	jpeg.Close()

	result, err := h.processor.ProcessFrame(c.Request.Context(), frame, cameraID)
	if err != nil {
		if errors.Is(err, directory.ErrCameraNotFound) {
			log.Warn().Str("camera_id", cameraID).Msg("Frame for unknown camera rejected")
			c.JSON(http.StatusNotFound, gin.H{"error": "camera not found"})
			return
		}
		log.Error().Err(err).Str("camera_id", cameraID).Msg("Frame processing failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "frame processed",
		"result":  result,
	})
}
