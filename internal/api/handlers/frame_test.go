package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"gocv.io/x/gocv"

	"citywatch-worker/internal/models"
	"citywatch-worker/internal/services/directory"
)

type fakeProcessor struct {
	result   models.DispatchResult
	err      error
	cameraID string
	frame    []byte
}

func (f *fakeProcessor) ProcessFrame(_ context.Context, frame []byte, cameraID string) (models.DispatchResult, error) {
	f.cameraID = cameraID
	f.frame = frame
	return f.result, f.err
}

func newFrameRouter(p FrameProcessor) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/frames", NewFrameHandler(p).SubmitFrame)
	return r
}

func testJPEG(t *testing.T) []byte {
	t.Helper()
	img := gocv.NewMatWithSize(32, 32, gocv.MatTypeCV8UC3)
	defer img.Close()
	buf, err := gocv.IMEncode(".jpg", img)
	if err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	defer buf.Close()
	out := make([]byte, len(buf.GetBytes()))
	copy(out, buf.GetBytes())
	return out
}

func frameRequest(t *testing.T, cameraID string, frame []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if cameraID != "" {
		if err := w.WriteField("camera_id", cameraID); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if frame != nil {
		part, err := w.CreateFormFile("frame", "frame.jpg")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write(frame); err != nil {
			t.Fatalf("write frame: %v", err)
		}
	}
	w.Close()

	req := httptest.NewRequest(http.MethodPost, "/frames", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestSubmitFrame(t *testing.T) {
	processor := &fakeProcessor{result: models.DispatchResult{AlertsSent: 1, ActionableLabels: 1}}
	router := newFrameRouter(processor)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, frameRequest(t, "cam-1", testJPEG(t)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if processor.cameraID != "cam-1" {
		t.Errorf("processor received camera %q, want cam-1", processor.cameraID)
	}
	if len(processor.frame) == 0 {
		t.Error("processor received empty frame")
	}

	var resp struct {
		Message string                `json:"message"`
		Result  models.DispatchResult `json:"result"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Message != "frame processed" || resp.Result.AlertsSent != 1 {
		t.Errorf("response = %+v", resp)
	}
}

func TestSubmitFrameMissingCameraID(t *testing.T) {
	router := newFrameRouter(&fakeProcessor{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, frameRequest(t, "", testJPEG(t)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestSubmitFrameMissingFrame(t *testing.T) {
	router := newFrameRouter(&fakeProcessor{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, frameRequest(t, "cam-1", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestSubmitFrameUndecodableImage(t *testing.T) {
	processor := &fakeProcessor{}
	router := newFrameRouter(processor)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, frameRequest(t, "cam-1", []byte("not an image")))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if processor.cameraID != "" {
		t.Error("pipeline must not run for an undecodable frame")
	}
}

func TestSubmitFrameUnknownCamera(t *testing.T) {
	processor := &fakeProcessor{err: fmt.Errorf("camera lookup for %q: %w", "cam-x", directory.ErrCameraNotFound)}
	router := newFrameRouter(processor)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, frameRequest(t, "cam-x", testJPEG(t)))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestSubmitFramePipelineFailure(t *testing.T) {
	processor := &fakeProcessor{err: errors.New("inference: session gone")}
	router := newFrameRouter(processor)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, frameRequest(t, "cam-1", testJPEG(t)))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}
