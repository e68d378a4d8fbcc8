package detection

import (
	"context"
	"fmt"
	"image"
	"os"
	"sync"

	"github.com/rs/zerolog/log"
	ort "github.com/yalue/onnxruntime_go"
	"gocv.io/x/gocv"

	"citywatch-worker/internal/config"
	"citywatch-worker/internal/models"
)

// Service runs the detection model in-process through onnxruntime. One
// session is shared; Run is serialized because the session reuses its
// input and output tensors.
type Service struct {
	mu      sync.Mutex
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]

	labels    []string
	minScores map[string]float64
	inputSize int
	anchors   int
	minScore  float64
	healthy   bool
}

func NewService(cfg *config.Config) (*Service, error) {
	log.Info().
		Str("model", cfg.ModelPath).
		Str("labels", cfg.ModelLabelsPath).
		Msg("Initializing detection service")

	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("model file missing at %s: %w", cfg.ModelPath, err)
	}

	labels, minScores, err := loadLabelConfig(cfg.ModelLabelsPath)
	if err != nil {
		return nil, fmt.Errorf("load label config: %w", err)
	}

	if libPath := os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH"); libPath != "" {
		ort.SetSharedLibraryPath(libPath)
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("initialize onnxruntime: %w", err)
		}
	}

	size := cfg.ModelInputSize
	if size <= 0 {
		size = 640
	}
	// One anchor per cell on the 8, 16 and 32 stride grids.
	anchors := (size/8)*(size/8) + (size/16)*(size/16) + (size/32)*(size/32)

	input, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 3, int64(size), int64(size)))
	if err != nil {
		return nil, fmt.Errorf("allocate input tensor: %w", err)
	}
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(4+len(labels)), int64(anchors)))
	if err != nil {
		input.Destroy()
		return nil, fmt.Errorf("allocate output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		cfg.ModelPath,
		[]string{"images"},
		[]string{"output0"},
		[]ort.Value{input},
		[]ort.Value{output},
		nil,
	)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, fmt.Errorf("create onnx session: %w", err)
	}

	log.Info().
		Strs("labels", labels).
		Int("input_size", size).
		Msg("Detection model loaded")

	return &Service{
		session:   session,
		input:     input,
		output:    output,
		labels:    labels,
		minScores: minScores,
		inputSize: size,
		anchors:   anchors,
		minScore:  cfg.MinScore,
		healthy:   true,
	}, nil
}

// Detect runs inference on one JPEG frame and returns raw detections with
// confidences scaled to 0-100 and boxes in original pixel coordinates.
func (s *Service) Detect(ctx context.Context, frame []byte) ([]models.RawDetection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := gocv.IMDecode(frame, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	defer img.Close()
	if img.Empty() {
		return nil, fmt.Errorf("decode frame: empty image")
	}

	origW := float64(img.Cols())
	origH := float64(img.Rows())

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(img, &resized, image.Pt(s.inputSize, s.inputSize), 0, 0, gocv.InterpolationLinear)

	pixels := resized.ToBytes()

	s.mu.Lock()
	s.fillInput(pixels)
	err = s.session.Run()
	if err != nil {
		s.healthy = false
		s.mu.Unlock()
		return nil, fmt.Errorf("inference run: %w", err)
	}
	raw := make([]float32, len(s.output.GetData()))
	copy(raw, s.output.GetData())
	s.healthy = true
	s.mu.Unlock()

	scaleX := origW / float64(s.inputSize)
	scaleY := origH / float64(s.inputSize)

	return s.decodeOutput(raw, scaleX, scaleY), nil
}

// fillInput converts BGR HWC bytes to normalized RGB CHW floats in the
// session's input tensor. Caller holds the mutex.
func (s *Service) fillInput(pixels []byte) {
	data := s.input.GetData()
	plane := s.inputSize * s.inputSize
	for pos := 0; pos < plane; pos++ {
		b := float32(pixels[pos*3]) / 255.0
		g := float32(pixels[pos*3+1]) / 255.0
		r := float32(pixels[pos*3+2]) / 255.0
		data[pos] = r
		data[plane+pos] = g
		data[2*plane+pos] = b
	}
}

func (s *Service) IsHealthy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.healthy
}

func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log.Info().Msg("Shutting down detection service")
	if s.session != nil {
		s.session.Destroy()
		s.session = nil
	}
	if s.input != nil {
		s.input.Destroy()
		s.input = nil
	}
	if s.output != nil {
		s.output.Destroy()
		s.output = nil
	}
	return nil
}
