package detection

import (
	"sort"

	"citywatch-worker/internal/models"
)

const nmsIoUThreshold = 0.45

// decodeOutput turns the raw [1, 4+classes, anchors] model output into
// detections. Each anchor row holds cx, cy, w, h followed by per-class
// scores; the best class wins. Boxes are scaled back to the original
// frame and overlapping boxes of the same class are merged away.
func (s *Service) decodeOutput(raw []float32, scaleX, scaleY float64) []models.RawDetection {
	n := s.anchors
	var candidates []models.RawDetection

	for i := 0; i < n; i++ {
		bestClass := -1
		bestScore := float32(0)
		for c := 0; c < len(s.labels); c++ {
			score := raw[(4+c)*n+i]
			if score > bestScore {
				bestScore = score
				bestClass = c
			}
		}
		if bestClass < 0 {
			continue
		}

		label := s.labels[bestClass]
		confidence := float64(bestScore) * 100

		floor := s.minScore
		if override, ok := s.minScores[label]; ok {
			floor = override
		}
		if confidence < floor {
			continue
		}

		cx := float64(raw[0*n+i])
		cy := float64(raw[1*n+i])
		w := float64(raw[2*n+i])
		h := float64(raw[3*n+i])

		candidates = append(candidates, models.RawDetection{
			Label:      label,
			Confidence: confidence,
			BoundingBox: models.BoundingBox{
				(cx - w/2) * scaleX,
				(cy - h/2) * scaleY,
				(cx + w/2) * scaleX,
				(cy + h/2) * scaleY,
			},
		})
	}

	return nonMaxSuppress(candidates)
}

// nonMaxSuppress keeps the highest-confidence box among same-label boxes
// that overlap past the IoU threshold.
func nonMaxSuppress(detections []models.RawDetection) []models.RawDetection {
	if len(detections) <= 1 {
		return detections
	}

	order := make([]int, len(detections))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return detections[order[a]].Confidence > detections[order[b]].Confidence
	})

	suppressed := make([]bool, len(detections))
	var kept []models.RawDetection
	for oi, i := range order {
		if suppressed[i] {
			continue
		}
		kept = append(kept, detections[i])
		for _, j := range order[oi+1:] {
			if suppressed[j] || detections[j].Label != detections[i].Label {
				continue
			}
			if iou(detections[i].BoundingBox, detections[j].BoundingBox) > nmsIoUThreshold {
				suppressed[j] = true
			}
		}
	}
	return kept
}

func iou(a, b models.BoundingBox) float64 {
	interX1 := max(a[0], b[0])
	interY1 := max(a[1], b[1])
	interX2 := min(a[2], b[2])
	interY2 := min(a[3], b[3])

	interW := interX2 - interX1
	interH := interY2 - interY1
	if interW <= 0 || interH <= 0 {
		return 0
	}

	inter := interW * interH
	areaA := (a[2] - a[0]) * (a[3] - a[1])
	areaB := (b[2] - b[0]) * (b[3] - b[1])
	union := areaA + areaB - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}
