package dispatch

import (
	"citywatch-worker/internal/models"
)

// Aggregate collapses raw detections into one best-confidence record per
// label, in label discovery order. Labels compare case-sensitively here;
// case folding happens only when resolving a role. On equal max confidence
// the first occurrence wins (strict > when updating the max), so the
// earliest best box is the one retained.
func Aggregate(detections []models.RawDetection) []models.AggregatedDetection {
	if len(detections) == 0 {
		return nil
	}

	index := make(map[string]int, len(detections))
	aggregated := make([]models.AggregatedDetection, 0, len(detections))

	for _, det := range detections {
		i, seen := index[det.Label]
		if !seen {
			index[det.Label] = len(aggregated)
			aggregated = append(aggregated, models.AggregatedDetection{
				Label:             det.Label,
				MaxConfidence:     det.Confidence,
				ConfidenceHistory: []float64{det.Confidence},
				BestBoundingBox:   det.BoundingBox,
			})
			continue
		}

		agg := &aggregated[i]
		agg.ConfidenceHistory = append(agg.ConfidenceHistory, det.Confidence)
		if det.Confidence > agg.MaxConfidence {
			agg.MaxConfidence = det.Confidence
			agg.BestBoundingBox = det.BoundingBox
		}
	}

	return aggregated
}
