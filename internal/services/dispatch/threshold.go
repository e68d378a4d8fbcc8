package dispatch

import (
	"citywatch-worker/internal/models"
)

// FilterActionable keeps aggregated detections whose max confidence meets
// the activation threshold. Input order is preserved, so filtering an
// already-filtered set at the same threshold returns it unchanged.
func FilterActionable(aggregated []models.AggregatedDetection, threshold float64) []models.AggregatedDetection {
	actionable := make([]models.AggregatedDetection, 0, len(aggregated))
	for _, agg := range aggregated {
		if agg.MaxConfidence >= threshold {
			actionable = append(actionable, agg)
		}
	}
	return actionable
}
