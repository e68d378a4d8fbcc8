package models

import (
	"time"
)

// Role is a responsibility category that recipients are looked up by.
type Role string

const (
	RoleFireDepartment  Role = "fire_department"
	RoleLawEnforcement  Role = "law_enforcement"
	RoleMedicalServices Role = "medical_services"
	RoleRoadMaintenance Role = "road_maintenance"
	RoleUnknown         Role = ""
)

// Canonical labels the role table knows about. The detector may emit
// arbitrary labels; anything outside this set resolves to RoleUnknown.
const (
	LabelFire     = "fire"
	LabelSmoke    = "smoke"
	LabelGun      = "gun"
	LabelAccident = "accident"
	LabelPothole  = "pothole"
)

// BoundingBox holds x1, y1, x2, y2 pixel coordinates.
type BoundingBox [4]float64

// RawDetection is a single model output for one frame. Confidence is a
// percentage in [0, 100].
type RawDetection struct {
	Label       string      `json:"label"`
	Confidence  float64     `json:"confidence"`
	BoundingBox BoundingBox `json:"bounding_box"`
}

// AggregatedDetection collapses all raw detections of one label in a frame
// to the best-confidence record. ConfidenceHistory keeps every confidence
// in detection order; MaxConfidence is always its maximum and
// BestBoundingBox belongs to the detection that produced it.
type AggregatedDetection struct {
	Label             string      `json:"label"`
	MaxConfidence     float64     `json:"max_confidence"`
	ConfidenceHistory []float64   `json:"confidence_history"`
	BestBoundingBox   BoundingBox `json:"best_bounding_box"`
}

// Camera is a registered camera with its installed location.
type Camera struct {
	ID       string `json:"id"`
	Location string `json:"location"`
}

// Recipient is an authority identity alerts are delivered to.
type Recipient struct {
	Email string `json:"email"`
}

// FrameMetadata carries frame-level context through dispatch.
type FrameMetadata struct {
	CameraID  string    `json:"camera_id"`
	Location  string    `json:"location"`
	Timestamp time.Time `json:"timestamp"`
}

// DispatchResult summarizes what one frame's processing did.
type DispatchResult struct {
	TotalDetections  int      `json:"total_detections"`
	AggregatedLabels int      `json:"aggregated_labels"`
	ActionableLabels int      `json:"actionable_labels"`
	AlertsSent       int      `json:"alerts_sent"`
	Suppressed       int      `json:"suppressed"`
	SkippedLabels    int      `json:"skipped_labels"`
	Errors           []string `json:"errors,omitempty"`
}
