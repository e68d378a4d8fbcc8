package models

import (
	"time"
)

// AlertStatus tracks the delivery state of an alert record.
type AlertStatus string

const (
	AlertStatusSent AlertStatus = "sent"
)

// CooldownKey identifies one (label, recipient) pair in the cooldown ledger.
type CooldownKey struct {
	Label     string
	Recipient string
}

// String returns a string representation of the cooldown key.
func (k CooldownKey) String() string {
	return k.Label + "|" + k.Recipient
}

// DetectionRecord is the immutable audit entry persisted for every
// notification actually sent. Field layout mirrors the detections table.
type DetectionRecord struct {
	ID                 int64       `json:"id,omitempty"`
	Label              string      `json:"label"`
	Confidence         float64     `json:"confidence"`
	Timestamp          time.Time   `json:"timestamp"`
	Location           string      `json:"location"`
	CameraID           string      `json:"camera_id"`
	EmailSent          bool        `json:"email_sent"`
	AuthorityEmail     string      `json:"authority_email"`
	NextEmailAllowedAt time.Time   `json:"next_email_allowed_at"`
	FrameURL           string      `json:"frame_url,omitempty"`
	ConfidenceHistory  []float64   `json:"confidence_history"`
	BoundingBox        BoundingBox `json:"bounding_box"`
}

// AlertRecord links a sent notification back to its detection record.
// AcknowledgedAt stays nil until an operator acknowledges the alert.
type AlertRecord struct {
	ID             int64       `json:"id,omitempty"`
	DetectionID    int64       `json:"detection_id"`
	AuthorityEmail string      `json:"authority_email"`
	Status         AlertStatus `json:"status"`
	SentAt         time.Time   `json:"sent_at"`
	AcknowledgedAt *time.Time  `json:"acknowledged_at"`
}

// AlertEvent is the payload published on NATS and broadcast to websocket
// clients for every dispatched alert.
type AlertEvent struct {
	DetectionID int64     `json:"detection_id,omitempty"`
	CameraID    string    `json:"camera_id"`
	Label       string    `json:"label"`
	Confidence  float64   `json:"confidence"`
	Location    string    `json:"location"`
	Recipient   string    `json:"recipient"`
	Role        Role      `json:"role"`
	FrameURL    string    `json:"frame_url,omitempty"`
	SentAt      time.Time `json:"sent_at"`
}

// MessagePublisher publishes alert events to downstream consumers.
type MessagePublisher interface {
	Publish(subject string, data interface{}) error
}
