package recorder

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"citywatch-worker/internal/models"
	"citywatch-worker/internal/storage"
)

// ErrAlertNotFound is returned when acknowledging an unknown alert id.
var ErrAlertNotFound = errors.New("alert not found")

// Service persists the detection and alert audit trail.
type Service struct {
	db *storage.DB
}

func NewService(db *storage.DB) *Service {
	return &Service{db: db}
}

// PersistDetection inserts one detection record and returns its id.
func (s *Service) PersistDetection(ctx context.Context, rec models.DetectionRecord) (int64, error) {
	history, err := json.Marshal(rec.ConfidenceHistory)
	if err != nil {
		return 0, fmt.Errorf("failed to encode confidence history: %w", err)
	}
	box, err := json.Marshal(rec.BoundingBox)
	if err != nil {
		return 0, fmt.Errorf("failed to encode bounding box: %w", err)
	}

	result, err := s.db.Conn().ExecContext(ctx, `
		INSERT INTO detections (label, confidence, timestamp, location, camera_id,
			email_sent, authority_email, next_email_allowed_at, frame_url,
			confidence_history, bounding_box)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.Label, rec.Confidence, rec.Timestamp, rec.Location, rec.CameraID,
		rec.EmailSent, rec.AuthorityEmail, rec.NextEmailAllowedAt, rec.FrameURL,
		string(history), string(box))
	if err != nil {
		return 0, fmt.Errorf("failed to insert detection: %w", err)
	}

	return result.LastInsertId()
}

// PersistAlert inserts one alert record linked to a detection.
func (s *Service) PersistAlert(ctx context.Context, rec models.AlertRecord) error {
	_, err := s.db.Conn().ExecContext(ctx, `
		INSERT INTO alerts (detection_id, authority_email, status, sent_at, acknowledged_at)
		VALUES (?, ?, ?, ?, ?)
	`, rec.DetectionID, rec.AuthorityEmail, string(rec.Status), rec.SentAt, rec.AcknowledgedAt)
	if err != nil {
		return fmt.Errorf("failed to insert alert: %w", err)
	}
	return nil
}

// Acknowledge stamps an alert as acknowledged. Acknowledgement comes from
// operators, never from the dispatch path.
func (s *Service) Acknowledge(ctx context.Context, alertID int64, at time.Time) error {
	result, err := s.db.Conn().ExecContext(ctx,
		`UPDATE alerts SET acknowledged_at = ? WHERE id = ?`, at, alertID)
	if err != nil {
		return fmt.Errorf("failed to acknowledge alert: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrAlertNotFound
	}
	return nil
}

// RecentAlerts returns the newest alerts, most recent first.
func (s *Service) RecentAlerts(ctx context.Context, limit int) ([]models.AlertRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Conn().QueryContext(ctx, `
		SELECT id, detection_id, authority_email, status, sent_at, acknowledged_at
		FROM alerts ORDER BY sent_at DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []models.AlertRecord
	for rows.Next() {
		var (
			rec    models.AlertRecord
			status string
			acked  sql.NullTime
		)
		if err := rows.Scan(&rec.ID, &rec.DetectionID, &rec.AuthorityEmail, &status, &rec.SentAt, &acked); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		rec.Status = models.AlertStatus(status)
		if acked.Valid {
			t := acked.Time
			rec.AcknowledgedAt = &t
		}
		alerts = append(alerts, rec)
	}
	return alerts, rows.Err()
}
