package recorder

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"citywatch-worker/internal/models"
	"citywatch-worker/internal/storage"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewService(db)
}

func sampleDetection(ts time.Time) models.DetectionRecord {
	return models.DetectionRecord{
		Label:              "fire",
		Confidence:         87.5,
		Timestamp:          ts,
		Location:           "Main St & 5th",
		CameraID:           "cam-1",
		EmailSent:          true,
		AuthorityEmail:     "chief@fd.example",
		NextEmailAllowedAt: ts.Add(3 * time.Hour),
		FrameURL:           "http://worker.example/artifacts/fire_20250601_120000.jpg",
		ConfidenceHistory:  []float64{70, 87.5},
		BoundingBox:        models.BoundingBox{10, 20, 110, 220},
	}
}

func TestPersistDetectionReturnsSequentialIDs(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	first, err := svc.PersistDetection(ctx, sampleDetection(ts))
	if err != nil {
		t.Fatalf("persist detection: %v", err)
	}
	second, err := svc.PersistDetection(ctx, sampleDetection(ts.Add(time.Minute)))
	if err != nil {
		t.Fatalf("persist detection: %v", err)
	}

	if first <= 0 {
		t.Errorf("first id = %d, want positive", first)
	}
	if second != first+1 {
		t.Errorf("second id = %d, want %d", second, first+1)
	}
}

func TestPersistAndListAlerts(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	detID, err := svc.PersistDetection(ctx, sampleDetection(ts))
	if err != nil {
		t.Fatalf("persist detection: %v", err)
	}

	for i := 0; i < 3; i++ {
		err := svc.PersistAlert(ctx, models.AlertRecord{
			DetectionID:    detID,
			AuthorityEmail: "chief@fd.example",
			Status:         models.AlertStatusSent,
			SentAt:         ts.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("persist alert %d: %v", i, err)
		}
	}

	alerts, err := svc.RecentAlerts(ctx, 2)
	if err != nil {
		t.Fatalf("recent alerts: %v", err)
	}
	if len(alerts) != 2 {
		t.Fatalf("alerts = %d, want limit of 2", len(alerts))
	}
	if !alerts[0].SentAt.After(alerts[1].SentAt) {
		t.Errorf("alerts not ordered newest first: %v then %v", alerts[0].SentAt, alerts[1].SentAt)
	}
	if alerts[0].Status != models.AlertStatusSent {
		t.Errorf("status = %q, want %q", alerts[0].Status, models.AlertStatusSent)
	}
	if alerts[0].AcknowledgedAt != nil {
		t.Error("fresh alert must not be acknowledged")
	}
}

func TestRecentAlertsDefaultLimit(t *testing.T) {
	svc := newTestService(t)

	alerts, err := svc.RecentAlerts(context.Background(), 0)
	if err != nil {
		t.Fatalf("recent alerts: %v", err)
	}
	if len(alerts) != 0 {
		t.Errorf("alerts = %d, want 0 on empty store", len(alerts))
	}
}

func TestAcknowledge(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	detID, err := svc.PersistDetection(ctx, sampleDetection(ts))
	if err != nil {
		t.Fatalf("persist detection: %v", err)
	}
	if err := svc.PersistAlert(ctx, models.AlertRecord{
		DetectionID:    detID,
		AuthorityEmail: "chief@fd.example",
		Status:         models.AlertStatusSent,
		SentAt:         ts,
	}); err != nil {
		t.Fatalf("persist alert: %v", err)
	}

	alerts, err := svc.RecentAlerts(ctx, 1)
	if err != nil || len(alerts) != 1 {
		t.Fatalf("recent alerts: %v (%d)", err, len(alerts))
	}

	ackedAt := ts.Add(10 * time.Minute)
	if err := svc.Acknowledge(ctx, alerts[0].ID, ackedAt); err != nil {
		t.Fatalf("acknowledge: %v", err)
	}

	alerts, err = svc.RecentAlerts(ctx, 1)
	if err != nil {
		t.Fatalf("recent alerts: %v", err)
	}
	if alerts[0].AcknowledgedAt == nil {
		t.Fatal("acknowledged timestamp not persisted")
	}
	if !alerts[0].AcknowledgedAt.Equal(ackedAt) {
		t.Errorf("acknowledged at %v, want %v", alerts[0].AcknowledgedAt, ackedAt)
	}
}

func TestAcknowledgeUnknownAlert(t *testing.T) {
	svc := newTestService(t)

	err := svc.Acknowledge(context.Background(), 9999, time.Now())
	if !errors.Is(err, ErrAlertNotFound) {
		t.Fatalf("expected ErrAlertNotFound, got %v", err)
	}
}
