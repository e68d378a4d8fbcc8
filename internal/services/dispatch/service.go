package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"citywatch-worker/internal/config"
	"citywatch-worker/internal/logging"
	"citywatch-worker/internal/models"
	"citywatch-worker/internal/services/notifier"
)

// Detector produces raw detections for one frame.
type Detector interface {
	Detect(ctx context.Context, frame []byte) ([]models.RawDetection, error)
}

// LocationDirectory resolves a camera id to its installed location.
type LocationDirectory interface {
	GetLocation(ctx context.Context, cameraID string) (string, error)
}

// RoleDirectory resolves a role to the recipients registered for it.
type RoleDirectory interface {
	ResolveRecipients(ctx context.Context, role models.Role) ([]models.Recipient, error)
}

// Notifier delivers one notification to one recipient.
type Notifier interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

// ArtifactStore persists a frame snapshot and returns its public URL.
type ArtifactStore interface {
	Upload(frame []byte, key string) (string, error)
}

// Recorder persists the audit trail. PersistDetection returns the new
// record id that alert records link back to.
type Recorder interface {
	PersistDetection(ctx context.Context, rec models.DetectionRecord) (int64, error)
	PersistAlert(ctx context.Context, rec models.AlertRecord) error
}

// Broadcaster pushes alert events to connected dashboard clients.
type Broadcaster interface {
	BroadcastAlert(event models.AlertEvent)
}

// Service orchestrates frame processing: aggregate detections, filter by
// threshold, route labels to authorities and dispatch cooldown-gated
// notifications with an audit trail. It owns no I/O itself; everything
// external comes in through the collaborator interfaces.
type Service struct {
	detector  Detector
	locations LocationDirectory
	roles     RoleDirectory
	notifier  Notifier
	artifacts ArtifactStore
	recorder  Recorder

	publisher     models.MessagePublisher
	broadcaster   Broadcaster
	alertsSubject string

	ledger    *CooldownLedger
	threshold float64
	window    time.Duration
	workers   int

	log zerolog.Logger
	now func() time.Time
}

// Options carries the optional collaborators. Publisher and Broadcaster
// may be nil; dispatch then skips the event feed.
type Options struct {
	Publisher   models.MessagePublisher
	Broadcaster Broadcaster
}

func NewService(cfg *config.Config, detector Detector, locations LocationDirectory, roles RoleDirectory,
	n Notifier, artifacts ArtifactStore, recorder Recorder, opts Options) (*Service, error) {

	if detector == nil || locations == nil || roles == nil || n == nil || artifacts == nil || recorder == nil {
		return nil, fmt.Errorf("dispatch service requires all core collaborators")
	}

	workers := cfg.AlertWorkers
	if workers < 1 {
		workers = 1
	}

	s := &Service{
		detector:      detector,
		locations:     locations,
		roles:         roles,
		notifier:      n,
		artifacts:     artifacts,
		recorder:      recorder,
		publisher:     opts.Publisher,
		broadcaster:   opts.Broadcaster,
		alertsSubject: cfg.AlertsSubject,
		ledger:        NewCooldownLedger(),
		threshold:     cfg.ConfidenceThreshold,
		window:        cfg.AlertCooldown,
		workers:       workers,
		log:           logging.NewServiceLogger(cfg, "dispatch"),
		now:           time.Now,
	}

	s.log.Info().
		Float64("threshold", s.threshold).
		Dur("cooldown", s.window).
		Int("workers", s.workers).
		Msg("Dispatch service initialized")

	return s, nil
}

// SetClock replaces the time source. Used by tests to drive cooldown logic.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Ledger exposes the cooldown ledger for inspection endpoints.
func (s *Service) Ledger() *CooldownLedger {
	return s.ledger
}

// alertJob is one eligible (label, recipient) pair whose ledger slot is
// already reserved.
type alertJob struct {
	agg       models.AggregatedDetection
	role      models.Role
	recipient models.Recipient
	frameURL  string
}

// ProcessFrame runs the full pipeline for one frame. A camera lookup or
// inference failure aborts the frame; everything past that point degrades
// per collaborator and keeps going.
func (s *Service) ProcessFrame(ctx context.Context, frame []byte, cameraID string) (models.DispatchResult, error) {
	result := models.DispatchResult{}

	location, err := s.locations.GetLocation(ctx, cameraID)
	if err != nil {
		return result, fmt.Errorf("camera lookup for %q: %w", cameraID, err)
	}

	detections, err := s.detector.Detect(ctx, frame)
	if err != nil {
		return result, fmt.Errorf("inference: %w", err)
	}
	result.TotalDetections = len(detections)

	now := s.now()
	aggregated := Aggregate(detections)
	actionable := FilterActionable(aggregated, s.threshold)
	result.AggregatedLabels = len(aggregated)
	result.ActionableLabels = len(actionable)

	logger := logging.WithCamera(s.log, cameraID)
	logger.Debug().
		Int("raw", len(detections)).
		Int("aggregated", len(aggregated)).
		Int("actionable", len(actionable)).
		Msg("Frame detections aggregated")

	var jobs []alertJob
	for _, agg := range actionable {
		// One snapshot per label clearing the threshold. A failed upload
		// leaves the frame URL empty and dispatch continues.
		artifactKey := fmt.Sprintf("%s_%s.jpg", agg.Label, now.Format("20060102_150405"))
		frameURL, err := s.artifacts.Upload(frame, artifactKey)
		if err != nil {
			frameURL = ""
			logger.Error().Err(err).
				Str("label", agg.Label).
				Msg("Frame snapshot upload failed")
		}

		role, ok := ResolveRole(agg.Label)
		if !ok {
			result.SkippedLabels++
			logger.Debug().
				Str("label", agg.Label).
				Msg("No role responsible for label, skipping")
			continue
		}

		recipients, err := s.roles.ResolveRecipients(ctx, role)
		if err != nil {
			result.SkippedLabels++
			result.Errors = append(result.Errors, fmt.Sprintf("recipient lookup for %s: %v", role, err))
			logger.Error().Err(err).
				Str("role", string(role)).
				Msg("Failed to resolve recipients")
			continue
		}
		if len(recipients) == 0 {
			result.SkippedLabels++
			logger.Warn().
				Str("role", string(role)).
				Str("label", agg.Label).
				Msg("No recipients registered for role")
			continue
		}

		for _, recipient := range recipients {
			key := models.CooldownKey{Label: agg.Label, Recipient: recipient.Email}
			if !s.ledger.Reserve(key, now, s.window) {
				result.Suppressed++
				logger.Debug().
					Str("label", agg.Label).
					Str("recipient", recipient.Email).
					Msg("Alert suppressed by cooldown")
				continue
			}
			jobs = append(jobs, alertJob{agg: agg, role: role, recipient: recipient, frameURL: frameURL})
		}
	}

	if len(jobs) == 0 {
		return result, nil
	}

	meta := models.FrameMetadata{CameraID: cameraID, Location: location, Timestamp: now}

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, s.workers)
	)
	for _, job := range jobs {
		wg.Add(1)
		sem <- struct{}{}
		go func(job alertJob) {
			defer wg.Done()
			defer func() { <-sem }()

			sent, errs := s.dispatchAlert(ctx, job, meta)

			mu.Lock()
			if sent {
				result.AlertsSent++
			}
			result.Errors = append(result.Errors, errs...)
			mu.Unlock()
		}(job)
	}
	wg.Wait()

	logger.Info().
		Int("alerts_sent", result.AlertsSent).
		Int("suppressed", result.Suppressed).
		Int("skipped_labels", result.SkippedLabels).
		Msg("Frame dispatch completed")

	return result, nil
}

// dispatchAlert notifies one recipient and writes the audit trail. The
// ledger reservation is never rolled back: a transport failure must not
// turn into a retry storm, so the failure is logged and the cooldown
// stands. The alert record is written only when the detection record
// persisted and returned an id.
func (s *Service) dispatchAlert(ctx context.Context, job alertJob, meta models.FrameMetadata) (bool, []string) {
	var errs []string

	logger := logging.WithCamera(s.log, meta.CameraID)
	subject, body := notifier.BuildAlertEmail(job.agg.Label, meta.Location, job.agg.MaxConfidence)
	notifyErr := s.notifier.Send(ctx, job.recipient.Email, subject, body)
	if notifyErr != nil {
		errs = append(errs, fmt.Sprintf("notify %s for %s: %v", job.recipient.Email, job.agg.Label, notifyErr))
		logger.Error().Err(notifyErr).
			Str("label", job.agg.Label).
			Str("recipient", job.recipient.Email).
			Msg("Notification send failed, cooldown reservation stands")
	} else {
		logger.Info().
			Str("label", job.agg.Label).
			Str("recipient", job.recipient.Email).
			Float64("confidence", job.agg.MaxConfidence).
			Msg("Alert notification sent")
	}

	record := models.DetectionRecord{
		Label:              job.agg.Label,
		Confidence:         job.agg.MaxConfidence,
		Timestamp:          meta.Timestamp,
		Location:           meta.Location,
		CameraID:           meta.CameraID,
		EmailSent:          notifyErr == nil,
		AuthorityEmail:     job.recipient.Email,
		NextEmailAllowedAt: meta.Timestamp.Add(s.window),
		FrameURL:           job.frameURL,
		ConfidenceHistory:  job.agg.ConfidenceHistory,
		BoundingBox:        job.agg.BestBoundingBox,
	}

	detectionID, err := s.recorder.PersistDetection(ctx, record)
	if err != nil {
		errs = append(errs, fmt.Sprintf("persist detection for %s: %v", job.agg.Label, err))
		logger.Error().Err(err).
			Str("label", job.agg.Label).
			Msg("Detection record not persisted, alert record skipped")
		return notifyErr == nil, errs
	}

	alert := models.AlertRecord{
		DetectionID:    detectionID,
		AuthorityEmail: job.recipient.Email,
		Status:         models.AlertStatusSent,
		SentAt:         meta.Timestamp,
	}
	if err := s.recorder.PersistAlert(ctx, alert); err != nil {
		errs = append(errs, fmt.Sprintf("persist alert for %s: %v", job.agg.Label, err))
		logger.Error().Err(err).
			Int64("detection_id", detectionID).
			Msg("Alert record not persisted")
	}

	event := models.AlertEvent{
		DetectionID: detectionID,
		CameraID:    meta.CameraID,
		Label:       job.agg.Label,
		Confidence:  job.agg.MaxConfidence,
		Location:    meta.Location,
		Recipient:   job.recipient.Email,
		Role:        job.role,
		FrameURL:    job.frameURL,
		SentAt:      meta.Timestamp,
	}
	if s.publisher != nil {
		if err := s.publisher.Publish(s.alertsSubject, event); err != nil {
			logger.Error().Err(err).
				Str("subject", s.alertsSubject).
				Msg("Failed to publish alert event")
		}
	}
	if s.broadcaster != nil {
		s.broadcaster.BroadcastAlert(event)
	}

	return notifyErr == nil, errs
}
