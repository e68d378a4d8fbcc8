package services

import (
	"context"

	"github.com/rs/zerolog/log"

	"citywatch-worker/internal/config"
	"citywatch-worker/internal/services/artifacts"
	"citywatch-worker/internal/services/detection"
	"citywatch-worker/internal/services/directory"
	"citywatch-worker/internal/services/dispatch"
	"citywatch-worker/internal/services/messaging"
	"citywatch-worker/internal/services/notifier"
	"citywatch-worker/internal/services/recorder"
	"citywatch-worker/internal/storage"
	"citywatch-worker/internal/websocket"
)

// ServiceContainer holds all services
type ServiceContainer struct {
	Config       *config.Config
	DB           *storage.DB
	Directory    *directory.Service
	Recorder     *recorder.Service
	DetectionSvc *detection.Service
	Messaging    *messaging.Service
	Artifacts    *artifacts.Store
	Hub          *websocket.Hub
	Dispatcher   *dispatch.Service
}

// NewServiceContainer creates a new service container
func NewServiceContainer(cfg *config.Config) (*ServiceContainer, error) {
	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	dir := directory.NewService(db)
	rec := recorder.NewService(db)

	detectionSvc, err := detection.NewService(cfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	store, err := artifacts.NewStore(cfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	// Without SMTP credentials, run with the no-op notifier so the audit
	// trail still accumulates in development.
	var n dispatch.Notifier
	emailSvc, err := notifier.NewService(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("SMTP notifier unavailable, using no-op notifier")
		n = notifier.Nop{}
	} else {
		n = emailSvc
	}

	var msg *messaging.Service
	opts := dispatch.Options{}
	if cfg.NatsEnabled {
		msg, err = messaging.NewService(cfg)
		if err != nil {
			db.Close()
			detectionSvc.Shutdown(context.Background())
			return nil, err
		}
		opts.Publisher = msg
	}

	hub := websocket.NewHub()
	go hub.Run()
	opts.Broadcaster = hub

	dispatcher, err := dispatch.NewService(cfg, detectionSvc, dir, dir, n, store, rec, opts)
	if err != nil {
		db.Close()
		detectionSvc.Shutdown(context.Background())
		return nil, err
	}

	return &ServiceContainer{
		Config:       cfg,
		DB:           db,
		Directory:    dir,
		Recorder:     rec,
		DetectionSvc: detectionSvc,
		Messaging:    msg,
		Artifacts:    store,
		Hub:          hub,
		Dispatcher:   dispatcher,
	}, nil
}

// Shutdown gracefully shuts down all services
func (sc *ServiceContainer) Shutdown(ctx context.Context) error {
	if sc.Messaging != nil {
		if err := sc.Messaging.Shutdown(ctx); err != nil {
			return err
		}
	}

	if sc.DetectionSvc != nil {
		sc.DetectionSvc.Shutdown(ctx)
	}

	if sc.DB != nil {
		return sc.DB.Close()
	}

	return nil
}
