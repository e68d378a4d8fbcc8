package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"citywatch-worker/internal/api/handlers"
	"citywatch-worker/internal/config"
	"citywatch-worker/internal/services"
)

type Server struct {
	config    *config.Config
	router    *gin.Engine
	server    *http.Server
	container *services.ServiceContainer

	frameHandler  *handlers.FrameHandler
	healthHandler *handlers.HealthHandler
	alertsHandler *handlers.AlertsHandler
	feedHandler   *handlers.FeedHandler
	systemHandler *handlers.SystemHandler
}

func NewServer(cfg *config.Config) (*Server, error) {
	gin.SetMode(gin.ReleaseMode)

	container, err := services.NewServiceContainer(cfg)
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:    cfg,
		router:    gin.New(),
		container: container,

		frameHandler:  handlers.NewFrameHandler(container.Dispatcher),
		healthHandler: handlers.NewHealthHandler(cfg, container.DetectionSvc, container.Messaging),
		alertsHandler: handlers.NewAlertsHandler(container.Recorder),
		feedHandler:   handlers.NewFeedHandler(container.Hub),
		systemHandler: handlers.NewSystemHandler(cfg.WorkerID, container.Dispatcher, container.Hub),
	}

	s.setupMiddleware()
	s.setupRoutes()
	s.setupSwagger()

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: s.router,
	}

	return s, nil
}

func (s *Server) Start() error {
	log.Info().Int("port", s.config.Port).Msg("Starting CityWatch worker API")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	return s.container.Shutdown(ctx)
}
