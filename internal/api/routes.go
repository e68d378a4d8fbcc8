package api

func (s *Server) setupRoutes() {
	s.router.GET("/", s.healthHandler.WorkerInfo)
	s.router.GET("/health", s.healthHandler.HealthCheck)

	s.router.POST("/frames", s.frameHandler.SubmitFrame)

	alerts := s.router.Group("/alerts")
	{
		alerts.GET("/recent", s.alertsHandler.RecentAlerts)
		alerts.POST("/:id/ack", s.alertsHandler.Acknowledge)
	}

	s.router.GET("/ws/alerts", s.feedHandler.Stream)

	system := s.router.Group("/system")
	{
		system.GET("/stats", s.systemHandler.GetStats)
	}

	s.router.Static("/artifacts", s.container.Artifacts.Dir())
}
