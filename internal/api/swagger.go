package api

import (
	"net/http"

	_ "citywatch-worker/docs"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (s *Server) setupSwagger() {
	s.router.GET("/api/info", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"title":       "CityWatch Worker API",
			"version":     s.config.Version,
			"description": "Frame ingestion worker that detects incidents and dispatches rate-limited alerts to authorities",
			"swagger_ui":  "/docs/index.html",
			"endpoints": gin.H{
				"health":     "/health",
				"frames":     "/frames",
				"alerts":     "/alerts",
				"alert_feed": "/ws/alerts",
				"artifacts":  "/artifacts",
				"system":     "/system",
			},
			"worker_id": s.config.WorkerID,
			"port":      s.config.Port,
		})
	})

	s.router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	s.router.GET("/docs", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/docs/index.html")
	})
}
