package server

import (
	_ "embed"
	"net/http"

	"github.com/gin-gonic/gin"
)

//go:embed web/index.html
var indexPage []byte

func registerRoutes(engine *gin.Engine, handler *Handler, metrics *Metrics) {
	engine.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", indexPage)
	})

	apiGroup := engine.Group("/api")
	apiGroup.GET("/health", handler.Health)
	apiGroup.GET("/models", handler.Models)
	apiGroup.POST("/chat", handler.Chat)

	if metrics != nil {
		engine.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	engine.NoRoute(notFound)
}
