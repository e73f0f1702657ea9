// router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/datakaveri/dx-resource-server-sub002/controller"
	"github.com/datakaveri/dx-resource-server-sub002/metrics"
	"github.com/datakaveri/dx-resource-server-sub002/middleware"
)

func SetupRouter(controllers *controller.Controllers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "up"})
	})
	router.GET("/metrics", metrics.Handler())

	api := router.Group("/ngsi-ld/v1")

	controllers.Entity.RegisterRoutes(api)
	controllers.Subscription.RegisterRoutes(api)
	controllers.Ingestion.RegisterRoutes(api)

	return router
}
