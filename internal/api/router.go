package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/geotrail/trailnet-backend-go/internal/config"
	"github.com/geotrail/trailnet-backend-go/internal/handler"
	"github.com/geotrail/trailnet-backend-go/internal/middleware"
)

// SetupRouter wires handlers and middleware onto the gin engine
func SetupRouter(cfg *config.Config, paths *handler.PathHandler,
	topologies *handler.TopologyHandler, features *handler.FeatureHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.RateLimit(300, time.Minute))

	// CORS
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Trailnet backend is running",
			"mode":    cfg.TopologyMode,
		})
	})

	api := r.Group("/api/v1")
	auth := middleware.Auth(cfg.JWTSecret)
	{
		p := api.Group("/paths")
		{
			p.GET("", paths.GetPaths)
			p.GET("/:id", paths.GetPathByID)
			p.POST("", auth, paths.CreatePath)
			p.PUT("/:id/geometry", auth, paths.UpdateGeometry)
			p.POST("/:id/split", auth, paths.SplitPath)
			p.POST("/merge", auth, paths.MergePaths)
			p.DELETE("/:id", auth, paths.DeletePath)
		}

		api.GET("/network/audit", paths.GetAuditTrail)

		t := api.Group("/topologies")
		{
			t.POST("", auth, topologies.CreateTopology)
			t.PUT("/:id/resnap", auth, topologies.Resnap)
			t.GET("/:id/derived", topologies.GetDerived)
			t.GET("/:id/profile", topologies.GetProfile)
		}

		f := api.Group("/features")
		{
			f.GET("", features.GetFeatures)
			f.POST("", auth, features.CreateFeature)
			f.DELETE("/:id", auth, features.DeleteFeature)
			f.GET("/:id/nearby", features.GetNearby)
		}
	}

	return r
}
