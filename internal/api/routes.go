package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/codyseavey/card-grader/internal/api/handlers"
	"github.com/codyseavey/card-grader/internal/collection"
	"github.com/codyseavey/card-grader/internal/config"
	"github.com/codyseavey/card-grader/internal/services"
	"github.com/codyseavey/card-grader/internal/storage"
)

func SetupRouter(cfg *config.Config, store *collection.Store, bridge *storage.Bridge, autosaver *storage.Autosaver, recognition *services.RecognitionService, imageStorage *services.ImageStorageService, settingsService *services.SettingsService, snapshotService *services.SnapshotService) *gin.Engine {
	router := gin.Default()
	router.Use(metricsMiddleware())

	serveFrontend := cfg.FrontendDistPath != "" && dirExists(cfg.FrontendDistPath)

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	corsConfig.AllowCredentials = false
	router.Use(cors.New(corsConfig))

	scanHandler := handlers.NewScanHandler(recognition, imageStorage)
	collectionHandler := handlers.NewCollectionHandler(store, bridge, autosaver, settingsService, snapshotService)
	settingsHandler := handlers.NewSettingsHandler(settingsService)

	// Serve scanned images
	if imageStorage != nil {
		router.Static(services.ScannedImagesRoute, imageStorage.GetStorageDir())
	}

	api := router.Group("/api")
	{
		api.POST("/scan", scanHandler.ScanCard)

		collection := api.Group("/collection")
		{
			collection.GET("", collectionHandler.GetCollection)
			collection.POST("", collectionHandler.AddToCollection)
			collection.POST("/import", collectionHandler.ImportCollection)
			collection.GET("/stats", collectionHandler.GetStats)
			collection.GET("/distribution/:field", collectionHandler.GetDistribution)
			collection.GET("/history", collectionHandler.GetValueHistory)
			collection.PUT("/:id", collectionHandler.UpdateCollectionItem)
			collection.DELETE("/:id", collectionHandler.DeleteCollectionItem)
		}

		settings := api.Group("/settings")
		{
			settings.GET("", settingsHandler.GetSettings)
			settings.PUT("", settingsHandler.UpdateSettings)
			settings.POST("/:name/toggle", settingsHandler.ToggleSetting)
		}

		api.DELETE("/data", collectionHandler.ClearAllData)
	}

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health degrades while the collection cannot be saved.
	router.GET("/health", func(c *gin.Context) {
		if autosaver != nil {
			if err := autosaver.LastError(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "persistError": err.Error()})
				return
			}
		}
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Serve frontend static files
	if serveFrontend {
		frontendPath := cfg.FrontendDistPath
		indexPath := filepath.Join(frontendPath, "index.html")

		router.Static("/assets", filepath.Join(frontendPath, "assets"))
		router.StaticFile("/vite.svg", filepath.Join(frontendPath, "vite.svg"))

		router.GET("/", func(c *gin.Context) {
			c.File(indexPath)
		})

		// SPA fallback - serve index.html for all non-API routes
		router.NoRoute(func(c *gin.Context) {
			if strings.HasPrefix(c.Request.URL.Path, "/api") {
				c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
				return
			}
			c.File(indexPath)
		})
	}

	return router
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
