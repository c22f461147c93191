package main

import (
	"context"
	"net/http"

	"locator-api/internal/cache"
	"locator-api/internal/config"
	"locator-api/internal/fetch"
	"locator-api/internal/handler"
	"locator-api/internal/provider"
	"locator-api/internal/ratelimit"
	"locator-api/internal/repository"
	"locator-api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

func main() {
	config, err := config.LoadConfig("./configs")
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}

	// Database connection
	conn, err := pgxpool.New(context.Background(), config.DBSource)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot connect to db")
	}
	defer conn.Close()

	// Lookup cache, backend per configuration
	var store cache.LookupCache
	switch config.CacheBackend {
	case "postgres":
		store = cache.NewPostgresCache(conn)
	default:
		store = cache.NewMemoryCache()
	}

	fetcher := fetch.New(store)

	images, err := cache.NewImageCache(
		config.ImageCacheDir,
		config.PublicURL+"/imgcache",
		config.CacheCleanInterval,
		config.CacheMaxAge,
		fetch.ImageFunc(fetcher),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot create image cache")
	}

	// A tagless clear also sweeps old map images off disk.
	lookup := &cache.SweepingCache{LookupCache: store, Images: images}

	registry := provider.NewRegistry(config, provider.Deps{
		Fetcher: fetcher,
		Store:   lookup,
		Images:  images,
	})

	limiter := ratelimit.New(config.SpeedLimitInterval)

	// Initialize layers
	repo := repository.NewRepository(conn)

	geocodeService := service.NewGeocodeService(repo, registry, limiter, config.AutofillCoord)
	nearbyService := service.NewNearbyService(repo)

	geocodeHandler := handler.NewGeocodeHandler(geocodeService)
	nearbyHandler := handler.NewNearbyHandler(geocodeService, nearbyService, config.DefaultRadius, config.DistanceUnit)
	mapHandler := handler.NewMapHandler(registry)
	tileHandler := handler.NewTileHandler(images, fetcher)
	originHandler := handler.NewOriginHandler(repo)

	r := gin.Default()

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	r.GET("/geocode", geocodeHandler.Geocode)
	r.GET("/nearby", nearbyHandler.Nearby)
	r.GET("/map", mapHandler.Map)
	r.GET("/map/static", mapHandler.StaticMap)
	r.GET("/map/tiles/:z/:x/:y", tileHandler.Tile)
	r.GET("/providers", mapHandler.Providers)
	r.GET("/origins", originHandler.List)
	r.POST("/origins/:id", originHandler.Add)
	r.DELETE("/origins/:id", originHandler.Delete)
	r.Static("/imgcache", config.ImageCacheDir)

	r.POST("/admin/cache/clear", func(c *gin.Context) {
		if err := lookup.Clear(c.QueryArray("tag")...); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "cache clear failed"})
			return
		}
		c.Status(http.StatusNoContent)
	})

	r.Run(config.ServerAddress)
}
