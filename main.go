package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/datakaveri/dx-resource-server-sub002/audit"
	"github.com/datakaveri/dx-resource-server-sub002/auth"
	"github.com/datakaveri/dx-resource-server-sub002/authz"
	"github.com/datakaveri/dx-resource-server-sub002/cache"
	"github.com/datakaveri/dx-resource-server-sub002/catalogue"
	"github.com/datakaveri/dx-resource-server-sub002/config"
	"github.com/datakaveri/dx-resource-server-sub002/controller"
	"github.com/datakaveri/dx-resource-server-sub002/dao"
	"github.com/datakaveri/dx-resource-server-sub002/db"
	logger "github.com/datakaveri/dx-resource-server-sub002/logging"
	"github.com/datakaveri/dx-resource-server-sub002/pipeline"
	"github.com/datakaveri/dx-resource-server-sub002/quota"
	"github.com/datakaveri/dx-resource-server-sub002/revocation"
	"github.com/datakaveri/dx-resource-server-sub002/router"
)

func main() {
	// Initialize configuration
	if err := config.InitConfig(); err != nil {
		log.Fatalf("Failed to initialize config: %v", err)
	}

	// Initialize logger
	logger.InitLogger(config.GetString("log.dir"))
	defer logger.Sync()

	// Initialize Neo4j
	if err := db.InitNeo4j(); err != nil {
		logger.Fatal("Failed to initialize Neo4j", zap.Error(err))
	}
	defer db.CloseNeo4j()

	// Initialize Redis
	if err := db.InitRedis(); err != nil {
		logger.Fatal("Failed to initialize Redis", zap.Error(err))
	}
	defer db.CloseRedis()

	// The verifier cannot start without the identity provider's keys.
	keySet, err := auth.FetchKeySet(config.GetString("auth.jwksURL"))
	if err != nil {
		logger.Fatal("Failed to fetch identity provider key set", zap.Error(err))
	}
	verifier := auth.NewVerifier(keySet, config.GetString("auth.audience"))

	// Build the admission-state components
	wallClock := clock.New()
	cacheOpts := cache.Options{
		TTL:      config.GetDuration("cache.ttl"),
		Capacity: config.GetInt("cache.capacity"),
		Clock:    wallClock,
	}

	catClient := catalogue.NewClient(
		config.GetString("catalogue.url"),
		config.GetDuration("catalogue.timeout"),
	)
	catCache := catalogue.NewCache(catClient, cacheOpts)
	attrCache := catalogue.NewAttributeCache(dao.NewUniqueAttributeDAO(db.Neo4jDriver), cacheOpts)
	registry := revocation.NewRegistry(dao.NewRevocationDAO(db.Neo4jDriver))

	// Warm every admission cache in parallel before serving. A failed warm-up
	// is not fatal: the component starts empty and relies on the scheduled
	// refresh.
	warmCtx, warmCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	g, warmCtx := errgroup.WithContext(warmCtx)
	g.Go(func() error { return catCache.RefreshAll(warmCtx) })
	g.Go(func() error { return attrCache.RefreshAll(warmCtx) })
	g.Go(func() error { return registry.RefreshAll(warmCtx) })
	if err := g.Wait(); err != nil {
		logger.Warn("Cache warm-up incomplete, starting with partial state", zap.Error(err))
	}
	warmCancel()

	// Scheduled full refreshes, one task per cache
	refreshInterval := config.GetDuration("cache.refreshInterval")
	refreshers := []*cache.Refresher{
		cache.NewRefresher("catalogue", catCache, refreshInterval, wallClock),
		cache.NewRefresher("unique-attribute", attrCache, refreshInterval, wallClock),
		cache.NewRefresher("revocation", registry, refreshInterval, wallClock),
	}
	for _, r := range refreshers {
		r.Start()
	}
	defer func() {
		for _, r := range refreshers {
			r.Stop()
		}
	}()

	// Assemble the admission pipeline
	engine := authz.NewEngine(catCache)
	enforcer := quota.NewEnforcer(
		quota.NewRedisCounterStore(db.RedisClient),
		config.GetBool("quota.enabled"),
		wallClock,
	)
	admissionPipeline := pipeline.New(verifier, registry, engine, enforcer)

	// Usage metering and audit trail
	meter := quota.NewMeter(db.RedisClient, wallClock)
	auditRepository, err := audit.NewElasticsearchRepository(config.GetString("elasticsearch.url"))
	if err != nil {
		logger.Fatal("Failed to initialize audit repository", zap.Error(err))
	}
	auditService := audit.NewService(auditRepository)

	// Initialize controllers
	controllers := &controller.Controllers{
		Entity:       controller.NewEntityController(admissionPipeline, attrCache, meter, auditService),
		Subscription: controller.NewSubscriptionController(admissionPipeline),
		Ingestion:    controller.NewIngestionController(admissionPipeline),
	}

	// Set up Gin
	gin.SetMode(gin.ReleaseMode)
	engineRouter := router.SetupRouter(controllers)

	// Set up the server
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", config.GetString("server.port")),
		Handler: engineRouter,
	}

	// Start the server in a goroutine
	go func() {
		logger.Info("Starting server", zap.String("port", config.GetString("server.port")))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exiting")
}
