package api

import (
	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"

	"github.com/customeros/mailsort/api/handlers"
	"github.com/customeros/mailsort/api/middleware"
	"github.com/customeros/mailsort/interfaces"
	"github.com/customeros/mailsort/internal/logger"
	"github.com/customeros/mailsort/internal/tracing"
)

type Dependencies struct {
	Runner     interfaces.SessionRunner
	Repository interfaces.SessionRunRepository
	Snapshot   interfaces.SnapshotProvider
	Log        logger.Logger
	APIKey     string
}

// RegisterRoutes sets up all API endpoints
func RegisterRoutes(r *gin.Engine, deps Dependencies) {
	if deps.Runner == nil {
		panic("Runner cannot be nil")
	}
	if deps.Snapshot == nil {
		panic("Snapshot provider cannot be nil")
	}

	r.Use(gin.Recovery())
	r.Use(tracing.RecoveryWithJaeger(opentracing.GlobalTracer()))

	r.GET("/health", handlers.HealthCheck)
	r.GET("/status", handlers.Status(deps.Runner))

	runs := handlers.NewRunsHandler(deps.Runner, deps.Repository, deps.Snapshot, deps.Log)
	rules := handlers.NewRulesHandler(deps.Snapshot)

	api := r.Group("/v1")
	api.Use(middleware.APIKeyMiddleware(middleware.APIKeyConfig{
		HeaderName:  middleware.DefaultAPIKeyHeader,
		ValidAPIKey: deps.APIKey,
	}))
	api.Use(middleware.TracingMiddleware())
	{
		runGroup := api.Group("/runs")
		{
			runGroup.POST("", runs.Start())
			runGroup.GET("", runs.List())
			runGroup.GET("/current", runs.Current())
			runGroup.POST("/current/cancel", runs.Cancel())
			runGroup.GET("/:id", runs.Get())
		}

		ruleGroup := api.Group("/rules")
		{
			ruleGroup.GET("", rules.List())
			ruleGroup.POST("/validate", rules.Validate())
		}
	}
}
