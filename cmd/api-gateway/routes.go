package main

import (
	"context"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/noah-isme/route-network-api/internal/app"
	"github.com/noah-isme/route-network-api/internal/handler"
	internalmiddleware "github.com/noah-isme/route-network-api/internal/middleware"
	"github.com/noah-isme/route-network-api/internal/models"
	"github.com/noah-isme/route-network-api/pkg/config"
)

func registerRoutes(r *gin.Engine, a *app.App) {
	metricsHandler := handler.NewMetricsHandler(a.Metrics, map[string]handler.ReadinessCheck{
		"postgres": a.DB.PingContext,
		"redis":    func(ctx context.Context) error { return a.Cache.Ping(ctx) },
	})
	generationHandler := handler.NewFlightGenerationHandler(a.Generation)
	healthHandler := handler.NewFlightHealthHandler(a.Health)
	configHandler := handler.NewScheduleConfigHandler(a.ScheduleConfig)

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if a.Config.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(a.Config.APIPrefix)
	api.Use(internalmiddleware.JWT(a.Tokens))

	anyRole := internalmiddleware.RequireRoles(models.RoleAdmin, models.RoleOperator, models.RoleViewer)
	operators := internalmiddleware.RequireRoles(models.RoleAdmin, models.RoleOperator)
	admins := internalmiddleware.RequireRoles(models.RoleAdmin)

	schedule := api.Group("/schedule")
	generateLimit := internalmiddleware.RateLimitPerUser(a.Config.Scheduler.GenerateRate, a.Config.Scheduler.GenerateBurst)
	schedule.POST("/generate", operators, generateLimit, generationHandler.Generate)
	schedule.GET("/runs/:id", anyRole, generationHandler.Run)
	schedule.GET("/config", anyRole, configHandler.Get)
	schedule.PUT("/config", admins, configHandler.Update)

	flights := api.Group("/flights")
	flights.GET("/health", anyRole, healthHandler.Board)
	flights.POST("/health/check", anyRole, healthHandler.Check)
	flights.GET("/health/export", anyRole, healthHandler.Export)

	api.GET("/employees/:id/location", anyRole, healthHandler.EmployeeLocation)
	api.GET("/metrics/system", admins, metricsHandler.System)
}
