// Package router wires handlers, authentication and role gates onto the
// Echo instance.  All API routes live under /api/v1.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/treenetra/treenetra/internal/config"
	"github.com/treenetra/treenetra/internal/handler"
	"github.com/treenetra/treenetra/internal/middleware"
	"github.com/treenetra/treenetra/internal/model"
)

// Deps bundles everything route registration needs.
type Deps struct {
	Auth      *handler.AuthHandler
	Species   *handler.SpeciesHandler
	Trees     *handler.TreeHandler
	Health    *handler.HealthRecordHandler
	Users     *handler.UserHandler
	Analytics *handler.AnalyticsHandler
	Healthz   echo.HandlerFunc

	UserStore middleware.ActiveUserStore
	JWTSecret string
	Audit     *zap.Logger
	Log       *zap.Logger

	Redis     *redis.Client
	Cache     config.CacheConfig
	RateLimit config.RateLimitConfig
}

// Register mounts every route.  Write access follows the role ladder:
// viewers read, field officers manage trees and inspections, admins manage
// the catalogue, accounts and deletions.
func Register(e *echo.Echo, d Deps) {
	e.GET("/healthz", d.Healthz)

	api := e.Group("/api/v1")

	// Session endpoints.  The anonymous ones carry the tight rate limit;
	// nothing else on the API is reachable without a token.
	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimit(d.RateLimit, d.Redis, d.Log))
	authGroup.POST("/register", d.Auth.Register)
	authGroup.POST("/login", d.Auth.Login)
	authGroup.POST("/refresh-token", d.Auth.Refresh)
	authGroup.POST("/rotate-token", d.Auth.Rotate)
	authGroup.POST("/forgot-password", d.Auth.ForgotPassword)
	authGroup.POST("/reset-password/:token", d.Auth.ResetPassword)
	authGroup.GET("/verify-email/:token", d.Auth.VerifyEmail)

	authed := api.Group("")
	authed.Use(middleware.Authenticate(d.JWTSecret, d.UserStore))

	authed.POST("/auth/logout", d.Auth.Logout)
	authed.GET("/auth/me", d.Auth.Me)
	authed.POST("/auth/change-password", d.Auth.ChangePassword)
	authed.PUT("/auth/profile", d.Users.UpdateProfile)

	officer := middleware.RequireRole(d.Audit, model.RoleAdmin, model.RoleFieldOfficer)
	admin := middleware.RequireRole(d.Audit, model.RoleAdmin)
	cached := middleware.ResponseCache(d.Cache, d.Redis)

	// Species catalogue: open reads, admin writes.
	authed.GET("/species", d.Species.List, cached)
	authed.GET("/species/search", d.Species.Search, cached)
	authed.GET("/species/:id", d.Species.Get)
	authed.POST("/species", d.Species.Create, admin)
	authed.PUT("/species/:id", d.Species.Update, admin)
	authed.DELETE("/species/:id", d.Species.Delete, admin)

	// Tree inventory: open reads, field-officer writes, admin deletes.
	authed.GET("/trees", d.Trees.List)
	authed.GET("/trees/search", d.Trees.Search)
	authed.GET("/trees/nearby", d.Trees.Nearby)
	authed.GET("/trees/statistics", d.Trees.Statistics, cached)
	authed.GET("/trees/:id", d.Trees.Get)
	authed.POST("/trees", d.Trees.Create, officer)
	authed.PUT("/trees/:id", d.Trees.Update, officer)
	authed.POST("/trees/:id/tags", d.Trees.AddTags, officer)
	authed.DELETE("/trees/:id/tags/:tag", d.Trees.RemoveTag, officer)
	authed.DELETE("/trees/:id", d.Trees.Delete, admin)
	authed.GET("/trees/:id/images", d.Trees.ListImages)
	authed.POST("/trees/:id/images", d.Trees.AddImage, officer)
	authed.DELETE("/trees/:id/images/:imageId", d.Trees.DeleteImage, officer)

	// Inspection log: open reads, field-officer writes, admin deletes.
	authed.GET("/health-records", d.Health.List)
	authed.GET("/health-records/:id", d.Health.Get)
	authed.GET("/health-records/tree/:treeId", d.Health.ListByTree)
	authed.POST("/health-records", d.Health.Create, officer)
	authed.PUT("/health-records/:id", d.Health.Update, officer)
	authed.DELETE("/health-records/:id", d.Health.Delete, admin)

	// Account administration.  Deletion is a soft delete: deactivate and
	// revoke, keeping created_by/inspected_by references resolvable.
	authed.GET("/users", d.Users.List, admin)
	authed.GET("/users/:id", d.Users.Get, admin)
	authed.POST("/users", d.Users.Create, admin)
	authed.PUT("/users/:id", d.Users.Update, admin)
	authed.DELETE("/users/:id", d.Users.Delete, admin)
	authed.PATCH("/users/:id/role", d.Users.UpdateRole, admin)
	authed.PATCH("/users/:id/status", d.Users.SetStatus, admin)

	// Aggregate reports, open to any authenticated user except the
	// contributor-activity report and the export, which stay admin-only.
	// Heavier queries sit behind the cache.
	authed.GET("/analytics/overview", d.Analytics.Overview, cached)
	authed.GET("/analytics/trees/growth", d.Analytics.Growth, cached)
	authed.GET("/analytics/trees/distribution", d.Analytics.Distribution, cached)
	authed.GET("/analytics/health/trends", d.Analytics.HealthTrends, cached)
	authed.GET("/analytics/species/popular", d.Analytics.PopularSpecies, cached)
	authed.GET("/analytics/users/activity", d.Analytics.Activity, admin, cached)
	authed.GET("/analytics/reports/monthly", d.Analytics.Monthly, cached)
	authed.GET("/analytics/reports/export", d.Analytics.Export, admin)
}
