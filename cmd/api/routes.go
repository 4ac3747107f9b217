package main

import (
	"database/sql"
	"net/http"
	"time"

	"callcenter-platform/internal/httpapi"
	"callcenter-platform/internal/metrics"
	"callcenter-platform/internal/rbac"
	"callcenter-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, authMW gin.HandlerFunc, db *sql.DB, rdb *redis.Client) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		if err := utils.HealthCheck(c.Request.Context(), db, 2*time.Second); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "postgres": err.Error()})
			return
		}
		if err := rdb.Ping(c.Request.Context()).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "redis": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	// AUTH routes (token issuance).
	// NOTE: This is a placeholder login route; real credential validation is not implemented.
	r.POST("/v1/auth/login", h.Login)

	// protected API group
	v1 := r.Group("/v1")
	v1.Use(authMW)
	{
		anyRole := rbac.RequireAnyRole(rbac.RoleAdmin, rbac.RoleSupervisor, rbac.RoleAgent)
		managers := rbac.RequireAnyRole(rbac.RoleAdmin, rbac.RoleSupervisor)

		ls := v1.Group("/lists")
		{
			ls.GET("", anyRole, h.ListLists)
			ls.POST("", managers, h.CreateList)

			ls.GET("/:list_id/policy", anyRole, h.GetPolicy)
			ls.PUT("/:list_id/policy", managers, h.SetPolicy)

			ls.POST("/:list_id/recycle", managers, h.ManualRecycle)

			ls.GET("/:list_id/contacts", anyRole, h.ListContacts)
			ls.GET("/:list_id/report", anyRole, h.ListReport)
		}

		cs := v1.Group("/contacts")
		cs.Use(anyRole)
		{
			cs.POST("/:contact_id/claim", h.ClaimContact)
			cs.POST("/:contact_id/release", h.ReleaseContact)
			cs.POST("/:contact_id/outcome", h.RecordOutcome)
		}
	}
}
