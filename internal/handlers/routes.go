package handlers

import (
	"time"

	"dreambid/internal/activity"
	"dreambid/internal/auth"
	"dreambid/internal/database"
	"dreambid/internal/interest"
	"dreambid/internal/metrics"
	"dreambid/internal/middleware"
	"dreambid/internal/models"
	"dreambid/internal/ratelimit"

	"github.com/gin-gonic/gin"
)

// Deps bundles the services behind the HTTP API
type Deps struct {
	DB         *database.GormDB
	Auth       *auth.Service
	Activity   *activity.Service
	Events     ActivityLogger
	Reconciler Reconciler
	Tracker    *interest.Tracker
	Jobs       JobRunner
	Retention  RetentionPreview
	Search     SearchIndex
	// Limiter guards the public write endpoints; nil disables it
	Limiter *ratelimit.RateLimiter
	// Now is the clock for stats windows and retention previews; nil means
	// time.Now. Pass the same clock the cleanup service uses.
	Now func() time.Time
}

// RegisterRoutes mounts every API route on r
func RegisterRoutes(r *gin.Engine, d Deps) {
	authRequired := middleware.AuthMiddleware(d.Auth.Secret(), d.Auth)
	optionalAuth := middleware.OptionalAuthMiddleware(d.Auth.Secret(), d.Auth)
	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleStaff)
	admin := middleware.RequireRoles(models.RoleAdmin)
	var limited gin.HandlerFunc = func(c *gin.Context) { c.Next() }
	if d.Limiter != nil {
		limited = middleware.RateLimit(d.Limiter)
	}

	authHandler := NewAuthHandler(d.Auth, d.Events)
	userHandler := NewUserHandler(d.Auth, d.Activity, d.Events, d.Now)
	activityHandler := NewActivityHandler(d.Activity, d.Now)
	propertyHandler := NewPropertyHandler(d.DB, d.Reconciler, d.Search, d.Events)
	enquiryHandler := NewEnquiryHandler(d.DB, d.Events)
	interestHandler := NewInterestHandler(d.Tracker, d.Events)
	adminHandler := NewAdminHandler(d.DB, d.Activity, d.Jobs, d.Retention, d.Search, d.Now)

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api")
	api.GET("/health", Health(d.DB))

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", limited, authHandler.Register)
		authGroup.POST("/login", limited, authHandler.Login)
		authGroup.GET("/me", authRequired, authHandler.Me)
		authGroup.GET("/verify", authRequired, authHandler.Verify)
		authGroup.POST("/logout", authRequired, authHandler.Logout)
		authGroup.POST("/change-password", authRequired, userHandler.ChangePassword)
	}

	userGroup := api.Group("/user", authRequired)
	{
		userGroup.GET("/me", userHandler.Me)
		userGroup.PUT("/profile", userHandler.UpdateProfile)
		userGroup.POST("/change-password", userHandler.ChangePassword)
		userGroup.GET("/activity", userHandler.Activity)
		userGroup.GET("/activity/stats", userHandler.ActivityStats)
	}

	activityGroup := api.Group("/activity", authRequired)
	{
		activityGroup.POST("/save", activityHandler.Save)
		activityGroup.GET("/user/:userId", activityHandler.UserActivity)
		activityGroup.GET("/stats/user/:userId", activityHandler.UserStats)
		activityGroup.GET("/all", admin, activityHandler.All)
		activityGroup.GET("/category/:category", admin, activityHandler.ByCategory)
		activityGroup.GET("/stats", admin, activityHandler.Stats)
	}

	propertyGroup := api.Group("/properties")
	{
		propertyGroup.GET("", propertyHandler.List)
		propertyGroup.GET("/search", propertyHandler.Search)
		propertyGroup.GET("/:id", optionalAuth, propertyHandler.Get)
		propertyGroup.POST("", authRequired, staff, propertyHandler.Create)
		propertyGroup.PUT("/:id", authRequired, staff, propertyHandler.Update)
		propertyGroup.DELETE("/:id", authRequired, staff, propertyHandler.Delete)
	}

	enquiryGroup := api.Group("/enquiries")
	{
		enquiryGroup.POST("", limited, optionalAuth, enquiryHandler.Create)
		enquiryGroup.GET("", authRequired, staff, enquiryHandler.List)
		enquiryGroup.PUT("/:id/status", authRequired, staff, enquiryHandler.UpdateStatus)
	}

	interestGroup := api.Group("/interests")
	{
		interestGroup.POST("", limited, optionalAuth, interestHandler.Track)
		interestGroup.GET("/stats/:property_id", authRequired, staff, interestHandler.Stats)
	}

	adminGroup := api.Group("/admin", authRequired, admin)
	{
		adminGroup.GET("/stats", adminHandler.GetStats)
		adminGroup.GET("/jobs", adminHandler.GetJobs)
		adminGroup.POST("/reconcile", adminHandler.Reconcile)
		adminGroup.POST("/cleanup/activity", adminHandler.CleanupActivity)
		adminGroup.GET("/cleanup/stats", adminHandler.CleanupStats)
		adminGroup.POST("/cleanup/users", adminHandler.CleanupUsers)
		adminGroup.POST("/search/reindex", adminHandler.ReindexSearch)
	}
}
