package api

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/civicworks/grievance-api/internal/api/handler"
	"github.com/civicworks/grievance-api/internal/api/middleware"
	"github.com/civicworks/grievance-api/internal/core/domain"
	"github.com/civicworks/grievance-api/internal/core/service"
	"github.com/civicworks/grievance-api/internal/infrastructure/config"
	mongodb "github.com/civicworks/grievance-api/internal/infrastructure/db/mongo"
	redisdb "github.com/civicworks/grievance-api/internal/infrastructure/db/redis"
)

// NewRouter builds the Echo instance with all routes registered. The delivery
// queue is injected so main owns its lifecycle.
func NewRouter(cfg *config.Config, db *mongo.Database, rdb *redis.Client, queue service.DeliveryQueue, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())

	// --- Repositories ---
	userRepo := mongodb.NewUserRepository(db)
	issueRepo := mongodb.NewIssueRepository(db)
	refRepo := mongodb.NewReferenceRepository(db)
	otpStore := redisdb.NewOtpStore(rdb)
	sessionStore := redisdb.NewSessionStore(rdb)

	// --- Services ---
	resolver := service.NewScopeResolver(userRepo, refRepo)
	gate := service.NewGate(resolver, userRepo, refRepo, log)
	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.TokenTTL, log)
	otpService := service.NewOtpService(otpStore, sessionStore, userRepo, queue, log)
	userService := service.NewUserService(userRepo, gate, log)
	issueService := service.NewIssueService(issueRepo, userRepo, refRepo, gate, log)
	refService := service.NewReferenceService(userRepo, refRepo)

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(authService, otpService)
	otpHandler := handler.NewOtpHandler(otpService)
	userHandler := handler.NewUserHandler(userService, authService)
	issueHandler := handler.NewIssueHandler(issueService)
	refHandler := handler.NewReferenceHandler(refService)
	healthHandler := handler.NewHealthHandler(db, rdb)

	// --- Public routes ---
	e.POST("/auth/signup", authHandler.Signup)
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/forgot_password", authHandler.ForgotPassword)
	e.POST("/otp/request", otpHandler.Request)
	e.POST("/otp/verify", otpHandler.Verify)
	e.POST("/otp/change_password", otpHandler.ChangePassword)

	// --- Health probes (no auth required) ---
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// --- Authenticated routes ---
	auth := middleware.Auth(cfg.JWTSecret)
	v1 := e.Group("/v1", auth)

	adminRoles := []domain.Role{
		domain.RoleFacilitator,
		domain.RoleFieldStaff,
		domain.RoleDepartmentAdmin,
		domain.RoleMunicipalAdmin,
		domain.RoleStateAdmin,
		domain.RoleSuperAdmin,
	}

	// User administration: any role above citizen may enter; the gate makes
	// the per-record decision.
	users := v1.Group("/users", middleware.RBAC(adminRoles...))
	users.GET("", userHandler.List)
	users.POST("", userHandler.Create)

	// Grievances: every authenticated role participates somewhere in the
	// workflow; per-operation role checks live in the service.
	issues := v1.Group("/issues")
	issues.POST("", issueHandler.Create)
	issues.GET("", issueHandler.List)
	issues.GET("/stats", issueHandler.Stats)
	issues.GET("/:id", issueHandler.Get)
	issues.PUT("/:id/status", issueHandler.UpdateStatus)
	issues.PUT("/:id/assign", issueHandler.Assign)

	// Master geography lookups.
	ref := v1.Group("/reference")
	ref.GET("/states", refHandler.States)
	ref.GET("/cities", refHandler.Cities)
	ref.GET("/wards", refHandler.Wards)
	ref.GET("/departments", refHandler.Departments)

	// Self-service profile.
	v1.GET("/profile", userHandler.Profile)
	v1.PUT("/profile", userHandler.UpdateProfile)
	v1.PUT("/profile/password", userHandler.ChangePassword)

	return e
}
