package routes

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/matthiasoo/Hacknation25/internal/app/domain/auth"
	"github.com/matthiasoo/Hacknation25/internal/app/domain/location"
	"github.com/matthiasoo/Hacknation25/internal/app/domain/user"
	"github.com/matthiasoo/Hacknation25/internal/app/middleware"
	"github.com/matthiasoo/Hacknation25/internal/pkg/config"
)

type AppHandlers struct {
	Auth     *auth.AuthHandlers
	Location *location.LocationHandlers
	User     *user.UserHandlers
}

// Setup wires repositories, services and handlers and registers all routes.
func Setup(r *gin.Engine, cfg *config.Config, dbPool *pgxpool.Pool, log *zap.Logger) {
	handlers := setupDependencies(cfg, dbPool, log)
	setupRouter(r, cfg, handlers, log)
}

func setupDependencies(cfg *config.Config, dbPool *pgxpool.Pool, log *zap.Logger) *AppHandlers {
	slogLog := slog.Default()

	authRepo := auth.NewPostgresAuthRepo(dbPool, slogLog)
	authService := auth.NewAuthService(authRepo, cfg, log)

	locationRepo := location.NewRepository(dbPool, log)
	locationService := location.NewService(locationRepo, log)

	return &AppHandlers{
		Auth:     auth.NewAuthHandlers(authService, log),
		Location: location.NewLocationHandlers(locationService, log),
		User:     user.NewUserHandlers(authService, locationService, log),
	}
}

func setupRouter(r *gin.Engine, cfg *config.Config, handlers *AppHandlers, log *zap.Logger) {
	requireAuth := middleware.JWTAuthMiddleware(middleware.JWTConfig{
		SecretKey: cfg.JWT.SecretKey,
		TokenTTL:  cfg.JWT.TokenTTL,
		Logger:    log,
	})
	optionalAuth := middleware.JWTAuthMiddleware(middleware.JWTConfig{
		SecretKey: cfg.JWT.SecretKey,
		TokenTTL:  cfg.JWT.TokenTTL,
		Logger:    log,
		Optional:  true,
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", handlers.Auth.RegisterHandler)
		authGroup.POST("/login", handlers.Auth.LoginHandler)
	}

	locations := api.Group("/locations")
	{
		locations.GET("", handlers.Location.ListLocations)
		locations.GET("/categories", handlers.Location.ListCategories)
		locations.GET("/nearest-unvisited", requireAuth, handlers.Location.NearestUnvisited)
		// Dual-mode: public detail read; check-in side effect when a valid
		// bearer token is present.
		locations.GET("/:id", optionalAuth, handlers.Location.GetLocation)
		locations.GET("/:id/timeline", handlers.Location.GetTimeline)
		locations.POST("", requireAuth, handlers.Location.CreateLocation)
		locations.POST("/:id/timeline", requireAuth, handlers.Location.AddTimelineEvent)
	}

	users := api.Group("/users", requireAuth)
	{
		users.GET("/me", handlers.User.GetMe)
		users.GET("/:id/visited", handlers.User.GetVisitedLocations)
	}
}
