package router

import (
	"context"
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/thelittlethings/backend/internal/handlers"
	"github.com/thelittlethings/backend/internal/middleware"
	"github.com/thelittlethings/backend/internal/models"
	"github.com/thelittlethings/backend/internal/repositories"
	"github.com/thelittlethings/backend/internal/repositories/memory"
	"github.com/thelittlethings/backend/internal/services"
	"github.com/thelittlethings/backend/pkg/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Repositories bundles the storage the routes are built on. Events is nil
// when no event store is configured.
type Repositories struct {
	Users         repositories.UserRepository
	Friendships   repositories.FriendshipRepository
	Challenges    repositories.ChallengeRepository
	Notifications repositories.NotificationRepository
	Tokens        repositories.TokenRepository
	Events        repositories.ChallengeEventRepository
}

// PostgresRepositories migrates the schema and returns database backed
// repositories. mongoDB may be nil.
func PostgresRepositories(ctx context.Context, pgdb *gorm.DB, mongoDB *mongo.Database) (Repositories, error) {
	err := pgdb.AutoMigrate(
		&models.User{},
		&models.Friendship{},
		&models.FriendChallenge{},
		&models.Notification{},
		&models.RevokedToken{},
	)
	if err != nil {
		return Repositories{}, fmt.Errorf("auto migrate: %w", err)
	}

	repos := Repositories{
		Users:         repositories.NewPostgresUserRepository(pgdb),
		Friendships:   repositories.NewPostgresFriendshipRepository(pgdb),
		Challenges:    repositories.NewPostgresChallengeRepository(pgdb),
		Notifications: repositories.NewPostgresNotificationRepository(pgdb),
		Tokens:        repositories.NewPostgresTokenRepository(pgdb),
	}
	if mongoDB != nil {
		events := repositories.NewMongoChallengeEventRepository(mongoDB)
		if err := events.EnsureIndexes(ctx); err != nil {
			return Repositories{}, fmt.Errorf("challenge event indexes: %w", err)
		}
		repos.Events = events
	}
	return repos, nil
}

// MemoryRepositories returns repositories that share one in-process store
func MemoryRepositories() Repositories {
	store := memory.NewStore()
	return Repositories{
		Users:         memory.NewUserRepository(store),
		Friendships:   memory.NewFriendshipRepository(store),
		Challenges:    memory.NewChallengeRepository(store),
		Notifications: memory.NewNotificationRepository(store),
		Tokens:        memory.NewTokenRepository(store),
		Events:        memory.NewChallengeEventRepository(store),
	}
}

type Services struct {
	Friends    *services.FriendService
	Challenges *services.ChallengeService
}

// NewServices wires the domain services. pusher may be nil.
func NewServices(repos Repositories, pusher services.Pusher, log *zap.Logger) Services {
	notifier := services.NewNotifier(repos.Notifications, repos.Users, pusher, log.Named("notify"))
	return Services{
		Friends:    services.NewFriendService(repos.Friendships, repos.Users, notifier, log.Named("friends")),
		Challenges: services.NewChallengeService(repos.Challenges, repos.Friendships, repos.Users, repos.Events, notifier, log.Named("challenges")),
	}
}

// Options carries the optional pieces of the HTTP surface
type Options struct {
	FirebaseAuth handlers.IDTokenVerifier
	RateLimiter  *middleware.RateLimiter
	Ping         func(context.Context) error
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, cfg *config.Config, repos Repositories, svcs Services, opts Options, log *zap.Logger) {
	e.HTTPErrorHandler = handlers.ErrorHandler(log)

	e.Use(middleware.MonitorMiddleware())
	if opts.RateLimiter != nil {
		e.Use(opts.RateLimiter.Middleware())
	}

	e.GET("/health", handlers.HealthCheck(opts.Ping))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()), middleware.MetricsBasicAuth(cfg.MetricsUser, cfg.MetricsPass))

	api := e.Group("/api")
	requireAuth := middleware.JWTAuthMiddleware(cfg.JWTSecret, repos.Tokens)

	// --- Public routes ---
	authHandler := handlers.NewAuthHandler(repos.Users, repos.Tokens, opts.FirebaseAuth, cfg.JWTSecret, log.Named("auth"))
	users := api.Group("/users")
	authHandler.RegisterAuthRoutes(users)
	handlers.NewLeaderboardHandler(repos.Users).RegisterLeaderboardRoutes(api)

	// --- Protected routes (require JWT authentication) ---
	session := users.Group("", requireAuth)
	authHandler.RegisterSessionRoutes(session)
	handlers.NewUserHandler(repos.Users).RegisterProfileRoutes(session)

	friends := api.Group("/friends", requireAuth)
	handlers.NewChallengeHandler(svcs.Challenges).RegisterChallengeRoutes(friends)
	handlers.NewFriendshipHandler(svcs.Friends).RegisterFriendshipRoutes(friends)

	notifications := api.Group("/notifications", requireAuth)
	handlers.NewNotificationHandler(repos.Notifications, repos.Users).RegisterNotificationRoutes(notifications)

	log.Info("routes configured", zap.Int("count", len(e.Routes())))
}
