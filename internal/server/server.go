package server

import (
	"fmt"
	"net/http"
	"time"

	"catalog/internal/config"
	"catalog/internal/database"
	custommiddleware "catalog/internal/middleware"
	"catalog/internal/repository"
	"catalog/internal/service"
	"catalog/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     database.Service
	redis  *redis.Client
}

// NewServer wires repositories, services and handlers onto a chi router.
// redisClient may be nil, in which case write routes are not rate limited.
func NewServer(cfg *config.Config, logger *zap.Logger, db database.Service, redisClient *redis.Client) *Server {
	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		db:     db,
		redis:  redisClient,
	}
	server.Handler = server.routes()

	return server
}

func (s *Server) routes() http.Handler {
	router := chi.NewRouter()

	router.Use(custommiddleware.DefaultMiddlewareStack()...)
	router.Use(custommiddleware.LoggingMiddleware(s.logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(s.logger))
	router.Use(custommiddleware.CORSMiddleware(s.config.Server.AllowedOrigins, s.config.Server.IsDevelopment()))

	router.Get("/health", s.healthHandler)

	pool := s.db.DB()
	tx := database.NewTransactor(pool)

	// Repositories
	productRepo := repository.NewProductRepository()
	categoryRepo := repository.NewCategoryRepository()
	userRepo := repository.NewUserRepository(pool)
	refreshTokenRepo := repository.NewRefreshTokenRepository(pool)

	// Services
	userService := service.NewUserService(userRepo, refreshTokenRepo, s.config.JWT)
	productService := service.NewProductService(pool, tx, productRepo, categoryRepo)
	categoryService := service.NewCategoryService(pool, tx, categoryRepo)

	authMiddleware := custommiddleware.AuthMiddleware(userService, s.logger)
	editorMiddleware := s.editorMiddleware(authMiddleware)

	transport.NewUserHandler(userService, s.logger).RegisterRoutes(router, authMiddleware)
	transport.NewProductHandler(productService, s.config.Pagination, s.logger).RegisterRoutes(router, editorMiddleware)
	transport.NewCategoryHandler(categoryService, s.config.Pagination, s.logger).RegisterRoutes(router, editorMiddleware)

	return router
}

// editorMiddleware authenticates catalog writes and, when configured, rate limits them per user.
func (s *Server) editorMiddleware(auth func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	if s.redis == nil || !s.config.RateLimit.Enabled {
		return auth
	}

	limit := custommiddleware.RateLimitMiddleware(s.redis, custommiddleware.RateLimitConfig{
		RequestsPerWindow: s.config.RateLimit.RequestsPerWindow,
		Window:            s.config.RateLimit.Window,
		KeyPrefix:         "catalog:ratelimit:write",
	}, s.logger)

	return func(next http.Handler) http.Handler {
		return auth(limit(next))
	}
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	stats := s.db.Health()

	status := http.StatusOK
	if stats["status"] != "up" {
		status = http.StatusServiceUnavailable
	}

	if s.redis != nil {
		if err := s.redis.Ping(r.Context()).Err(); err != nil {
			stats["redis"] = "down"
		} else {
			stats["redis"] = "up"
		}
	}

	custommiddleware.RespondWithJSON(w, status, stats)
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis client", zap.Error(err))
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
