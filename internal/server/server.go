package server

import (
	"context"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/tastebook/backend/config"
	"github.com/tastebook/backend/internal/api"
	"github.com/tastebook/backend/internal/cache"
	"github.com/tastebook/backend/internal/database"
	"github.com/tastebook/backend/internal/middleware"
	"github.com/tastebook/backend/internal/router"
	"github.com/tastebook/backend/internal/service"
)

// analyticsTTL bounds staleness of cached analytics between invalidations.
const analyticsTTL = 10 * time.Minute

// Server wires the storage, services and HTTP layer together.
type Server struct {
	http *http.Server
}

// New builds a ready-to-start server from configuration: Postgres with the
// schema ensured, Redis for caching and rate limiting (optional), and the
// full handler set.
func New(cfg *config.Config) (*Server, error) {
	db, err := database.New(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.EnsureSchema(db); err != nil {
		return nil, err
	}

	var analytics cache.Store
	var limiter *middleware.RateLimiter
	redisClient, err := database.NewRedisClient(cfg)
	if err != nil {
		log.Printf("redis unavailable, continuing without cache: %v", err)
	} else {
		analytics = cache.NewRedis(redisClient, analyticsTTL)
		limiter = middleware.NewImportRateLimiter(redisClient)
	}

	auth := service.NewAuthService(db, cfg.JWTSecret)
	recipes := service.NewRecipeService(db, auth, analytics)
	reviews := service.NewReviewService(db, auth)
	users := service.NewUserService(db, auth, recipes)
	importer := service.NewImportService(db)

	engine := router.SetupRouter(router.Handlers{
		Auth:    api.NewAuthHandler(auth),
		User:    api.NewUserHandler(users),
		Recipe:  api.NewRecipeHandler(recipes),
		Review:  api.NewReviewHandler(reviews),
		Admin:   api.NewAdminHandler(db, importer),
		Tokens:  auth,
		Limiter: limiter,
	})

	return &Server{
		http: &http.Server{
			Addr:    net.JoinHostPort(cfg.ServerHost, cfg.ServerPort),
			Handler: engine,
		},
	}, nil
}

// Start serves until Shutdown is called or the listener fails.
func (s *Server) Start() error {
	log.Printf("listening on %s", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.http.Shutdown(ctx)
}
