package web

import (
	"context"
	"net/http"
	"time"

	"correspondence/config"
	"correspondence/graph"
	"correspondence/retrieval"
	"correspondence/web/handlers"
	"correspondence/web/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	router   *gin.Engine
	engine   *retrieval.Engine
	explorer *graph.Explorer
	limiter  *middleware.ClientRateLimiter
	logger   *zap.Logger
	config   *config.Config
}

func NewServer(engine *retrieval.Engine, explorer *graph.Explorer, logger *zap.Logger, cfg *config.Config) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(func(c *gin.Context) {
		c.Set("logger", logger)
		c.Next()
	})
	router.Use(middleware.ClientMiddleware())

	server := &Server{
		router:   router,
		engine:   engine,
		explorer: explorer,
		limiter: middleware.NewClientRateLimiter(middleware.RateLimiterConfig{
			SearchesPerMinute: cfg.RateLimitSearchesPerMin,
			BurstSize:         cfg.RateLimitBurstSize,
			CleanupInterval:   cfg.RateLimitCleanupInterval,
		}, logger),
		logger: logger,
		config: cfg,
	}

	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	searchHandler := handlers.NewSearchHandler(s.engine, retrieval.NewLatest(), s.logger)
	graphHandler := handlers.NewGraphHandler(s.explorer, s.logger)

	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.router.GET("/search", middleware.RateLimitMiddleware(s.limiter), searchHandler.Search)
	s.router.GET("/graph", graphHandler.Graph)
	s.router.GET("/island/:letter", graphHandler.Island)
	s.router.GET("/timeline/:letter", graphHandler.Timeline)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close stops background work owned by the server.
func (s *Server) Close() {
	s.limiter.Stop()
}

func (s *Server) Start(ctx context.Context, addr string) error {
	s.logger.Info("Starting web server", zap.String("address", addr))
	defer s.Close()

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Web server failed to start", zap.Error(err))
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	s.logger.Info("Shutting down web server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
