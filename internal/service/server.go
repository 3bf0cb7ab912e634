package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"qwenrotate-go/internal/config"
	"qwenrotate-go/internal/middleware"
	"qwenrotate-go/internal/rotation"
	"qwenrotate-go/internal/runner"
)

// Caller is the slice of the retry wrapper the service needs; tests stub it
// to avoid invoking a real binary.
type Caller interface {
	Call(ctx context.Context, prompt string) runner.WrapperResult
}

// Server exposes the rotation manager over HTTP for operators and for
// automation that cannot shell out to the CLI.
type Server struct {
	cfg     *config.Config
	manager *rotation.Manager
	caller  Caller
	runner  runner.ToolRunner
	engine  *gin.Engine
}

// NewServer wires the engine with the standard middleware chain and routes.
func NewServer(cfg *config.Config, mgr *rotation.Manager, caller Caller, tool runner.ToolRunner) *Server {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	s := &Server{
		cfg:     cfg,
		manager: mgr,
		caller:  caller,
		runner:  tool,
		engine:  gin.New(),
	}

	s.engine.Use(middleware.RequestID())
	s.engine.Use(middleware.Recovery())
	s.engine.Use(middleware.Logger())
	if cfg.RateLimitEnabled {
		s.engine.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
	}

	s.registerRoutes()
	return s
}

// Engine returns the underlying gin engine, mainly for tests.
func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) registerRoutes() {
	s.engine.GET("/health", s.handleHealth)

	v1 := s.engine.Group("/v1")
	v1.GET("/accounts", s.handleAccounts)
	v1.GET("/stats", s.handleStats)
	v1.POST("/switch", s.handleSwitch)
	v1.POST("/switch/next", s.handleSwitchNext)
	v1.POST("/generate", s.handleGenerate)
	v1.GET("/ping-all", s.handlePingAll)
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.cfg.Port),
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("HTTP service listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down HTTP service")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown HTTP service: %w", err)
	}
	return <-errCh
}
