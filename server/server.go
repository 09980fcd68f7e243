package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/customeros/mailsort/api"
	"github.com/customeros/mailsort/config"
	"github.com/customeros/mailsort/internal/cron"
	"github.com/customeros/mailsort/internal/logger"
	"github.com/customeros/mailsort/internal/tracing"
	"github.com/customeros/mailsort/services"
)

const (
	shutdownTimeout = 15 * time.Second
	runStopTimeout  = 30 * time.Second
)

type Server struct {
	config       *config.Config
	log          logger.Logger
	httpServer   *http.Server
	router       *gin.Engine
	services     *services.Services
	cronManager  *cron.CronManager
	tracerCloser io.Closer
}

// NewServer wires the control API, the scheduler and the run engine. db is
// optional.
func NewServer(cfg *config.Config, appLogger logger.Logger, db *gorm.DB) (*Server, error) {
	tracer, closer, err := tracing.NewJaegerTracer(cfg.Tracing, appLogger)
	if err != nil {
		return nil, errors.Wrap(err, "could not initialize jaeger tracer")
	}
	opentracing.SetGlobalTracer(tracer)

	svcs, err := services.InitServices(cfg, appLogger, db)
	if err != nil {
		return nil, err
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	return &Server{
		config:       cfg,
		log:          appLogger,
		router:       router,
		services:     svcs,
		cronManager:  cron.NewCronManager(cfg.CronConfig, appLogger, svcs.Runner, cfg.Snapshot),
		tracerCloser: closer,
		httpServer: &http.Server{
			Addr:    ":" + cfg.AppConfig.APIPort,
			Handler: router,
		},
	}, nil
}

func (s *Server) Initialize() error {
	// fail fast on a broken rule configuration
	if _, err := s.config.Snapshot(); err != nil {
		return err
	}

	deps := api.Dependencies{
		Runner:   s.services.Runner,
		Snapshot: s.config.Snapshot,
		Log:      s.log,
		APIKey:   s.config.AppConfig.APIKey,
	}
	if s.services.Repositories != nil {
		deps.Repository = s.services.Repositories.SessionRunRepository
	}
	api.RegisterRoutes(s.router, deps)
	return nil
}

func (s *Server) recoverWithJaeger(name string) {
	if r := recover(); r != nil {
		span := opentracing.GlobalTracer().StartSpan(
			fmt.Sprintf("panic.%s", name),
		)
		defer span.Finish()

		ext.Error.Set(span, true)

		span.LogKV(
			"event", "panic",
			"process", name,
			"error", fmt.Sprintf("%v", r),
			"stack", string(debug.Stack()),
		)

		s.log.Errorf("Panic in %s: %v\n%s", name, r, debug.Stack())
	}
}

func (s *Server) wrapGoroutine(name string, fn func()) {
	defer s.recoverWithJaeger(name)
	fn()
}

func (s *Server) Run() error {
	if err := s.Initialize(); err != nil {
		return err
	}

	if err := s.cronManager.StartCron(); err != nil {
		return err
	}

	go s.wrapGoroutine("http_server", func() {
		s.log.Infof("Starting HTTP server on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Errorf("HTTP server error: %v", err)
		}
	})
	s.log.Info("Mailsort is now running. Press Ctrl+C to exit.")

	return s.waitForShutdown()
}

func (s *Server) waitForShutdown() error {
	defer s.recoverWithJaeger("shutdown")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	s.log.Info("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.log.Errorf("HTTP server shutdown error: %v", err)
	}

	s.cronManager.Stop()

	// let an active run finish its current message and purge its folder
	if err := s.services.Runner.Cancel(); err == nil {
		s.log.Info("Cancelling active classification run...")
		stopped := make(chan struct{})
		go s.wrapGoroutine("run_shutdown", func() {
			defer close(stopped)
			s.services.Runner.Wait()
		})
		select {
		case <-stopped:
			s.log.Info("Classification run stopped")
		case <-time.After(runStopTimeout):
			s.log.Warn("Classification run did not stop in time, forcing exit")
		}
	}

	if err := s.services.Close(); err != nil {
		s.log.Errorf("Failed to close services: %v", err)
	}
	if s.tracerCloser != nil {
		_ = s.tracerCloser.Close()
	}
	return nil
}
