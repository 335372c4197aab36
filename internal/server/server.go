package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aman-churiwal/getyoursite/internal/circuitbreaker"
	"github.com/aman-churiwal/getyoursite/internal/config"
	"github.com/aman-churiwal/getyoursite/internal/contact"
	"github.com/aman-churiwal/getyoursite/internal/handler"
	"github.com/aman-churiwal/getyoursite/internal/healthcheck"
	"github.com/aman-churiwal/getyoursite/internal/metrics"
	"github.com/aman-churiwal/getyoursite/internal/middleware"
	"github.com/aman-churiwal/getyoursite/internal/notify"
	"github.com/aman-churiwal/getyoursite/internal/ratelimit"
	"github.com/aman-churiwal/getyoursite/internal/repository"
	"github.com/aman-churiwal/getyoursite/internal/service"
	"github.com/aman-churiwal/getyoursite/internal/storage"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	scopeContact = "contact"
	scopeLogin   = "login"
)

// Options carries the dependencies built by main. Redis is nil when
// redis.enabled is false; MailBreaker is the breaker wrapped around
// Notifier, if any.
type Options struct {
	Config      *config.Config
	Postgres    *storage.Postgres
	Redis       *storage.RedisClient
	Notifier    notify.Notifier
	MailBreaker *circuitbreaker.CircuitBreaker
	Logger      *zap.Logger
}

type Server struct {
	router *gin.Engine
	config *config.Config
	logger *zap.Logger

	pipeline     *contact.Pipeline
	authService  *service.AuthService
	contactLimit ratelimit.Limiter
	loginLimit   ratelimit.Limiter

	health       *healthcheck.Checker
	stopSweepers context.CancelFunc
	httpServer   *http.Server
}

func New(opts Options) (*Server, error) {
	cfg := opts.Config
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	if err := router.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}

	rl := cfg.RateLimit
	contactLimit, err := ratelimit.NewLimiter(opts.Redis, rl.Backend, rl.Algorithm, scopeContact, rl.Limit, rl.Window)
	if err != nil {
		return nil, fmt.Errorf("contact rate limiter: %w", err)
	}
	loginLimit, err := ratelimit.NewLimiter(opts.Redis, rl.Backend, rl.Algorithm, scopeLogin, rl.Limit, rl.Window)
	if err != nil {
		return nil, fmt.Errorf("login rate limiter: %w", err)
	}

	submissions := repository.NewSubmissionRepository(opts.Postgres)
	authService := service.NewAuthService(repository.NewAdminUserRepository(opts.Postgres), cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	contentService := service.NewContentService(
		repository.NewSiteSectionRepository(opts.Postgres),
		opts.Redis,
		cfg.Content.CacheTTL,
		logger.Named("content"),
	)

	pipeline := contact.NewPipeline(contact.PipelineConfig{
		Limiter:       contactLimit,
		Store:         submissions,
		Notifier:      opts.Notifier,
		NotifyTimeout: cfg.Mail.Timeout,
		Logger:        logger.Named("contact"),
	})

	s := &Server{
		router:       router,
		config:       cfg,
		logger:       logger,
		pipeline:     pipeline,
		authService:  authService,
		contactLimit: contactLimit,
		loginLimit:   loginLimit,
	}

	var breaker handler.BreakerReporter
	if opts.MailBreaker != nil {
		breaker = opts.MailBreaker
	}

	s.setupMiddleware()
	s.setupRoutes(routeHandlers{
		contact:  handler.NewContactHandler(pipeline, logger.Named("contact")),
		messages: handler.NewMessagesHandler(submissions, logger),
		content:  handler.NewContentHandler(contentService, logger),
		auth:     handler.NewAuthHandler(authService, logger.Named("auth")),
		system:   handler.NewSystemHandler(submissions, breaker, logger),
	})
	s.health = healthcheck.NewChecker(healthcheck.Config{Logger: logger.Named("health")})
	s.health.Register("database", opts.Postgres.Ping)
	if opts.Redis != nil {
		s.health.Register("redis", opts.Redis.Ping)
	}

	s.startSweepers()

	return s, nil
}

type routeHandlers struct {
	contact  *handler.ContactHandler
	messages *handler.MessagesHandler
	content  *handler.ContentHandler
	auth     *handler.AuthHandler
	system   *handler.SystemHandler
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID())
	s.router.Use(middleware.Recovery(s.logger))
	s.router.Use(middleware.Logger(s.logger.Named("http")))
	s.router.Use(middleware.Metrics())
	s.router.Use(middleware.CORS(s.config.Server.CORSOrigin))
}

func (s *Server) setupRoutes(h routeHandlers) {
	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := s.router.Group("/api")
	{
		api.GET("", h.system.Index)
		api.POST("/contact", h.contact.Submit)
		api.GET("/content", h.content.Get)
	}

	api.POST("/admin/login", middleware.RateLimit(s.loginLimit, scopeLogin, s.logger), h.auth.Login)

	admin := api.Group("/admin", middleware.RequireAuth(s.authService))
	{
		admin.GET("/verify", h.auth.Verify)
		admin.GET("/messages", h.messages.List)
		admin.PUT("/messages/read", h.messages.MarkRead)
		admin.DELETE("/messages/:id", h.messages.Delete)
		admin.PUT("/content", h.content.Update)
		admin.GET("/status", h.system.Status)
		admin.POST("/mail/breaker/reset", h.system.ResetMailBreaker)
	}
}

func (s *Server) startSweepers() {
	ctx, cancel := context.WithCancel(context.Background())
	s.stopSweepers = cancel

	for _, l := range []ratelimit.Limiter{s.contactLimit, s.loginLimit} {
		if mem, ok := l.(*ratelimit.MemoryFixedWindow); ok {
			mem.StartSweeper(ctx, s.config.RateLimit.SweepInterval)
		}
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	overall := s.health.CheckAll(c.Request.Context())

	checks := gin.H{}
	for name, status := range s.health.GetAllStatus() {
		checks[name] = status.IsHealthy
	}

	statusCode := http.StatusOK
	if overall != healthcheck.Healthy {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, gin.H{
		"status":    overall.String(),
		"service":   "getyoursite",
		"timestamp": time.Now().Unix(),
		"checks":    checks,
	})
}

// EnsureAdmin seeds the admin account from configuration.
func (s *Server) EnsureAdmin(ctx context.Context) error {
	a := s.config.Auth
	return s.authService.EnsureAdmin(ctx, a.AdminUsername, a.AdminPassword, a.AdminPasswordHash)
}

func (s *Server) Run(addr string) error {
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	s.health.Start()

	s.logger.Info("starting server",
		zap.String("addr", addr),
		zap.String("environment", s.config.Server.Environment))

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, then waits for in-flight notifications
// until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")

	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}

	s.stopSweepers()
	s.health.Stop()

	drained := make(chan struct{})
	go func() {
		s.pipeline.Wait()
		close(drained)
	}()

	select {
	case <-drained:
	case <-ctx.Done():
		s.logger.Warn("gave up waiting for pending notifications")
	}

	return err
}

func (s *Server) GetRouter() *gin.Engine {
	return s.router
}
