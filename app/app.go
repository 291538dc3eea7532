// Package app wires configuration, logging, persistence, auth and the HTTP
// server into a runnable taskboard service.
package app

import (
	"context"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-taskboard/api"
	"github.com/goliatone/go-taskboard/auth"
	"github.com/goliatone/go-taskboard/config"
	"github.com/goliatone/go-taskboard/logging"
	"github.com/goliatone/go-taskboard/middleware/ratelimit"
	"github.com/goliatone/go-taskboard/repository"
	"github.com/goliatone/go-taskboard/tasks"
	"github.com/redis/go-redis/v9"
)

type App struct {
	config      *config.Config
	logs        *logging.Provider
	logger      logging.Logger
	repo        *repository.Manager
	redis       redis.UniversalClient
	ownsRedis   bool
	revocations auth.RevocationStore
	limiter     ratelimit.Limiter
	auther      *auth.Auther
	tasks       *tasks.Service
	srv         *fiber.App
	scheduler   *Scheduler
	clock       func() time.Time
}

type Option func(*App)

// WithLogProvider replaces the provider built from the logging config
func WithLogProvider(p *logging.Provider) Option {
	return func(a *App) {
		a.logs = p
	}
}

// WithRepository skips opening the configured backend
func WithRepository(m *repository.Manager) Option {
	return func(a *App) {
		a.repo = m
	}
}

// WithRedisClient skips dialing the configured redis server
func WithRedisClient(c redis.UniversalClient) Option {
	return func(a *App) {
		a.redis = c
	}
}

// WithClock overrides the time source of every service
func WithClock(clock func() time.Time) Option {
	return func(a *App) {
		if clock != nil {
			a.clock = clock
		}
	}
}

// New builds the application. Nothing listens until Serve is called.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		d := config.Defaults()
		cfg = &d
	}

	a := &App{config: cfg, clock: time.Now}
	for _, opt := range opts {
		opt(a)
	}

	steps := []func(context.Context, *App) error{
		WithLogging,
		WithRedis,
		WithPersistence,
		WithAuth,
		WithTasks,
		WithJobs,
		WithHTTPServer,
	}

	for _, step := range steps {
		if err := step(ctx, a); err != nil {
			_ = a.Close()
			return nil, err
		}
	}

	return a, nil
}

func (a *App) Config() *config.Config          { return a.config }
func (a *App) Server() *fiber.App              { return a.srv }
func (a *App) Auther() *auth.Auther            { return a.auther }
func (a *App) Tasks() *tasks.Service           { return a.tasks }
func (a *App) Repository() *repository.Manager { return a.repo }
func (a *App) Scheduler() *Scheduler           { return a.scheduler }

// GetLogger returns a logger tagged with name
func (a *App) GetLogger(name string) logging.Logger {
	return a.logs.GetLogger(name)
}

func WithLogging(_ context.Context, a *App) error {
	if a.logs == nil {
		a.logs = logging.New(logging.Config{
			Level:  a.config.Logging.Level,
			Format: a.config.Logging.Format,
		})
	}
	a.logger = a.GetLogger("app")
	return nil
}

func WithRedis(ctx context.Context, a *App) error {
	if a.redis != nil || !a.config.UsesRedis() {
		return nil
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    []string{a.config.Redis.Addr},
		Password: a.config.Redis.Password,
		DB:       a.config.Redis.DB,
	})

	timeout := a.config.Persistence.PingTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return errors.Wrap(err, errors.CategoryInternal, "failed to reach redis")
	}

	a.redis = client
	a.ownsRedis = true
	a.logger.Info("redis connected", "addr", a.config.Redis.Addr)
	return nil
}

func WithPersistence(ctx context.Context, a *App) error {
	if a.repo != nil {
		return a.repo.Validate()
	}

	cfg := a.config.Persistence
	m, err := repository.Open(ctx, repository.Config{
		Driver:           cfg.Driver,
		DSN:              cfg.DSN,
		Database:         cfg.Database,
		Debug:            cfg.Debug,
		AutoMigrate:      cfg.AutoMigrate,
		FallbackToMemory: cfg.FallbackToMemory,
		ConnectTimeout:   cfg.PingTimeout,
	}, a.GetLogger("persistence"))
	if err != nil {
		return err
	}

	a.repo = m
	return m.Validate()
}

func WithAuth(_ context.Context, a *App) error {
	cfg := a.config.Auth
	logger := a.GetLogger("auth")

	tokens := auth.NewTokenService([]byte(cfg.SigningKey), cfg.TokenTTL,
		auth.WithIssuer(cfg.Issuer),
		auth.WithAudience(cfg.Audience...),
		auth.WithClock(a.clock),
		auth.WithTokenLogger(logger),
	)

	opts := []auth.AutherOption{
		auth.WithHasher(auth.NewBcryptHasher(cfg.BcryptCost)),
		auth.WithActivitySink(auth.LoggerActivitySink(a.GetLogger("activity"))),
		auth.WithAutherClock(a.clock),
		auth.WithDeterministicIDs(cfg.DeterministicIDs),
		auth.WithAutherLogger(logger),
	}

	switch cfg.Revocation.Store {
	case config.RevocationMemory:
		a.revocations = auth.NewMemoryRevocationStore()
	case config.RevocationRedis:
		a.revocations = auth.NewRedisRevocationStore(a.redis, "")
	}
	if a.revocations != nil {
		opts = append(opts, auth.WithRevocationStore(a.revocations))
	}

	a.auther = auth.NewAuther(a.repo.Users(), tokens, opts...)
	return nil
}

func WithTasks(_ context.Context, a *App) error {
	a.tasks = tasks.NewService(a.repo.Tasks(),
		tasks.WithClock(a.clock),
		tasks.WithLogger(a.GetLogger("tasks")),
	)
	return nil
}

func WithJobs(_ context.Context, a *App) error {
	a.scheduler = NewScheduler(a.GetLogger("jobs"))

	if store, ok := a.revocations.(*auth.MemoryRevocationStore); ok {
		err := a.scheduler.Add("prune-revocations", a.config.Auth.Revocation.PruneSchedule, func() {
			if n := store.Prune(); n > 0 {
				a.logger.Debug("pruned revoked tokens", "count", n)
			}
		})
		if err != nil {
			return errors.Wrap(err, errors.CategoryBadInput, "invalid revocation prune schedule")
		}
	}

	rl := a.config.RateLimit
	if !rl.Enabled {
		return nil
	}

	if rl.Backend == config.LimiterRedis {
		a.limiter = ratelimit.NewRedisLimiter(a.redis, rl.Requests, rl.Window, "")
		return nil
	}

	local := ratelimit.PerWindow(rl.Requests, rl.Window)
	a.limiter = local
	err := a.scheduler.Add("prune-rate-limits", rl.PruneSchedule, func() {
		if n := local.Prune(rl.Window); n > 0 {
			a.logger.Debug("pruned rate limit buckets", "count", n)
		}
	})
	if err != nil {
		return errors.Wrap(err, errors.CategoryBadInput, "invalid rate limit prune schedule")
	}
	return nil
}

func WithHTTPServer(_ context.Context, a *App) error {
	cfg := a.config.HTTP
	httpLogger := a.GetLogger("http")

	srv := fiber.New(fiber.Config{
		AppName:               a.config.App.Name,
		BodyLimit:             cfg.BodyLimit,
		ReadTimeout:           cfg.ReadTimeout,
		StrictRouting:         false,
		DisableStartupMessage: true,
		ErrorHandler:          api.ErrorHandler(httpLogger, a.config.App.Debug),
	})

	srv.Use(requestid.New())
	srv.Use(recover.New(recover.Config{EnableStackTrace: a.config.App.Debug}))
	srv.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.CORSOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	srv.Use(requestLogger(httpLogger))

	srv.Get("/health", a.Health)
	srv.Get("/ready", a.Ready)

	var authLimiter fiber.Handler
	if a.limiter != nil {
		authLimiter = ratelimit.New(ratelimit.Config{
			Name:    "auth",
			Limiter: a.limiter,
			Window:  a.config.RateLimit.Window,
			Logger:  httpLogger,
		})
	}

	api.RegisterRoutes(srv.Group("/api"), api.RouteConfig{
		Accounts:    a.auther,
		Tasks:       a.tasks,
		Logger:      httpLogger,
		Debug:       a.config.App.Debug,
		AuthLimiter: authLimiter,
	})

	a.srv = srv
	return nil
}

func requestLogger(logger logging.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if err != nil {
			// let the error handler write the status before logging it
			if hErr := c.App().ErrorHandler(c, err); hErr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}
		logger.Debug("request",
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"duration", time.Since(start).String(),
			"request_id", c.Locals("requestid"),
		)
		return nil
	}
}

// Serve listens on the configured address until ctx is cancelled, then
// shuts down gracefully.
func (a *App) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.config.HTTP.Addr)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to listen")
	}
	return a.ServeListener(ctx, ln)
}

// ServeListener is Serve on an existing listener
func (a *App) ServeListener(ctx context.Context, ln net.Listener) error {
	a.scheduler.Start()
	defer a.scheduler.Stop()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", "addr", ln.Addr().String(), "driver", a.repo.Driver())
		errCh <- a.srv.Listener(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down", "timeout", a.config.HTTP.ShutdownTimeout.String())
	if err := a.srv.ShutdownWithTimeout(a.config.HTTP.ShutdownTimeout); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "graceful shutdown failed")
	}
	return <-errCh
}

// Close releases the storage and redis connections
func (a *App) Close() error {
	var firstErr error
	if a.repo != nil {
		if err := a.repo.Close(); err != nil {
			firstErr = err
		}
	}
	if a.redis != nil && a.ownsRedis {
		if err := a.redis.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// WaitExitSignal returns a context cancelled on SIGINT, SIGQUIT or SIGTERM
func WaitExitSignal(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent,
		os.Interrupt,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
}
