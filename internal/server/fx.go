// Package server provides the core application server and dependency injection.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/empresasbrasil/internal/api"
	"github.com/JakeFAU/empresasbrasil/internal/auth"
	"github.com/JakeFAU/empresasbrasil/internal/billing"
	"github.com/JakeFAU/empresasbrasil/internal/clock/system"
	"github.com/JakeFAU/empresasbrasil/internal/config"
	"github.com/JakeFAU/empresasbrasil/internal/crm"
	"github.com/JakeFAU/empresasbrasil/internal/email"
	"github.com/JakeFAU/empresasbrasil/internal/id/uuid"
	"github.com/JakeFAU/empresasbrasil/internal/metrics"
	"github.com/JakeFAU/empresasbrasil/internal/mode"
	"github.com/JakeFAU/empresasbrasil/internal/monitor"
	"github.com/JakeFAU/empresasbrasil/internal/policy/ratelimit"
	"github.com/JakeFAU/empresasbrasil/internal/registry"
	"github.com/JakeFAU/empresasbrasil/internal/scraper"
	"github.com/JakeFAU/empresasbrasil/internal/storage/memory"
	"github.com/JakeFAU/empresasbrasil/internal/storage/postgres"
)

// Offline credentials accepted while the users table is unreachable.
const (
	offlineUserEmail    = "test@test.com"
	offlineUserPassword = "test123"
)

// App contains the application's dependencies.
type App struct {
	cfg       *config.Config
	logger    *zap.Logger
	apiServer *api.Server
	state     *mode.State
	monitor   *monitor.Monitor
}

// Build creates the application's dependencies. The process always starts
// Offline; Run hands the database over once the monitor reaches it.
func Build(_ context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.Init()
	logger.Info("building application dependencies",
		zap.String("env", cfg.Env),
		zap.Int("port", cfg.Server.Port),
		zap.Bool("database_configured", cfg.DB.DSN != ""),
	)

	app := &App{cfg: cfg, logger: logger}
	app.state = mode.NewState(func(m mode.Mode) {
		metrics.SetMode(m == mode.Railway)
		logger.Info("connection mode changed", zap.String("mode", m.String()))
	})
	app.monitor = setupMonitor(cfg, app.state, logger)

	clock := system.New()
	users, err := offlineUsers()
	if err != nil {
		return nil, err
	}
	leads := memory.NewLeadStore()

	mailer := setupMailer(cfg, logger)
	tokens := auth.NewTokens(string(cfg.JWTSecret()), cfg.Auth.TokenTTL, cfg.Auth.Issuer, clock)
	authSvc := auth.NewService(func() auth.UserStore {
		if db, ok := app.state.DB(); ok {
			return postgres.NewUserStore(db)
		}
		return users
	}, tokens, mailer, logger.Named("auth"))

	crmSvc := crm.NewService(func() crm.Store {
		if db, ok := app.state.DB(); ok {
			return postgres.NewLeadStore(db)
		}
		return leads
	}, clock, uuid.New(), logger.Named("crm"))

	registrySvc := registry.NewService(func() (registry.Store, bool) {
		db, ok := app.state.DB()
		if !ok {
			return nil, false
		}
		return postgres.NewRegistryStore(db), true
	}, registry.NewSampleStore(), metrics.ObserveSearch, logger.Named("registry"))

	billingSvc, err := billing.NewService(cfg.Stripe, nil, authSvc.SetPlan, logger.Named("billing"))
	if err != nil {
		return nil, fmt.Errorf("billing init failed: %w", err)
	}
	if !billingSvc.Enabled() {
		logger.Warn("stripe secret key not set, checkout disabled")
	}

	scraperSvc := scraper.NewService(
		scraper.NewClient(scraper.Config{
			BaseURL: cfg.Apify.BaseURL,
			Token:   cfg.Apify.APIKey,
			Timeout: cfg.Apify.Timeout,
		}, logger.Named("apify")),
		scraper.Options{
			PlacesActor:    cfg.Apify.PlacesActor,
			InstagramActor: cfg.Apify.InstagramActor,
			InstagramLimit: cfg.Apify.InstagramLimit,
			ResultLimit:    cfg.Apify.ResultLimit,
		},
		logger.Named("scraper"),
	)
	if !scraperSvc.Configured() {
		logger.Warn("apify api key not set, scraping endpoints disabled")
	}

	app.apiServer = api.NewServer(api.Deps{
		Registry: registrySvc,
		Auth:     authSvc,
		CRM:      crmSvc,
		Scraper:  scraperSvc,
		Billing:  billingSvc,
		Monitor:  app.monitor,
		Mode:     app.state,
	}, api.Options{
		Development:    cfg.Development(),
		CORSOrigins:    cfg.Server.CORSOrigins,
		RequestTimeout: cfg.Server.RequestTimeout,
		LoginLimiter: ratelimit.New(ratelimit.Config{
			RPS:   cfg.RateLimit.LoginRPS,
			Burst: cfg.RateLimit.LoginBurst,
		}),
		ScraperLimiter: ratelimit.New(ratelimit.Config{
			RPS:   cfg.RateLimit.ScraperRPS,
			Burst: cfg.RateLimit.ScraperBurst,
		}),
		StartedAt: time.Now(),
		Today:     clock.Date,

		DatabaseConfigured: cfg.DB.DSN != "",
	}, logger)

	return app, nil
}

// Handler exposes the HTTP handler, mainly for tests.
func (a *App) Handler() http.Handler {
	return a.apiServer.Handler()
}

// Mode reports the current connection mode.
func (a *App) Mode() mode.Mode {
	return a.state.Mode()
}

// Run starts the application and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("application started")
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if a.cfg.DB.DSN != "" {
		a.monitor.Start(ctx)
	} else {
		a.logger.Warn("database url not set, serving offline data only")
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           a.apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		a.logger.Info("http server started", zap.Int("port", a.cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	a.logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("server shutdown error", zap.Error(err))
	}

	return a.Close(shutdownCtx)
}

// Close stops the monitor and releases the database pool.
func (a *App) Close(_ context.Context) error {
	a.monitor.Stop()
	a.state.Demote()
	if err := a.logger.Sync(); err != nil {
		a.logger.Debug("logger sync failed", zap.Error(err))
	}
	a.logger.Info("shutdown complete")
	return nil
}

func setupMonitor(cfg *config.Config, state *mode.State, logger *zap.Logger) *monitor.Monitor {
	dsn := cfg.DB.DSN
	switcher := mode.NewSwitcher(state, func(ctx context.Context) (postgres.DB, func(), error) {
		pool, err := postgres.Open(ctx, postgres.PoolConfig{
			DSN:            dsn,
			MaxConns:       cfg.DB.MaxConns,
			ConnectTimeout: cfg.DB.ConnectTimeout,
		})
		if err != nil {
			return nil, nil, err
		}
		return pool, pool.Close, nil
	}, func(ctx context.Context) error {
		return postgres.Migrate(ctx, dsn)
	}, logger.Named("mode"))

	return monitor.New(monitor.Config{
		Interval:        cfg.Monitor.Interval,
		BackoffInterval: cfg.Monitor.BackoffInterval,
		ProbeTimeout:    cfg.Monitor.ProbeTimeout,
		MaxRetries:      cfg.Monitor.MaxRetries,
	}, postgres.Prober{DSN: dsn}, switcher.Restore, probeMetrics{}, logger.Named("monitor"))
}

// probeMetrics forwards monitor probes to Prometheus.
type probeMetrics struct{}

func (probeMetrics) ObserveProbe(success bool, _ time.Duration) {
	metrics.ObserveProbe(success)
}

func offlineUsers() (*memory.UserStore, error) {
	hash, err := auth.HashPassword(offlineUserPassword)
	if err != nil {
		return nil, fmt.Errorf("hash offline user password: %w", err)
	}
	return memory.NewUserStore(auth.User{
		ID:           1,
		Email:        offlineUserEmail,
		Name:         "Usuário Teste",
		PasswordHash: hash,
	}), nil
}

// setupMailer orders providers by preference: Resend, SendGrid, SMTP, then
// the log console in development.
func setupMailer(cfg *config.Config, logger *zap.Logger) *email.Mailer {
	var providers []email.Provider
	if cfg.Email.ResendAPIKey != "" {
		providers = append(providers, email.NewResend(cfg.Email.ResendAPIKey))
	}
	if cfg.Email.SendGridAPIKey != "" {
		providers = append(providers, email.NewSendGrid(cfg.Email.SendGridAPIKey))
	}
	if cfg.Email.SMTP.Host != "" {
		providers = append(providers, email.NewSMTP(email.SMTPConfig{
			Host:        cfg.Email.SMTP.Host,
			Port:        cfg.Email.SMTP.Port,
			Username:    cfg.Email.SMTP.Username,
			Password:    cfg.Email.SMTP.Password,
			ImplicitTLS: cfg.Email.SMTP.ImplicitTLS,
		}))
	}
	if cfg.Development() {
		providers = append(providers, email.NewConsole(logger.Named("email.console")))
	}
	chain := email.NewChain(providers, metrics.ObserveEmail, logger.Named("email"))
	if len(providers) == 0 {
		logger.Warn("no email provider configured, transactional mail disabled")
	} else {
		logger.Info("email providers configured", zap.Strings("providers", chain.Providers()))
	}
	return email.NewMailer(chain, email.MailerConfig{
		From:        cfg.Email.From,
		FromName:    cfg.Email.FromName,
		FrontendURL: cfg.Server.FrontendURL,
		AdminEmail:  cfg.Email.AdminEmail,
	}, logger.Named("mailer"))
}
