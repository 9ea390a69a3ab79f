package api

import (
	"context"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/cors"
	"github.com/unrolled/secure"
	"go.uber.org/zap"

	"github.com/JakeFAU/empresasbrasil/internal/auth"
	"github.com/JakeFAU/empresasbrasil/internal/billing"
	"github.com/JakeFAU/empresasbrasil/internal/crm"
	"github.com/JakeFAU/empresasbrasil/internal/metrics"
	"github.com/JakeFAU/empresasbrasil/internal/mode"
	"github.com/JakeFAU/empresasbrasil/internal/monitor"
	"github.com/JakeFAU/empresasbrasil/internal/policy/ratelimit"
	"github.com/JakeFAU/empresasbrasil/internal/registry"
	"github.com/JakeFAU/empresasbrasil/internal/scraper"
)

// DefaultRequestTimeout bounds every request unless Options overrides it.
const DefaultRequestTimeout = 60 * time.Second

// Monitor is the part of the connectivity monitor the API drives.
type Monitor interface {
	Status() monitor.Status
	Check(ctx context.Context) monitor.Result
	Reset()
	Start(ctx context.Context)
}

// ModeReporter reports the connection mode.
type ModeReporter interface {
	Mode() mode.Mode
	Since() time.Time
}

// Deps are the services behind the handlers. Scraper and Billing may be
// nil, in which case their endpoints answer 503.
type Deps struct {
	Registry *registry.Service
	Auth     *auth.Service
	CRM      *crm.Service
	Scraper  *scraper.Service
	Billing  *billing.Service
	Monitor  Monitor
	Mode     ModeReporter
}

// Options tune the HTTP surface.
type Options struct {
	Development    bool
	CORSOrigins    []string
	RequestTimeout time.Duration
	LoginLimiter   *ratelimit.Limiter
	ScraperLimiter *ratelimit.Limiter
	StartedAt      time.Time
	// DatabaseConfigured is false when no DSN was given, so reconnect has
	// nothing to dial.
	DatabaseConfigured bool
	// Today dates the export file name. Defaults to the local date.
	Today func() string
}

// Server wires HTTP handlers to the domain services.
type Server struct {
	router   chi.Router
	handler  http.Handler
	deps     Deps
	opts     Options
	validate *validator.Validate
	logger   *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(deps Deps, opts Options, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}
	if opts.StartedAt.IsZero() {
		opts.StartedAt = time.Now()
	}
	if opts.Today == nil {
		opts.Today = func() string { return time.Now().Format(time.DateOnly) }
	}
	s := &Server{
		deps:     deps,
		opts:     opts,
		validate: newValidator(),
		logger:   logger.Named("api"),
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(s.logger))
	r.Use(recoverMiddleware(s.logger))
	r.Use(metrics.Middleware)
	r.Use(timeoutMiddleware(opts.RequestTimeout))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/filters/options", s.filterOptions)
		r.Route("/companies", func(r chi.Router) {
			r.Post("/filtered", s.searchCompanies)
			r.Post("/count", s.countCompanies)
			r.Post("/export", s.exportCompanies)
		})

		r.Route("/system", func(r chi.Router) {
			r.Get("/status", s.systemStatus)
			r.Post("/reconnect", s.reconnect)
		})

		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(rateLimit(opts.LoginLimiter))
				r.Post("/login", s.login)
				r.Post("/register", s.register)
				r.Post("/forgot-password", s.forgotPassword)
			})
			r.Group(func(r chi.Router) {
				r.Use(requireAuth(deps.Auth.Tokens()))
				r.Post("/change-password", s.changePassword)
				r.Get("/me", s.me)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth(deps.Auth.Tokens()))
			r.Use(rateLimit(opts.ScraperLimiter))
			r.Post("/apify/run/{actorId}", s.startActor)
			r.Get("/apify/runs/{runId}", s.runStatus)
			r.Post("/instagram/scrape", s.instagramScrape)
			r.Get("/instagram/progress/{runId}", s.instagramProgress)
		})

		r.Route("/crm", func(r chi.Router) {
			r.Use(requireAuth(deps.Auth.Tokens()))
			r.Get("/funnel", s.funnel)
			r.Route("/leads", func(r chi.Router) {
				r.Get("/", s.listLeads)
				r.Post("/", s.createLead)
				r.Post("/check-duplicates", s.checkDuplicates)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.getLead)
					r.Delete("/", s.deleteLead)
					r.Patch("/stage", s.moveLead)
					r.Patch("/notes", s.updateNotes)
				})
			})
		})

		r.Route("/stripe", func(r chi.Router) {
			r.With(requireAuth(deps.Auth.Tokens())).Post("/create-checkout-session", s.createCheckout)
			r.Post("/webhook", s.stripeWebhook)
		})
	})

	s.router = r
	s.handler = s.outer(r)
	return s
}

// outer adds CORS and security headers around the router so preflight
// requests never reach route matching.
func (s *Server) outer(next http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   s.opts.CORSOrigins,
		AllowCredentials: true,
		AllowedMethods: []string{
			http.MethodHead, http.MethodGet, http.MethodPost,
			http.MethodPatch, http.MethodDelete,
		},
		AllowedHeaders: []string{"Authorization", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader, "Content-Disposition"},
	})
	sec := secure.New(secure.Options{
		STSSeconds:           31536000,
		STSIncludeSubdomains: true,
		SSLProxyHeaders:      map[string]string{"X-Forwarded-Proto": "https"},
		FrameDeny:            true,
		ContentTypeNosniff:   true,
		BrowserXssFilter:     true,
		ReferrerPolicy:       "strict-origin-when-cross-origin",
		IsDevelopment:        s.opts.Development,
	})
	return sec.Handler(c.Handler(next))
}

// Handler returns the root handler for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

func claims(r *http.Request) *auth.Claims {
	c, _ := auth.ClaimsFromContext(r.Context())
	return c
}
