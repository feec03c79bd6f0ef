// Package httpapi wires the Gin engine: middleware, page and JSON routes, and
// the long-lived dependencies (backend client, query cache, services) they
// share.
//
// Middleware order:
//  1. OpenTelemetry tracing
//  2. RequestID
//  3. Access logging with redaction
//  4. Panic recovery
//  5. Body size limit
//  6. Prometheus metrics
//  7. Per-IP rate limiting (health and metrics exempt)
//  8. gzip, toast tray, CORS on the JSON routes, security headers
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/planner-admin/internal/apiclient"
	"github.com/tbourn/planner-admin/internal/config"
	"github.com/tbourn/planner-admin/internal/domain"
	"github.com/tbourn/planner-admin/internal/http/handlers"
	"github.com/tbourn/planner-admin/internal/http/middleware"
	"github.com/tbourn/planner-admin/internal/http/templates"
	"github.com/tbourn/planner-admin/internal/present"
	"github.com/tbourn/planner-admin/internal/query"
	"github.com/tbourn/planner-admin/internal/repo"
	"github.com/tbourn/planner-admin/internal/services"
)

// failureRepoShim adapts the repo free functions to services.FailureRepo.
type failureRepoShim struct{}

func (failureRepoShim) CountFailures(ctx context.Context, db *gorm.DB, f repo.FailureFilter) (int64, error) {
	return repo.CountFailures(ctx, db, f)
}

func (failureRepoShim) ListFailuresPage(ctx context.Context, db *gorm.DB, f repo.FailureFilter, offset, limit int) ([]domain.FailureRecord, error) {
	return repo.ListFailuresPage(ctx, db, f, offset, limit)
}

func (failureRepoShim) FindFailuresByCorrelation(ctx context.Context, db *gorm.DB, correlationID string) ([]domain.FailureRecord, error) {
	return repo.FindFailuresByCorrelation(ctx, db, correlationID)
}

func (failureRepoShim) FailureStats(ctx context.Context, db *gorm.DB) (int64, *time.Time, error) {
	return repo.FailureStats(ctx, db)
}

func (failureRepoShim) PurgeFailuresBefore(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	return repo.PurgeFailuresBefore(ctx, db, cutoff)
}

// tokenRepoShim adapts the repo free functions to services.TokenRepo.
type tokenRepoShim struct{}

func (tokenRepoShim) CreateSubmitToken(ctx context.Context, db *gorm.DB, form string, ttl time.Duration) (*domain.SubmitToken, error) {
	return repo.CreateSubmitToken(ctx, db, form, ttl)
}

func (tokenRepoShim) ClaimSubmitToken(ctx context.Context, db *gorm.DB, token, form string, now time.Time) error {
	return repo.ClaimSubmitToken(ctx, db, token, form, now)
}

func (tokenRepoShim) PurgeExpiredSubmitTokens(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	return repo.PurgeExpiredSubmitTokens(ctx, db, now)
}

// Deps are the application-lifetime objects behind the routes. They are
// built once by BuildDeps and owned by main.
type Deps struct {
	DB      *gorm.DB
	Client  *apiclient.Client
	Shipper *apiclient.LogShipper // nil when client logs are disabled
	Cache   *query.Cache

	ItemTypes   *services.ItemTypeService
	TimePeriods *services.Catalog[domain.TimePeriod]
	Credits     *services.CreditService
	Diagnostics *services.DiagnosticsService
	Submit      *services.SubmitGuard
}

// BuildDeps constructs the backend client, the query cache with its global
// error hook (toasts plus the failure journal in db), and the services.
func BuildDeps(cfg config.Config, db *gorm.DB) (*Deps, error) {
	if db == nil {
		return nil, errors.New("httpapi: db is required")
	}

	opts := apiclient.Options{BaseURL: cfg.Backend.BaseURL, Timeout: cfg.Backend.Timeout}
	var shipper *apiclient.LogShipper
	if cfg.Backend.ClientLogs {
		shipper = apiclient.NewLogShipper(cfg.Backend.BaseURL, nil, cfg.Backend.Timeout)
		opts.Reporter = shipper
	}
	client, err := apiclient.New(opts)
	if err != nil {
		return nil, err
	}

	cache := query.New(query.Options{
		StaleTime: cfg.Query.StaleTime,
		GCAfter:   cfg.Query.GCAfter,
		OnError:   present.GlobalHook(repo.NewJournal(db)),
	})

	return &Deps{
		DB:        db,
		Client:    client,
		Shipper:   shipper,
		Cache:     cache,
		ItemTypes: services.NewItemTypeService(apiclient.ItemTypes(client), cache),
		TimePeriods: services.NewCatalog(apiclient.TimePeriods(client), cache,
			func(p domain.TimePeriod) string { return p.Name }),
		Credits: &services.CreditService{
			Client:            apiclient.NewItems(client),
			Cache:             cache,
			DefaultUserID:     cfg.Credits.UserID,
			DefaultItemTypeID: cfg.Credits.ItemTypeID,
		},
		Diagnostics: &services.DiagnosticsService{DB: db, Repo: failureRepoShim{}, Retention: cfg.Journal.Retention},
		Submit:      &services.SubmitGuard{DB: db, Repo: tokenRepoShim{}, TTL: cfg.SubmitTokenTTL},
	}, nil
}

// Maintain runs one housekeeping pass: journal retention, expired submit
// tokens and idle cache entries.
func (d *Deps) Maintain(ctx context.Context, now time.Time) error {
	failures, err := d.Diagnostics.Purge(ctx, now)
	if err != nil {
		return err
	}
	tokens, err := d.Submit.Purge(ctx)
	if err != nil {
		return err
	}
	swept := d.Cache.Sweep()
	log.Debug().
		Int64("failures", failures).
		Int64("submit_tokens", tokens).
		Int("cache_entries", swept).
		Msg("maintenance")
	return nil
}

// Close flushes pending client-log uploads.
func (d *Deps) Close(ctx context.Context) error {
	if d.Shipper == nil {
		return nil
	}
	return d.Shipper.Close(ctx)
}

// RegisterRoutes attaches middleware, pages, the JSON API, /health and
// /metrics to r.
func RegisterRoutes(r *gin.Engine, d *Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true
	r.SetHTMLTemplate(templates.MustLoad())

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(middleware.LogOptions{
		MaskHeaders: []string{"X-API-Key"},
		SkipPaths:   []string{"/health", "/metrics"},
	}))
	r.Use(middleware.Recovery())
	r.Use(limitBody(1 << 20))

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByIP()).
		WithSkip(middleware.SkipPaths("/health", "/metrics"))
	r.Use(rl.Handler())

	r.Use(gzip.Gzip(gzip.DefaultCompression))
	r.Use(middleware.Toasts())
	r.Use(onlyUnder(cfg.APIBasePath, corsMiddleware(cfg.CORS.AllowedOrigins)))
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      true,
		EnablePolicy: true,
		CSP:          middleware.DefaultCSP,
	}))

	r.NoRoute(handlers.NotFound)
	r.NoMethod(handlers.MethodNotAllowed)

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	h := handlers.New(handlers.Services{
		ItemTypes:   d.ItemTypes,
		TimePeriods: d.TimePeriods,
		Credits:     d.Credits,
		Diagnostics: d.Diagnostics,
		Submit:      d.Submit,
		Cache:       d.Cache,
	})

	// Pages
	r.GET("/", h.Home)
	r.GET("/item-types", h.ListItemTypes)
	r.POST("/item-types", h.CreateItemType)
	r.GET("/item-types/:id", h.GetItemType)
	r.POST("/item-types/:id", h.RenameItemType)
	r.POST("/item-types/:id/delete", h.DeleteItemType)
	r.GET("/time-periods", h.ListTimePeriods)
	r.GET("/time-periods/:id", h.GetTimePeriod)
	r.GET("/credits", h.Credits)
	r.GET("/credits/:userId/:itemTypeId", h.CreditSheet)
	r.GET("/items/:id", h.GetItem)
	r.GET("/diagnostics", h.Diagnostics)

	// JSON
	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		api.GET("/diagnostics", h.ListFailures)
		api.GET("/diagnostics/:correlationId", h.GetFailures)
		api.GET("/cache", h.CacheState)
	}
}

// corsMiddleware allows any origin when none are configured, otherwise only
// the allowlist. Credentials are never allowed.
func corsMiddleware(origins []string) gin.HandlerFunc {
	conf := cors.Config{
		AllowMethods:     []string{"GET", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "If-None-Match"},
		ExposeHeaders:    []string{"X-Request-ID", "ETag", "Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		conf.AllowAllOrigins = true
	} else {
		conf.AllowOrigins = origins
	}
	return cors.New(conf)
}

// onlyUnder runs mw for requests below prefix and skips it elsewhere.
func onlyUnder(prefix string, mw gin.HandlerFunc) gin.HandlerFunc {
	if prefix == "" || prefix == "/" {
		return mw
	}
	return func(c *gin.Context) {
		p := c.Request.URL.Path
		if p == prefix || strings.HasPrefix(p, prefix+"/") {
			mw(c)
			return
		}
		c.Next()
	}
}

// limitBody caps request bodies at maxBytes; larger bodies fail on read.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
