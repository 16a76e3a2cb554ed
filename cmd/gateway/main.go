// Command gateway serves the catalog REST API.
//
// Backends are chosen from configuration: a Supabase project when
// SUPABASE_URL is set, a plain PostgreSQL database when DATABASE_URL is set,
// and in-memory stores otherwise (local development only).
package main

import (
	"context"
	"database/sql"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"

	apperrors "github.com/appduka/catalog/internal/errors"

	app "github.com/appduka/catalog/internal/app"
	advisorsvc "github.com/appduka/catalog/internal/app/services/advisor"
	authsvc "github.com/appduka/catalog/internal/app/services/auth"
	"github.com/appduka/catalog/internal/app/httpapi"
	"github.com/appduka/catalog/internal/app/storage/postgres"
	"github.com/appduka/catalog/internal/app/storage/supabaserest"
	"github.com/appduka/catalog/internal/config"
	"github.com/appduka/catalog/internal/genai"
	"github.com/appduka/catalog/internal/logging"
	"github.com/appduka/catalog/internal/metrics"
	"github.com/appduka/catalog/internal/middleware"
	"github.com/appduka/catalog/supabase/client"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.NewDefault("gateway").WithError(err).Error("load configuration")
		os.Exit(1)
	}

	log := logging.New("gateway", cfg.LogLevel, cfg.LogFormat)
	m := metrics.New("appduka_gateway")

	stores, opts, supa, err := buildBackends(cfg, m, log)
	if err != nil {
		log.WithError(err).Error("configure backends")
		os.Exit(1)
	}

	application := app.New(stores, opts, log)

	handler, err := httpapi.New(application, m, httpapi.Config{AuditLogPath: cfg.AuditLogPath}, log)
	if err != nil {
		log.WithError(err).Error("build http handler")
		os.Exit(1)
	}

	resolver := buildResolver(cfg, opts)
	authMW := middleware.NewAuthMiddleware(resolver, stores.Profiles, log)
	corsMW := middleware.NewCORSMiddleware(cfg.AllowedOrigins)
	limiter := middleware.NewRateLimiter(float64(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.Burst, log)

	router := handler.Router()
	router.Use(middleware.TracingMiddleware(log))
	router.Use(middleware.MetricsMiddleware("gateway", m))
	router.Use(mux.MiddlewareFunc(corsMW.Handler))
	router.Use(mux.MiddlewareFunc(authMW.Handler))
	router.Use(mux.MiddlewareFunc(limiter.Handler))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Supabase.Realtime && supa != nil {
		go watchBackendChanges(ctx, cfg, handler, log)
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.WithField("addr", cfg.ListenAddr).Info("gateway listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Error("server stopped")
		os.Exit(1)
	}
	log.Info("gateway stopped")
}

// buildBackends selects the store and provider implementations from the
// configuration.
func buildBackends(cfg *config.Config, m *metrics.Metrics, log *logging.Logger) (app.Stores, app.Options, *client.Client, error) {
	var (
		stores app.Stores
		opts   app.Options
		supa   *client.Client
	)
	opts.Metrics = m

	switch {
	case cfg.Supabase.URL != "":
		key := cfg.Supabase.ServiceKey
		if key == "" {
			key = cfg.Supabase.AnonKey
		}
		c, err := client.New(client.Config{URL: cfg.Supabase.URL, APIKey: key})
		if err != nil {
			return stores, opts, nil, err
		}
		supa = c

		store := supabaserest.New(c)
		stores.Catalog = store
		stores.Reviews = store
		stores.Profiles = store
		stores.Objects = supabaserest.NewBucket(c, cfg.Supabase.Bucket)
		opts.AuthProvider = authsvc.NewSupabaseProvider(c)
		log.WithField("backend", "supabase").Info("using hosted backend")

	case cfg.DatabaseURL != "":
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return stores, opts, nil, err
		}
		store := postgres.New(db)
		stores.Catalog = store
		stores.Reviews = store
		stores.Profiles = store
		log.WithField("backend", "postgres").Info("using direct database backend")
		// Identity and file storage stay in-memory in this mode; wire a
		// Supabase project for production auth and buckets.

	default:
		opts.AuthProvider = authsvc.NewMemoryProvider()
		log.Warn("no backend configured; using in-memory stores")
	}

	if cfg.GenAI.APIKey != "" {
		gen, err := genai.New(genai.Config{
			APIKey:  cfg.GenAI.APIKey,
			Model:   cfg.GenAI.Model,
			BaseURL: cfg.GenAI.BaseURL,
		})
		if err != nil {
			return stores, opts, nil, err
		}
		opts.TextGenerator = gen
	} else {
		log.Warn("GENAI_API_KEY not set; advisory features disabled")
	}

	return stores, opts, supa, nil
}

// buildResolver picks how bearer tokens are verified: locally against the
// project JWT secret when one is configured, otherwise through whatever
// provider the application runs on.
func buildResolver(cfg *config.Config, opts app.Options) middleware.IdentityResolver {
	if cfg.Supabase.JWTSecret != "" {
		return middleware.NewJWTResolver(cfg.Supabase.JWTSecret)
	}
	if mem, ok := opts.AuthProvider.(*authsvc.MemoryProvider); ok {
		return middleware.ResolverFunc(mem.ResolveSession)
	}
	// No local secret: tokens cannot be verified, so reject them rather
	// than trust unverified claims.
	return middleware.ResolverFunc(func(context.Context, string) (string, string, error) {
		return "", "", apperrors.Unauthorized("no token verification configured")
	})
}

var _ advisorsvc.TextGenerator = (*genai.Client)(nil)

// watchBackendChanges mirrors direct backend writes into the audit trail so
// changes made outside this gateway still leave a trace.
func watchBackendChanges(ctx context.Context, cfg *config.Config, handler *httpapi.Handler, log *logging.Logger) {
	key := cfg.Supabase.ServiceKey
	if key == "" {
		key = cfg.Supabase.AnonKey
	}
	rt := client.NewRealtimeClient(cfg.Supabase.URL, key)
	if err := rt.Connect(ctx); err != nil {
		log.WithError(err).Warn("realtime connect failed; backend change feed disabled")
		return
	}
	defer rt.Disconnect()

	for _, table := range []string{"apps", "reviews", "profiles"} {
		table := table
		_, err := rt.SubscribeToPostgresChanges(ctx, client.PostgresChangesConfig{Table: table}, func(event *client.RealtimeEvent) {
			handler.RecordExternalChange("backend."+table+"."+event.Event, "", event.Topic)
		})
		if err != nil {
			log.WithError(err).WithField("table", table).Warn("realtime subscribe failed")
		}
	}

	<-ctx.Done()
}
