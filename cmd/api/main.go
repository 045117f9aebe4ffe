package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/http/pprof"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	limitermw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/noah-isme/backend-kasir/internal/catalog"
	"github.com/noah-isme/backend-kasir/internal/common"
	"github.com/noah-isme/backend-kasir/internal/config"
	"github.com/noah-isme/backend-kasir/internal/customer"
	"github.com/noah-isme/backend-kasir/internal/health"
	"github.com/noah-isme/backend-kasir/internal/obs"
	"github.com/noah-isme/backend-kasir/internal/payment"
	"github.com/noah-isme/backend-kasir/internal/supplier"
	"github.com/noah-isme/backend-kasir/internal/transaction"
	"github.com/noah-isme/backend-kasir/internal/upstream"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "kasir")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)

	tracingEnabled := envBool("OBS_ENABLE_TRACING", true)
	if tracingEnabled {
		sampling := envFloat("OBS_TRACING_SAMPLING_RATIO", 1.0)
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "kasir-api",
			Endpoint:      envOrDefault("OBS_OTLP_ENDPOINT", ""),
			Exporter:      envOrDefault("OBS_TRACING_EXPORTER", "otlp"),
			SamplingRatio: sampling,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				ctx := context.Background()
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if metricsEnabled {
		if err := redisotel.InstrumentMetrics(redisClient); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	pos := upstream.NewClient(cfg.UpstreamBaseURL, cfg.UpstreamTimeout)

	validate := validator.New()
	idem := common.Idem{R: redisClient, TTL: cfg.IdempotencyTTL}

	catalogHandler := &catalog.Handler{
		Svc: &catalog.Service{
			Upstream:     pos,
			Cache:        catalog.NewCache(redisClient, cfg.CatalogCacheTTL),
			DefaultLimit: cfg.ListDefaultLimit,
		},
		Validate:       validate,
		DefaultPerPage: cfg.ListDefaultLimit,
	}
	customerHandler := &customer.Handler{Upstream: pos, Validate: validate, DefaultPerPage: cfg.ListDefaultLimit}
	supplierHandler := &supplier.Handler{Upstream: pos, Validate: validate, DefaultPerPage: cfg.ListDefaultLimit}
	transactionHandler := &transaction.Handler{
		Svc: &transaction.Service{
			Upstream: pos,
			Drafts:   transaction.NewStore(redisClient, cfg.DraftTTL),
		},
		DefaultPerPage: cfg.ListDefaultLimit,
	}
	paymentHandler := &payment.Handler{
		Svc:            &payment.Service{Upstream: pos},
		DefaultPerPage: cfg.ListDefaultLimit,
	}

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		buckets := obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", ""))
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, buckets, nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if metricsEnabled && httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if rateMW, err := newRateLimiter(cfg, redisClient); err != nil {
		logger.Error().Err(err).Msg("initialise rate limiter")
	} else if rateMW != nil {
		r.Use(rateMW.Handler)
	}

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	if envBool("OBS_ENABLE_PPROF", true) {
		user := envOrDefault("SECURE_PPROF_BASIC_AUTH_USER", "")
		pass := envOrDefault("SECURE_PPROF_BASIC_AUTH_PASS", "")
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), user, pass))
	}

	healthHandler := health.Handler{
		Checker:         readinessChecker{upstream: pos, redis: redisClient},
		UpstreamTimeout: envDurationMillis("HEALTH_READY_UPSTREAM_TIMEOUT_MS", 500),
		RedisTimeout:    envDurationMillis("HEALTH_READY_REDIS_TIMEOUT_MS", 300),
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Route("/products", func(p chi.Router) {
			p.Get("/", catalogHandler.List)
			p.Get("/{id}", catalogHandler.Get)
			p.Post("/", catalogHandler.Create)
			p.Put("/{id}", catalogHandler.Update)
			p.Delete("/{id}", catalogHandler.Delete)
		})

		v.Route("/customers", func(c chi.Router) {
			c.Get("/", customerHandler.List)
			c.Get("/{id}", customerHandler.Get)
			c.Post("/", customerHandler.Create)
			c.Put("/{id}", customerHandler.Update)
			c.Delete("/{id}", customerHandler.Delete)
		})

		v.Route("/suppliers", func(s chi.Router) {
			s.Get("/", supplierHandler.List)
			s.Get("/{id}", supplierHandler.Get)
			s.Post("/", supplierHandler.Create)
			s.Put("/{id}", supplierHandler.Update)
			s.Delete("/{id}", supplierHandler.Delete)
		})

		v.Route("/transactions", func(t chi.Router) {
			t.Get("/", transactionHandler.List)
			t.Get("/{id}", transactionHandler.Get)

			t.Route("/drafts", func(d chi.Router) {
				d.Post("/", transactionHandler.StartDraft)
				d.Route("/{draftId}", func(dd chi.Router) {
					dd.Get("/", transactionHandler.GetDraft)
					dd.Delete("/", transactionHandler.DiscardDraft)
					dd.Put("/customer", transactionHandler.SetCustomer)
					dd.Post("/items", transactionHandler.AddItem)
					dd.Put("/items/{productId}", transactionHandler.UpdateItem)
					dd.Delete("/items/{productId}", transactionHandler.RemoveItem)
					dd.Put("/notes", transactionHandler.SetNotes)
					dd.Post("/review", transactionHandler.Review)
					dd.With(idem.Middleware).Post("/submit", transactionHandler.Submit)
				})
			})
		})

		v.Route("/payments", func(p chi.Router) {
			p.Get("/", paymentHandler.List)
			p.Get("/{id}", paymentHandler.Get)
			p.Post("/{id}/validate", paymentHandler.Validate)
			p.With(idem.Middleware).Put("/{id}", paymentHandler.Update)
		})
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: r,
	}

	logger.Info().Str("addr", srv.Addr).Str("upstream", cfg.UpstreamBaseURL).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	}
}

func newRateLimiter(cfg *config.Config, client *redis.Client) (*limitermw.Middleware, error) {
	if strings.TrimSpace(cfg.RateLimit) == "" {
		return nil, nil
	}
	rate, err := limiter.NewRateFromFormatted(cfg.RateLimit)
	if err != nil {
		return nil, err
	}
	store, err := limiterredis.NewStoreWithOptions(client, limiter.StoreOptions{
		Prefix: "kasir:ratelimit",
	})
	if err != nil {
		return nil, err
	}
	return limitermw.NewMiddleware(limiter.New(store, rate)), nil
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

type readinessChecker struct {
	upstream *upstream.Client
	redis    *redis.Client
}

func (c readinessChecker) PingUpstream(ctx context.Context, timeout time.Duration) error {
	if c.upstream == nil {
		return errors.New("upstream not configured")
	}
	return c.upstream.Ping(ctx, timeout)
}

func (c readinessChecker) PingRedis(ctx context.Context, timeout time.Duration) error {
	if c.redis == nil {
		return errors.New("redis not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.redis.Ping(ctx).Err()
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDurationMillis(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Millisecond
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	mux.Handle("/allocs", pprof.Handler("allocs"))
	mux.Handle("/block", pprof.Handler("block"))
	mux.Handle("/goroutine", pprof.Handler("goroutine"))
	mux.Handle("/heap", pprof.Handler("heap"))
	mux.Handle("/mutex", pprof.Handler("mutex"))
	mux.Handle("/threadcreate", pprof.Handler("threadcreate"))
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	user = strings.TrimSpace(user)
	pass = strings.TrimSpace(pass)
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
