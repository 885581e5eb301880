package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-bazaar/internal/auth"
	"github.com/noah-isme/backend-bazaar/internal/cart"
	"github.com/noah-isme/backend-bazaar/internal/catalog"
	"github.com/noah-isme/backend-bazaar/internal/common"
	"github.com/noah-isme/backend-bazaar/internal/config"
	"github.com/noah-isme/backend-bazaar/internal/discount"
	"github.com/noah-isme/backend-bazaar/internal/events"
	"github.com/noah-isme/backend-bazaar/internal/health"
	"github.com/noah-isme/backend-bazaar/internal/invoice"
	"github.com/noah-isme/backend-bazaar/internal/obs"
	"github.com/noah-isme/backend-bazaar/internal/order"
	"github.com/noah-isme/backend-bazaar/internal/queue"
	"github.com/noah-isme/backend-bazaar/internal/ratelimit"
	"github.com/noah-isme/backend-bazaar/internal/repo"
	"github.com/noah-isme/backend-bazaar/internal/tenant"
)

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func main() {
	cfg, err := config.Load()
	logger := obs.NewLogger(
		envOrDefault("LOG_FORMAT", "json"),
		envOrDefault("LOG_LEVEL", "info"),
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if envBool("TRACING_ENABLED", false) {
		shutdown, err := obs.InitTracer(ctx, obs.TracingConfig{
			ServiceName:   "bazaar-api",
			Endpoint:      os.Getenv("TRACING_ENDPOINT"),
			Exporter:      envOrDefault("TRACING_EXPORTER", "otlp"),
			SamplingRatio: envFloat("TRACING_SAMPLING_RATIO", 1),
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("init tracer")
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(shutdownCtx)
		}()
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database url")
	}
	poolCfg.ConnConfig.Tracer = obs.PGXTracer{}
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	rdb := redis.NewClient(redisOpts)
	defer func() { _ = rdb.Close() }()
	if err := redisotel.InstrumentTracing(rdb); err != nil {
		logger.Warn().Err(err).Msg("instrument redis tracing")
	}

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     redisOpts.Addr,
		Password: redisOpts.Password,
		DB:       redisOpts.DB,
	})
	defer func() { _ = asynqClient.Close() }()

	queries := repo.New(pool)
	validate := validator.New()

	bus := &events.Bus{
		Store:     queries,
		Scheduler: queue.Scheduler{Client: asynqClient},
	}

	catalogCache := &catalog.Cache{R: rdb, Source: queries, TTL: cfg.CatalogCacheTTL}

	discountSvc := &discount.Service{
		Q:                   queries,
		PerUserLimitDefault: cfg.DiscountPerUserLimit,
	}
	cartSvc := &cart.Service{
		Q:        queries,
		Catalog:  catalogCache,
		Discount: discountSvc,
		Events:   bus,
		Currency: cfg.CurrencyCode,
	}
	orderSvc := &order.Service{
		DB: pool,
		Q:  queries,
		Bind: func(tx pgx.Tx) order.TxQueries {
			q := queries.WithTx(tx)
			return order.TxQueries{Orders: q, Carts: q, Discounts: q}
		},
		Discount:       discountSvc,
		Events:         bus,
		TaxRate:        cfg.TaxRatePercent,
		ServiceFee:     cfg.ServiceFee,
		CommissionRate: cfg.PlatformCommissionPercent,
		Currency:       cfg.CurrencyCode,
	}
	invoiceSvc := &invoice.Service{
		DB: pool,
		Q:  queries,
		Bind: func(tx pgx.Tx) invoice.TxQueries {
			return invoice.TxQueries{Invoices: queries.WithTx(tx)}
		},
		Events:   bus,
		TaxRate:  cfg.TaxRatePercent,
		Currency: cfg.CurrencyCode,
	}

	verifier := auth.Verifier{
		Secret: []byte(cfg.JWTSecret),
		Issuer: cfg.JWTIssuer,
	}
	authMW := auth.Middleware{Verifier: verifier}
	storeResolver := tenant.NewResolver(cfg.StoreHeaderName, cfg.StoreRootDomain, "")
	idem := common.Idem{R: rdb, TTL: cfg.IdempotencyTTL}
	limiter := ratelimit.Middleware{
		Limiter: ratelimit.Limiter{Client: rdb, Prefix: "rl:"},
		Window:  cfg.RateLimitWindow,
		Max:     cfg.RateLimitMax,
		OnError: func(err error) { logger.Warn().Err(err).Msg("rate limiter") },
	}

	metrics := obs.NewHTTPMetrics("bazaar",
		obs.ParseBucketsCSV(os.Getenv("METRICS_BUCKETS_MS")),
		prometheus.DefaultRegisterer,
	)

	cartHandler := &cart.Handler{Svc: cartSvc, Validate: validate}
	discountHandler := &discount.Handler{Svc: discountSvc}
	discountAdmin := &discount.AdminHandler{Svc: discountSvc, Validate: validate}
	orderHandler := &order.Handler{Svc: orderSvc}
	orderAdmin := &order.AdminHandler{Svc: orderSvc}
	invoiceHandler := &invoice.Handler{Svc: invoiceSvc, Validate: validate}
	healthHandler := health.Handler{Pool: pool, Redis: rdb}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", cfg.StoreHeaderName},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(obs.RoutePatternMiddleware)
	r.Use(obs.TracingMiddleware)
	r.Use(obs.HTTPObs{Metrics: metrics}.Middleware)
	r.Use(storeResolver.Middleware)
	r.Use(authMW.Authenticate)
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)

	r.Get("/healthz", healthHandler.Live)
	r.Get("/readyz", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())

	if envBool("PPROF_ENABLED", false) {
		r.Route("/debug/pprof", func(pr chi.Router) {
			pr.Get("/", pprof.Index)
			pr.Get("/cmdline", pprof.Cmdline)
			pr.Get("/profile", pprof.Profile)
			pr.Get("/symbol", pprof.Symbol)
			pr.Get("/trace", pprof.Trace)
			pr.Handle("/goroutine", pprof.Handler("goroutine"))
			pr.Handle("/heap", pprof.Handler("heap"))
		})
	}

	r.Route("/api/v1", func(api chi.Router) {
		api.Group(func(private chi.Router) {
			private.Use(authMW.RequireAuth)

			private.Route("/cart", func(cr chi.Router) {
				cr.Get("/", cartHandler.Get)
				cr.Post("/items", cartHandler.AddItem)
				cr.Patch("/items/{itemID}", cartHandler.UpdateQuantity)
				cr.Delete("/items/{itemID}", cartHandler.RemoveItem)
				cr.Post("/discount", cartHandler.ApplyDiscount)
				cr.Delete("/discount", cartHandler.RemoveDiscount)
				cr.Delete("/", cartHandler.Clear)
			})

			private.With(limiter.Wrap).Post("/discounts/validate", discountHandler.ValidateCode)

			private.Route("/orders", func(or chi.Router) {
				or.With(idem.Middleware).Post("/checkout", orderHandler.Checkout)
				or.Get("/", orderHandler.List)
				or.Get("/{id}", orderHandler.Get)
				or.Post("/{id}/cancel", orderHandler.Cancel)
			})

			private.Route("/invoices", func(ir chi.Router) {
				ir.With(idem.Middleware).Post("/", invoiceHandler.Create)
				ir.Get("/", invoiceHandler.List)
				ir.Get("/{id}", invoiceHandler.Get)
			})
		})

		api.Group(func(admin chi.Router) {
			admin.Use(authMW.RequireRole("admin"))

			admin.Route("/admin/discounts", func(dr chi.Router) {
				dr.Post("/", discountAdmin.Create)
				dr.Get("/", discountAdmin.List)
				dr.Get("/{id}", discountAdmin.Get)
				dr.Patch("/{id}", discountAdmin.Patch)
				dr.Delete("/{id}", discountAdmin.Delete)
			})
			admin.Patch("/admin/orders/{id}/status", orderAdmin.SetStatus)
		})
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown")
	}
}
