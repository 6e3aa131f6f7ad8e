package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"car_dealership/internal/adapters/auth"
	"car_dealership/internal/adapters/dealerapi"
	server "car_dealership/internal/adapters/http_server"
	"car_dealership/internal/adapters/observability"
	redisad "car_dealership/internal/adapters/redis"
	"car_dealership/internal/adapters/sentiment"
	"car_dealership/internal/app"
	"car_dealership/internal/shared"
	mysqlrepo "car_dealership/internal/storage/mysql"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("tracing setup failed")
	}
	observability.Serve(cfg.MetricsAddr)

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cache.Close()
	if err := cache.Ping(ctx); err != nil {
		// sessions need redis; lookups degrade to the gateway
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis ping failed")
	}

	// catalogue
	seed, err := app.DefaultCatalog()
	if cfg.SeedFile != "" {
		seed, err = app.LoadCatalog(cfg.SeedFile)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("load car catalogue failed")
	}
	repo := mysqlrepo.New(db)

	// gateway
	gw, err := dealerapi.New(cfg.DealerAPIURL, cfg.DealerAPIRPS, cfg.GatewayMaxAttempts, cfg.GatewayTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("dealer API client init failed")
	}
	sa, err := sentiment.FromConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("sentiment analyzer init failed")
	}

	dealers := app.NewDealerService(gw, sa, cache, app.DealerOptions{
		CacheTTL:         cfg.CacheTTL,
		SentimentTTL:     cfg.SentimentCacheTTL,
		SentimentTimeout: cfg.SentimentTimeout,
		Workers:          cfg.SentimentWorkers,
	})

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		Catalog:  app.NewCatalogService(repo, seed),
		Dealers:  dealers,
		Accounts: app.NewAccountService(repo, 0),
		Sessions: auth.NewManager(cache, cfg.SessionSecret, cfg.SessionTTL, cfg.CookieSecure),
	})

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Str("dealer_api", cfg.DealerAPIURL).Str("sentiment", cfg.SentimentBackend).Msg("API listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	if err := shutdownTracing(shCtx); err != nil {
		log.Error().Err(err).Msg("tracing shutdown failed")
	}
}
