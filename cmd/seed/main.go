// Command seed loads the car catalogue into MySQL and, with -warm, resolves
// sentiment labels for every dealer's reviews so the first page views hit cache.
package main

import (
	"context"
	"database/sql"
	"flag"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"car_dealership/internal/adapters/dealerapi"
	"car_dealership/internal/adapters/observability"
	redisad "car_dealership/internal/adapters/redis"
	"car_dealership/internal/adapters/sentiment"
	"car_dealership/internal/app"
	"car_dealership/internal/shared"
	mysqlrepo "car_dealership/internal/storage/mysql"
)

func main() {
	warm := flag.Bool("warm", true, "warm the sentiment cache for every dealer after seeding")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	log.Info().
		Str("seed_file", cfg.SeedFile).
		Int("workers", cfg.WarmWorkers).
		Bool("warm", *warm).
		Msg("seed starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	makes, err := app.DefaultCatalog()
	if cfg.SeedFile != "" {
		makes, err = app.LoadCatalog(cfg.SeedFile)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("load car catalogue failed")
	}

	seeded, err := app.NewCatalogService(mysqlrepo.New(db), makes).EnsureSeeded(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("seed catalogue failed")
	}
	log.Info().Bool("seeded", seeded).Int("makes", len(makes)).Msg("catalogue ready")

	if !*warm {
		return
	}

	// 2) warm the sentiment cache, one dealer per worker
	gw, err := dealerapi.New(cfg.DealerAPIURL, cfg.DealerAPIRPS, cfg.GatewayMaxAttempts, cfg.GatewayTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize dealer API client")
	}
	sa, err := sentiment.FromConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize sentiment analyzer")
	}
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cache.Close()
	if err := cache.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("redis ping failed")
	}

	dealers := app.NewDealerService(gw, sa, cache, app.DealerOptions{
		SentimentTTL:     cfg.SentimentCacheTTL,
		SentimentTimeout: cfg.SentimentTimeout,
		Workers:          cfg.SentimentWorkers,
	})

	workers := cfg.WarmWorkers
	if workers <= 0 {
		workers = 1
	}
	sem := semaphore.NewWeighted(int64(workers))
	var wg sync.WaitGroup
	var reviews atomic.Int64

	ids := dealers.DealerIDs(ctx)
	for _, id := range ids {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Warn().Err(err).Msg("warm-up interrupted")
			break
		}

		wg.Add(1)
		go func(dealerID int64) {
			defer wg.Done()
			defer sem.Release(1)

			n := dealers.WarmDealer(ctx, dealerID)
			reviews.Add(int64(n))
			log.Debug().Int64("dealer_id", dealerID).Int("reviews", n).Msg("dealer warmed")
		}(id)
	}

	wg.Wait()
	log.Info().Int("dealers", len(ids)).Int64("reviews", reviews.Load()).Msg("warm-up completed")
}
