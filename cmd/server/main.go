package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/coinpurse/wallet-sim/internal/alerts"
	"github.com/coinpurse/wallet-sim/internal/config"
	"github.com/coinpurse/wallet-sim/internal/db"
	"github.com/coinpurse/wallet-sim/internal/engine"
	"github.com/coinpurse/wallet-sim/internal/export"
	"github.com/coinpurse/wallet-sim/internal/httpapi"
	"github.com/coinpurse/wallet-sim/internal/keys"
	"github.com/coinpurse/wallet-sim/internal/ledger"
	"github.com/coinpurse/wallet-sim/internal/messaging"
	"github.com/coinpurse/wallet-sim/internal/metrics"
	"github.com/coinpurse/wallet-sim/internal/multisig"
	"github.com/coinpurse/wallet-sim/internal/rates"
	"github.com/coinpurse/wallet-sim/internal/twofactor"
)

// Background loop cadence.
const (
	rateRefreshInterval   = 5 * time.Minute
	proposalSweepInterval = time.Minute
)

func main() {
	cfg := config.Load()

	// Ledger storage: Postgres when configured, otherwise an in-memory
	// ledger that resets on restart.
	var store ledger.Store
	if cfg.DatabaseURL != "" {
		db.Init(cfg.DatabaseURL)
		defer db.Close()
		store = ledger.NewPostgresStore(db.Conn)
	} else {
		log.Warn().Msg("DATABASE_URL not set, using in-memory ledger")
		store = ledger.NewMemoryStore()
	}

	// Proposal storage follows Redis availability the same way.
	var proposals multisig.ProposalStore
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		proposals = multisig.NewRedisStore(rdb, cfg.ProposalTTL)
	} else {
		log.Warn().Msg("REDIS_ADDR not set, keeping proposals in memory")
		proposals = multisig.NewMemoryStore()
	}

	eng := engine.New(store)
	gen := keys.NewGenerator(store, cfg.InitialBalance)
	coord := multisig.NewCoordinator(store, proposals, eng, gen, multisig.WithTTL(cfg.ProposalTTL))
	market := rates.NewService()
	hub := messaging.NewHub()
	notifier := alerts.NewNotifier(cfg.RedisAddr)
	defer notifier.Close()

	srv := httpapi.NewServer(httpapi.Options{
		Store:       store,
		Engine:      eng,
		Coordinator: coord,
		Generator:   gen,
		Verifier:    twofactor.NewService(store, twofactor.WithIssuer(cfg.TOTPIssuer)),
		Rates:       market,
		Exporter:    export.New(),
		Hub:         hub,
		Notifier:    notifier,
		JWTSecret:   cfg.JWTSecret,
		AdminKey:    cfg.AdminKey,
	})

	e := echo.New()
	e.HideBanner = true

	// Basic middleware
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())

	srv.Register(e)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	go refreshRates(ctx, market, hub)
	go sweepProposals(ctx, coord)

	// Alert delivery needs the same Redis the notifier enqueues to.
	var worker *alerts.Worker
	if cfg.RedisAddr != "" {
		worker = alerts.NewWorker(cfg.RedisAddr, cfg.AlertWebhookURL)
		go func() {
			if err := worker.Run(); err != nil {
				log.Error().Err(err).Msg("Alert worker stopped")
			}
		}()
	}

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// Graceful shutdown on Ctrl+C
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	<-sigs

	log.Info().Msg("Shutting down")
	stop()
	if worker != nil {
		worker.Shutdown()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}
}

// refreshRates re-seeds stale market quotes and pushes every refreshed
// quote to rate subscribers.
func refreshRates(ctx context.Context, market *rates.Service, hub *messaging.Hub) {
	ticker := time.NewTicker(rateRefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, quote := range market.Refresh() {
				hub.Broadcast(messaging.RatesRoom, messaging.EventRateUpdated, quote)
			}
		}
	}
}

// sweepProposals closes multisig proposals that passed their deadline
// without collecting enough approvals.
func sweepProposals(ctx context.Context, coord *multisig.Coordinator) {
	ticker := time.NewTicker(proposalSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			expired, err := coord.ExpireStale(ctx, time.Now())
			if err != nil {
				log.Error().Err(err).Msg("Proposal sweep failed")
				continue
			}
			for i := 0; i < expired; i++ {
				metrics.Proposals.WithLabelValues("expired").Inc()
			}
		}
	}
}
