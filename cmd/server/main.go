// Command server runs the banking engine's HTTP API. It wires stores,
// services, and background workers from configuration; business logic lives
// in the internal packages.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"corebank/internal/account"
	"corebank/internal/beneficiary"
	"corebank/internal/card"
	"corebank/internal/insight"
	"corebank/internal/kyc"
	"corebank/internal/platform/config"
	"corebank/internal/platform/httpserver"
	"corebank/internal/platform/logger"
	"corebank/internal/platform/postgres"
	platformredis "corebank/internal/platform/redis"
	"corebank/internal/transfer"
	"corebank/internal/transfer/metrics"
	httptransport "corebank/internal/transport/http"
)

// insightBuffer is the async emitter queue depth.
const insightBuffer = 1024

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log := logger.New()

	if err := run(context.Background(), cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	// Stores: postgres when configured, in-memory otherwise.
	var (
		accountStore     account.Store     = account.NewInMemoryStore()
		cardStore        card.Store        = card.NewInMemoryStore()
		beneficiaryStore beneficiary.Store = beneficiary.NewInMemoryStore()
		kycStore         kyc.Store         = kyc.NewInMemoryStore()
		transferStore    transfer.Store    = transfer.NewInMemoryStore()
	)
	if cfg.Postgres.URL != "" {
		pool, err := postgres.NewPool(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := postgres.Migrate(ctx, pool); err != nil {
			return err
		}
		accountStore = account.NewPostgresStore(pool)
		cardStore = card.NewPostgresStore(pool)
		beneficiaryStore = beneficiary.NewPostgresStore(pool)
		kycStore = kyc.NewPostgresStore(pool)
		transferStore = transfer.NewPostgresStore(pool)
		log.Info("using postgres stores")
	} else {
		log.Warn("no postgres configured, using in-memory stores")
	}

	var eligibilityCache kyc.EligibilityCache
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		eligibilityCache = kyc.NewRedisEligibilityCache(redisClient.Client, cfg.Compliance.CacheTTL)
		log.Info("kyc eligibility cache enabled")
	}

	// Event pipeline: kafka behind an async buffer, memory sink otherwise.
	var emitter insight.Emitter = insight.NewMemoryEmitter()
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaEmitter, err := insight.NewKafkaEmitter(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return err
		}
		defer kafkaEmitter.Close()

		sinks := insight.MultiEmitter{kafkaEmitter}
		if cfg.Postgres.URL != "" {
			archive, err := insight.NewArchive(cfg.Postgres.URL)
			if err != nil {
				return err
			}
			defer archive.Close()
			sinks = append(sinks, archive)
		}
		async := insight.NewAsyncEmitter(sinks, insightBuffer, log)
		defer async.Close()
		emitter = async
		log.Info("transfer events emitting to kafka", "topic", cfg.Kafka.Topic)
	}

	accounts := account.NewService(accountStore, log)
	verifications := kyc.NewService(kycStore, eligibilityCache, cfg.Compliance.ValidityWindow, log)
	cards := card.NewService(cardStore, accounts, cfg.Cards.Lifetime, log)
	beneficiaries := beneficiary.NewService(beneficiaryStore, accounts, log)
	engine := transfer.NewEngine(transferStore, accounts, verifications, emitter,
		metrics.NewRecorder(registry), log, otel.Tracer("corebank/transfer"))

	sweeper, err := card.NewSweeper(cards, cfg.Cards.ExpirySweepSchedule, log)
	if err != nil {
		return err
	}

	router := httptransport.NewRouter(httptransport.Handlers{
		Accounts:      httptransport.NewAccountHandler(accounts, log),
		Transfers:     httptransport.NewTransferHandler(engine, log),
		Cards:         httptransport.NewCardHandler(cards, log),
		Beneficiaries: httptransport.NewBeneficiaryHandler(beneficiaries, log),
		KYC:           httptransport.NewKYCHandler(verifications, log),
	}, registry, log)

	srv := httpserver.New(cfg.Server.Addr, router)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		sweeper.Start()
		<-ctx.Done()
		sweeper.Stop()
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
