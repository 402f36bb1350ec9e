package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "github.com/jackc/pgx/v5/stdlib"

	"launchpad/internal/audit"
	"launchpad/internal/jwttoken"
	orghandler "launchpad/internal/organization/handler"
	orgmetrics "launchpad/internal/organization/metrics"
	orgservice "launchpad/internal/organization/service"
	orgstore "launchpad/internal/organization/store"
	"launchpad/internal/pipeline"
	"launchpad/internal/pipeline/cache"
	pipelinehandler "launchpad/internal/pipeline/handler"
	pipelinemetrics "launchpad/internal/pipeline/metrics"
	pipelinestore "launchpad/internal/pipeline/store"
	"launchpad/internal/platform/config"
	"launchpad/internal/platform/httpserver"
	"launchpad/internal/platform/logger"
	"launchpad/internal/platform/metrics"
	platformredis "launchpad/internal/platform/redis"
	"launchpad/internal/startup"
	startuphandler "launchpad/internal/startup/handler"
	startupstore "launchpad/internal/startup/store"
)

// main wires dependencies and keeps the server lifecycle small. Business
// logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpMetrics := metrics.New()
	pipeMetrics := pipelinemetrics.New()
	organizationMetrics := orgmetrics.New()

	// Persistence: Postgres when DATABASE_URL is set, in-memory otherwise.
	var (
		db           *sql.DB
		boardStore   pipeline.Store
		boardTx      pipeline.StoreTx
		orgStore     orgservice.Store
		startupStore startup.Store
	)
	if cfg.DatabaseURL != "" {
		var err error
		db, err = sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			log.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := db.PingContext(pingCtx); err != nil {
			cancel()
			log.Error("failed to ping database", "error", err)
			os.Exit(1)
		}
		cancel()
		boardStore = pipelinestore.NewPostgres(db, log)
		boardTx = newPipelinePostgresTx(db, log)
		orgStore = orgstore.NewPostgres(db, log)
		startupStore = startupstore.NewPostgres(db, log)
	} else {
		memory := pipelinestore.NewInMemory()
		boardStore = memory
		boardTx = pipeline.NewInMemoryStoreTx(memory)
		orgStore = orgstore.NewInMemory()
		startupStore = startupstore.NewInMemory()
		log.Warn("DATABASE_URL not set, using in-memory stores")
	}

	// Rule cache: optional, fail-open.
	ruleSource := pipeline.NewStoreRuleSource(boardStore)
	var invalidator pipeline.RuleInvalidator
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		ruleCache := cache.NewRuleCache(redisClient, ruleSource, config.RuleCacheTTL, log, pipeMetrics)
		ruleSource = ruleCache
		invalidator = ruleCache
	}

	// Audit: Kafka when brokers are configured, in-process worker otherwise.
	var publisher audit.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPublisher, err := audit.NewKafkaPublisher(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			log.Error("failed to connect to kafka", "error", err)
			os.Exit(1)
		}
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := kafkaPublisher.Close(closeCtx); err != nil {
				log.Error("failed to flush audit events", "error", err)
			}
		}()
		publisher = kafkaPublisher
	} else {
		channelPublisher := audit.NewChannelPublisher(256)
		worker := audit.NewWorker(audit.NewInMemoryStore(0), channelPublisher.Inbox(), log)
		go func() {
			if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("audit worker stopped", "error", err)
			}
		}()
		publisher = channelPublisher
	}

	jwtService := jwttoken.New(cfg.JWTSigningKey, "launchpad", "launchpad-api")

	engine := pipeline.NewEngine(boardStore, boardTx, ruleSource, log, pipeMetrics)
	boardService := pipeline.NewService(boardStore, boardTx, log,
		pipeline.WithMetrics(pipeMetrics),
		pipeline.WithAuditPublisher(publisher),
		pipeline.WithRuleInvalidator(invalidator),
	)
	organizationService := orgservice.NewOrganizationService(orgStore, jwtService,
		orgservice.WithLogger(log),
		orgservice.WithMetrics(organizationMetrics),
		orgservice.WithAuditPublisher(publisher),
	)
	startupService := startup.NewService(startupStore, engine, log,
		startup.WithAuditPublisher(publisher),
	)

	router := chi.NewRouter()
	orghandler.New(organizationService, log, httpMetrics, cfg.AdminToken).Register(router)
	pipelinehandler.New(boardService, log, httpMetrics, jwtService).Register(router)
	startuphandler.New(startupService, log, httpMetrics, jwtService).Register(router)
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", healthHandler(db, redisClient))

	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("starting launchpad", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}

// healthHandler reports liveness plus the state of optional backing stores.
func healthHandler(db *sql.DB, redisClient *platformredis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		body := `{"status":"ok"}`
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				status = http.StatusServiceUnavailable
				body = `{"status":"degraded","database":"unreachable"}`
			}
		}
		if status == http.StatusOK && redisClient != nil {
			if err := redisClient.Health(r.Context()); err != nil {
				status = http.StatusServiceUnavailable
				body = `{"status":"degraded","redis":"unreachable"}`
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}
