package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dealdesk/internal/advisory"
	advisorymetrics "dealdesk/internal/advisory/metrics"
	"dealdesk/internal/deal"
	dealhandler "dealdesk/internal/deal/handler"
	dealmetrics "dealdesk/internal/deal/metrics"
	"dealdesk/internal/platform/config"
	"dealdesk/internal/platform/httpserver"
	"dealdesk/internal/platform/httputil"
	"dealdesk/internal/platform/logger"
	"dealdesk/internal/platform/middleware"
	platformredis "dealdesk/internal/platform/redis"
	"dealdesk/internal/reporting"
	reportinghandler "dealdesk/internal/reporting/handler"
	"dealdesk/internal/rules"
	"dealdesk/internal/seed"
	seedhandler "dealdesk/internal/seed/handler"
	"dealdesk/internal/simulation"
	simulationhandler "dealdesk/internal/simulation/handler"
)

// main wires dependencies and owns the server lifecycle. Business logic
// lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	rulesCfg, err := rules.Load(cfg.RulesPath)
	if err != nil {
		log.Error("failed to load rules config", "path", cfg.RulesPath, "error", err)
		os.Exit(1)
	}

	// Store: postgres when configured, in-memory otherwise.
	var store deal.Store
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			log.Error("database ping failed", "error", err)
			os.Exit(1)
		}
		pg := deal.NewPostgresStore(db)
		if err := pg.EnsureSchema(context.Background()); err != nil {
			log.Error("failed to ensure schema", "error", err)
			os.Exit(1)
		}
		store = pg
		log.Info("using postgres store")
	} else {
		store = deal.NewInMemoryStore()
		log.Info("using in-memory store")
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	advMetrics := advisorymetrics.New()
	analyzer := advisory.NewAnalyzer(cfg.Advisory, log, advMetrics)
	analyzer = advisory.NewCachedAnalyzer(analyzer, redisClient, cfg.Redis.CacheTTL, log, advMetrics)

	dealService := deal.NewService(store, rulesCfg, analyzer, log, dealmetrics.New())
	simService := simulation.NewService(store, rulesCfg, log)
	reportService := reporting.NewService(store, log)
	seedService := seed.NewService(dealService, store, seed.NewGenerator(time.Now().UnixNano()), log)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RequestLogger(log))

	dealhandler.New(dealService, log).Register(router)
	simulationhandler.New(simService, log).Register(router)
	reportinghandler.New(reportService, log).Register(router)
	seedhandler.New(seedService, log).Register(router)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	router.Handle("/metrics/prometheus", promhttp.Handler())

	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("starting dealdesk", "addr", cfg.Addr, "advisory_mode", cfg.Advisory.Mode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
