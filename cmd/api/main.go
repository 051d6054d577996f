package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/finance-insights/internal/api/handlers"
	"github.com/dvloznov/finance-insights/internal/api/middleware"
	"github.com/dvloznov/finance-insights/internal/config"
	"github.com/dvloznov/finance-insights/internal/infra"
	"github.com/dvloznov/finance-insights/internal/insights"
	"github.com/dvloznov/finance-insights/internal/insightstore"
	"github.com/dvloznov/finance-insights/internal/jobs"
	"github.com/dvloznov/finance-insights/internal/jobs/inmemory"
	"github.com/dvloznov/finance-insights/internal/logger"
	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log := logger.New(zerolog.InfoLevel)
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	flag.StringVar(&cfg.Port, "port", cfg.Port, "HTTP server port")
	flag.StringVar(&cfg.TransactionSource, "source", cfg.TransactionSource, "Transaction source: memory, bigquery or postgres")
	flag.StringVar(&cfg.TransactionsFile, "file", cfg.TransactionsFile, "JSON transactions file for the memory source")
	flag.Parse()

	log := logger.New(logger.ParseLevel(cfg.LogLevel))

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx := context.Background()

	source, closeSource, err := infra.OpenTransactionSource(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open transaction source")
	}
	defer closeSource()

	engine := insights.NewEngine(source, log)
	store := insightstore.New(engine)

	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(cfg.RefreshQueueSize, jobStore, inmemory.WithLogger(log))

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	if err := jobQueue.Start(workerCtx, jobs.NewRefreshHandler(engine, store, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to start refresh worker")
	}

	mux := handlers.NewRouter(
		handlers.NewInsightsHandler(store, jobQueue, log),
		handlers.NewRulesHandler(engine),
		handlers.NewJobsHandler(jobStore, log),
	)

	handler := middleware.Chain(mux,
		middleware.Recovery(log),
		middleware.RequestID,
		middleware.Logger(log),
		middleware.CORS,
	)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("port", cfg.Port).
			Str("source", cfg.TransactionSource).
			Strs("rules", ruleNames(engine)).
			Msg("Starting insights API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	cancelWorker()
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping refresh queue")
	}

	log.Info().Msg("Server exited")
}

func ruleNames(engine *insights.Engine) []string {
	types := engine.RuleTypes()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return names
}
