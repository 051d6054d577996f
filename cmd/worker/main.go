package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/finance-insights/internal/config"
	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/dvloznov/finance-insights/internal/gcsexport"
	"github.com/dvloznov/finance-insights/internal/infra"
	"github.com/dvloznov/finance-insights/internal/insights"
	"github.com/dvloznov/finance-insights/internal/jobs"
	"github.com/dvloznov/finance-insights/internal/jobs/inmemory"
	"github.com/dvloznov/finance-insights/internal/logger"
	"github.com/dvloznov/finance-insights/internal/notionsync"
	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log := logger.New(zerolog.InfoLevel)
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	interval := flag.Duration("interval", time.Hour, "How often to refresh insights")
	prefix := flag.String("prefix", gcsexport.DefaultPrefix, "Object prefix for GCS snapshots")
	flag.StringVar(&cfg.TransactionSource, "source", cfg.TransactionSource, "Transaction source: memory, bigquery or postgres")
	flag.StringVar(&cfg.TransactionsFile, "file", cfg.TransactionsFile, "JSON transactions file for the memory source")
	flag.Parse()

	log := logger.New(logger.ParseLevel(cfg.LogLevel))

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	source, closeSource, err := infra.OpenTransactionSource(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open transaction source")
	}
	defer closeSource()

	var sinks []publishSink
	if cfg.GCSBucket != "" {
		writer, err := gcsexport.NewGCSWriter(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create storage client")
		}
		defer writer.Close()
		sinks = append(sinks, gcsSink(writer, cfg.GCSBucket, *prefix))
	}
	if cfg.NotionToken != "" && cfg.NotionInsightsDBID != "" {
		sinks = append(sinks, notionSink(notionsync.NewNotionClient(cfg.NotionToken), cfg.NotionInsightsDBID))
	}
	if len(sinks) == 0 {
		log.Warn().Msg("Neither GCS_BUCKET nor Notion settings are configured, refreshes will only be logged")
	}

	engine := insights.NewEngine(source, log)
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(cfg.RefreshQueueSize, jobStore, inmemory.WithWorkers(1), inmemory.WithLogger(log))

	if err := jobQueue.Start(ctx, newPublishHandler(engine, sinks, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	log.Info().Dur("interval", *interval).Int("sinks", len(sinks)).Msg("Insights worker started")

	go schedule(ctx, *interval, func() {
		if err := jobQueue.PublishRefreshInsights(ctx, &jobs.RefreshInsightsJob{Reason: "schedule"}); err != nil {
			log.Error().Err(err).Msg("Failed to enqueue scheduled refresh")
		}
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down worker service...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during graceful shutdown")
	}

	log.Info().Msg("Worker service exited")
}

// publishSink delivers one generated batch somewhere outside the process.
type publishSink struct {
	name    string
	publish func(ctx context.Context, list []domain.Insight) error
}

func gcsSink(w gcsexport.ObjectWriter, bucket, prefix string) publishSink {
	return publishSink{
		name: "gcs",
		publish: func(ctx context.Context, list []domain.Insight) error {
			now := time.Now()
			_, err := gcsexport.ExportInsights(ctx, w, bucket, gcsexport.SnapshotObjectName(prefix, now), list, now)
			return err
		},
	}
}

func notionSink(svc notionsync.NotionService, dbID string) publishSink {
	return publishSink{
		name: "notion",
		publish: func(ctx context.Context, list []domain.Insight) error {
			res, err := notionsync.PublishInsights(ctx, svc, dbID, list, false)
			if err != nil {
				return err
			}
			if res.Failed > 0 {
				return fmt.Errorf("%d Notion page operations failed", res.Failed)
			}
			return nil
		},
	}
}

// newPublishHandler evaluates the engine and hands the batch to every sink.
// Any failure fails the attempt so the queue retries the whole refresh.
func newPublishHandler(eval jobs.Evaluator, sinks []publishSink, log zerolog.Logger) jobs.JobHandler {
	return func(ctx context.Context, job jobs.Job) error {
		refresh, ok := job.(*jobs.RefreshInsightsJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}

		list, err := eval.Evaluate(ctx)
		if err != nil {
			return err
		}
		refresh.InsightCount = len(list)

		for _, sink := range sinks {
			if err := sink.publish(ctx, list); err != nil {
				return fmt.Errorf("publishing to %s: %w", sink.name, err)
			}
			log.Info().Str("job_id", refresh.JobID).Str("sink", sink.name).Int("count", len(list)).Msg("Insights published")
		}
		return nil
	}
}

// schedule calls fn immediately and then every interval until ctx is done.
func schedule(ctx context.Context, interval time.Duration, fn func()) {
	fn()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}
