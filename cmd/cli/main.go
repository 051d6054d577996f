package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dvloznov/finance-insights/internal/config"
	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/dvloznov/finance-insights/internal/gcsexport"
	"github.com/dvloznov/finance-insights/internal/infra"
	"github.com/dvloznov/finance-insights/internal/insights"
	"github.com/dvloznov/finance-insights/internal/logger"
	"github.com/dvloznov/finance-insights/internal/notionsync"
	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	log := logger.NewConsole(os.Stderr, logger.ParseLevel(cfg.LogLevel))

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "generate":
		runGenerate(cfg, log)
	case "rules":
		runRules()
	case "publish-notion":
		runPublishNotion(cfg, log)
	case "export-gcs":
		runExportGCS(cfg, log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Finance Insights CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  generate        Generate insights from the transaction history")
	fmt.Println("  rules           List the built-in insight rules")
	fmt.Println("  publish-notion  Generate insights and mirror them into a Notion database")
	fmt.Println("  export-gcs      Generate insights and write a JSON snapshot to GCS")
	fmt.Println("  help            Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

// sourceFlags registers the flags shared by every generating command.
func sourceFlags(fs *flag.FlagSet, cfg *config.Config) {
	fs.StringVar(&cfg.TransactionSource, "source", cfg.TransactionSource, "Transaction source: memory, bigquery or postgres")
	fs.StringVar(&cfg.TransactionsFile, "file", cfg.TransactionsFile, "JSON transactions file for the memory source")
}

// evaluate runs one strict generation pass against the configured source.
func evaluate(ctx context.Context, cfg *config.Config, log zerolog.Logger) []domain.Insight {
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	source, closeSource, err := infra.OpenTransactionSource(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open transaction source")
	}
	defer closeSource()

	engine := insights.NewEngine(source, log)
	list, err := engine.Evaluate(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Insight generation failed")
	}
	log.Info().Int("count", len(list)).Str("source", cfg.TransactionSource).Msg("Insights generated")
	return list
}

func runGenerate(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	sourceFlags(fs, cfg)
	format := fs.String("format", "table", "Output format: table or json")
	fs.Parse(os.Args[2:])

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	list := evaluate(ctx, cfg, log)

	var err error
	switch *format {
	case "table":
		renderTable(os.Stdout, list)
	case "json":
		err = renderJSON(os.Stdout, list)
	default:
		log.Fatal().Str("format", *format).Msg("Unknown output format")
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to write output")
	}
}

func runRules() {
	renderRules(os.Stdout, insights.NewEngine(nil, zerolog.Nop()).RuleTypes())
}

func runPublishNotion(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("publish-notion", flag.ExitOnError)
	sourceFlags(fs, cfg)
	dbID := fs.String("db", cfg.NotionInsightsDBID, "Notion insights database ID (or set NOTION_INSIGHTS_DB_ID)")
	dryRun := fs.Bool("dry-run", false, "Log the page operations without calling Notion")
	fs.Parse(os.Args[2:])

	if cfg.NotionToken == "" && !*dryRun {
		log.Fatal().Msg("NOTION_TOKEN is required")
	}
	if *dbID == "" {
		log.Fatal().Msg("Error: -db or NOTION_INSIGHTS_DB_ID is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	list := evaluate(ctx, cfg, log)

	res, err := notionsync.PublishInsights(ctx, notionsync.NewNotionClient(cfg.NotionToken), *dbID, list, *dryRun)
	if err != nil {
		log.Fatal().Err(err).Msg("Notion publish failed")
	}

	fmt.Printf("Notion publish: %d created, %d updated, %d archived, %d failed\n",
		res.Created, res.Updated, res.Archived, res.Failed)
	if res.Failed > 0 {
		os.Exit(1)
	}
}

func runExportGCS(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("export-gcs", flag.ExitOnError)
	sourceFlags(fs, cfg)
	bucket := fs.String("bucket", cfg.GCSBucket, "GCS bucket name (or set GCS_BUCKET)")
	prefix := fs.String("prefix", gcsexport.DefaultPrefix, "Object prefix for the snapshot")
	fs.Parse(os.Args[2:])

	if *bucket == "" {
		log.Fatal().Msg("Usage: cli export-gcs -bucket NAME [-prefix PREFIX]")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	list := evaluate(ctx, cfg, log)

	writer, err := gcsexport.NewGCSWriter(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create storage client")
	}
	defer writer.Close()

	now := time.Now()
	uri, err := gcsexport.ExportInsights(ctx, writer, *bucket, gcsexport.SnapshotObjectName(*prefix, now), list, now)
	if err != nil {
		log.Fatal().Err(err).Msg("Export failed")
	}

	fmt.Printf("Exported %d insights to %s\n", len(list), uri)
}
