// Command kwon-server runs the K-WON compliance audit backplane: the
// on-chain event ingestor, the Merkle batcher/anchorer, the monthly
// compliance orchestrator, and the JSON-RPC tool server that fronts all
// three plus the policy and risk engines.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/kwon-project/compliance-backplane/internal/adapters"
	"github.com/kwon-project/compliance-backplane/internal/audit"
	"github.com/kwon-project/compliance-backplane/internal/batch"
	"github.com/kwon-project/compliance-backplane/internal/config"
	"github.com/kwon-project/compliance-backplane/internal/ingest"
	"github.com/kwon-project/compliance-backplane/internal/metrics"
	"github.com/kwon-project/compliance-backplane/internal/orchestrator"
	"github.com/kwon-project/compliance-backplane/internal/policy"
	"github.com/kwon-project/compliance-backplane/internal/report"
	"github.com/kwon-project/compliance-backplane/internal/toolserver"
)

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	var showHelp = flag.Bool("help", false, "Show help message")
	flag.Parse()
	if *showHelp {
		printHelp()
		return
	}

	log.Printf("starting K-WON compliance backplane")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	dbClient, err := audit.NewClient(cfg, audit.WithLogger(
		log.New(log.Writer(), "[Database] ", log.LstdFlags),
	))
	if err != nil {
		log.Fatalf("connect to database: %v", err)
	}
	defer dbClient.Close()

	if err := dbClient.MigrateUp(context.Background()); err != nil {
		log.Fatalf("run migrations: %v", err)
	}
	log.Printf("database migrations applied")

	events := audit.NewEventRepository(dbClient)
	cursors := audit.NewCursorRepository(dbClient)
	batches := audit.NewBatchRepository(dbClient)
	anchors := audit.NewAnchorRepository(dbClient)
	checkpoints := audit.NewCheckpointRepository(dbClient)
	reviews := audit.NewReviewRepository(dbClient)

	source, sourceName := buildSource(cfg)
	ingestor := ingest.New(source, events, cursors, ingest.Config{
		SourceName:    sourceName,
		PollInterval:  time.Duration(cfg.PollIntervalSec) * time.Second,
		RateSleep:     cfg.EtherscanRateSleep,
		MaxPages:      cfg.CollectMaxPages,
		MaxSeconds:    cfg.CollectMaxSeconds,
		SafeLagBlocks: cfg.SafeLagBlocks,
	})

	anchorWriter := &adapters.MockAnchorWriter{Prefix: cfg.AnchorTxPrefix}
	batcher := batch.New(events, batches, anchors, anchorWriter, batch.Config{
		PollInterval:     time.Duration(cfg.MerklePollIntervalSec) * time.Second,
		MinPendingEvents: cfg.MerkleMinPendingEvents,
		BatchLimit:       cfg.MerkleBatchLimit,
		BatchMode:        cfg.MerkleBatchMode,
		AnchorChain:      cfg.AnchorChain,
	})

	policyCfg := policy.DefaultConfig()
	if cfg.PolicyConfigPath != "" {
		loaded, err := policy.LoadConfig(cfg.PolicyConfigPath)
		if err != nil {
			log.Fatalf("load policy config %s: %v", cfg.PolicyConfigPath, err)
		}
		policyCfg = loaded
	}

	notifier := adapters.NewLogNotifier()
	metricSource := &adapters.StaticMetricSource{}

	reportWriter := report.New(cfg.ReportTemplate)
	workflow := orchestrator.New(checkpoints, reviews, metricSource, notifier, reportWriter, cfg.ArtifactsDir)

	toolSrv := toolserver.New(log.New(log.Writer(), "[ToolServer] ", log.LstdFlags))
	toolserver.RegisterAuditTools(toolSrv, toolserver.AuditDeps{
		Events:    events,
		Batches:   batches,
		Anchors:   anchors,
		Proofs:    audit.NewProofRepository(dbClient),
		Cursors:   cursors,
		Ingestor:  ingestor,
		Batcher:   batcher,
	})
	toolserver.RegisterPolicyTools(toolSrv, policyCfg)
	toolserver.RegisterRiskTools(toolSrv)
	toolserver.RegisterOrchestratorTools(toolSrv, toolserver.OrchestratorDeps{
		Workflow:           workflow,
		Reviews:            reviews,
		MaxRevisions:       cfg.MaxRevisions,
		MaxRetriesDataLoad: cfg.MaxRetriesDataLoad,
	})

	mux := toolSrv.Mux()
	metrics.Register(mux)

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: mux,
	}

	ctx, cancel := context.WithCancel(context.Background())

	go ingestor.Run(ctx)
	go batcher.Run(ctx)
	log.Printf("ingestor and batcher background loops started (source=%s)", sourceName)

	monthlyCron := cron.New()
	_, err = monthlyCron.AddFunc(cfg.MonthlyCronSpec, func() {
		period := time.Now().UTC().AddDate(0, -1, 0).Format("2006-01")
		log.Printf("monthly orchestrator trigger: period=%s", period)
		threadID, status, err := workflow.Run(context.Background(), period, cfg.MaxRevisions, cfg.MaxRetriesDataLoad)
		if err != nil {
			log.Printf("monthly orchestrator run failed: %v", err)
			return
		}
		log.Printf("monthly orchestrator run complete: thread_id=%s status=%s", threadID, status)
	})
	if err != nil {
		log.Fatalf("schedule monthly orchestrator (%q): %v", cfg.MonthlyCronSpec, err)
	}
	monthlyCron.Start()
	log.Printf("monthly orchestrator scheduled: %s", cfg.MonthlyCronSpec)

	go func() {
		log.Printf("tool server listening on %s", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("tool server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Printf("shutting down")
	cancel()

	cronCtx := monthlyCron.Stop()
	<-cronCtx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("http server shutdown error: %v", err)
	}

	log.Printf("stopped")
}

// buildSource constructs the configured ingest.Source and returns the
// sync_cursors key it should be tracked under.
func buildSource(cfg *config.Config) (ingest.Source, string) {
	if cfg.UseLocalSource {
		return ingest.NewLocalSource(cfg.LocalAPIBase, cfg.LocalToken, cfg.LocalAddressFilter), "local"
	}

	src, err := ingest.NewEtherscanSource(cfg.EtherscanBaseURL, cfg.EtherscanAPIKey, cfg.USDTContract, cfg.EtherscanOffset)
	if err != nil {
		log.Fatalf("create etherscan source: %v", err)
	}
	return src, "etherscan"
}

func printHelp() {
	log.Println("kwon-server: K-WON compliance audit backplane")
	log.Println("  -help   show this message")
	log.Println()
	log.Println("configuration is read entirely from environment variables; see internal/config.")
}
