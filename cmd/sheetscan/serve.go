package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/ironsheep/sheetscan/internal/align"
	"github.com/ironsheep/sheetscan/internal/api"
	"github.com/ironsheep/sheetscan/internal/blueprint"
	"github.com/ironsheep/sheetscan/internal/conf"
	"github.com/ironsheep/sheetscan/internal/extract"
	"github.com/ironsheep/sheetscan/internal/imaging"
	"github.com/ironsheep/sheetscan/internal/ingest"
	"github.com/ironsheep/sheetscan/internal/logging"
	"github.com/ironsheep/sheetscan/internal/metrics"
	"github.com/ironsheep/sheetscan/internal/pipeline"
	"github.com/ironsheep/sheetscan/internal/review"
	"github.com/ironsheep/sheetscan/internal/store"
)

func serveCommand() *cobra.Command {
	var workers int
	var queueSize int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the extraction workers and the ingest API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), workers, queueSize)
		},
	}
	cmd.Flags().IntVar(&workers, "workers", 2, "number of concurrent extraction workers")
	cmd.Flags().IntVar(&queueSize, "queue-size", 64, "pending job buffer size")
	return cmd
}

func runServe(ctx context.Context, workers, queueSize int) error {
	settings, err := conf.Load(configPath)
	if err != nil {
		return err
	}
	log := logging.Init(settings.LogLevel)

	ds := store.NewSQLite(settings.Store.SQLitePath, log)
	if err := ds.Open(); err != nil {
		return err
	}
	defer ds.Close()

	registry := prometheus.NewRegistry()
	m, err := metrics.New(registry)
	if err != nil {
		return err
	}

	policy := review.Policy{
		ConfidenceFloor:          settings.Review.ConfidenceFloor,
		MaxBlank:                 settings.Review.MaxBlank,
		MaxAmbiguous:             settings.Review.MaxAmbiguous,
		MaxLowConfidence:         settings.Review.MaxLowConfidence,
		AlignedFalseForcesReview: settings.Review.AlignedFalseForcesReview,
	}
	ingestor := ingest.New(ds, policy, settings.Ingest.GradeSync, log)

	blueprints := blueprint.NewClient(
		settings.Blueprint.BaseURL,
		settings.Blueprint.Timeout,
		settings.Blueprint.CacheTTL,
		blueprint.WithWorkerToken(settings.Blueprint.WorkerToken),
	)

	engine := extract.NewEngine(
		extract.NewOtsuScorer(),
		extract.Config{
			BlankThreshold:         settings.Extract.BlankThreshold,
			MultiThreshold:         settings.Extract.MultiThreshold,
			ConfGapThreshold:       settings.Extract.ConfGapThreshold,
			LowConfidenceThreshold: settings.Extract.LowConfidenceThreshold,
		},
		extract.IdentifierConfig{
			BlankThreshold:   settings.Identifier.BlankThreshold,
			ConfGapThreshold: settings.Identifier.ConfGapThreshold,
		},
	)

	worker := pipeline.NewWorker(pipeline.Config{
		Blueprints:    blueprints,
		Align:         align.NewStage(settings.Align.OutWidth, settings.Align.OutHeight),
		Engine:        engine,
		Ingestor:      ingestor,
		Images:        imaging.NewCache(),
		Metrics:       m,
		ROIExpand:     settings.Identifier.ROIExpand,
		WorkerVersion: settings.WorkerVersion,
		Log:           log,
	})

	server := api.New(api.Config{
		Address:     settings.Server.Address,
		WorkerToken: settings.Server.WorkerToken,
		Ingestor:    ingestor,
		Metrics:     m,
		Log:         log,
	})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	queue := pipeline.NewQueue(queueSize)
	errs := make(chan error, workers+1)
	for i := 0; i < workers; i++ {
		go func() { errs <- worker.Run(ctx, queue) }()
	}
	go func() { errs <- server.Start() }()

	log.Info("sheetscan running",
		"version", version,
		"address", settings.Server.Address,
		"workers", workers)

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-errs:
		if err != nil {
			return fmt.Errorf("component failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), settings.Blueprint.Timeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
