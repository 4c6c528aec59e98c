package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ironsheep/sheetscan/internal/align"
	"github.com/ironsheep/sheetscan/internal/blueprint"
	"github.com/ironsheep/sheetscan/internal/extract"
	"github.com/ironsheep/sheetscan/internal/imaging"
	"github.com/ironsheep/sheetscan/internal/ingest"
	"github.com/ironsheep/sheetscan/internal/metrics"
	"github.com/ironsheep/sheetscan/internal/roimap"
)

// Worker runs extraction jobs. Safe for concurrent use; run several
// Run loops against one Worker to scale out.
type Worker struct {
	blueprints    *blueprint.Client
	align         *align.Stage
	engine        *extract.Engine
	ingestor      *ingest.Ingestor
	images        *imaging.Cache
	metrics       *metrics.Metrics
	roiExpand     float64
	workerVersion string
	log           *slog.Logger
}

// Config assembles a Worker from its stages.
type Config struct {
	Blueprints    *blueprint.Client
	Align         *align.Stage
	Engine        *extract.Engine
	Ingestor      *ingest.Ingestor
	Images        *imaging.Cache
	Metrics       *metrics.Metrics
	ROIExpand     float64
	WorkerVersion string
	Log           *slog.Logger
}

// NewWorker builds a worker.
func NewWorker(cfg Config) *Worker {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	return &Worker{
		blueprints:    cfg.Blueprints,
		align:         cfg.Align,
		engine:        cfg.Engine,
		ingestor:      cfg.Ingestor,
		images:        cfg.Images,
		metrics:       cfg.Metrics,
		roiExpand:     cfg.ROIExpand,
		workerVersion: cfg.WorkerVersion,
		log:           log,
	}
}

// Run consumes jobs from source until ctx ends. Processing errors are
// logged and the loop continues; the source redelivers.
func (w *Worker) Run(ctx context.Context, source Source) error {
	for {
		job, err := source.Next(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}

		if _, err := w.Process(ctx, job); err != nil {
			w.log.Error("job processing failed",
				"job_id", job.ID,
				"submission_id", job.SubmissionID,
				"error", err)
		}
	}
}

// Process runs one job through every stage and delivers the result.
//
// Sheet-level problems (warp failure, unreadable image, no blueprint)
// become FAILED deliveries and a nil error; only delivery failures return
// an error.
func (w *Worker) Process(ctx context.Context, job *Job) (*ingest.Response, error) {
	defer w.images.Evict(job.ImagePath)

	mode, err := align.ParseMode(job.Mode)
	if err != nil {
		return w.fail(ctx, job, err.Error())
	}

	bp, metaUsed, err := w.resolveBlueprint(ctx, job)
	if err != nil {
		return w.fail(ctx, job, fmt.Sprintf("blueprint unavailable: %v", err))
	}

	img, err := w.images.Load(job.ImagePath)
	if err != nil {
		return w.fail(ctx, job, fmt.Sprintf("unreadable capture: %v", err))
	}

	alignStart := time.Now()
	aligned, err := w.align.Align(img, mode)
	if err != nil {
		if errors.Is(err, align.ErrWarpFailed) {
			w.metrics.WarpFailure(string(mode))
			return w.fail(ctx, job, align.ErrWarpFailed.Error())
		}
		return w.fail(ctx, job, err.Error())
	}
	w.metrics.ObserveStage("align", time.Since(alignStart).Seconds())

	questions, err := roimap.MapQuestions(bp, aligned.Width, aligned.Height)
	if err != nil {
		return w.fail(ctx, job, fmt.Sprintf("region mapping failed: %v", err))
	}
	bubbles, err := roimap.MapIdentifier(bp, aligned.Width, aligned.Height, w.roiExpand)
	if err != nil {
		return w.fail(ctx, job, fmt.Sprintf("region mapping failed: %v", err))
	}

	extractStart := time.Now()
	answers := w.engine.ExtractAnswers(aligned.Image, questions)

	var identifier *extract.IdentifierResult
	if len(bubbles) > 0 {
		identifier = w.engine.ExtractIdentifier(aligned.Image, bubbles)
	}
	w.metrics.ObserveStage("extract", time.Since(extractStart).Seconds())

	req := &ingest.Request{
		SubmissionID: job.SubmissionID,
		Status:       ingest.ResultDone,
		Template: ingest.TemplateInfo{
			Version:       bp.Version,
			QuestionCount: bp.QuestionCount,
		},
		Input: ingest.InputInfo{
			Mode:    string(mode),
			Aligned: aligned.Aligned,
		},
		Extracted: &ingest.ExtractedPayload{
			Identifier: identifier,
			Answers:    answers,
		},
		Debug: ingest.DebugInfo{
			MetaUsed:      metaUsed,
			WorkerVersion: w.workerVersion,
		},
	}

	resp, err := w.ingestor.Ingest(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("delivering result for submission %d: %w", job.SubmissionID, err)
	}
	w.metrics.JobProcessed(ingest.ResultDone)

	w.log.Info("job processed",
		"job_id", job.ID,
		"submission_id", job.SubmissionID,
		"mode", mode,
		"aligned", aligned.Aligned,
		"meta_used", metaUsed,
		"next_action", resp.NextAction)
	return resp, nil
}

// resolveBlueprint fetches the template blueprint, falling back to the
// job's legacy question list when the fetch fails and a list is present.
// metaUsed reports whether the fetched template (rather than the legacy
// substitute) was used.
func (w *Worker) resolveBlueprint(ctx context.Context, job *Job) (*blueprint.Blueprint, bool, error) {
	bp, err := w.blueprints.Fetch(ctx, job.QuestionCount)
	if err == nil {
		w.metrics.BlueprintFetch("remote")
		return bp, true, nil
	}

	if len(job.LegacyQuestions) == 0 {
		return nil, false, err
	}

	w.log.Warn("blueprint fetch failed, using legacy question list",
		"job_id", job.ID,
		"submission_id", job.SubmissionID,
		"error", err)
	w.metrics.BlueprintFetch("legacy")

	page := job.LegacyPage
	if page.Width <= 0 || page.Height <= 0 {
		page = blueprint.PageSize{Width: 297, Height: 210}
	}
	return blueprint.FromLegacy(job.LegacyQuestions, page), false, nil
}

// fail delivers a FAILED result for the job.
func (w *Worker) fail(ctx context.Context, job *Job, reason string) (*ingest.Response, error) {
	w.log.Warn("job failed",
		"job_id", job.ID,
		"submission_id", job.SubmissionID,
		"reason", reason)

	req := &ingest.Request{
		SubmissionID: job.SubmissionID,
		Status:       ingest.ResultFailed,
		Error:        reason,
		Template: ingest.TemplateInfo{
			Version:       blueprint.Version,
			QuestionCount: job.QuestionCount,
		},
		Input: ingest.InputInfo{Mode: job.Mode},
		Debug: ingest.DebugInfo{WorkerVersion: w.workerVersion},
	}

	resp, err := w.ingestor.Ingest(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("delivering failure for submission %d: %w", job.SubmissionID, err)
	}
	w.metrics.JobProcessed(ingest.ResultFailed)
	return resp, nil
}
