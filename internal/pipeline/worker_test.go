package pipeline

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/sheetscan/internal/align"
	"github.com/ironsheep/sheetscan/internal/blueprint"
	"github.com/ironsheep/sheetscan/internal/extract"
	"github.com/ironsheep/sheetscan/internal/imaging"
	"github.com/ironsheep/sheetscan/internal/ingest"
	"github.com/ironsheep/sheetscan/internal/metrics"
	"github.com/ironsheep/sheetscan/internal/review"
	"github.com/ironsheep/sheetscan/internal/store"
)

const templateURL = "http://templates.local"

// The test sheet: a 200x200 mm page captured at 2 px/mm (400x400 px).
// Two questions at the top, the 8x10 identifier grid below.
const (
	pageMM   = 200.0
	pxPerMM  = 2
	sheetPx  = 400
	bubbleMM = 2.0
)

func testBlueprint() *blueprint.Blueprint {
	bp := &blueprint.Blueprint{
		Version:       blueprint.Version,
		Units:         "mm",
		QuestionCount: 2,
		Page:          blueprint.PageSize{Width: pageMM, Height: pageMM},
		Questions: []blueprint.Question{
			{
				QuestionNumber: 1,
				ROI:            blueprint.MMRect{X: 0, Y: 0, W: 50, H: 10},
				Choices: []blueprint.Choice{
					{Choice: "A"}, {Choice: "B"}, {Choice: "C"}, {Choice: "D"}, {Choice: "E"},
				},
			},
			{
				QuestionNumber: 2,
				ROI:            blueprint.MMRect{X: 0, Y: 20, W: 50, H: 10},
				Choices: []blueprint.Choice{
					{Choice: "A"}, {Choice: "B"}, {Choice: "C"}, {Choice: "D"}, {Choice: "E"},
				},
			},
		},
	}

	ident := &blueprint.Identifier{
		DigitCount:      blueprint.DigitCount,
		ChoicesPerDigit: blueprint.ChoicesPerDigit,
	}
	for d := 1; d <= blueprint.DigitCount; d++ {
		for n := 0; n < blueprint.ChoicesPerDigit; n++ {
			ident.Bubbles = append(ident.Bubbles, blueprint.Bubble{
				DigitIndex: d,
				Number:     n,
				Center:     blueprint.MMPoint{X: float64(n*15 + 10), Y: float64(90 + d*10)},
				Radius:     bubbleMM,
			})
		}
	}
	bp.Identifier = ident
	return bp
}

// renderSheet paints a sheet image matching testBlueprint: the given
// answer choice per question fully filled, and one bubble per identifier
// digit.
func renderSheet(answers [2]int, digits [8]int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, sheetPx, sheetPx))
	for y := 0; y < sheetPx; y++ {
		for x := 0; x < sheetPx; x++ {
			img.Set(x, y, color.White)
		}
	}

	fillBox := func(x0, y0, w, h int) {
		for y := y0; y < y0+h; y++ {
			for x := x0; x < x0+w; x++ {
				img.Set(x, y, color.Black)
			}
		}
	}

	// Question ROIs are 100x20 px with five 20 px choice boxes
	fillBox(answers[0]*20, 0, 20, 20)
	fillBox(answers[1]*20, 40, 20, 20)

	// Identifier bubbles, painted as squares around each center
	for d := 1; d <= 8; d++ {
		n := digits[d-1]
		cx := (n*15 + 10) * pxPerMM
		cy := (90 + d*10) * pxPerMM
		fillBox(cx-8, cy-8, 16, 16)
	}
	return img
}

func writeSheet(t *testing.T, img image.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sheet.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

// countingScorer scores the exact dark-pixel fraction, keeping
// classification deterministic without Otsu's adaptivity.
func countingScorer() extract.Scorer {
	return extract.ScorerFunc(func(roi image.Image) (float64, error) {
		b := roi.Bounds()
		total := b.Dx() * b.Dy()
		dark := 0
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				r, g, bl, _ := roi.At(x, y).RGBA()
				lum := 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(bl>>8)
				if lum < 128 {
					dark++
				}
			}
		}
		return float64(dark) / float64(total), nil
	})
}

type testRig struct {
	worker  *Worker
	store   *store.SQLiteStore
	metrics *metrics.Metrics
}

func newTestRig(t *testing.T, responder httpmock.Responder) *testRig {
	t.Helper()

	ds := store.NewSQLite(filepath.Join(t.TempDir(), "pipeline.db"), nil)
	require.NoError(t, ds.Open())
	t.Cleanup(func() { _ = ds.Close() })

	transport := httpmock.NewMockTransport()
	t.Cleanup(transport.Reset)
	if responder != nil {
		transport.RegisterResponder(http.MethodGet,
			templateURL+"/api/v1/assets/omr/objective/meta/", responder)
	}

	blueprints := blueprint.NewClient(templateURL, 5*time.Second, time.Minute,
		blueprint.WithHTTPClient(&http.Client{Transport: transport}))

	m, err := metrics.New(prometheus.NewRegistry())
	require.NoError(t, err)

	worker := NewWorker(Config{
		Blueprints:    blueprints,
		Align:         align.NewStage(sheetPx, sheetPx),
		Engine:        extract.NewEngine(countingScorer(), extract.DefaultConfig(), extract.DefaultIdentifierConfig()),
		Ingestor:      ingest.New(ds, review.DefaultPolicy(), false, nil),
		Images:        imaging.NewCache(),
		Metrics:       m,
		ROIExpand:     1.60,
		WorkerVersion: "test",
	})
	return &testRig{worker: worker, store: ds, metrics: m}
}

func blueprintResponder() httpmock.Responder {
	return func(req *http.Request) (*http.Response, error) {
		return httpmock.NewJsonResponse(http.StatusOK, testBlueprint())
	}
}

func TestProcess_CleanSheetToAnswersReady(t *testing.T) {
	rig := newTestRig(t, blueprintResponder())

	sub := &store.Submission{}
	require.NoError(t, rig.store.CreateSubmission(sub))
	require.NoError(t, rig.store.CreateEnrollment(&store.Enrollment{Identifier: "20241234"}))

	// Answers B and D; identifier digits 2,0,2,4,1,2,3,4
	sheet := renderSheet([2]int{1, 3}, [8]int{2, 0, 2, 4, 1, 2, 3, 4})
	job := NewJob(sub.ID, 2, "scan", writeSheet(t, sheet))

	resp, err := rig.worker.Process(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, ingest.NextGradeAsync, resp.NextAction)

	got, err := rig.store.GetSubmission(sub.ID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusAnswersReady, got.Status)
	require.NotNil(t, got.Meta.OMR)
	assert.True(t, got.Meta.OMR.MetaUsed)
	require.NotNil(t, got.Meta.OMR.Identifier.Identifier)
	assert.Equal(t, "20241234", *got.Meta.OMR.Identifier.Identifier)

	answers, err := rig.store.GetAnswers(sub.ID)
	require.NoError(t, err)
	require.Len(t, answers, 2)
	assert.Equal(t, "B", answers[0].Answer)
	assert.Equal(t, "D", answers[1].Answer)
	assert.Equal(t, "ok", answers[0].Status)
}

func TestProcess_BlankQuestionRoutesToReview(t *testing.T) {
	rig := newTestRig(t, blueprintResponder())

	sub := &store.Submission{}
	require.NoError(t, rig.store.CreateSubmission(sub))
	require.NoError(t, rig.store.CreateEnrollment(&store.Enrollment{Identifier: "20241234"}))

	sheet := renderSheet([2]int{1, 3}, [8]int{2, 0, 2, 4, 1, 2, 3, 4})
	// Erase question 2's marks
	for y := 40; y < 60; y++ {
		for x := 0; x < 100; x++ {
			sheet.Set(x, y, color.White)
		}
	}
	job := NewJob(sub.ID, 2, "scan", writeSheet(t, sheet))

	resp, err := rig.worker.Process(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, ingest.NextManualReview, resp.NextAction)

	got, err := rig.store.GetSubmission(sub.ID)
	require.NoError(t, err)
	assert.True(t, got.Meta.ManualReview.Required)
	assert.Contains(t, got.Meta.ManualReview.Reasons, review.ReasonAnswerBlankOrMulti)
}

func TestProcess_PhotoWarpFailureFailsSubmission(t *testing.T) {
	rig := newTestRig(t, blueprintResponder())

	sub := &store.Submission{}
	require.NoError(t, rig.store.CreateSubmission(sub))

	// A featureless gray frame cannot be rectified
	img := image.NewRGBA(image.Rect(0, 0, 200, 200))
	for y := 0; y < 200; y++ {
		for x := 0; x < 200; x++ {
			img.Set(x, y, color.RGBA{128, 128, 128, 255})
		}
	}
	job := NewJob(sub.ID, 2, "photo", writeSheet(t, img))

	resp, err := rig.worker.Process(context.Background(), job)
	require.NoError(t, err, "warp failure is a result, not a processing error")
	assert.Equal(t, ingest.NextManualReview, resp.NextAction)

	got, err := rig.store.GetSubmission(sub.ID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusFailed, got.Status)
	assert.Equal(t, "warp_failed_for_photo_mode", got.ErrorMessage)
}

func TestProcess_LegacyFallback(t *testing.T) {
	// No responder: every blueprint fetch fails
	rig := newTestRig(t, nil)

	sub := &store.Submission{}
	require.NoError(t, rig.store.CreateSubmission(sub))

	sheet := renderSheet([2]int{1, 3}, [8]int{0, 0, 0, 0, 0, 0, 0, 0})
	job := NewJob(sub.ID, 2, "scan", writeSheet(t, sheet))
	job.LegacyQuestions = testBlueprint().Questions
	job.LegacyPage = blueprint.PageSize{Width: pageMM, Height: pageMM}

	resp, err := rig.worker.Process(context.Background(), job)
	require.NoError(t, err)
	// Legacy blueprints carry no identifier layout, so attribution fails
	assert.Equal(t, ingest.NextManualReview, resp.NextAction)

	got, err := rig.store.GetSubmission(sub.ID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusNeedsIdentification, got.Status)
	require.NotNil(t, got.Meta.OMR)
	assert.False(t, got.Meta.OMR.MetaUsed, "legacy substitution must be visible")

	answers, err := rig.store.GetAnswers(sub.ID)
	require.NoError(t, err)
	assert.Len(t, answers, 2)
}

func TestProcess_NoBlueprintNoFallback(t *testing.T) {
	rig := newTestRig(t, nil)

	sub := &store.Submission{}
	require.NoError(t, rig.store.CreateSubmission(sub))

	job := NewJob(sub.ID, 2, "scan", "/nonexistent.png")

	resp, err := rig.worker.Process(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, ingest.NextManualReview, resp.NextAction)

	got, err := rig.store.GetSubmission(sub.ID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusFailed, got.Status)
	assert.Contains(t, got.ErrorMessage, "blueprint unavailable")
}

func TestProcess_InvalidMode(t *testing.T) {
	rig := newTestRig(t, blueprintResponder())

	sub := &store.Submission{}
	require.NoError(t, rig.store.CreateSubmission(sub))

	job := NewJob(sub.ID, 2, "fax", "/unused.png")
	resp, err := rig.worker.Process(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, ingest.NextManualReview, resp.NextAction)

	got, err := rig.store.GetSubmission(sub.ID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusFailed, got.Status)
}

func TestProcess_Idempotent(t *testing.T) {
	rig := newTestRig(t, blueprintResponder())

	sub := &store.Submission{}
	require.NoError(t, rig.store.CreateSubmission(sub))
	require.NoError(t, rig.store.CreateEnrollment(&store.Enrollment{Identifier: "20241234"}))

	sheet := renderSheet([2]int{1, 3}, [8]int{2, 0, 2, 4, 1, 2, 3, 4})
	path := writeSheet(t, sheet)

	// The same submission delivered twice, as an at-least-once source may
	first, err := rig.worker.Process(context.Background(), NewJob(sub.ID, 2, "scan", path))
	require.NoError(t, err)
	second, err := rig.worker.Process(context.Background(), NewJob(sub.ID, 2, "scan", path))
	require.NoError(t, err)
	assert.Equal(t, first.NextAction, second.NextAction)

	answers, err := rig.store.GetAnswers(sub.ID)
	require.NoError(t, err)
	assert.Len(t, answers, 2)
}

func TestProcess_RecordsWarpFailureMetric(t *testing.T) {
	rig := newTestRig(t, blueprintResponder())

	sub := &store.Submission{}
	require.NoError(t, rig.store.CreateSubmission(sub))

	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			img.Set(x, y, color.RGBA{100, 100, 100, 255})
		}
	}
	_, err := rig.worker.Process(context.Background(), NewJob(sub.ID, 2, "photo", writeSheet(t, img)))
	require.NoError(t, err)

	families, err := rig.metrics.Registry().Gather()
	require.NoError(t, err)

	var found bool
	for _, mf := range families {
		if mf.GetName() != "sheetscan_warp_failures_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "mode" && l.GetValue() == "photo" {
					found = true
					assert.Equal(t, 1.0, m.GetCounter().GetValue())
				}
			}
		}
	}
	assert.True(t, found, "warp failure counter for photo mode must be recorded")
}

func TestQueue(t *testing.T) {
	q := NewQueue(2)
	ctx := context.Background()

	job := NewJob(1, 10, "scan", "/a.png")
	require.NoError(t, q.Submit(ctx, job))

	got, err := q.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, job.ID, got.ID)
}

func TestQueue_CancelledContext(t *testing.T) {
	q := NewQueue(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := q.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewJob_UniqueIDs(t *testing.T) {
	a := NewJob(1, 10, "scan", "/a.png")
	b := NewJob(1, 10, "scan", "/a.png")
	assert.NotEqual(t, a.ID, b.ID)
}
