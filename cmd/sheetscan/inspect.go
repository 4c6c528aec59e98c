package main

import (
	"encoding/json"
	"fmt"
	"image/png"
	"os"

	"github.com/spf13/cobra"

	"github.com/ironsheep/sheetscan/internal/align"
	"github.com/ironsheep/sheetscan/internal/blueprint"
	"github.com/ironsheep/sheetscan/internal/conf"
	"github.com/ironsheep/sheetscan/internal/extract"
	"github.com/ironsheep/sheetscan/internal/imaging"
	"github.com/ironsheep/sheetscan/internal/roimap"
)

func inspectCommand() *cobra.Command {
	var blueprintPath string
	var mode string
	var overlayPath string

	cmd := &cobra.Command{
		Use:   "inspect <image>",
		Short: "Extract one sheet offline and optionally render a QA overlay",
		Long: `Runs a single captured sheet through alignment and extraction against a
blueprint JSON file, without touching the datastore. Prints the extraction
result as JSON. With --overlay, also writes an annotated PNG with each
mapped region outlined and color-coded by its classification status.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(args[0], blueprintPath, mode, overlayPath)
		},
	}
	cmd.Flags().StringVar(&blueprintPath, "blueprint", "", "path to blueprint JSON (required)")
	cmd.Flags().StringVar(&mode, "mode", "auto", "capture mode: scan, photo, or auto")
	cmd.Flags().StringVar(&overlayPath, "overlay", "", "write QA overlay PNG to this path")
	_ = cmd.MarkFlagRequired("blueprint")
	return cmd
}

func runInspect(imagePath, blueprintPath, modeStr, overlayPath string) error {
	settings, err := conf.Load(configPath)
	if err != nil {
		return err
	}

	mode, err := align.ParseMode(modeStr)
	if err != nil {
		return err
	}

	bp, err := loadBlueprintFile(blueprintPath)
	if err != nil {
		return err
	}

	img, err := imaging.NewCache().Load(imagePath)
	if err != nil {
		return err
	}

	stage := align.NewStage(settings.Align.OutWidth, settings.Align.OutHeight)
	aligned, err := stage.Align(img, mode)
	if err != nil {
		return err
	}

	questions, err := roimap.MapQuestions(bp, aligned.Width, aligned.Height)
	if err != nil {
		return err
	}
	bubbles, err := roimap.MapIdentifier(bp, aligned.Width, aligned.Height, settings.Identifier.ROIExpand)
	if err != nil {
		return err
	}

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

	result := &extract.Result{
		Version: extract.ResultVersion,
		Mode:    string(mode),
		Aligned: aligned.Aligned,
		Answers: engine.ExtractAnswers(aligned.Image, questions),
	}
	if len(bubbles) > 0 {
		result.Identifier = engine.ExtractIdentifier(aligned.Image, bubbles)
	}

	if overlayPath != "" {
		if err := writeOverlay(overlayPath, aligned, questions, bubbles, result); err != nil {
			return err
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func loadBlueprintFile(path string) (*blueprint.Blueprint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var bp blueprint.Blueprint
	if err := json.Unmarshal(data, &bp); err != nil {
		return nil, fmt.Errorf("parsing blueprint %s: %w", path, err)
	}
	if err := bp.Validate(); err != nil {
		return nil, err
	}
	return &bp, nil
}

func writeOverlay(path string, aligned *align.AlignedImage, questions []roimap.Question, bubbles []roimap.Bubble, result *extract.Result) error {
	boxes := make([]imaging.OverlayBox, 0, len(questions)+len(bubbles))
	for i, q := range questions {
		status := "error"
		if i < len(result.Answers) {
			status = string(result.Answers[i].Status)
		}
		boxes = append(boxes, imaging.OverlayBox{
			ROI:    q.ROI,
			Label:  imaging.FormatLabel(q.QuestionNumber),
			Status: status,
		})
	}

	digitStatus := make(map[int]string)
	if result.Identifier != nil {
		for _, d := range result.Identifier.Digits {
			digitStatus[d.DigitIndex] = string(d.Status)
		}
	}
	for _, b := range bubbles {
		status, ok := digitStatus[b.DigitIndex]
		if !ok {
			status = "error"
		}
		boxes = append(boxes, imaging.OverlayBox{ROI: b.ROI, Status: status})
	}

	out := imaging.RenderOverlay(aligned.Image, boxes)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, out)
}
