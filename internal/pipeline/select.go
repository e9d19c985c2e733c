package pipeline

import (
	"context"
	"fmt"

	"github.com/jonathan/clip-curator/internal/prompt"
	"github.com/jonathan/clip-curator/internal/ranking"
	"github.com/jonathan/clip-curator/internal/selection"
	"github.com/jonathan/clip-curator/internal/store"
	"github.com/jonathan/clip-curator/internal/types"
)

// SelectOptions configures a selection
type SelectOptions struct {
	// Extractor defaults to the keyword extractor
	Extractor prompt.Extractor
	// Template defaults to selection.DefaultTemplate()
	Template   []types.StorySection
	OnProgress ProgressCallback
}

// SelectResult is everything derived for one request.
type SelectResult struct {
	Descriptor *types.PromptDescriptor `json:"descriptor"`
	Ranked     []types.RankedAsset     `json:"ranked"`
	Thresholds selection.Thresholds    `json:"-"`
	Assembly   *types.Assembly         `json:"assembly"`
}

// Select reads the store and builds an assembly for req. It only reads.
func Select(ctx context.Context, st store.Reader, req types.SelectionRequest, opts SelectOptions) (*SelectResult, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid selection request: %w", err)
	}
	extractor := opts.Extractor
	if extractor == nil {
		extractor = prompt.KeywordExtractor{}
	}
	template := opts.Template
	if template == nil {
		template = selection.DefaultTemplate()
	}

	records, err := st.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load results: %w", err)
	}
	emit(opts.OnProgress, ProgressEvent{Step: "load", Message: fmt.Sprintf("Loaded %d records", len(records))})

	desc, err := extractor.Extract(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to derive prompt descriptor: %w", err)
	}
	emit(opts.OnProgress, ProgressEvent{Step: "prompt", Message: fmt.Sprintf("Themes %v, vibe %q", desc.Themes, desc.Vibe), Content: desc})

	ranked, err := ranking.Rank(records, desc)
	if err != nil {
		return nil, fmt.Errorf("failed to rank clips: %w", err)
	}
	emit(opts.OnProgress, ProgressEvent{Step: "rank", Message: fmt.Sprintf("Ranked %d usable clips", len(ranked))})

	th := selection.ComputeThresholds(ranked)
	assembly := selection.AssembleWith(ranked, template, th)
	emit(opts.OnProgress, ProgressEvent{
		Step:    "assemble",
		Message: fmt.Sprintf("Assembled %d of %d clips", len(assembly.Entries), selection.TemplateLength(template)),
		Content: assembly,
	})

	return &SelectResult{Descriptor: desc, Ranked: ranked, Thresholds: th, Assembly: assembly}, nil
}
