package prompt

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/jonathan/clip-curator/internal/llm"
	"github.com/jonathan/clip-curator/internal/logging"
	"github.com/jonathan/clip-curator/internal/types"
)

type llmAnswer struct {
	Themes []string `json:"themes"`
	Vibe   string   `json:"vibe"`
}

// LLMExtractor asks a model for themes and vibe and falls back to the keyword
// extractor when the call or its answer is unusable.
type LLMExtractor struct {
	client   llm.Client
	tier     llm.ModelTier
	fallback KeywordExtractor
	logger   *logging.Logger
}

// NewLLMExtractor creates an extractor backed by client.
func NewLLMExtractor(client llm.Client, logger *logging.Logger) *LLMExtractor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &LLMExtractor{client: client, tier: llm.TierLite, logger: logger}
}

// Extract implements Extractor. It does not return model errors.
func (e *LLMExtractor) Extract(ctx context.Context, req types.SelectionRequest) (*types.PromptDescriptor, error) {
	desc, err := e.ask(ctx, req)
	if err != nil {
		e.logger.Warn("model extraction failed, using keywords", "error", err)
		return e.fallback.Extract(ctx, req)
	}
	return desc, nil
}

func (e *LLMExtractor) ask(ctx context.Context, req types.SelectionRequest) (*types.PromptDescriptor, error) {
	if e.client == nil {
		return nil, &Error{Message: "no model client configured"}
	}
	text := llm.BuildExtractionPrompt(llm.PromptDescriptorSchema(ThemeWords, VibeWords), req.Prompt)
	raw, err := e.client.GenerateJSON(ctx, text, e.tier)
	if err != nil {
		return nil, &Error{Message: "model call failed", Cause: err}
	}
	return parseAnswer(raw, req)
}

func parseAnswer(raw string, req types.SelectionRequest) (*types.PromptDescriptor, error) {
	var ans llmAnswer
	if err := json.Unmarshal([]byte(llm.CleanJSONBlock(raw)), &ans); err != nil {
		return nil, &Error{Message: "failed to decode model answer", Cause: err}
	}

	themes := normalizeThemes(ans.Themes)
	if len(req.Themes) > 0 {
		themes = normalizeThemes(req.Themes)
	}
	if len(themes) == 0 {
		return nil, &Error{Message: "model answer has no themes"}
	}
	vibe := strings.ToLower(strings.TrimSpace(ans.Vibe))
	if vibe == "" {
		vibe = DefaultVibe
	}
	return &types.PromptDescriptor{Themes: themes, Vibe: vibe, Mood: req.Mood}, nil
}
