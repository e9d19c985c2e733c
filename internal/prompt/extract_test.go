package prompt

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/clip-curator/internal/llm"
	"github.com/jonathan/clip-curator/internal/types"
)

func TestDescribe(t *testing.T) {
	tests := []struct {
		name   string
		req    types.SelectionRequest
		themes []string
		vibe   string
	}{
		{
			name:   "family fun splash",
			req:    types.SelectionRequest{Prompt: "family fun splash"},
			themes: []string{"family", "fun"},
			vibe:   "splash",
		},
		{
			name:   "plurals and punctuation",
			req:    types.SelectionRequest{Prompt: "Kids on the Slides, sunset!"},
			themes: []string{"kids", "slide", "sunset"},
			vibe:   DefaultVibe,
		},
		{
			name:   "first vibe wins",
			req:    types.SelectionRequest{Prompt: "upbeat family ride, splash and upbeat music"},
			themes: []string{"family", "ride"},
			vibe:   "upbeat",
		},
		{
			name:   "explicit themes override",
			req:    types.SelectionRequest{Prompt: "family fun", Themes: []string{" Jungle ", "jungle", "Slide"}},
			themes: []string{"jungle", "slide"},
			vibe:   DefaultVibe,
		},
		{
			name: "nothing recognised",
			req:  types.SelectionRequest{Prompt: "something nice please"},
			vibe: DefaultVibe,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Describe(tt.req)
			assert.Equal(t, tt.themes, d.Themes)
			assert.Equal(t, tt.vibe, d.Vibe)
		})
	}
}

func TestDescribe_CarriesMood(t *testing.T) {
	mood := &types.MoodTarget{Brightness: 150, Contrast: 40, Temp: 10}
	d, err := KeywordExtractor{}.Extract(context.Background(), types.SelectionRequest{Prompt: "family", Mood: mood})
	require.NoError(t, err)
	assert.Equal(t, mood, d.Mood)
}

type fakeClient struct {
	answer string
	err    error
	prompt string
}

func (f *fakeClient) GenerateJSON(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
	f.prompt = prompt
	return f.answer, f.err
}

func (f *fakeClient) Close() error { return nil }

func TestLLMExtractor(t *testing.T) {
	ctx := context.Background()
	req := types.SelectionRequest{Prompt: "family fun splash"}

	t.Run("uses model answer", func(t *testing.T) {
		client := &fakeClient{answer: "```json\n{\"themes\": [\"Family\", \"slide\"], \"vibe\": \"Upbeat\"}\n```"}
		d, err := NewLLMExtractor(client, nil).Extract(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, []string{"family", "slide"}, d.Themes)
		assert.Equal(t, "upbeat", d.Vibe)
		assert.Contains(t, client.prompt, "family fun splash")
	})

	t.Run("falls back on call error", func(t *testing.T) {
		client := &fakeClient{err: errors.New("quota exceeded")}
		d, err := NewLLMExtractor(client, nil).Extract(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, Describe(req), d)
	})

	t.Run("falls back on bad json", func(t *testing.T) {
		d, err := NewLLMExtractor(&fakeClient{answer: "not json"}, nil).Extract(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, []string{"family", "fun"}, d.Themes)
	})

	t.Run("falls back on empty themes", func(t *testing.T) {
		d, err := NewLLMExtractor(&fakeClient{answer: `{"themes": [], "vibe": "calm"}`}, nil).Extract(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, "splash", d.Vibe)
	})

	t.Run("nil client", func(t *testing.T) {
		d, err := NewLLMExtractor(nil, nil).Extract(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, "splash", d.Vibe)
	})
}

func TestParseAnswer_Errors(t *testing.T) {
	_, err := parseAnswer("{", types.SelectionRequest{Prompt: "x"})
	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Error(), "failed to decode model answer")
}

func TestGenerate(t *testing.T) {
	t.Run("deterministic for a seed", func(t *testing.T) {
		a := Generate(GenerateOptions{}, rand.New(rand.NewSource(7)))
		b := Generate(GenerateOptions{}, rand.New(rand.NewSource(7)))
		assert.Equal(t, a, b)
		assert.Contains(t, a, "Make a ")
	})

	t.Run("pinned presets", func(t *testing.T) {
		p := Generate(GenerateOptions{Duration: 15, Mood: "upbeat", Subject: "family", Zone: "jumanji", Style: "reel"}, rand.New(rand.NewSource(1)))
		assert.Contains(t, p, "Make a 15 second upbeat clip of ")
		assert.Contains(t, p, "in the Jumanji zone")
		assert.Contains(t, p, "paced like a fast IG reel")

		var hit bool
		for _, s := range Subjects["family"] {
			hit = hit || strings.Contains(p, s)
		}
		assert.True(t, hit)
	})

	t.Run("unknown subject uses mixed", func(t *testing.T) {
		p := Generate(GenerateOptions{Subject: "robots"}, rand.New(rand.NewSource(3)))
		var hit bool
		for _, s := range Subjects["mixed"] {
			hit = hit || strings.Contains(p, s)
		}
		assert.True(t, hit)
	})

	t.Run("generated text yields a descriptor", func(t *testing.T) {
		p := Generate(GenerateOptions{Subject: "family", Mood: "upbeat"}, rand.New(rand.NewSource(5)))
		d := Describe(types.SelectionRequest{Prompt: p})
		assert.NotEmpty(t, d.Themes)
		assert.Equal(t, "upbeat", d.Vibe)
	})
}
