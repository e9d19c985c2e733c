// Package prompt derives ranking descriptors from free-text clip requests.
package prompt

import (
	"context"
	"strings"
	"unicode"

	"github.com/jonathan/clip-curator/internal/types"
)

// DefaultVibe is used when a request names no vibe word
const DefaultVibe = "fun"

// Extractor turns a selection request into a PromptDescriptor.
type Extractor interface {
	Extract(ctx context.Context, req types.SelectionRequest) (*types.PromptDescriptor, error)
}

// ThemeWords are single words that clip tags are written with.
var ThemeWords = []string{
	// subjects
	"family", "kids", "child", "children", "parents", "teens", "teenagers", "couple", "friends", "group", "people",
	// places
	"jungle", "jumanji", "tropical", "aquaverse", "pool", "wave", "water", "playground", "zone", "tower",
	// activities
	"slide", "waterslide", "ride", "swimming", "running", "jumping", "laughing", "dancing", "playing", "posing", "cheering",
	// moments
	"smile", "fun", "adventure", "action", "sunset", "party", "zombie", "ghost", "romantic",
	// shots
	"wide", "close", "pov", "drone", "handheld",
}

// VibeWords describe the overall feel of a clip.
var VibeWords = []string{
	"splash", "upbeat", "energetic", "excited", "exciting", "playful", "relaxed", "calm", "chill",
	"cinematic", "warm", "bright", "happy", "cheerful", "wholesome", "spooky",
}

var (
	themeSet = toSet(ThemeWords)
	vibeSet  = toSet(VibeWords)
)

func toSet(words []string) map[string]struct{} {
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		out[w] = struct{}{}
	}
	return out
}

// KeywordExtractor matches request words against fixed vocabularies. It never fails.
type KeywordExtractor struct{}

// Extract implements Extractor.
func (KeywordExtractor) Extract(_ context.Context, req types.SelectionRequest) (*types.PromptDescriptor, error) {
	return Describe(req), nil
}

// Describe builds a descriptor from the request text. Themes keep first-seen
// order. The vibe is the first vibe word in the text, or DefaultVibe. Explicit
// request themes replace derived ones; an explicit mood becomes the target.
func Describe(req types.SelectionRequest) *types.PromptDescriptor {
	var themes []string
	seen := make(map[string]struct{})
	vibe := ""

	for _, word := range Tokenize(req.Prompt) {
		if _, ok := vibeSet[word]; ok {
			if vibe == "" {
				vibe = word
			}
			continue
		}
		if w, ok := lookup(word); ok {
			if _, dup := seen[w]; !dup {
				seen[w] = struct{}{}
				themes = append(themes, w)
			}
		}
	}

	if len(req.Themes) > 0 {
		themes = normalizeThemes(req.Themes)
	}
	if vibe == "" {
		vibe = DefaultVibe
	}

	return &types.PromptDescriptor{Themes: themes, Vibe: vibe, Mood: req.Mood}
}

// lookup matches a token against the theme vocabulary, trying a plural-stripped form.
func lookup(word string) (string, bool) {
	if _, ok := themeSet[word]; ok {
		return word, true
	}
	if strings.HasSuffix(word, "s") {
		singular := strings.TrimSuffix(word, "s")
		if _, ok := themeSet[singular]; ok {
			return singular, true
		}
	}
	return "", false
}

// Tokenize lowercases text and splits it on anything that is not a letter or digit.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func normalizeThemes(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, t := range in {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
