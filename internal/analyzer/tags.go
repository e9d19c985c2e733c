package analyzer

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/jonathan/clip-curator/internal/types"
)

// Tag text and payload sizes
const (
	DefaultTopTags     = 8
	MaxStoredTagScores = 50
)

// TagCategories is the phrase vocabulary handed to the tagging model, by category.
var TagCategories = map[string][]string{
	"theme": {
		"jungle theme", "jumanji theme", "tropical adventure",
		"water park", "wave pool", "kids zone", "family zone",
	},
	"activity": {
		"people playing in water", "waterslide", "splashing water",
		"swimming", "running", "laughing", "posing for camera",
		"group cheering", "jumping", "slow motion water splash",
	},
	"subject": {
		"family", "kids", "teenagers", "couple", "friends",
		"woman", "man", "group of people",
	},
	"shot_type": {
		"wide shot", "close up", "pov shot", "cinematic shot",
		"drone shot", "handheld camera",
	},
	"emotion": {
		"happy", "excited", "fun", "adventure", "energetic",
		"relaxed", "playful",
	},
}

// TagVocabulary flattens TagCategories into (category, phrase) pairs in a stable order.
func TagVocabulary() []types.TagScore {
	cats := make([]string, 0, len(TagCategories))
	for c := range TagCategories {
		cats = append(cats, c)
	}
	sort.Strings(cats)

	var out []types.TagScore
	for _, c := range cats {
		for _, p := range TagCategories[c] {
			out = append(out, types.TagScore{Category: c, Tag: p})
		}
	}
	return out
}

// EnvTagVocabulary carries TagVocabulary to a tagger command as a JSON array.
const EnvTagVocabulary = "CLIP_TAG_VOCABULARY"

// VocabularyEnv renders TagVocabulary as a NAME=VALUE environment entry.
func VocabularyEnv() (string, error) {
	payload, err := json.Marshal(TagVocabulary())
	if err != nil {
		return "", fmt.Errorf("failed to marshal tag vocabulary: %w", err)
	}
	return EnvTagVocabulary + "=" + string(payload), nil
}

// RankTags returns a copy of scores sorted by descending affinity. Equal scores keep input order.
func RankTags(scores []types.TagScore) []types.TagScore {
	out := make([]types.TagScore, len(scores))
	copy(out, scores)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// TopTagText joins the first n phrases of ranked with ", ".
func TopTagText(ranked []types.TagScore, n int) string {
	ranked = Truncate(ranked, n)
	phrases := make([]string, 0, len(ranked))
	for _, s := range ranked {
		phrases = append(phrases, s.Tag)
	}
	return strings.Join(phrases, ", ")
}

// Truncate returns at most n leading elements of scores.
func Truncate(scores []types.TagScore, n int) []types.TagScore {
	if n < 0 || len(scores) <= n {
		return scores
	}
	return scores[:n]
}
