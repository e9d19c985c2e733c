package prompt

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
)

// Preset tables for sample requests
var (
	Moods = map[string]string{
		"fun":       "fun and fresh",
		"bright":    "bright fun",
		"warm":      "warm toned",
		"cinematic": "cinematic adventure",
		"upbeat":    "upbeat",
	}
	Subjects = map[string][]string{
		"family": {"family fun", "smile moment", "group fun"},
		"teens":  {"teen excitement", "ride action", "fast splash"},
		"kids":   {"kids fun", "cute moment", "water playground"},
		"mixed":  {"fun adventure", "splash", "water blast"},
	}
	Zones = map[string]string{
		"jumanji":    "the Jumanji zone",
		"aquaverse":  "Aquaverse",
		"slides":     "the slides zone",
		"playground": "the water playground zone",
	}
	Styles = map[string]string{
		"tvc":   "styled like a TV commercial",
		"reel":  "paced like a fast IG reel",
		"promo": "as a playful promo",
	}
	Intensities = []string{
		"focus on splash", "high motion", "extra bright", "fun the whole way through", "focus on slides",
	}
	Structures = []string{
		"open with a hook",
		"fast cuts early and end on a wide shot",
		"keep the mood fun from start to end",
	}
	Durations = []int{12, 15, 18}
)

// GenerateOptions pin parts of a generated request. Zero values are chosen at random.
type GenerateOptions struct {
	Duration int
	Mood     string
	Subject  string
	Zone     string
	Style    string
}

// Generate builds a sample clip request from the preset tables. Unknown preset
// keys fall back to a random entry; an unknown subject uses "mixed".
func Generate(opts GenerateOptions, rng *rand.Rand) string {
	duration := opts.Duration
	if duration <= 0 {
		duration = Durations[rng.Intn(len(Durations))]
	}

	mood := pick(Moods, opts.Mood, rng)
	zone := pick(Zones, opts.Zone, rng)
	style := pick(Styles, opts.Style, rng)

	var theme string
	if opts.Subject == "" {
		var all []string
		for _, k := range sortedKeys(Subjects) {
			all = append(all, Subjects[k]...)
		}
		theme = all[rng.Intn(len(all))]
	} else {
		list, ok := Subjects[strings.ToLower(opts.Subject)]
		if !ok {
			list = Subjects["mixed"]
		}
		theme = list[rng.Intn(len(list))]
	}

	intense := Intensities[rng.Intn(len(Intensities))]
	structure := Structures[rng.Intn(len(Structures))]

	return fmt.Sprintf("Make a %d second %s clip of %s in %s, %s, %s, %s",
		duration, mood, theme, zone, intense, structure, style)
}

func pick[V any](table map[string]V, key string, rng *rand.Rand) V {
	if v, ok := table[strings.ToLower(key)]; ok && key != "" {
		return v
	}
	keys := sortedKeys(table)
	return table[keys[rng.Intn(len(keys))]]
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
