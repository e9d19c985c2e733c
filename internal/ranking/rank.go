// Package ranking scores usable clips against a prompt descriptor.
package ranking

import (
	"fmt"
	"sort"

	"github.com/jonathan/clip-curator/internal/types"
)

// Usable returns the ok+usable records in store order.
func Usable(records []types.ResultRecord) []types.ResultRecord {
	out := make([]types.ResultRecord, 0, len(records))
	for _, r := range records {
		if r.IsUsable() {
			out = append(out, r)
		}
	}
	return out
}

// Rank scores every usable record and sorts by overall score, descending.
// Records that are not usable are ignored. Ties follow catalog order, then store order.
func Rank(records []types.ResultRecord, desc *types.PromptDescriptor) ([]types.RankedAsset, error) {
	if desc == nil {
		return nil, &Error{Message: "prompt descriptor is required"}
	}

	usable := Usable(records)
	desired := DesiredMood(usable, desc.Mood)
	matcher := newPromptMatcher(desc)

	ranked := make([]types.RankedAsset, 0, len(usable))
	for _, rec := range usable {
		prompt := matcher.score(rec.TagText())
		mood := moodMatch(rec.Mood(), desired)
		ranked = append(ranked, types.RankedAsset{
			Record:       rec,
			PromptScore:  prompt,
			MoodMatch:    mood,
			Overall:      promptWeight*prompt + mood,
			CatalogIndex: rec.CatalogIndex,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Overall != ranked[j].Overall {
			return ranked[i].Overall > ranked[j].Overall
		}
		return ranked[i].CatalogIndex < ranked[j].CatalogIndex
	})
	return ranked, nil
}

// Error represents a ranking failure
type Error struct {
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("ranking error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("ranking error: %s", e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
