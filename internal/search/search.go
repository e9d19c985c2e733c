// Package search finds recorded clips whose tags match a free-text query.
package search

import (
	"sort"
	"strings"

	"github.com/jonathan/clip-curator/internal/types"
)

// DefaultTopK is the number of hits returned when topK is not positive
const DefaultTopK = 20

// Hit is one matching clip.
type Hit struct {
	AssetID  string `json:"asset_id"`
	Filename string `json:"filename"`
	TopTags  string `json:"top_tags"`
	Score    int    `json:"match_score"`
}

// Search scores every ok record by the number of whitespace-separated query
// tokens found as substrings of its tag text. Only positive scores are
// returned, best first, ties in store order.
func Search(records []types.ResultRecord, query string, topK int) []Hit {
	if topK <= 0 {
		topK = DefaultTopK
	}
	tokens := strings.Fields(strings.ToLower(query))

	var hits []Hit
	for i := range records {
		rec := &records[i]
		if rec.Status != types.StatusOK {
			continue
		}
		tags := strings.ToLower(rec.TagText())
		score := 0
		for _, tok := range tokens {
			if strings.Contains(tags, tok) {
				score++
			}
		}
		if score > 0 {
			hits = append(hits, Hit{AssetID: rec.AssetID, Filename: rec.Filename, TopTags: rec.TagText(), Score: score})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits
}
