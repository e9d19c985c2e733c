package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/clip-curator/internal/types"
)

func rec(id string, status types.Status, tags string) types.ResultRecord {
	r := types.ResultRecord{AssetID: id, Filename: id + ".mp4", Status: status}
	if tags != "" {
		r.Metrics = &types.Metrics{TopTags: tags}
	}
	return r
}

func TestSearch(t *testing.T) {
	records := []types.ResultRecord{
		rec("a", types.StatusOK, "family, wave pool"),
		rec("b", types.StatusOK, "jumanji theme, waterslide, family"),
		rec("c", types.StatusErrorAnalyze, ""),
		rec("d", types.StatusOK, "drone shot"),
		rec("e", types.StatusOK, "Family Fun"),
		rec("f", types.StatusOK, ""),
	}

	hits := Search(records, "family jumanji waterslide fun", 0)
	require.Len(t, hits, 3)
	assert.Equal(t, "b", hits[0].AssetID)
	assert.Equal(t, 3, hits[0].Score)
	assert.Equal(t, "e", hits[1].AssetID)
	assert.Equal(t, 2, hits[1].Score)
	assert.Equal(t, "a", hits[2].AssetID)
	assert.Equal(t, "Family Fun", hits[1].TopTags)
}

func TestSearch_TopKAndEmptyQuery(t *testing.T) {
	records := []types.ResultRecord{
		rec("a", types.StatusOK, "slide"),
		rec("b", types.StatusOK, "slide"),
		rec("c", types.StatusOK, "slide"),
	}

	hits := Search(records, "SLIDE", 2)
	require.Len(t, hits, 2)
	assert.Equal(t, "a", hits[0].AssetID)
	assert.Equal(t, "b", hits[1].AssetID)

	assert.Empty(t, Search(records, "   ", 5))
}
