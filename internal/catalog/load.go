package catalog

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/jonathan/clip-curator/internal/types"
)

// Column names of the catalog file
const (
	ColumnAssetID     = "asset_id"
	ColumnFilename    = "filename"
	ColumnDownloadURL = "download_url"
)

const utf8BOM = "\ufeff"

// LoadResult is the parsed catalog plus bookkeeping about dropped rows.
type LoadResult struct {
	Candidates []types.CandidateAsset
	// Duplicates counts rows dropped because their asset_id was already seen
	Duplicates int
	// Blank counts rows dropped because asset_id was empty
	Blank int
}

// LoadCandidates reads the catalog CSV at path. The first occurrence of an
// asset_id wins and row order is preserved.
func LoadCandidates(path string) (*LoadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &Error{Path: path, Message: "failed to open catalog", Cause: err}
	}
	defer func() { _ = f.Close() }()

	res, err := Parse(f)
	if err != nil {
		var cerr *Error
		if errors.As(err, &cerr) {
			cerr.Path = path
			return nil, cerr
		}
		return nil, &Error{Path: path, Message: "failed to parse catalog", Cause: err}
	}
	return res, nil
}

// Parse reads catalog rows from r.
func Parse(r io.Reader) (*LoadResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, &Error{Message: "catalog is empty"}
		}
		return nil, &Error{Line: 1, Message: "failed to read header", Cause: err}
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, utf8BOM))
		idx[strings.ToLower(name)] = i
	}
	idCol, ok := idx[ColumnAssetID]
	if !ok {
		return nil, &Error{Line: 1, Message: "missing required column " + ColumnAssetID}
	}
	nameCol, hasName := idx[ColumnFilename]
	urlCol, hasURL := idx[ColumnDownloadURL]

	res := &LoadResult{}
	seen := make(map[string]bool)
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, &Error{Line: line, Message: "malformed row", Cause: err}
		}

		id := strings.TrimSpace(field(row, idCol))
		if id == "" {
			res.Blank++
			continue
		}
		if seen[id] {
			res.Duplicates++
			continue
		}
		seen[id] = true

		c := types.CandidateAsset{AssetID: id}
		if hasName {
			c.Filename = strings.TrimSpace(field(row, nameCol))
		}
		if hasURL {
			c.DownloadURL = strings.TrimSpace(field(row, urlCol))
		}
		res.Candidates = append(res.Candidates, c)
	}
	return res, nil
}

// FilterDownloadable keeps only candidates that carry a download URL.
func FilterDownloadable(candidates []types.CandidateAsset) []types.CandidateAsset {
	out := make([]types.CandidateAsset, 0, len(candidates))
	for _, c := range candidates {
		if c.DownloadURL != "" {
			out = append(out, c)
		}
	}
	return out
}

func field(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
