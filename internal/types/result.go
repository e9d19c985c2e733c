package types

// Status is the terminal outcome of processing one candidate.
type Status string

// Status values recorded in the result store
const (
	StatusOK            Status = "ok"
	StatusNoDownloadURL Status = "no_download_url"
	StatusErrorDownload Status = "error_download"
	StatusErrorAnalyze  Status = "error_analyze"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusOK, StatusNoDownloadURL, StatusErrorDownload, StatusErrorAnalyze:
		return true
	}
	return false
}

// Decision is the usable/reject classification derived from quality metrics.
type Decision string

// Decision values
const (
	DecisionUsable Decision = "usable"
	DecisionReject Decision = "reject"
)

// ResultRecord is one durable row of the result store.
// Metrics is set only when Status is StatusOK; Error only for failure statuses.
type ResultRecord struct {
	AssetID  string   `json:"asset_id"`
	Filename string   `json:"filename"`
	Status   Status   `json:"status"`
	Error    string   `json:"error,omitempty"`
	Decision Decision `json:"decision,omitempty"`
	Metrics  *Metrics `json:"metrics,omitempty"`
	RunID    string   `json:"run_id,omitempty"`
	// CatalogIndex is the candidate's position in the catalog the batch ran over
	CatalogIndex int `json:"catalog_index"`
}

// IsUsable reports whether the record was analyzed successfully and classified usable.
func (r *ResultRecord) IsUsable() bool {
	return r.Status == StatusOK && r.Decision == DecisionUsable
}

// TagText returns the record's tag text, or "" when no tags were recorded.
func (r *ResultRecord) TagText() string {
	if r.Metrics == nil {
		return ""
	}
	return r.Metrics.TopTags
}

// Mood returns the record's mood metrics or nil.
func (r *ResultRecord) Mood() *MoodMetrics {
	if r.Metrics == nil {
		return nil
	}
	return r.Metrics.Mood
}

// Failed builds a failure record for a candidate.
func Failed(c CandidateAsset, status Status, errMsg, runID string) ResultRecord {
	return ResultRecord{
		AssetID:  c.AssetID,
		Filename: c.Filename,
		Status:   status,
		Error:    errMsg,
		Decision: DecisionReject,
		RunID:    runID,
	}
}
