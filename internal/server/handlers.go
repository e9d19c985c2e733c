package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/jonathan/clip-curator/internal/pipeline"
	"github.com/jonathan/clip-curator/internal/search"
	"github.com/jonathan/clip-curator/internal/selection"
	"github.com/jonathan/clip-curator/internal/store"
	"github.com/jonathan/clip-curator/internal/types"
)

// maxRequestBytes bounds request bodies
const maxRequestBytes = 1 << 20

// SelectResponse is the body of a successful POST /select.
type SelectResponse struct {
	Descriptor *types.PromptDescriptor `json:"descriptor"`
	Assembly   *types.Assembly         `json:"assembly"`
	AssetIDs   []string                `json:"asset_ids"`
	Nominal    int                     `json:"nominal_length"`
	Ranked     int                     `json:"ranked_count"`
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req types.SelectionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		verr := validationError(err)
		s.errorResponse(w, HTTPStatus(verr), verr.Error())
		return
	}

	res, err := pipeline.Select(r.Context(), s.store, req, pipeline.SelectOptions{
		Extractor: s.extractor,
		Template:  s.template,
	})
	if err != nil {
		s.logger.Error("selection failed", "error", err)
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	template := s.template
	if template == nil {
		template = selection.DefaultTemplate()
	}
	s.jsonResponse(w, http.StatusOK, SelectResponse{
		Descriptor: res.Descriptor,
		Assembly:   res.Assembly,
		AssetIDs:   res.Assembly.AssetIDs(),
		Nominal:    selection.TemplateLength(template),
		Ranked:     len(res.Ranked),
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.Load(r.Context())
	if err != nil {
		s.logger.Error("failed to load results", "error", err)
		s.errorResponse(w, HTTPStatus(err), "failed to load results")
		return
	}
	s.jsonResponse(w, http.StatusOK, store.Summarize(records))
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		s.errorResponse(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}
	topK := 0
	if v := r.URL.Query().Get("top"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.errorResponse(w, http.StatusBadRequest, "'top' must be a positive integer")
			return
		}
		topK = n
	}

	records, err := s.store.Load(r.Context())
	if err != nil {
		s.logger.Error("failed to load results", "error", err)
		s.errorResponse(w, HTTPStatus(err), "failed to load results")
		return
	}
	hits := search.Search(records, query, topK)
	if hits == nil {
		hits = []search.Hit{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"query": query, "hits": hits})
}
