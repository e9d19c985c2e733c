package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/clip-curator/internal/schemas"
	"github.com/jonathan/clip-curator/internal/server/ratelimit"
	"github.com/jonathan/clip-curator/internal/store"
	"github.com/jonathan/clip-curator/internal/types"
)

// memStore is an in-memory store for handler tests
type memStore struct {
	records []types.ResultRecord
	loadErr error
}

func (m *memStore) Load(context.Context) ([]types.ResultRecord, error) {
	return m.records, m.loadErr
}

func (m *memStore) Close() error { return nil }

func usable(id string, motion, brightness float64, tags string) types.ResultRecord {
	mv := motion
	return types.ResultRecord{
		AssetID:  id,
		Filename: id + ".mp4",
		Status:   types.StatusOK,
		Decision: types.DecisionUsable,
		Metrics: &types.Metrics{
			Quality: &types.QualityMetrics{SharpMean: 120, SharpMedian: 110, BrightnessMean: brightness, MotionMean: motion},
			Mood:    &types.MoodMetrics{Brightness: brightness, Contrast: 40, Temp: 6, Motion: &mv},
			TopTags: tags,
		},
	}
}

func newTestServer(t *testing.T, st store.Reader) http.Handler {
	t.Helper()
	s, err := New(Config{Store: st})
	require.NoError(t, err)
	return s.Handler()
}

func testLibrary() *memStore {
	return &memStore{records: []types.ResultRecord{
		usable("fast", 9, 100, "slide, splash"),
		usable("fam", 5, 100, "family fun"),
		usable("mid", 6, 100, "wave pool"),
		usable("calm", 1, 160, "sunset"),
		types.Failed(types.CandidateAsset{AssetID: "gone"}, types.StatusErrorDownload, "HTTP status 404", ""),
	}}
}

func TestNew_RequiresStore(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestHandleHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(t, &memStore{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHandleSelect(t *testing.T) {
	body := bytes.NewBufferString(`{"prompt": "family fun splash"}`)
	rec := httptest.NewRecorder()
	newTestServer(t, testLibrary()).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/select", body))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp SelectResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"family", "fun"}, resp.Descriptor.Themes)
	assert.Equal(t, "splash", resp.Descriptor.Vibe)
	assert.Equal(t, 6, resp.Nominal)
	assert.Equal(t, 4, resp.Ranked)
	assert.Equal(t, resp.Assembly.AssetIDs(), resp.AssetIDs)
	assert.NotContains(t, resp.AssetIDs, "gone")

	assemblyJSON, err := json.Marshal(resp.Assembly)
	require.NoError(t, err)
	schemaPath := schemas.ResolveSchemaPath(schemas.AssemblySchema)
	require.NotEmpty(t, schemaPath)
	assert.NoError(t, schemas.ValidateBytes(schemaPath, assemblyJSON))
}

func TestHandleSelect_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"invalid json", `{"prompt":`, "invalid JSON body"},
		{"empty prompt", `{"prompt": ""}`, "Prompt"},
		{"empty theme", `{"prompt": "fun", "themes": [""]}`, "validation error"},
		{"mood out of range", `{"prompt": "fun", "mood": {"brightness": 400}}`, "Brightness"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newTestServer(t, testLibrary()).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/select", strings.NewReader(tt.body)))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}
}

func TestHandleSelect_StoreFailure(t *testing.T) {
	st := &memStore{loadErr: &store.Error{Location: "results.csv", Op: "load", Cause: errors.New("permission denied")}}
	rec := httptest.NewRecorder()
	newTestServer(t, st).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/select", strings.NewReader(`{"prompt":"fun"}`)))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleSummary(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(t, testLibrary()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/results/summary", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var stats store.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 5, stats.Total)
	assert.Equal(t, 4, stats.ByStatus[types.StatusOK])
	assert.Equal(t, 1, stats.ByStatus[types.StatusErrorDownload])
	assert.Equal(t, 4, stats.ByDecision[types.DecisionUsable])
	assert.Equal(t, 1, stats.ByDecision[types.DecisionReject])
}

func TestHandleSummary_ReadsLiveCSVWithoutTruncating(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	w, err := store.OpenCSV(path)
	require.NoError(t, err)
	require.NoError(t, w.Append(context.Background(), usable("fam", 5, 100, "family fun")))
	defer func() { _ = w.Close() }()

	// the batch is mid-write on the next row
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString("next,next.mp4,o")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	newTestServer(t, store.NewCSVReader(path)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/results/summary", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var stats store.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.Total)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestHandleSearch(t *testing.T) {
	h := newTestServer(t, testLibrary())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/results/search?q=family+splash&top=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Hits []struct {
			AssetID string `json:"asset_id"`
		} `json:"hits"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Hits, 1)
	assert.Equal(t, "fast", body.Hits[0].AssetID)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/results/search", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/results/search?q=x&top=zero", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/results/search?q=volcano", nil))
	assert.JSONEq(t, `{"query":"volcano","hits":[]}`, rec.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(t, &memStore{}).ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/select", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestSelectRateLimited(t *testing.T) {
	s, err := New(Config{
		Store: testLibrary(),
		RateLimit: &ratelimit.Config{
			Enabled: true,
			Rules:   []ratelimit.Rule{{Method: "POST", Path: "/select", PerMinute: 1, Burst: 1}},
		},
	})
	require.NoError(t, err)
	h := s.Handler()

	first := httptest.NewRecorder()
	h.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/select", strings.NewReader(`{"prompt":"fun"}`)))
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Limit"))

	second := httptest.NewRecorder()
	h.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/select", strings.NewReader(`{"prompt":"fun"}`)))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))

	health := httptest.NewRecorder()
	h.ServeHTTP(health, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, health.Code)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	s, err := New(Config{Port: 0, Store: &memStore{}})
	require.NoError(t, err)
	s.httpServer.Addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
