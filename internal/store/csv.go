package store

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/jonathan/clip-curator/internal/types"
)

const utf8BOM = "\ufeff"

// CSVStore is a file-backed append-only store. One handle should own the
// file for the lifetime of a batch; appends are serialized and fsynced.
type CSVStore struct {
	path string

	mu         sync.Mutex
	file       *os.File
	done       map[string]struct{}
	needHeader bool
	columns    []string
}

// OpenCSV opens or creates the store at path. A trailing partial line left by
// a crash mid-write is discarded so the next append starts on a clean row.
func OpenCSV(path string) (*CSVStore, error) {
	s := &CSVStore{path: path, done: make(map[string]struct{})}

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, &Error{Location: path, Op: "read", Cause: err}
	}

	if len(data) > 0 && data[len(data)-1] != '\n' {
		cut := bytes.LastIndexByte(data, '\n') + 1
		if err := os.Truncate(path, int64(cut)); err != nil {
			return nil, &Error{Location: path, Op: "truncate partial row", Cause: err}
		}
		data = data[:cut]
	}

	records, columns, err := parseCSV(data)
	if err != nil {
		return nil, &Error{Location: path, Op: "parse", Cause: err}
	}
	for _, r := range records {
		s.done[r.AssetID] = struct{}{}
	}
	s.columns = columns
	s.needHeader = columns == nil
	if s.needHeader {
		s.columns = Columns
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, &Error{Location: path, Op: "open for append", Cause: err}
	}
	s.file = f
	return s, nil
}

// Path returns the file path of the store.
func (s *CSVStore) Path() string {
	return s.path
}

// DoneIDs returns a copy of the recorded asset ids.
func (s *CSVStore) DoneIDs(_ context.Context) (map[string]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]struct{}, len(s.done))
	for id := range s.done {
		out[id] = struct{}{}
	}
	return out, nil
}

// Append writes rec as one row, flushes and fsyncs before returning.
func (s *CSVStore) Append(_ context.Context, rec types.ResultRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return &Error{Location: s.path, Op: "append", Cause: os.ErrClosed}
	}
	if _, ok := s.done[rec.AssetID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, rec.AssetID)
	}

	row, err := encodeRow(rec)
	if err != nil {
		return &Error{Location: s.path, Op: "encode", Cause: err}
	}
	row = reorder(row, s.columns)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if s.needHeader {
		_ = w.Write(Columns)
	}
	_ = w.Write(row)
	w.Flush()
	if err := w.Error(); err != nil {
		return &Error{Location: s.path, Op: "encode", Cause: err}
	}

	// A single write keeps the row contiguous on disk.
	if _, err := s.file.Write(buf.Bytes()); err != nil {
		return &Error{Location: s.path, Op: "write", Cause: err}
	}
	if err := s.file.Sync(); err != nil {
		return &Error{Location: s.path, Op: "sync", Cause: err}
	}

	s.needHeader = false
	s.done[rec.AssetID] = struct{}{}
	return nil
}

// Load re-reads the file and returns every record in file order.
func (s *CSVStore) Load(_ context.Context) ([]types.ResultRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return LoadCSV(s.path)
}

// Close closes the append handle.
func (s *CSVStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

// CSVReader reads a store file owned by another handle or process.
type CSVReader struct {
	path string
}

// NewCSVReader returns a reader for the store at path. Nothing is opened until Load.
func NewCSVReader(path string) *CSVReader {
	return &CSVReader{path: path}
}

// Load returns the complete rows currently in the file.
func (r *CSVReader) Load(_ context.Context) ([]types.ResultRecord, error) {
	return LoadCSV(r.path)
}

// Close is a no-op.
func (r *CSVReader) Close() error {
	return nil
}

// LoadCSV reads a store file without opening it for append. A missing file is empty.
func LoadCSV(path string) ([]types.ResultRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, &Error{Location: path, Op: "read", Cause: err}
	}
	if len(data) > 0 && data[len(data)-1] != '\n' {
		data = data[:bytes.LastIndexByte(data, '\n')+1]
	}
	records, _, err := parseCSV(data)
	if err != nil {
		return nil, &Error{Location: path, Op: "parse", Cause: err}
	}
	return records, nil
}

// parseCSV decodes store content. It returns nil columns when there is no header yet.
// Duplicate ids keep the first row.
func parseCSV(data []byte) ([]types.ResultRecord, []string, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil, nil
	}
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}
	idx := make(map[string]int, len(header))
	columns := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, utf8BOM))
		idx[h] = i
		columns[i] = h
	}
	if _, ok := idx["asset_id"]; !ok {
		return nil, nil, fmt.Errorf("header has no asset_id column")
	}

	var records []types.ResultRecord
	seen := make(map[string]bool)
	for line := 2; ; line++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("line %d: %w", line, err)
		}
		rec, err := decodeRow(idx, row)
		if err != nil {
			return nil, nil, fmt.Errorf("line %d: %w", line, err)
		}
		if seen[rec.AssetID] {
			continue
		}
		seen[rec.AssetID] = true
		records = append(records, rec)
	}
	return records, columns, nil
}

// reorder maps a row in Columns order onto the file's existing header order.
// Columns unknown to the file are dropped; file columns unknown here stay empty.
func reorder(row []string, columns []string) []string {
	if sameColumns(columns, Columns) {
		return row
	}
	pos := make(map[string]int, len(Columns))
	for i, c := range Columns {
		pos[c] = i
	}
	out := make([]string, len(columns))
	for i, c := range columns {
		if j, ok := pos[c]; ok {
			out[i] = row[j]
		}
	}
	return out
}

func sameColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
