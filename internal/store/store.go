// Package store persists mistake records in a flat CSV file.
//
// The layout is a fixed header row plus one row per record, with the
// analysis embedded as a JSON-encoded cell. Updates and deletes rewrite the
// whole file, so the store assumes a single logical writer; concurrent
// writers race last-writer-wins by design.
package store

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/error-T-T/mathmistake/internal/mistake"
)

const timeLayout = time.RFC3339Nano

// header is the canonical column order. Readers resolve columns by name so
// files written before analysis_result existed stay readable.
var header = []string{
	"id", "question_content", "wrong_process", "wrong_answer",
	"correct_answer", "question_type", "knowledge_tags", "difficulty",
	"source", "notes", "created_at", "updated_at", "analysis_result",
}

// Store is a CSV-backed table of mistake records.
type Store struct {
	path string
	log  *slog.Logger
}

// Open creates a Store at path, creating the file with a header row if it
// does not exist yet.
func Open(path string, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("create data file: %w", err)
		}
		w := csv.NewWriter(f)
		if werr := w.Write(header); werr != nil {
			f.Close()
			return nil, fmt.Errorf("write header: %w", werr)
		}
		w.Flush()
		if err := f.Close(); err != nil {
			return nil, fmt.Errorf("close data file: %w", err)
		}
		log.Info("created data file", "path", path)
	} else if err != nil {
		return nil, fmt.Errorf("stat data file: %w", err)
	}
	return &Store{path: path, log: log}, nil
}

// Path returns the location of the backing file.
func (s *Store) Path() string { return s.path }

// newID generates a record id. Variable so tests can force collisions.
var newID = func() string { return uuid.NewString()[:8] }

// Create validates c, assigns a fresh id, stamps timestamps, and appends a
// row. The id is regenerated until it does not collide with an existing
// row. It returns the stored record.
func (s *Store) Create(c mistake.Create) (*mistake.Record, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.readAll()
	if err != nil {
		return nil, err
	}
	id := newID()
	for indexOf(existing, id) >= 0 {
		id = newID()
	}

	qt := c.QuestionType
	if qt == "" {
		qt = mistake.DefaultQuestionType
	}
	diff := c.Difficulty
	if diff == "" {
		diff = mistake.DefaultDifficulty
	}

	now := time.Now()
	rec := mistake.Record{
		ID:              id,
		QuestionContent: c.QuestionContent,
		WrongProcess:    c.WrongProcess,
		WrongAnswer:     c.WrongAnswer,
		CorrectAnswer:   c.CorrectAnswer,
		QuestionType:    qt,
		KnowledgeTags:   c.KnowledgeTags,
		Difficulty:      diff,
		Source:          c.Source,
		Notes:           c.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open data file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(encodeRow(rec)); err != nil {
		return nil, fmt.Errorf("append record: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("append record: %w", err)
	}

	s.log.Info("created mistake record", "id", rec.ID)
	return &rec, nil
}

// Get returns the record with the given id, or nil if it does not exist.
// Absence is a normal outcome, not an error.
func (s *Store) Get(id string) (*mistake.Record, error) {
	recs, err := s.readAll()
	if err != nil {
		return nil, err
	}
	for i := range recs {
		if recs[i].ID == id {
			return &recs[i], nil
		}
	}
	return nil, nil
}

// Update applies the supplied fields to the record with the given id and
// refreshes updated_at. It reports false for an unknown id and never
// creates a record.
func (s *Store) Update(id string, u mistake.Update) (bool, error) {
	if err := u.Validate(); err != nil {
		return false, err
	}
	recs, err := s.readAll()
	if err != nil {
		return false, err
	}
	idx := indexOf(recs, id)
	if idx < 0 {
		return false, nil
	}

	rec := &recs[idx]
	if u.QuestionContent != nil {
		rec.QuestionContent = *u.QuestionContent
	}
	if u.WrongProcess != nil {
		rec.WrongProcess = *u.WrongProcess
	}
	if u.WrongAnswer != nil {
		rec.WrongAnswer = *u.WrongAnswer
	}
	if u.CorrectAnswer != nil {
		rec.CorrectAnswer = *u.CorrectAnswer
	}
	if u.QuestionType != nil {
		rec.QuestionType = *u.QuestionType
	}
	if u.KnowledgeTags != nil {
		rec.KnowledgeTags = *u.KnowledgeTags
	}
	if u.Difficulty != nil {
		rec.Difficulty = *u.Difficulty
	}
	if u.Source != nil {
		rec.Source = *u.Source
	}
	if u.Notes != nil {
		rec.Notes = *u.Notes
	}
	rec.UpdatedAt = time.Now()

	if err := s.writeAll(recs); err != nil {
		return false, err
	}
	s.log.Info("updated mistake record", "id", id)
	return true, nil
}

// Delete removes the record with the given id. False for an unknown id.
func (s *Store) Delete(id string) (bool, error) {
	recs, err := s.readAll()
	if err != nil {
		return false, err
	}
	idx := indexOf(recs, id)
	if idx < 0 {
		return false, nil
	}
	recs = append(recs[:idx], recs[idx+1:]...)
	if err := s.writeAll(recs); err != nil {
		return false, err
	}
	s.log.Info("deleted mistake record", "id", id)
	return true, nil
}

// SetAnalysis embeds (or overwrites) the analysis on the record with the
// given id and refreshes updated_at. False for an unknown id.
func (s *Store) SetAnalysis(id string, a mistake.Analysis) (bool, error) {
	recs, err := s.readAll()
	if err != nil {
		return false, err
	}
	idx := indexOf(recs, id)
	if idx < 0 {
		return false, nil
	}
	a.MistakeID = id
	recs[idx].Analysis = &a
	recs[idx].UpdatedAt = time.Now()
	if err := s.writeAll(recs); err != nil {
		return false, err
	}
	s.log.Info("stored analysis", "id", id, "error_type", a.ErrorType)
	return true, nil
}

// Filter is a conjunction of optional predicates for List.
type Filter struct {
	// Keyword matches case-insensitively against question content, wrong
	// process, and notes.
	Keyword string
	// Tags matches records carrying at least one of the given tags.
	Tags []string
	// Difficulty and QuestionType match by equality when non-empty.
	Difficulty   mistake.Difficulty
	QuestionType mistake.QuestionType
}

func (f Filter) matches(rec *mistake.Record) bool {
	if f.Keyword != "" {
		kw := strings.ToLower(f.Keyword)
		if !strings.Contains(strings.ToLower(rec.QuestionContent), kw) &&
			!strings.Contains(strings.ToLower(rec.WrongProcess), kw) &&
			!strings.Contains(strings.ToLower(rec.Notes), kw) {
			return false
		}
	}
	if len(f.Tags) > 0 {
		found := false
		for _, want := range f.Tags {
			for _, have := range rec.KnowledgeTags {
				if have == want {
					found = true
					break
				}
			}
		}
		if !found {
			return false
		}
	}
	if f.Difficulty != "" && rec.Difficulty != f.Difficulty {
		return false
	}
	if f.QuestionType != "" && rec.QuestionType != f.QuestionType {
		return false
	}
	return true
}

// List returns all records matching the filter, in the order they appear in
// the file. Ordering within one read is stable; it is not guaranteed to
// survive an update/delete cycle.
func (s *Store) List(f Filter) ([]mistake.Record, error) {
	recs, err := s.readAll()
	if err != nil {
		return nil, err
	}
	out := make([]mistake.Record, 0, len(recs))
	for i := range recs {
		if f.matches(&recs[i]) {
			out = append(out, recs[i])
		}
	}
	return out, nil
}

func indexOf(recs []mistake.Record, id string) int {
	for i := range recs {
		if recs[i].ID == id {
			return i
		}
	}
	return -1
}

// readAll loads every decodable row. A malformed row degrades (or is
// skipped) with a diagnostic; it never fails the whole read.
func (s *Store) readAll() ([]mistake.Record, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open data file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read data file: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	col := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		col[name] = i
	}

	recs := make([]mistake.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if rec := s.decodeRow(col, row); rec != nil {
			recs = append(recs, *rec)
		}
	}
	return recs, nil
}

// writeAll rewrites the whole file. Last writer wins.
func (s *Store) writeAll(recs []mistake.Record) error {
	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("rewrite data file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := range recs {
		if err := w.Write(encodeRow(recs[i])); err != nil {
			return fmt.Errorf("write record %s: %w", recs[i].ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("rewrite data file: %w", err)
	}
	return nil
}

func encodeRow(rec mistake.Record) []string {
	analysis := ""
	if rec.Analysis != nil {
		if b, err := json.Marshal(rec.Analysis); err == nil {
			analysis = string(b)
		}
	}
	return []string{
		rec.ID,
		rec.QuestionContent,
		rec.WrongProcess,
		rec.WrongAnswer,
		rec.CorrectAnswer,
		string(rec.QuestionType),
		strings.Join(rec.KnowledgeTags, ","),
		string(rec.Difficulty),
		rec.Source,
		rec.Notes,
		rec.CreatedAt.Format(timeLayout),
		rec.UpdatedAt.Format(timeLayout),
		analysis,
	}
}

// decodeRow converts one CSV row to a record. Unknown enum values and
// unparseable cells fall back to defaults; a row without an id is dropped.
func (s *Store) decodeRow(col map[string]int, row []string) *mistake.Record {
	cell := func(name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	id := cell("id")
	if id == "" {
		s.log.Warn("skipping row without id", "columns", len(row))
		return nil
	}

	rec := &mistake.Record{
		ID:              id,
		QuestionContent: cell("question_content"),
		WrongProcess:    cell("wrong_process"),
		WrongAnswer:     cell("wrong_answer"),
		CorrectAnswer:   cell("correct_answer"),
		Source:          cell("source"),
		Notes:           cell("notes"),
	}

	rec.QuestionType = mistake.QuestionType(cell("question_type"))
	if !rec.QuestionType.Valid() {
		rec.QuestionType = mistake.DefaultQuestionType
	}
	rec.Difficulty = mistake.Difficulty(cell("difficulty"))
	if !rec.Difficulty.Valid() {
		rec.Difficulty = mistake.DefaultDifficulty
	}

	for _, tag := range strings.Split(cell("knowledge_tags"), ",") {
		if t := strings.TrimSpace(tag); t != "" {
			rec.KnowledgeTags = append(rec.KnowledgeTags, t)
		}
	}

	rec.CreatedAt = s.parseTime(id, "created_at", cell("created_at"))
	rec.UpdatedAt = s.parseTime(id, "updated_at", cell("updated_at"))

	if raw := cell("analysis_result"); raw != "" {
		var a mistake.Analysis
		if err := json.Unmarshal([]byte(raw), &a); err != nil {
			s.log.Warn("dropping unreadable analysis cell", "id", id, "error", err)
		} else {
			rec.Analysis = &a
		}
	}

	return rec
}

func (s *Store) parseTime(id, field, raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range []string{timeLayout, time.RFC3339, "2006-01-02T15:04:05.999999"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	s.log.Warn("unparseable timestamp", "id", id, "field", field, "value", raw)
	return time.Time{}
}
