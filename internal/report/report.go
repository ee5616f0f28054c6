// Package report accumulates the outcomes of a backup run and renders the
// human-readable summary that is emailed at the end of the run.
package report

import (
	"bytes"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/Sayam753/SendToS3/internal/apperr"
	"github.com/Sayam753/SendToS3/internal/retention"
)

// Level is the severity of a note.
type Level string

const (
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARNING"
	LevelError Level = "ERROR"
)

// Note is a free-form entry attached to a technology (or to the run when
// Technology is empty).
type Note struct {
	Technology string
	Level      Level
	Kind       string // категория ошибки, пусто для сообщений
	Message    string
}

// Counts are the run totals.
type Counts struct {
	Success int
	Failure int
	Deleted int
	Bytes   int64
}

// TechnologySummary aggregates the outcomes of one technology.
type TechnologySummary struct {
	Name        string
	Path        string
	Action      retention.Action
	Uploaded    int
	Failed      int
	Deleted     int
	Undeletable int
	Skipped     bool // directory could not be read
}

// OK reports whether the technology uploaded at least one file with no
// failures of any kind.
func (s TechnologySummary) OK() bool {
	return !s.Skipped && s.Uploaded > 0 && s.Failed == 0 && s.Undeletable == 0
}

// Report is built incrementally by the single run goroutine; it is not safe
// for concurrent use.
type Report struct {
	ID         string
	Site       string
	Hostname   string
	Bucket     string
	StartedAt  time.Time
	FinishedAt time.Time

	outcomes  []retention.Outcome
	notes     []Note
	summaries []*TechnologySummary
	byName    map[string]*TechnologySummary
	aborted   string
	log       bytes.Buffer
}

// New starts a report for a run.
func New(site, hostname, bucket string, startedAt time.Time) *Report {
	return &Report{
		ID:        uuid.NewString(),
		Site:      site,
		Hostname:  hostname,
		Bucket:    bucket,
		StartedAt: startedAt,
		byName:    make(map[string]*TechnologySummary),
	}
}

// LogWriter receives a copy of the run log, rendered at the end of the report.
func (r *Report) LogWriter() io.Writer {
	return &r.log
}

// BeginTechnology registers a technology so it appears in the summary even
// when it produces no outcomes.
func (r *Report) BeginTechnology(name, path string, action retention.Action) {
	if _, ok := r.byName[name]; ok {
		return
	}
	s := &TechnologySummary{Name: name, Path: path, Action: action}
	r.summaries = append(r.summaries, s)
	r.byName[name] = s
}

// Record appends an outcome.
func (r *Report) Record(o retention.Outcome) {
	r.outcomes = append(r.outcomes, o)

	s, ok := r.byName[o.Technology]
	if !ok {
		r.BeginTechnology(o.Technology, "", "")
		s = r.byName[o.Technology]
	}
	switch {
	case o.Failed():
		s.Failed++
	default:
		s.Uploaded++
		if o.DeletedLocally {
			s.Deleted++
		} else if s.Action == retention.ActionDelete {
			s.Undeletable++
		}
	}
}

// Note attaches a message to a technology or, with an empty technology, to the run.
func (r *Report) Note(technology string, level Level, message string) {
	r.notes = append(r.notes, Note{Technology: technology, Level: level, Message: message})
}

// NoteError attaches err to a technology, labelled with its error kind.
func (r *Report) NoteError(technology string, level Level, err error) {
	r.notes = append(r.notes, Note{
		Technology: technology,
		Level:      level,
		Kind:       apperr.Kind(err),
		Message:    err.Error(),
	})
}

// Skip marks a technology whose directory could not be processed.
func (r *Report) Skip(technology string, err error) {
	if s, ok := r.byName[technology]; ok {
		s.Skipped = true
	}
	r.NoteError(technology, LevelError, err)
}

// Abort records a run-level failure that prevented any upload.
func (r *Report) Abort(err error) {
	r.aborted = err.Error()
	r.NoteError("", LevelError, err)
}

// ErrorKinds counts the error notes by kind.
func (r *Report) ErrorKinds() map[string]int {
	kinds := make(map[string]int)
	for _, n := range r.notes {
		if n.Kind != "" {
			kinds[n.Kind]++
		}
	}
	return kinds
}

// Aborted returns the run-level failure, if any.
func (r *Report) Aborted() string {
	return r.aborted
}

// Outcomes returns a copy of the recorded outcomes in order.
func (r *Report) Outcomes() []retention.Outcome {
	return append([]retention.Outcome(nil), r.outcomes...)
}

// Notes returns a copy of the notes in order.
func (r *Report) Notes() []Note {
	return append([]Note(nil), r.notes...)
}

// Summaries returns per-technology summaries in configuration order.
func (r *Report) Summaries() []TechnologySummary {
	out := make([]TechnologySummary, 0, len(r.summaries))
	for _, s := range r.summaries {
		out = append(out, *s)
	}
	return out
}

// Counts returns the run totals.
func (r *Report) Counts() Counts {
	var c Counts
	for _, o := range r.outcomes {
		if o.Failed() {
			c.Failure++
			continue
		}
		c.Success++
		c.Bytes += o.Size
		if o.DeletedLocally {
			c.Deleted++
		}
	}
	return c
}

// Issues returns the number of technologies that did not complete cleanly.
func (r *Report) Issues() int {
	n := 0
	for _, s := range r.summaries {
		if !s.OK() {
			n++
		}
	}
	return n
}

// Finish stamps the end of the run.
func (r *Report) Finish(now time.Time) {
	r.FinishedAt = now
}

// Elapsed returns the run duration (zero before Finish).
func (r *Report) Elapsed() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
