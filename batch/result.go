package batch

import (
	"errors"
	"time"

	"github.com/porticus-lab/invoice-pdf/extract"
)

// Status is the outcome of one document.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// Failure kinds recorded in Record.Kind.
const (
	KindRender = "render"
	KindRead   = "read"
	KindCancel = "canceled"
	KindPanic  = "internal"
)

// Record is the outcome of one input document.
type Record struct {
	Index    int            `json:"index"`
	Original string         `json:"original"`
	Status   Status         `json:"status"`
	Filename string         `json:"filename,omitempty"`
	Fields   extract.Result `json:"fields"`
	Unlock   string         `json:"unlock,omitempty"`
	Kind     string         `json:"kind,omitempty"`
	Reason   string         `json:"reason,omitempty"`
	Output   *Rendered      `json:"-"`
	Err      error          `json:"-"`
}

// OK reports whether the document was rendered.
func (r Record) OK() bool { return r.Status == StatusSuccess }

func failureKind(err error) string {
	var rd *ReadFailure
	if errors.As(err, &rd) {
		return KindRead
	}
	return KindRender
}

// Result accumulates the records of one batch run, in input order.
// It is owned by the caller and cleared at the start of each run.
type Result struct {
	ID       string    `json:"id"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`
	Records  []Record  `json:"records"`
}

// Reset clears the result for a new run.
func (r *Result) Reset(id string, started time.Time) {
	r.ID = id
	r.Started = started
	r.Finished = time.Time{}
	r.Records = nil
}

func (r *Result) add(rec Record) {
	r.Records = append(r.Records, rec)
}

// Len returns the number of records.
func (r *Result) Len() int { return len(r.Records) }

// Record returns the record at index i.
func (r *Result) Record(i int) (Record, bool) {
	if i < 0 || i >= len(r.Records) {
		return Record{}, false
	}
	return r.Records[i], true
}

// Succeeded returns the successful records in input order.
func (r *Result) Succeeded() []Record {
	var out []Record
	for _, rec := range r.Records {
		if rec.OK() {
			out = append(out, rec)
		}
	}
	return out
}

// Failed returns the failed records in input order.
func (r *Result) Failed() []Record {
	var out []Record
	for _, rec := range r.Records {
		if !rec.OK() {
			out = append(out, rec)
		}
	}
	return out
}
