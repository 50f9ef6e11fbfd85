// Package datagraph parses the CSV data-graph file format of §6: one input
// event per line, fields start_time, end_time, event_id, event_sig,
// subject_id, subject_sig, object_id, object_sig. Malformed lines are
// skipped with a warning rather than aborting the run, per §7's
// ErrInvalidEvent policy (source C4).
package datagraph

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/google/uuid"
	"github.com/ipmes-go/ipmes/pkg/ingest"
	"github.com/ipmes-go/ipmes/pkg/ipmeserr"
	"github.com/ipmes-go/ipmes/pkg/match"
	"go.uber.org/zap"
)

const fieldCount = 8

// Reader streams ingest.Event records out of a CSV data-graph file.
type Reader struct {
	csv   *csv.Reader
	log   *zap.Logger
	runID uuid.UUID
	line  int
}

// New wraps r as a data-graph Reader. A nil logger disables warnings (the
// core never requires one to run, §10.1). The reader is tagged with a fresh
// run id that every warning it logs carries, so those warnings can be
// correlated back to this one invocation.
func New(r io.Reader, log *zap.Logger) *Reader {
	if log == nil {
		log = zap.NewNop()
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // validated by hand so a bad row can be skipped, not abort the whole parse
	cr.ReuseRecord = true
	return &Reader{csv: cr, log: log, runID: uuid.New()}
}

// RunID identifies this reader's invocation; it is the run_id field of every
// warning the reader logs (§11 of SPEC_FULL.md).
func (r *Reader) RunID() uuid.UUID { return r.runID }

// Next returns the next well-formed event, skipping and warning on any
// number of malformed lines in between. ok is false only at end of stream.
func (r *Reader) Next() (ingest.Event, bool) {
	for {
		record, err := r.csv.Read()
		if err == io.EOF {
			return ingest.Event{}, false
		}
		r.line++
		if err != nil {
			r.warn(err.Error())
			continue
		}
		ev, err := parseRecord(record)
		if err != nil {
			r.warn(err.Error())
			continue
		}
		return ev, true
	}
}

func (r *Reader) warn(reason string) {
	r.log.Warn(ipmeserr.ErrInvalidEvent.Error(),
		zap.String("run_id", r.runID.String()),
		zap.Int("line", r.line),
		zap.String("reason", reason))
}

func parseRecord(record []string) (ingest.Event, error) {
	if len(record) != fieldCount {
		return ingest.Event{}, &malformedError{"expected " + strconv.Itoa(fieldCount) + " fields, got " + strconv.Itoa(len(record))}
	}

	start, err := strconv.ParseFloat(record[0], 64)
	if err != nil {
		return ingest.Event{}, &malformedError{"bad start_time: " + err.Error()}
	}
	end, err := strconv.ParseFloat(record[1], 64)
	if err != nil {
		return ingest.Event{}, &malformedError{"bad end_time: " + err.Error()}
	}

	return ingest.Event{
		StartTime:  start,
		EndTime:    end,
		ID:         match.InputEventID(record[2]),
		Signature:  record[3],
		SubjectID:  match.InputEntityID(record[4]),
		SubjectSig: record[5],
		ObjectID:   match.InputEntityID(record[6]),
		ObjectSig:  record[7],
	}, nil
}

type malformedError struct{ reason string }

func (e *malformedError) Error() string { return e.reason }

func (e *malformedError) Unwrap() error { return ipmeserr.ErrInvalidEvent }
