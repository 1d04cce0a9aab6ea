package tracing

import (
	"context"

	"github.com/sarchlab/swapstore/datarecording"
)

// rowsPerQuery is the number of rows fetched per query when reading a
// recording.
var rowsPerQuery = 5000

// A SessionSummary counts the steps of one replay of a workload.
type SessionSummary struct {
	RunID     string
	Session   int
	Policy    string
	Steps     int
	Hits      int
	Faults    int
	Evictions int
}

// A ComparisonBatch holds the rows written for one comparison.
type ComparisonBatch struct {
	RunID string
	Batch int
	Rows  []ComparisonEntry
}

// A Recording is what a DBTracer left in a database, grouped for reporting.
type Recording struct {
	Sessions    []SessionSummary
	Comparisons []ComparisonBatch
	Transitions int
}

// MapTables tells the reader how to decode the tables of a DBTracer.
func MapTables(r datarecording.DataReader) {
	r.MapTable(StepTable, StepEntry{})
	r.MapTable(SwapTable, SwapEntry{})
	r.MapTable(TransitionTable, TransitionEntry{})
	r.MapTable(ComparisonTable, ComparisonEntry{})
}

// ReadRecording reads back the steps, transitions and comparisons of every
// run in the database, or of runID only if it is not empty. Sessions and
// batches are ordered by run and then by number.
func ReadRecording(
	ctx context.Context,
	r datarecording.DataReader,
	runID string,
) (Recording, error) {
	MapTables(r)

	filter := datarecording.QueryParams{}
	if runID != "" {
		filter.Where = "RunID = ?"
		filter.Args = []any{runID}
	}

	rec := Recording{}

	err := readSessions(ctx, r, filter, &rec)
	if err != nil {
		return rec, err
	}

	err = readComparisons(ctx, r, filter, &rec)
	if err != nil {
		return rec, err
	}

	countOnly := filter
	countOnly.Limit = 1

	_, rec.Transitions, err = r.Query(ctx, TransitionTable, countOnly)
	if err != nil {
		return rec, err
	}

	return rec, nil
}

func readSessions(
	ctx context.Context,
	r datarecording.DataReader,
	filter datarecording.QueryParams,
	rec *Recording,
) error {
	params := filter
	params.OrderBy = "RunID, Session, StepIndex"

	var current *SessionSummary

	return forEachPage(ctx, r, StepTable, params, func(row any) {
		step := row.(*StepEntry)

		if current == nil ||
			current.RunID != step.RunID || current.Session != step.Session {
			rec.Sessions = append(rec.Sessions, SessionSummary{
				RunID:   step.RunID,
				Session: step.Session,
				Policy:  step.Policy,
			})
			current = &rec.Sessions[len(rec.Sessions)-1]
		}

		current.Steps++

		switch step.Outcome {
		case "HIT":
			current.Hits++
		case "MISS":
			current.Faults++
		}

		if step.HasEvicted {
			current.Evictions++
		}
	})
}

func readComparisons(
	ctx context.Context,
	r datarecording.DataReader,
	filter datarecording.QueryParams,
	rec *Recording,
) error {
	params := filter
	params.OrderBy = "RunID, Batch, rowid"

	return forEachPage(ctx, r, ComparisonTable, params, func(row any) {
		entry := row.(*ComparisonEntry)

		n := len(rec.Comparisons)
		if n == 0 ||
			rec.Comparisons[n-1].RunID != entry.RunID ||
			rec.Comparisons[n-1].Batch != entry.Batch {
			rec.Comparisons = append(rec.Comparisons, ComparisonBatch{
				RunID: entry.RunID,
				Batch: entry.Batch,
			})
			n++
		}

		rec.Comparisons[n-1].Rows = append(rec.Comparisons[n-1].Rows, *entry)
	})
}

// forEachPage queries a table rowsPerQuery rows at a time.
func forEachPage(
	ctx context.Context,
	r datarecording.DataReader,
	table string,
	params datarecording.QueryParams,
	f func(row any),
) error {
	params.Limit = rowsPerQuery

	for {
		rows, total, err := r.Query(ctx, table, params)
		if err != nil {
			return err
		}

		for _, row := range rows {
			f(row)
		}

		params.Offset += len(rows)
		if len(rows) == 0 || params.Offset >= total {
			return nil
		}
	}
}
