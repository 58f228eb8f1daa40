package placement

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// BlobStore is where finished run exports are archived (see internal/storage).
type BlobStore interface {
	Put(key string, r io.Reader) (string, error)
}

// EventLog records run-level audit events (see internal/audit).
type EventLog interface {
	Append(ctx context.Context, typ, key string, data any) error
}

// RunSummary describes one completed placement run.
type RunSummary struct {
	RunID       string         `json:"run_id"`
	Students    int            `json:"students"`
	Assigned    int            `json:"assigned"`
	Fill        map[string]int `json:"fill"` // track name -> seats taken
	SnapshotKey string         `json:"snapshot_key,omitempty"`
	CreatedAt   int64          `json:"created_at"`
}

// Service loads cohort snapshots from the store, runs the engine over them
// and fans results out to the archive and the audit log. Ranking itself is
// always recomputed from current data; nothing here persists ranks back.
type Service struct {
	store Store
	snaps BlobStore
	log   EventLog
}

type ServiceOption func(*Service)

func WithSnapshots(b BlobStore) ServiceOption { return func(s *Service) { s.snaps = b } }
func WithEventLog(l EventLog) ServiceOption   { return func(s *Service) { s.log = l } }

func NewService(store Store, opts ...ServiceOption) *Service {
	s := &Service{store: store}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Compute ranks and allocates the current cohort. Read-only; safe to call on
// every results request since the engine is pure and cheap.
func (s *Service) Compute(ctx context.Context) ([]Result, []Subject, error) {
	subjects, err := s.store.ListSubjects(ctx)
	if err != nil {
		return nil, nil, err
	}
	students, err := s.store.ListStudents(ctx, ListOpts{})
	if err != nil {
		return nil, nil, err
	}
	tracks, err := s.store.ListTracks(ctx)
	if err != nil {
		return nil, nil, err
	}
	return New(subjects).Place(students, tracks), subjects, nil
}

// Run computes a placement, archives its CSV export and appends an audit
// event. Archive and audit failures fail the run; the caller can still fall
// back to Compute for a transient read.
func (s *Service) Run(ctx context.Context) (RunSummary, []Result, error) {
	results, subjects, err := s.Compute(ctx)
	if err != nil {
		return RunSummary{}, nil, err
	}
	sum := RunSummary{
		RunID:     uuid.NewString(),
		Students:  len(results),
		Fill:      map[string]int{},
		CreatedAt: time.Now().Unix(),
	}
	for _, r := range results {
		if r.QualifiedStream != "" {
			sum.Assigned++
			sum.Fill[r.QualifiedStream]++
		}
	}
	if s.snaps != nil {
		var buf bytes.Buffer
		if err := WriteCSV(&buf, subjects, results); err != nil {
			return RunSummary{}, nil, err
		}
		key, err := s.snaps.Put("runs/"+sum.RunID+".csv", &buf)
		if err != nil {
			return RunSummary{}, nil, fmt.Errorf("archive run: %w", err)
		}
		sum.SnapshotKey = key
	}
	if s.log != nil {
		if err := s.log.Append(ctx, "PlacementRan", sum.RunID, sum); err != nil {
			return RunSummary{}, nil, fmt.Errorf("audit run: %w", err)
		}
	}
	return sum, results, nil
}

// WriteCSV renders results as a spreadsheet: one column per configured
// subject, then total, percent of the attainable maximum, and the allocated
// stream. Unassigned students get an empty stream cell.
func WriteCSV(w io.Writer, subjects []Subject, results []Result) error {
	cw := csv.NewWriter(w)
	hdr := []string{"rank", "id", "title", "first_name", "last_name"}
	var maxTotal float64
	for _, sub := range subjects {
		hdr = append(hdr, sub.Key)
		maxTotal += sub.MaxScore
	}
	hdr = append(hdr, "total", "percent", "qualified_stream")
	if err := cw.Write(hdr); err != nil {
		return err
	}
	for _, r := range results {
		rec := []string{strconv.Itoa(r.Rank), r.ID, r.Title, r.FirstName, r.LastName}
		for _, sub := range subjects {
			rec = append(rec, formatScore(r.Scores[sub.Key]))
		}
		pct := 0.0
		if maxTotal > 0 {
			pct = r.TotalScore / maxTotal * 100
		}
		rec = append(rec, formatScore(r.TotalScore), strconv.FormatFloat(pct, 'f', 2, 64), r.QualifiedStream)
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
