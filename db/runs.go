package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"herdwatch/types"
)

const (
	runsCollection   = "forecastRuns"
	alertsCollection = "alerts"
)

var ErrRunNotFound = errors.New("forecast run not found")

// RunStore persists forecast runs.
type RunStore interface {
	SaveRun(ctx context.Context, run types.ForecastRun) error
	GetRun(ctx context.Context, id string) (types.ForecastRun, error)
	ListRuns(ctx context.Context, limit int) ([]types.ForecastRun, error)
}

// FirestoreRuns stores each run as a document, with its alerts mirrored to an
// "alerts" subcollection keyed by alert id so responders can query them directly.
type FirestoreRuns struct {
	Client *firestore.Client
}

func NewFirestoreRuns(client *firestore.Client) *FirestoreRuns {
	return &FirestoreRuns{Client: client}
}

func (s *FirestoreRuns) SaveRun(ctx context.Context, run types.ForecastRun) error {
	if run.ID == "" {
		return fmt.Errorf("run has no id")
	}
	runRef := s.Client.Collection(runsCollection).Doc(run.ID)
	if _, err := runRef.Set(ctx, run); err != nil {
		return fmt.Errorf("failed to save run %s: %w", run.ID, err)
	}

	if len(run.Report.Alerts) == 0 {
		log.Printf("Run %s saved with no alerts.", run.ID)
		return nil
	}

	bw := s.Client.BulkWriter(ctx)
	alertsRef := runRef.Collection(alertsCollection)

	log.Printf("Preparing to save %d alerts using BulkWriter for run %s...", len(run.Report.Alerts), run.ID)

	jobs := make([]*firestore.BulkWriterJob, 0, len(run.Report.Alerts))
	for _, alert := range run.Report.Alerts {
		if alert.ID == "" {
			log.Printf("Warning: Skipping alert with empty ID for pair %s", alert.PairKey())
			continue
		}
		job, err := bw.Set(alertsRef.Doc(alert.ID), alert)
		if err != nil {
			log.Printf("Error enqueueing alert %s for save: %v", alert.ID, err)
			continue
		}
		jobs = append(jobs, job)
	}

	bw.End() // flushes and waits

	failed := 0
	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			failed++
			log.Printf("Alert write failed for run %s: %v", run.ID, err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("failed to save %d of %d alerts for run %s", failed, len(jobs), run.ID)
	}

	log.Printf("BulkWriter finished. Saved %d alerts for run %s.", len(jobs), run.ID)
	return nil
}

func (s *FirestoreRuns) GetRun(ctx context.Context, id string) (types.ForecastRun, error) {
	var run types.ForecastRun

	docSnap, err := s.Client.Collection(runsCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return run, fmt.Errorf("run %s: %w", id, ErrRunNotFound)
		}
		return run, fmt.Errorf("error getting run %s: %w", id, err)
	}

	if err := docSnap.DataTo(&run); err != nil {
		return run, fmt.Errorf("error converting document %s to ForecastRun: %w", id, err)
	}
	run.ID = docSnap.Ref.ID

	return run, nil
}

// ListRuns returns the most recent runs first.
func (s *FirestoreRuns) ListRuns(ctx context.Context, limit int) ([]types.ForecastRun, error) {
	q := s.Client.Collection(runsCollection).OrderBy("createdAt", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	runs := []types.ForecastRun{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error iterating runs collection: %w", err)
		}

		var run types.ForecastRun
		if err := doc.DataTo(&run); err != nil {
			log.Printf("Warning: Error converting document %s to ForecastRun: %v. Skipping.", doc.Ref.ID, err)
			continue
		}
		run.ID = doc.Ref.ID
		runs = append(runs, run)
	}
	return runs, nil
}

// MemoryRuns keeps runs in process memory; used when Firestore is not configured.
type MemoryRuns struct {
	mu   sync.RWMutex
	runs map[string]types.ForecastRun
}

func NewMemoryRuns() *MemoryRuns {
	return &MemoryRuns{runs: make(map[string]types.ForecastRun)}
}

func (m *MemoryRuns) SaveRun(_ context.Context, run types.ForecastRun) error {
	if run.ID == "" {
		return fmt.Errorf("run has no id")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.ID] = run
	return nil
}

func (m *MemoryRuns) GetRun(_ context.Context, id string) (types.ForecastRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.runs[id]
	if !ok {
		return types.ForecastRun{}, fmt.Errorf("run %s: %w", id, ErrRunNotFound)
	}
	return run, nil
}

func (m *MemoryRuns) ListRuns(_ context.Context, limit int) ([]types.ForecastRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	runs := make([]types.ForecastRun, 0, len(m.runs))
	for _, r := range m.runs {
		runs = append(runs, r)
	}
	// RFC3339 timestamps sort lexically
	sort.Slice(runs, func(i, j int) bool {
		if runs[i].CreatedAt != runs[j].CreatedAt {
			return runs[i].CreatedAt > runs[j].CreatedAt
		}
		return runs[i].ID < runs[j].ID
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}
