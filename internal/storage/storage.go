package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/interview-prep/judge/pkg/errors"
	"github.com/interview-prep/judge/pkg/solution"
)

// ProblemRepository owns problem descriptors and their two counters.
type ProblemRepository interface {
	GetProblem(ctx context.Context, problemID string) (*solution.Problem, error)
	SaveProblem(ctx context.Context, problem *solution.Problem) error
	// IncrementCounters bumps submissions and, when accepted is set,
	// acceptedSubmissions as well.
	IncrementCounters(ctx context.Context, problemID string, accepted bool) error
}

// SubmissionStore is append only. Records are never updated.
type SubmissionStore interface {
	CreateSubmission(ctx context.Context, record *solution.SubmissionRecord) error
	// ListSubmissions returns the newest records first. An empty problemID
	// lists every problem.
	ListSubmissions(ctx context.Context, userID, problemID string, limit int) ([]solution.SubmissionRecord, error)
}

type memoryProblemRepository struct {
	mu       sync.RWMutex
	problems map[string]solution.Problem
}

// NewMemoryProblemRepository keeps problems in process memory.
func NewMemoryProblemRepository(problems ...solution.Problem) ProblemRepository {
	repo := &memoryProblemRepository{problems: make(map[string]solution.Problem, len(problems))}
	for _, p := range problems {
		repo.problems[p.ID] = p
	}
	return repo
}

func (r *memoryProblemRepository) GetProblem(_ context.Context, problemID string) (*solution.Problem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.problems[problemID]
	if !ok {
		return nil, errors.ErrProblemNotFound
	}
	return &p, nil
}

func (r *memoryProblemRepository) SaveProblem(_ context.Context, problem *solution.Problem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.problems[problem.ID] = *problem
	return nil
}

func (r *memoryProblemRepository) IncrementCounters(_ context.Context, problemID string, accepted bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.problems[problemID]
	if !ok {
		return errors.ErrProblemNotFound
	}
	p.Submissions++
	if accepted {
		p.AcceptedSubmissions++
	}
	r.problems[problemID] = p
	return nil
}

type memorySubmissionStore struct {
	mu      sync.RWMutex
	records []solution.SubmissionRecord
}

func NewMemorySubmissionStore() SubmissionStore {
	return &memorySubmissionStore{}
}

func (s *memorySubmissionStore) CreateSubmission(_ context.Context, record *solution.SubmissionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, *record)
	return nil
}

func (s *memorySubmissionStore) ListSubmissions(
	_ context.Context,
	userID, problemID string,
	limit int,
) ([]solution.SubmissionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]solution.SubmissionRecord, 0)
	for _, rec := range s.records {
		if rec.UserID != userID {
			continue
		}
		if problemID != "" && rec.ProblemID != problemID {
			continue
		}
		out = append(out, rec)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
