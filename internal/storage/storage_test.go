package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/interview-prep/judge/internal/storage"
	customErr "github.com/interview-prep/judge/pkg/errors"
	"github.com/interview-prep/judge/pkg/solution"
)

func sampleProblem() solution.Problem {
	return solution.Problem{
		ID:    "two-sum",
		Title: "Two Sum",
		VisibleTestCases: []solution.TestCase{
			{Input: "2 3", ExpectedOutputs: []string{"5"}},
		},
		HiddenTestCases: []solution.TestCase{
			{Input: "[2,7,11,15] 9", ExpectedOutputs: []string{"[1,2]", "[2,1]"}},
		},
		AcceptanceCriteria: solution.SetMatch,
	}
}

func TestMemoryProblemRepository(t *testing.T) {
	ctx := context.Background()
	repo := storage.NewMemoryProblemRepository(sampleProblem())

	p, err := repo.GetProblem(ctx, "two-sum")
	require.NoError(t, err)
	assert.Equal(t, "Two Sum", p.Title)
	assert.Len(t, p.AllTestCases(), 2)

	_, err = repo.GetProblem(ctx, "nope")
	assert.ErrorIs(t, err, customErr.ErrProblemNotFound)

	require.NoError(t, repo.IncrementCounters(ctx, "two-sum", false))
	require.NoError(t, repo.IncrementCounters(ctx, "two-sum", true))
	p, err = repo.GetProblem(ctx, "two-sum")
	require.NoError(t, err)
	assert.Equal(t, int64(2), p.Submissions)
	assert.Equal(t, int64(1), p.AcceptedSubmissions)

	assert.ErrorIs(t, repo.IncrementCounters(ctx, "nope", true), customErr.ErrProblemNotFound)
}

func TestMemoryProblemRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := storage.NewMemoryProblemRepository(sampleProblem())

	p, err := repo.GetProblem(ctx, "two-sum")
	require.NoError(t, err)
	p.Title = "mutated"

	again, err := repo.GetProblem(ctx, "two-sum")
	require.NoError(t, err)
	assert.Equal(t, "Two Sum", again.Title)
}

func TestMemoryProblemRepository_SaveProblem(t *testing.T) {
	ctx := context.Background()
	repo := storage.NewMemoryProblemRepository()

	p := sampleProblem()
	p.ID = "fresh"
	require.NoError(t, repo.SaveProblem(ctx, &p))

	got, err := repo.GetProblem(ctx, "fresh")
	require.NoError(t, err)
	assert.Equal(t, solution.SetMatch, got.AcceptanceCriteria)
}

func TestMemorySubmissionStore_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemorySubmissionStore()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	records := []solution.SubmissionRecord{
		{ID: "a", UserID: "u1", ProblemID: "p1", Status: solution.WrongAnswer, CreatedAt: base},
		{ID: "b", UserID: "u1", ProblemID: "p1", Status: solution.Accepted, CreatedAt: base.Add(time.Minute)},
		{ID: "c", UserID: "u1", ProblemID: "p2", Status: solution.CompileError, CreatedAt: base.Add(2 * time.Minute)},
		{ID: "d", UserID: "u2", ProblemID: "p1", Status: solution.Accepted, CreatedAt: base.Add(3 * time.Minute)},
	}
	for i := range records {
		require.NoError(t, store.CreateSubmission(ctx, &records[i]))
	}

	all, err := store.ListSubmissions(ctx, "u1", "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{all[0].ID, all[1].ID, all[2].ID})

	p1, err := store.ListSubmissions(ctx, "u1", "p1", 1)
	require.NoError(t, err)
	require.Len(t, p1, 1)
	assert.Equal(t, "b", p1[0].ID)

	none, err := store.ListSubmissions(ctx, "nobody", "", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}
