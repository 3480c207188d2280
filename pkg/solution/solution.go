package solution

import (
	"strings"
	"time"

	"github.com/interview-prep/judge/pkg/errors"
)

// Verdict is the terminal classification of one judge invocation.
type Verdict string

const (
	// The source failed to compile.
	CompileError Verdict = "CompileError"
	// Every test case passed.
	Accepted Verdict = "Accepted"
	// At least one test case produced output matching none of its candidates.
	WrongAnswer Verdict = "WrongAnswer"
	// The first failing test case was killed by the per-test-case timeout.
	TimeLimitExceeded Verdict = "TimeLimitExceeded"
	// The first failing test case exited abnormally with diagnostic output.
	RuntimeError Verdict = "RuntimeError"
	// The source was empty or the untouched starter template. Nothing was compiled.
	InvalidSubmission Verdict = "InvalidSubmission"
)

// AcceptanceCriteria selects how actual output is compared to expected output.
type AcceptanceCriteria string

const (
	ExactMatch  AcceptanceCriteria = "EXACT_MATCH"
	SetMatch    AcceptanceCriteria = "SET_MATCH"
	SortedMatch AcceptanceCriteria = "SORTED_MATCH"
	Custom      AcceptanceCriteria = "CUSTOM"
)

// ParseAcceptanceCriteria accepts the criteria names case-insensitively.
// An empty value means EXACT_MATCH.
func ParseAcceptanceCriteria(s string) (AcceptanceCriteria, error) {
	switch AcceptanceCriteria(strings.ToUpper(strings.TrimSpace(s))) {
	case "", ExactMatch:
		return ExactMatch, nil
	case SetMatch:
		return SetMatch, nil
	case SortedMatch:
		return SortedMatch, nil
	case Custom:
		return Custom, nil
	default:
		return "", errors.ErrUnknownAcceptanceCriteria
	}
}

// Outcome describes how a single test case process terminated.
type Outcome string

const (
	OutcomeCompleted         Outcome = "completed"
	OutcomeTimeLimitExceeded Outcome = "time_limit_exceeded"
	OutcomeRuntimeError      Outcome = "runtime_error"
	OutcomeLaunchFailed      Outcome = "launch_failed"
	OutcomeCancelled         Outcome = "cancelled"
)

type TestCase struct {
	Input string `json:"input"`
	// Textually distinct but equally valid answers. Never empty.
	ExpectedOutputs []string `json:"expectedOutputs"`
	Explanation     string   `json:"explanation,omitempty"`
}

// SampleOutput returns the first candidate, which is what gets shown to users.
func (tc TestCase) SampleOutput() string {
	if len(tc.ExpectedOutputs) == 0 {
		return ""
	}
	return tc.ExpectedOutputs[0]
}

// ExecutionResult is the per test case record produced by the executor and
// finalised by the verifier.
type ExecutionResult struct {
	Input          string  `json:"input"`
	ExpectedOutput string  `json:"expectedOutput"`
	ActualOutput   string  `json:"output"`
	Passed         bool    `json:"passed"`
	Error          string  `json:"error,omitempty"`
	Stderr         string  `json:"-"`
	ExitCode       int     `json:"-"`
	TimeMs         int64   `json:"timeMs"`
	Outcome        Outcome `json:"-"`
	Truncated      bool    `json:"-"`
}

// Problem is the descriptor owned by the problem store.
type Problem struct {
	ID                  string             `json:"id" db:"id"`
	Title               string             `json:"title" db:"title"`
	StarterCode         string             `json:"starterCode" db:"starter_code"`
	VisibleTestCases    []TestCase         `json:"visibleTestCases" db:"-"`
	HiddenTestCases     []TestCase         `json:"hiddenTestCases" db:"-"`
	AcceptanceCriteria  AcceptanceCriteria `json:"acceptanceCriteria" db:"acceptance_criteria"`
	Submissions         int64              `json:"submissions" db:"submissions"`
	AcceptedSubmissions int64              `json:"acceptedSubmissions" db:"accepted_submissions"`
}

// AllTestCases returns visible cases followed by hidden ones.
func (p *Problem) AllTestCases() []TestCase {
	all := make([]TestCase, 0, len(p.VisibleTestCases)+len(p.HiddenTestCases))
	all = append(all, p.VisibleTestCases...)
	return append(all, p.HiddenTestCases...)
}

// SubmissionRecord is created once per Submit invocation and never mutated.
type SubmissionRecord struct {
	ID          string    `json:"id" db:"id"`
	UserID      string    `json:"user" db:"user_id"`
	ProblemID   string    `json:"problem" db:"problem_id"`
	Code        string    `json:"code" db:"code"`
	Language    string    `json:"language" db:"language"`
	Status      Verdict   `json:"status" db:"status"`
	PassedCount int       `json:"passedCount" db:"passed_count"`
	TotalCount  int       `json:"totalCount" db:"total_count"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}
