package verifier_test

import (
	"testing"

	"github.com/interview-prep/judge/internal/stages/verifier"
	"github.com/interview-prep/judge/pkg/constants"
	"github.com/interview-prep/judge/pkg/solution"
)

func completed(output string) solution.ExecutionResult {
	return solution.ExecutionResult{ActualOutput: output, Outcome: solution.OutcomeCompleted}
}

func TestEvaluateAllTestCases_AllPass(t *testing.T) {
	v := verifier.NewVerifier()
	testCases := []solution.TestCase{
		{Input: "2 3", ExpectedOutputs: []string{"5"}},
		{Input: "1 1", ExpectedOutputs: []string{"2"}},
	}
	results := []solution.ExecutionResult{completed("5"), completed("2")}

	summary := v.EvaluateAllTestCases(results, testCases, solution.ExactMatch, "msg-1")

	if !summary.AllPassed() {
		t.Fatalf("expected all passed, got first failure at %d", summary.FirstFailedIndex)
	}
	if summary.PassedCount != 2 || summary.TotalCount != 2 {
		t.Fatalf("expected 2/2, got %d/%d", summary.PassedCount, summary.TotalCount)
	}
	for i, r := range results {
		if !r.Passed {
			t.Fatalf("expected result %d to be marked passed", i)
		}
	}
}

func TestEvaluateAllTestCases_AggregatePassedCount(t *testing.T) {
	v := verifier.NewVerifier()
	testCases := []solution.TestCase{
		{ExpectedOutputs: []string{"1"}},
		{ExpectedOutputs: []string{"2"}},
		{ExpectedOutputs: []string{"3"}},
		{ExpectedOutputs: []string{"4"}},
	}
	results := []solution.ExecutionResult{completed("1"), completed("x"), completed("3"), completed("4")}

	summary := v.EvaluateAllTestCases(results, testCases, solution.ExactMatch, "msg-2")

	if summary.FirstFailedIndex != 1 {
		t.Fatalf("expected first failure at 1, got %d", summary.FirstFailedIndex)
	}
	if summary.PassedCount != 3 {
		t.Fatalf("expected passes after the failure to be counted, got %d", summary.PassedCount)
	}
	if results[1].Passed {
		t.Fatalf("expected result 1 to fail")
	}
}

func TestEvaluateAllTestCases_NonCompletedNeverPass(t *testing.T) {
	v := verifier.NewVerifier()
	testCases := []solution.TestCase{
		{ExpectedOutputs: []string{""}},
		{ExpectedOutputs: []string{""}},
		{ExpectedOutputs: []string{""}},
		{ExpectedOutputs: []string{"5"}},
		{ExpectedOutputs: []string{""}},
	}
	results := []solution.ExecutionResult{
		{Outcome: solution.OutcomeTimeLimitExceeded, Error: constants.TestCaseMessageTimeOut},
		{Outcome: solution.OutcomeLaunchFailed, Error: "Execution failed: boom"},
		{Outcome: solution.OutcomeCancelled, Error: constants.TestCaseMessageCancelled},
		{Outcome: solution.OutcomeCompleted, ActualOutput: "5", Truncated: true},
		{Outcome: solution.OutcomeRuntimeError, Error: constants.TestCaseMessageRuntimeError},
	}

	summary := v.EvaluateAllTestCases(results, testCases, solution.ExactMatch, "msg-3")

	if summary.PassedCount != 0 {
		t.Fatalf("expected no passes, got %d", summary.PassedCount)
	}
	if summary.FirstFailedIndex != 0 {
		t.Fatalf("expected first failure at 0, got %d", summary.FirstFailedIndex)
	}
}

func TestEvaluateAllTestCases_SetMatchScenario(t *testing.T) {
	v := verifier.NewVerifier()
	testCases := []solution.TestCase{{ExpectedOutputs: []string{"[1,2,3]"}}}
	results := []solution.ExecutionResult{completed("[3,1,2]")}

	summary := v.EvaluateAllTestCases(results, testCases, solution.SetMatch, "msg-4")

	if !summary.AllPassed() || !results[0].Passed {
		t.Fatalf("expected permuted array to pass under SET_MATCH")
	}
}

func TestEvaluateAllTestCases_Empty(t *testing.T) {
	v := verifier.NewVerifier()
	summary := v.EvaluateAllTestCases(nil, nil, solution.ExactMatch, "msg-5")
	if !summary.AllPassed() || summary.TotalCount != 0 {
		t.Fatalf("expected empty run to be vacuously passed, got %+v", summary)
	}
}

func TestFailureVerdict(t *testing.T) {
	cases := []struct {
		name   string
		result solution.ExecutionResult
		want   solution.Verdict
	}{
		{
			name:   "timeout",
			result: solution.ExecutionResult{Outcome: solution.OutcomeTimeLimitExceeded, Error: constants.TestCaseMessageTimeOut},
			want:   solution.TimeLimitExceeded,
		},
		{
			name:   "runtime error",
			result: solution.ExecutionResult{Outcome: solution.OutcomeRuntimeError, Error: constants.TestCaseMessageRuntimeError},
			want:   solution.RuntimeError,
		},
		{
			name:   "launch failure",
			result: solution.ExecutionResult{Outcome: solution.OutcomeLaunchFailed},
			want:   solution.WrongAnswer,
		},
		{
			name:   "wrong output",
			result: solution.ExecutionResult{Outcome: solution.OutcomeCompleted, ActualOutput: "6"},
			want:   solution.WrongAnswer,
		},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			if got := verifier.FailureVerdict(tt.result); got != tt.want {
				t.Fatalf("FailureVerdict() = %s, want %s", got, tt.want)
			}
		})
	}
}
