package verifier

import (
	"go.uber.org/zap"

	"github.com/interview-prep/judge/internal/logger"
	"github.com/interview-prep/judge/pkg/constants"
	"github.com/interview-prep/judge/pkg/solution"
)

// Summary aggregates a finished run. FirstFailedIndex is -1 when every test
// case passed.
type Summary struct {
	PassedCount      int
	TotalCount       int
	FirstFailedIndex int
}

func (s Summary) AllPassed() bool {
	return s.FirstFailedIndex < 0
}

type Verifier interface {
	// EvaluateAllTestCases sets Passed on every result, in place, and
	// summarises the run. results and testCases are index aligned.
	EvaluateAllTestCases(
		results []solution.ExecutionResult,
		testCases []solution.TestCase,
		criteria solution.AcceptanceCriteria,
		messageID string,
	) Summary
}

type verifier struct {
	logger *zap.SugaredLogger
}

func NewVerifier() Verifier {
	return &verifier{
		logger: logger.NewNamedLogger("verifier"),
	}
}

func (v *verifier) EvaluateAllTestCases(
	results []solution.ExecutionResult,
	testCases []solution.TestCase,
	criteria solution.AcceptanceCriteria,
	messageID string,
) Summary {
	comparator := NewComparator(criteria)
	summary := Summary{TotalCount: len(results), FirstFailedIndex: -1}

	for i := range results {
		var candidates []string
		if i < len(testCases) {
			candidates = testCases[i].ExpectedOutputs
		}

		results[i].Passed = evaluateTestCase(comparator, &results[i], candidates)
		if results[i].Passed {
			summary.PassedCount++
			continue
		}
		if summary.FirstFailedIndex < 0 {
			summary.FirstFailedIndex = i
		}
	}

	v.logger.Infof("Evaluated %d test cases with %s, %d passed [MsgID: %s]",
		summary.TotalCount, criteria, summary.PassedCount, messageID)
	return summary
}

// evaluateTestCase only consults the comparator for cleanly completed runs.
// Timeouts, crashes, launch failures and truncated output never pass.
func evaluateTestCase(comparator Comparator, result *solution.ExecutionResult, candidates []string) bool {
	if result.Outcome != solution.OutcomeCompleted || result.Truncated {
		return false
	}
	return comparator.Matches(result.ActualOutput, candidates)
}

// FailureVerdict maps the first failing result to the submission verdict.
func FailureVerdict(result solution.ExecutionResult) solution.Verdict {
	switch {
	case result.Outcome == solution.OutcomeTimeLimitExceeded || result.Error == constants.TestCaseMessageTimeOut:
		return solution.TimeLimitExceeded
	case result.Outcome == solution.OutcomeRuntimeError:
		return solution.RuntimeError
	default:
		return solution.WrongAnswer
	}
}
