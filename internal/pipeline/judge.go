package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/interview-prep/judge/internal/events"
	"github.com/interview-prep/judge/internal/logger"
	"github.com/interview-prep/judge/internal/metrics"
	"github.com/interview-prep/judge/internal/stages/compiler"
	"github.com/interview-prep/judge/internal/stages/executor"
	"github.com/interview-prep/judge/internal/stages/verifier"
	"github.com/interview-prep/judge/internal/storage"
	"github.com/interview-prep/judge/pkg/constants"
	customErr "github.com/interview-prep/judge/pkg/errors"
	"github.com/interview-prep/judge/pkg/messages"
	"github.com/interview-prep/judge/pkg/solution"
)

const (
	operationRun    = "run"
	operationSubmit = "submit"
)

// Judge runs one invocation end to end. Verdicts are returned in the
// response, a Go error means the invocation could not be judged at all.
type Judge interface {
	Run(ctx context.Context, messageID string, req messages.RunRequest) (*messages.RunResponse, error)
	Submit(ctx context.Context, messageID string, req messages.SubmitRequest) (*messages.SubmitResponse, error)
}

type Dependencies struct {
	Problems    storage.ProblemRepository
	Submissions storage.SubmissionStore
	Guard       compiler.Guard
	Compiler    compiler.Compiler
	Executor    executor.Executor
	Verifier    verifier.Verifier
	Publisher   events.Publisher
	Metrics     *metrics.Metrics
}

type judge struct {
	problems    storage.ProblemRepository
	submissions storage.SubmissionStore
	guard       compiler.Guard
	compiler    compiler.Compiler
	executor    executor.Executor
	verifier    verifier.Verifier
	publisher   events.Publisher
	metrics     *metrics.Metrics
	now         func() time.Time
	logger      *zap.SugaredLogger
}

func NewJudge(deps Dependencies) Judge {
	publisher := deps.Publisher
	if publisher == nil {
		publisher = events.NewNoopPublisher()
	}
	return &judge{
		problems:    deps.Problems,
		submissions: deps.Submissions,
		guard:       deps.Guard,
		compiler:    deps.Compiler,
		executor:    deps.Executor,
		verifier:    deps.Verifier,
		publisher:   publisher,
		metrics:     deps.Metrics,
		now:         time.Now,
		logger:      logger.NewNamedLogger("judge"),
	}
}

func (j *judge) Run(ctx context.Context, messageID string, req messages.RunRequest) (*messages.RunResponse, error) {
	j.logger.Infof("Run requested for problem %s [MsgID: %s]", req.ProblemID, messageID)

	problem, err := j.problems.GetProblem(ctx, req.ProblemID)
	if err != nil {
		return nil, err
	}

	if j.guard.IsDegenerate(req.SourceCode, problem.StarterCode) {
		j.logger.Infof("Rejected degenerate source [MsgID: %s]", messageID)
		j.metrics.IncVerdict(operationRun, solution.InvalidSubmission)
		return &messages.RunResponse{
			Success: false,
			Message: constants.JudgeMessageInvalidSubmission,
		}, nil
	}

	artifact, err := j.compile(ctx, req.SourceCode, messageID)
	if err != nil {
		var compErr *compiler.CompilationError
		if !errors.As(err, &compErr) {
			return nil, err
		}
		j.metrics.IncVerdict(operationRun, solution.CompileError)
		return &messages.RunResponse{
			Success: false,
			Message: constants.JudgeMessageCompilationError,
			Error:   compErr.Diagnostic,
		}, nil
	}
	defer j.removeArtifact(artifact, messageID)

	results := j.executor.ExecuteAll(ctx, artifact.BinaryPath, problem.VisibleTestCases, messageID)
	j.metrics.ObserveTestCases(results)
	if ctx.Err() != nil {
		return nil, fmt.Errorf("%w: %v", customErr.ErrJudgeAborted, ctx.Err())
	}

	summary := j.verifier.EvaluateAllTestCases(
		results, problem.VisibleTestCases, problem.AcceptanceCriteria, messageID)
	allPassed := summary.AllPassed()

	resp := &messages.RunResponse{
		Success:   true,
		AllPassed: &allPassed,
		Results:   results,
		Message:   constants.JudgeMessageSomeFailed,
	}
	if allPassed {
		resp.Message = constants.JudgeMessageAllPassed
		j.metrics.IncVerdict(operationRun, solution.Accepted)
	} else {
		j.metrics.IncVerdict(operationRun, verifier.FailureVerdict(results[summary.FirstFailedIndex]))
	}

	j.logger.Infof("Run finished: %d/%d passed [MsgID: %s]", summary.PassedCount, summary.TotalCount, messageID)
	return resp, nil
}

func (j *judge) Submit(
	ctx context.Context,
	messageID string,
	req messages.SubmitRequest,
) (*messages.SubmitResponse, error) {
	j.logger.Infof("Submit requested for problem %s by %s [MsgID: %s]", req.ProblemID, req.UserID, messageID)

	if req.UserID == "" {
		return nil, customErr.ErrMissingUser
	}

	problem, err := j.problems.GetProblem(ctx, req.ProblemID)
	if err != nil {
		return nil, err
	}

	if j.guard.IsDegenerate(req.SourceCode, problem.StarterCode) {
		j.logger.Infof("Rejected degenerate source [MsgID: %s]", messageID)
		j.metrics.IncVerdict(operationSubmit, solution.InvalidSubmission)
		return &messages.SubmitResponse{
			Success: false,
			Status:  solution.InvalidSubmission,
			Message: constants.JudgeMessageInvalidSubmission,
		}, nil
	}

	testCases := problem.AllTestCases()
	record := &solution.SubmissionRecord{
		ID:         uuid.New().String(),
		UserID:     req.UserID,
		ProblemID:  problem.ID,
		Code:       req.SourceCode,
		Language:   constants.LanguageCPP,
		TotalCount: len(testCases),
	}

	artifact, err := j.compile(ctx, req.SourceCode, messageID)
	if err != nil {
		var compErr *compiler.CompilationError
		if !errors.As(err, &compErr) {
			return nil, err
		}

		record.Status = solution.CompileError
		if err := j.persist(ctx, record, false, messageID); err != nil {
			return nil, err
		}
		return &messages.SubmitResponse{
			Success:         false,
			Status:          solution.CompileError,
			SubmissionID:    record.ID,
			PassedTestCases: intPtr(0),
			TotalTestCases:  intPtr(record.TotalCount),
			Message:         constants.JudgeMessageCompilationError,
			Error:           compErr.Diagnostic,
		}, nil
	}
	defer j.removeArtifact(artifact, messageID)

	results := j.executor.ExecuteAll(ctx, artifact.BinaryPath, testCases, messageID)
	j.metrics.ObserveTestCases(results)
	// A half-run submission is never charged to the user.
	if ctx.Err() != nil {
		return nil, fmt.Errorf("%w: %v", customErr.ErrJudgeAborted, ctx.Err())
	}

	summary := j.verifier.EvaluateAllTestCases(results, testCases, problem.AcceptanceCriteria, messageID)

	record.PassedCount = summary.PassedCount
	record.Status = solution.Accepted
	if !summary.AllPassed() {
		record.Status = verifier.FailureVerdict(results[summary.FirstFailedIndex])
	}

	if err := j.persist(ctx, record, true, messageID); err != nil {
		return nil, err
	}

	resp := &messages.SubmitResponse{
		Success:         summary.AllPassed(),
		Status:          record.Status,
		SubmissionID:    record.ID,
		PassedTestCases: intPtr(record.PassedCount),
		TotalTestCases:  intPtr(record.TotalCount),
	}
	if summary.AllPassed() {
		resp.Message = constants.JudgeMessageAccepted
		return resp, nil
	}

	failedIdx := summary.FirstFailedIndex
	resp.FailedTestIndex = intPtr(failedIdx)
	if failedIdx < len(problem.VisibleTestCases) {
		failed := results[failedIdx]
		resp.Message = fmt.Sprintf(constants.JudgeMessageVisibleFailed, failedIdx+1)
		resp.Error = failed.Error
		resp.TestCase = &messages.FailedTestCase{
			Input:          failed.Input,
			ExpectedOutput: failed.ExpectedOutput,
			Output:         failed.ActualOutput,
		}
	} else {
		resp.Message = constants.JudgeMessageHiddenFailed
	}
	return resp, nil
}

func (j *judge) compile(ctx context.Context, source, messageID string) (*compiler.Artifact, error) {
	start := time.Now()
	artifact, err := j.compiler.Compile(ctx, source, messageID)
	j.metrics.ObserveCompile(time.Since(start))

	if errors.Is(err, customErr.ErrToolchainUnavailable) {
		j.logger.Errorf("Compiler toolchain unavailable: %s [MsgID: %s]", err, messageID)
		j.metrics.IncToolchainFailure()
	}
	return artifact, err
}

// persist stores the record and, for judged submissions, bumps the problem
// counters. Counter and event failures are logged and never change the verdict.
func (j *judge) persist(ctx context.Context, record *solution.SubmissionRecord, judged bool, messageID string) error {
	ctx = context.WithoutCancel(ctx)
	record.CreatedAt = j.now().UTC()

	if err := j.submissions.CreateSubmission(ctx, record); err != nil {
		j.logger.Errorf("Failed to store submission %s: %s [MsgID: %s]", record.ID, err, messageID)
		return err
	}
	j.metrics.IncVerdict(operationSubmit, record.Status)

	if judged {
		if err := j.problems.IncrementCounters(ctx, record.ProblemID, record.Status == solution.Accepted); err != nil {
			j.logger.Errorf("Failed to update counters of %s: %s [MsgID: %s]", record.ProblemID, err, messageID)
		}
	}

	publishCtx, cancel := context.WithTimeout(ctx, constants.KafkaPublishTimeout)
	defer cancel()
	if err := j.publisher.PublishSubmissionJudged(publishCtx, record, messageID); err != nil {
		j.metrics.IncEventPublished("failed")
	} else {
		j.metrics.IncEventPublished("ok")
	}

	j.logger.Infof("Stored submission %s with status %s (%d/%d) [MsgID: %s]",
		record.ID, record.Status, record.PassedCount, record.TotalCount, messageID)
	return nil
}

func (j *judge) removeArtifact(artifact *compiler.Artifact, messageID string) {
	if err := artifact.Remove(); err != nil {
		j.logger.Warnf("Failed to remove artifact: %s [MsgID: %s]", err, messageID)
	}
}

func intPtr(v int) *int {
	return &v
}
