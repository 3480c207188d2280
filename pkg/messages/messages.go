package messages

import (
	"encoding/json"

	"github.com/interview-prep/judge/pkg/constants"
	"github.com/interview-prep/judge/pkg/solution"
)

type QueueMessage struct {
	Type      string          `json:"type"`
	MessageID string          `json:"message_id"`
	Payload   json.RawMessage `json:"payload"`
}

type ResponseQueueMessage struct {
	Type      string          `json:"type"`
	MessageID string          `json:"message_id"`
	Ok        bool            `json:"ok"`
	Payload   json.RawMessage `json:"payload"`
}

type RunRequest struct {
	ProblemID  string `json:"problemId"`
	SourceCode string `json:"sourceCode"`
}

type SubmitRequest struct {
	ProblemID  string `json:"problemId"`
	SourceCode string `json:"sourceCode"`
	UserID     string `json:"userId"`
}

// RunResponse is the dry-run result over visible test cases only, so every
// result is returned in full.
type RunResponse struct {
	Success   bool                       `json:"success"`
	AllPassed *bool                      `json:"allPassed,omitempty"`
	Results   []solution.ExecutionResult `json:"results,omitempty"`
	Message   string                     `json:"message,omitempty"`
	Error     string                     `json:"error,omitempty"`
}

// FailedTestCase is only ever filled for a visible test case.
type FailedTestCase struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expectedOutput"`
	Output         string `json:"output"`
}

type SubmitResponse struct {
	Success         bool             `json:"success"`
	Status          solution.Verdict `json:"status"`
	SubmissionID    string           `json:"submissionId,omitempty"`
	PassedTestCases *int             `json:"passedTestCases,omitempty"`
	TotalTestCases  *int             `json:"totalTestCases,omitempty"`
	FailedTestIndex *int             `json:"failedTestIndex,omitempty"`
	TestCase        *FailedTestCase  `json:"testCase,omitempty"`
	Message         string           `json:"message,omitempty"`
	Error           string           `json:"error,omitempty"`
}

type WorkerStatus struct {
	WorkerID            int                    `json:"worker_id"`
	Status              constants.WorkerStatus `json:"status"`
	ProcessingMessageID string                 `json:"processing_message_id"`
}

type ResponseWorkerStatusPayload struct {
	BusyWorkers  int            `json:"busy_workers"`
	TotalWorkers int            `json:"total_workers"`
	WorkerStatus []WorkerStatus `json:"worker_status"`
}

type LanguageSpec struct {
	LanguageName string   `json:"name"`
	Versions     []string `json:"versions"`
	Extension    string   `json:"extension"`
}

type ResponseHandshakePayload struct {
	Languages []LanguageSpec `json:"languages"`
}
