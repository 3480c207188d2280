package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/interview-prep/judge/internal/events"
	customErr "github.com/interview-prep/judge/pkg/errors"
	"github.com/interview-prep/judge/pkg/solution"
)

type recordingWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func record() *solution.SubmissionRecord {
	return &solution.SubmissionRecord{
		ID:          "sub-1",
		UserID:      "user-7",
		ProblemID:   "two-sum",
		Status:      solution.WrongAnswer,
		PassedCount: 3,
		TotalCount:  5,
		CreatedAt:   time.Date(2025, 3, 1, 10, 0, 0, 0, time.FixedZone("CET", 3600)),
	}
}

func TestKafkaPublisher_WritesKeyedEvent(t *testing.T) {
	w := &recordingWriter{}
	p := events.NewKafkaPublisher(w, "submission.judged")

	require.NoError(t, p.PublishSubmissionJudged(context.Background(), record(), "msg"))
	require.Len(t, w.messages, 1)
	assert.Equal(t, "user-7", string(w.messages[0].Key))

	var got events.SubmissionJudged
	require.NoError(t, json.Unmarshal(w.messages[0].Value, &got))
	assert.Equal(t, events.SubmissionJudged{
		SubmissionID:    "sub-1",
		UserID:          "user-7",
		ProblemID:       "two-sum",
		Verdict:         "WrongAnswer",
		TestCasesPassed: 3,
		TestCasesTotal:  5,
		Timestamp:       "2025-03-01T09:00:00Z",
	}, got)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaPublisher_WrapsWriteFailure(t *testing.T) {
	w := &recordingWriter{err: errors.New("broker down")}
	p := events.NewKafkaPublisher(w, "submission.judged")

	err := p.PublishSubmissionJudged(context.Background(), record(), "msg")
	assert.ErrorIs(t, err, customErr.ErrFailedToPublishSubmission)
}

func TestNewKafkaWriter_DefaultTopic(t *testing.T) {
	w := events.NewKafkaWriter([]string{"localhost:9092"}, "")
	assert.Equal(t, "submission.judged", w.Topic)
}

func TestNoopPublisher(t *testing.T) {
	p := events.NewNoopPublisher()
	assert.NoError(t, p.PublishSubmissionJudged(context.Background(), record(), "msg"))
	assert.NoError(t, p.Close())
}
