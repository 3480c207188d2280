package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/interview-prep/judge/internal/logger"
	"github.com/interview-prep/judge/pkg/constants"
	customErr "github.com/interview-prep/judge/pkg/errors"
	"github.com/interview-prep/judge/pkg/solution"
)

// SubmissionJudged is emitted once per persisted submission.
type SubmissionJudged struct {
	SubmissionID    string `json:"submissionId"`
	UserID          string `json:"userId"`
	ProblemID       string `json:"problemId"`
	Verdict         string `json:"verdict"`
	TestCasesPassed int    `json:"testCasesPassed"`
	TestCasesTotal  int    `json:"testCasesTotal"`
	Timestamp       string `json:"timestamp"`
}

func NewSubmissionJudged(record *solution.SubmissionRecord) SubmissionJudged {
	return SubmissionJudged{
		SubmissionID:    record.ID,
		UserID:          record.UserID,
		ProblemID:       record.ProblemID,
		Verdict:         string(record.Status),
		TestCasesPassed: record.PassedCount,
		TestCasesTotal:  record.TotalCount,
		Timestamp:       record.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type Publisher interface {
	PublishSubmissionJudged(ctx context.Context, record *solution.SubmissionRecord, messageID string) error
	Close() error
}

// MessageWriter is the part of *kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type kafkaPublisher struct {
	writer MessageWriter
	topic  string
	logger *zap.SugaredLogger
}

func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	if topic == "" {
		topic = constants.DefaultKafkaTopic
	}
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           constants.KafkaBatchTimeout,
		AllowAutoTopicCreation: true,
	}
}

// NewKafkaPublisher writes events keyed by user id so one user's verdicts
// stay ordered within a partition.
func NewKafkaPublisher(writer MessageWriter, topic string) Publisher {
	return &kafkaPublisher{
		writer: writer,
		topic:  topic,
		logger: logger.NewNamedLogger("event-publisher"),
	}
}

func (p *kafkaPublisher) PublishSubmissionJudged(
	ctx context.Context,
	record *solution.SubmissionRecord,
	messageID string,
) error {
	event := NewSubmissionJudged(record)
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%w: %v", customErr.ErrFailedToPublishSubmission, err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.UserID),
		Value: data,
	})
	if err != nil {
		p.logger.Warnf("Failed to publish %s to %s: %s [MsgID: %s]", event.SubmissionID, p.topic, err, messageID)
		return fmt.Errorf("%w: %v", customErr.ErrFailedToPublishSubmission, err)
	}

	p.logger.Infof("Published %s verdict for submission %s [MsgID: %s]", event.Verdict, event.SubmissionID, messageID)
	return nil
}

func (p *kafkaPublisher) Close() error {
	return p.writer.Close()
}

type noopPublisher struct{}

// NewNoopPublisher is used when no brokers are configured.
func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) PublishSubmissionJudged(context.Context, *solution.SubmissionRecord, string) error {
	return nil
}

func (noopPublisher) Close() error {
	return nil
}
