package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/interview-prep/judge/internal/logger"
	"github.com/interview-prep/judge/internal/rabbitmq/responder"
	"github.com/interview-prep/judge/pkg/constants"
	customErr "github.com/interview-prep/judge/pkg/errors"
	"github.com/interview-prep/judge/pkg/messages"
)

// Worker is one judging slot. The scheduler hands it at most one invocation
// at a time, coming either from the queue or from the HTTP API.
type Worker interface {
	ProcessTask(ctx context.Context, messageID, responseQueue string, task *messages.QueueMessage)
	Run(ctx context.Context, messageID string, req messages.RunRequest) (*messages.RunResponse, error)
	Submit(ctx context.Context, messageID string, req messages.SubmitRequest) (*messages.SubmitResponse, error)
	GetState() WorkerState
	UpdateStatus(status constants.WorkerStatus)
	GetProcessingMessageID() string
	GetId() int
}

type WorkerState struct {
	Status              constants.WorkerStatus `json:"status"`
	ProcessingMessageID string                 `json:"processing_message_id"`
}

type worker struct {
	id        int
	mu        sync.RWMutex
	state     WorkerState
	judge     Judge
	responder responder.Responder
	logger    *zap.SugaredLogger
}

func NewWorker(id int, judge Judge, responder responder.Responder) Worker {
	return &worker{
		id:        id,
		state:     WorkerState{Status: constants.WorkerStatusIdle},
		judge:     judge,
		responder: responder,
		logger:    logger.NewNamedLogger(fmt.Sprintf("worker-%d", id)),
	}
}

func (ws *worker) GetId() int {
	return ws.id
}

func (ws *worker) GetState() WorkerState {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return ws.state
}

func (ws *worker) UpdateStatus(status constants.WorkerStatus) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.state.Status = status
}

func (ws *worker) GetProcessingMessageID() string {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return ws.state.ProcessingMessageID
}

func (ws *worker) setProcessing(messageID string) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.state.ProcessingMessageID = messageID
}

func (ws *worker) Run(ctx context.Context, messageID string, req messages.RunRequest) (*messages.RunResponse, error) {
	ws.setProcessing(messageID)
	defer ws.setProcessing("")
	return ws.judge.Run(ctx, messageID, req)
}

func (ws *worker) Submit(
	ctx context.Context,
	messageID string,
	req messages.SubmitRequest,
) (*messages.SubmitResponse, error) {
	ws.setProcessing(messageID)
	defer ws.setProcessing("")
	return ws.judge.Submit(ctx, messageID, req)
}

// ProcessTask judges a queued run or submit request and publishes the
// outcome to responseQueue. It never returns an error: every failure is
// reported to the requester.
func (ws *worker) ProcessTask(ctx context.Context, messageID, responseQueue string, task *messages.QueueMessage) {
	defer func() {
		if r := recover(); r != nil {
			ws.logger.Errorf("Recovered from panic: %v [MsgID: %s]", r, messageID)
			ws.responder.PublishErrorToResponseQueue(
				task.Type,
				messageID,
				responseQueue,
				fmt.Errorf("worker panicked: %v", r),
			)
		}
	}()

	ws.logger.Infof("Processing %s task [MsgID: %s]", task.Type, messageID)

	var (
		payload any
		err     error
	)
	switch task.Type {
	case constants.QueueMessageTypeRun:
		var req messages.RunRequest
		if err = json.Unmarshal(task.Payload, &req); err == nil {
			payload, err = ws.Run(ctx, messageID, req)
		}
	case constants.QueueMessageTypeSubmit:
		var req messages.SubmitRequest
		if err = json.Unmarshal(task.Payload, &req); err == nil {
			payload, err = ws.Submit(ctx, messageID, req)
		}
	default:
		err = customErr.ErrUnknownMessageType
	}

	if err != nil {
		ws.logger.Errorf("Failed to process task: %s [MsgID: %s]", err, messageID)
		ws.responder.PublishErrorToResponseQueue(task.Type, messageID, responseQueue, err)
		return
	}

	if err := ws.responder.PublishPayloadTaskRespond(task.Type, messageID, responseQueue, payload); err != nil {
		ws.logger.Errorf("Failed to publish result: %s [MsgID: %s]", err, messageID)
		return
	}
	ws.logger.Infof("Finished processing task [MsgID: %s]", messageID)
}
