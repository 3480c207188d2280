package responder

import (
	"encoding/json"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/interview-prep/judge/internal/logger"
	"github.com/interview-prep/judge/internal/rabbitmq/channel"
	customErr "github.com/interview-prep/judge/pkg/errors"
	"github.com/interview-prep/judge/pkg/messages"
)

type Responder interface {
	// Publish sends msg to queue on the default exchange. Calls from many
	// goroutines are serialised onto the single AMQP channel.
	Publish(queue string, msg amqp.Publishing) error
	PublishErrorToResponseQueue(messageType, messageID, responseQueue string, err error)
	PublishSuccessHandshakeRespond(
		messageType, messageID, responseQueue string,
		payload messages.ResponseHandshakePayload,
	) error
	PublishSuccessStatusRespond(
		messageType, messageID, responseQueue string,
		payload messages.ResponseWorkerStatusPayload,
	) error
	PublishPayloadTaskRespond(messageType, messageID, responseQueue string, payload any) error
	Close() error
}

type publishRequest struct {
	queue  string
	msg    amqp.Publishing
	result chan error
}

type responder struct {
	logger      *zap.SugaredLogger
	channel     channel.Channel
	publishChan chan publishRequest
	mu          sync.RWMutex
	closed      bool
	wg          sync.WaitGroup
}

func NewResponder(ch channel.Channel, publishChanSize int) Responder {
	if publishChanSize < 0 {
		publishChanSize = 0
	}
	r := &responder{
		logger:      logger.NewNamedLogger("responder"),
		channel:     ch,
		publishChan: make(chan publishRequest, publishChanSize),
	}

	r.wg.Add(1)
	go r.publishLoop()
	return r
}

func (r *responder) publishLoop() {
	defer r.wg.Done()
	for req := range r.publishChan {
		req.result <- r.channel.Publish("", req.queue, false, false, req.msg)
	}
}

func (r *responder) Publish(queue string, msg amqp.Publishing) error {
	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		return customErr.ErrResponderClosed
	}
	req := publishRequest{queue: queue, msg: msg, result: make(chan error, 1)}
	r.publishChan <- req
	r.mu.RUnlock()

	return <-req.result
}

// Close stops accepting publishes and waits for queued ones to finish.
func (r *responder) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.publishChan)
	r.mu.Unlock()

	r.wg.Wait()
	return nil
}

func (r *responder) PublishErrorToResponseQueue(messageType, messageID, responseQueue string, err error) {
	errorPayload := map[string]string{"error": err.Error()}
	payload, jsonErr := json.Marshal(errorPayload)
	if jsonErr != nil {
		r.logger.Errorf("Failed to marshal error payload: %s", jsonErr)
		return
	}

	if err := r.publishRespondMessage(messageType, messageID, responseQueue, false, payload); err != nil {
		r.logger.Errorf("Failed to publish error message: %s [MsgID: %s]", err, messageID)
		return
	}

	r.logger.Infof("Published error message to response queue [MsgID: %s]", messageID)
}

func (r *responder) PublishPayloadTaskRespond(messageType, messageID, responseQueue string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return r.publishRespondMessage(messageType, messageID, responseQueue, true, data)
}

func (r *responder) PublishSuccessHandshakeRespond(
	messageType, messageID, responseQueue string,
	payload messages.ResponseHandshakePayload,
) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return r.publishRespondMessage(messageType, messageID, responseQueue, true, data)
}

func (r *responder) PublishSuccessStatusRespond(
	messageType, messageID, responseQueue string,
	payload messages.ResponseWorkerStatusPayload,
) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return r.publishRespondMessage(messageType, messageID, responseQueue, true, data)
}

func (r *responder) publishRespondMessage(
	messageType, messageID, responseQueue string,
	ok bool,
	payload []byte,
) error {
	queueMessage := messages.ResponseQueueMessage{
		Type:      messageType,
		MessageID: messageID,
		Ok:        ok,
		Payload:   payload,
	}

	responseJSON, err := json.Marshal(queueMessage)
	if err != nil {
		return err
	}

	r.logger.Infof("Publishing response to %s [MsgID: %s]", responseQueue, messageID)
	return r.Publish(responseQueue, amqp.Publishing{
		ContentType:   "application/json",
		CorrelationId: messageID,
		Body:          responseJSON,
	})
}
