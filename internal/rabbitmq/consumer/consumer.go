package consumer

import (
	"encoding/json"
	e "errors"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/interview-prep/judge/internal/logger"
	"github.com/interview-prep/judge/internal/metrics"
	"github.com/interview-prep/judge/internal/rabbitmq/channel"
	"github.com/interview-prep/judge/internal/rabbitmq/responder"
	"github.com/interview-prep/judge/internal/scheduler"
	"github.com/interview-prep/judge/pkg/constants"
	"github.com/interview-prep/judge/pkg/errors"
	"github.com/interview-prep/judge/pkg/languages"
	"github.com/interview-prep/judge/pkg/messages"
)

type Consumer interface {
	// Listen declares the worker queue and blocks until its deliveries end.
	Listen()
	ProcessMessage(msg amqp.Delivery)
}

type consumer struct {
	channel         channel.Channel
	workerQueueName string
	scheduler       scheduler.Scheduler
	responder       responder.Responder
	metrics         *metrics.Metrics
	logger          *zap.SugaredLogger
}

func NewConsumer(
	mainChannel channel.Channel,
	workerQueueName string,
	scheduler scheduler.Scheduler,
	responder responder.Responder,
	metrics *metrics.Metrics,
) Consumer {
	return &consumer{
		channel:         mainChannel,
		workerQueueName: workerQueueName,
		scheduler:       scheduler,
		responder:       responder,
		metrics:         metrics,
		logger:          logger.NewNamedLogger("consumer"),
	}
}

func (c *consumer) Listen() {
	c.logger.Infof("Declaring queue %s", c.workerQueueName)

	args := make(amqp.Table)
	args["x-max-priority"] = constants.RabbitMQMaxPriority
	_, err := c.channel.QueueDeclare(c.workerQueueName, true, false, false, false, args)
	if err != nil {
		c.logger.Panicf("Failed to declare queue %s: %s", c.workerQueueName, err)
	}

	c.logger.Infof("Listening for messages on queue %s", c.workerQueueName)

	msgs, err := c.channel.Consume(c.workerQueueName, "", true, false, false, false, nil)
	if err != nil {
		c.logger.Panicf("Failed to consume messages from queue %s: %s", c.workerQueueName, err)
	}

	for msg := range msgs {
		c.processMessage(msg)
	}
	c.logger.Info("Delivery channel closed, consumer stopped")
}

func (c *consumer) ProcessMessage(msg amqp.Delivery) {
	c.processMessage(msg)
}

func (c *consumer) processMessage(msg amqp.Delivery) {
	var queueMessage messages.QueueMessage
	if err := json.Unmarshal(msg.Body, &queueMessage); err != nil {
		c.logger.Errorf("Failed to unmarshal message: %s", err)
		c.metrics.IncQueueMessage("invalid", "rejected")
		c.responder.PublishErrorToResponseQueue(queueMessage.Type, queueMessage.MessageID, msg.ReplyTo, err)
		return
	}

	switch queueMessage.Type {
	case constants.QueueMessageTypeRun, constants.QueueMessageTypeSubmit:
		c.logger.Infof("Received %s message [MsgID: %s]", queueMessage.Type, queueMessage.MessageID)
		c.handleJudgeMessage(queueMessage, msg.ReplyTo)
	case constants.QueueMessageTypeStatus:
		c.logger.Infof("Received status message [MsgID: %s]", queueMessage.MessageID)
		c.handleStatusMessage(queueMessage, msg.ReplyTo)
	case constants.QueueMessageTypeHandshake:
		c.logger.Infof("Received handshake message [MsgID: %s]", queueMessage.MessageID)
		c.handleHandshakeMessage(queueMessage, msg.ReplyTo)
	default:
		c.logger.Errorf("Unknown message type: %s [MsgID: %s]", queueMessage.Type, queueMessage.MessageID)
		c.metrics.IncQueueMessage(queueMessage.Type, "rejected")
		c.responder.PublishErrorToResponseQueue(
			queueMessage.Type,
			queueMessage.MessageID,
			msg.ReplyTo,
			errors.ErrUnknownMessageType)
	}
}

// requeueWithPriority puts a message the pool could not take back on the
// worker queue ahead of fresh traffic.
func (c *consumer) requeueWithPriority(queueMessage messages.QueueMessage, replyTo string) error {
	queueMessageJSON, err := json.Marshal(queueMessage)
	if err != nil {
		return err
	}

	return c.responder.Publish(c.workerQueueName, amqp.Publishing{
		ContentType:   "application/json",
		CorrelationId: queueMessage.MessageID,
		ReplyTo:       replyTo,
		Body:          queueMessageJSON,
		Priority:      uint8(constants.RabbitMQRequeuePriority),
	})
}

func (c *consumer) handleJudgeMessage(queueMessage messages.QueueMessage, replyTo string) {
	err := c.scheduler.ProcessTask(replyTo, queueMessage.MessageID, &queueMessage)
	if err == nil {
		c.metrics.IncQueueMessage(queueMessage.Type, "accepted")
		return
	}

	if e.Is(err, errors.ErrFailedToGetFreeWorker) {
		c.logger.Warnf("No free worker, requeueing [MsgID: %s]", queueMessage.MessageID)
		c.metrics.IncQueueMessage(queueMessage.Type, "requeued")
		if requeueErr := c.requeueWithPriority(queueMessage, replyTo); requeueErr != nil {
			c.logger.Errorf("Failed to requeue message: %s [MsgID: %s]", requeueErr, queueMessage.MessageID)
			c.responder.PublishErrorToResponseQueue(queueMessage.Type, queueMessage.MessageID, replyTo, err)
		}
		return
	}

	c.logger.Errorf("Failed to schedule message: %s [MsgID: %s]", err, queueMessage.MessageID)
	c.metrics.IncQueueMessage(queueMessage.Type, "rejected")
	c.responder.PublishErrorToResponseQueue(queueMessage.Type, queueMessage.MessageID, replyTo, err)
}

func (c *consumer) handleStatusMessage(queueMessage messages.QueueMessage, replyTo string) {
	status := c.scheduler.GetWorkersStatus()

	err := c.responder.PublishSuccessStatusRespond(queueMessage.Type, queueMessage.MessageID, replyTo, status)
	if err != nil {
		c.logger.Errorf("Failed to publish status message: %s", err)
		c.responder.PublishErrorToResponseQueue(queueMessage.Type, queueMessage.MessageID, replyTo, err)
	}
	c.metrics.IncQueueMessage(queueMessage.Type, "accepted")
}

func (c *consumer) handleHandshakeMessage(queueMessage messages.QueueMessage, replyTo string) {
	supported := languages.GetSupportedLanguagesWithVersions()

	err := c.responder.PublishSuccessHandshakeRespond(queueMessage.Type, queueMessage.MessageID, replyTo, supported)
	if err != nil {
		c.logger.Errorf("Failed to publish supported languages: %s", err)
		c.responder.PublishErrorToResponseQueue(queueMessage.Type, queueMessage.MessageID, replyTo, err)
	}
	c.metrics.IncQueueMessage(queueMessage.Type, "accepted")
}
