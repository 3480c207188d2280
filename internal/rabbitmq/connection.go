package rabbitmq

import (
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/interview-prep/judge/internal/config"
	"github.com/interview-prep/judge/internal/logger"
	"github.com/interview-prep/judge/internal/rabbitmq/channel"
	"github.com/interview-prep/judge/pkg/constants"
)

// NewRabbitMqConnection dials the broker, retrying with a linear backoff
// while it is starting up. Exhausting the retries is fatal.
func NewRabbitMqConnection(cfg *config.Config) *amqp.Connection {
	logger := logger.NewNamedLogger("rabbitmq")

	var (
		conn *amqp.Connection
		err  error
	)
	for attempt := 1; attempt <= constants.RabbitMQReconnectTries; attempt++ {
		conn, err = amqp.Dial(cfg.RabbitMQURL)
		if err == nil {
			logger.Infof("Connected to RabbitMQ after %d attempt(s)", attempt)
			return conn
		}

		logger.Warnf("Failed to connect to RabbitMQ (attempt %d/%d): %s",
			attempt, constants.RabbitMQReconnectTries, err)
		time.Sleep(time.Duration(attempt) * constants.RabbitMQReconnectBackoff)
	}

	logger.Fatalf("Failed to connect to RabbitMQ: %s", err)
	return nil
}

func NewRabbitMQChannel(conn *amqp.Connection) channel.Channel {
	logger := logger.NewNamedLogger("rabbitmq")

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatalf("Failed to open a channel: %s", err)
	}
	return channel.NewAmqpChannel(ch)
}
