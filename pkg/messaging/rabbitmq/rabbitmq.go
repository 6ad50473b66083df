package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/jwalitptl/meditracker-api/pkg/messaging"
)

type Config struct {
	URL      string
	Exchange string
}

// RabbitMQBroker publishes to a durable topic exchange, using the channel
// name as routing key.
type RabbitMQBroker struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	cb       *gobreaker.CircuitBreaker
	logger   zerolog.Logger
}

func NewRabbitMQBroker(config Config, logger zerolog.Logger) (*RabbitMQBroker, error) {
	conn, err := amqp.Dial(config.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	// Declare the exchange (idempotent)
	err = ch.ExchangeDeclare(
		config.Exchange,
		amqp.ExchangeTopic,
		true,  // durable
		false, // autoDelete
		false, // internal
		false, // noWait
		nil,   // args
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", config.Exchange, err)
	}

	return &RabbitMQBroker{
		conn:     conn,
		ch:       ch,
		exchange: config.Exchange,
		cb:       messaging.NewCircuitBreaker("rabbitmq-broker", 30*time.Second),
		logger:   logger.With().Str("component", "rabbitmq-broker").Logger(),
	}, nil
}

func (b *RabbitMQBroker) Publish(ctx context.Context, channel string, message interface{}) error {
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	_, err = b.cb.Execute(func() (interface{}, error) {
		// amqp channels are not safe for concurrent publishing
		b.mu.Lock()
		defer b.mu.Unlock()
		return nil, b.ch.PublishWithContext(
			ctx,
			b.exchange,
			channel, // routing key
			false,   // mandatory
			false,   // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				Timestamp:    time.Now().UTC(),
				Body:         body,
			},
		)
	})
	if err != nil {
		b.logger.Warn().Err(err).Str("routing_key", channel).Msg("publish failed")
		return fmt.Errorf("failed to publish to %s: %w", channel, err)
	}
	return nil
}

func (b *RabbitMQBroker) Close() error {
	if b.ch != nil {
		if err := b.ch.Close(); err != nil {
			return err
		}
	}
	if b.conn != nil {
		return b.conn.Close()
	}
	return nil
}
