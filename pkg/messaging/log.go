package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
)

// LogBroker writes messages to a logger instead of a broker. It is meant for
// local runs without Redis or RabbitMQ.
type LogBroker struct {
	logger zerolog.Logger
}

func NewLogBroker(logger zerolog.Logger) *LogBroker {
	return &LogBroker{logger: logger.With().Str("component", "log-broker").Logger()}
}

func (b *LogBroker) Publish(ctx context.Context, channel string, message interface{}) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	b.logger.Info().Str("channel", channel).RawJSON("message", payload).Msg("event published")
	return nil
}

func (b *LogBroker) Close() error { return nil }
