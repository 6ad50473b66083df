package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jwalitptl/meditracker-api/internal/model"
	"github.com/jwalitptl/meditracker-api/internal/repository"
	"github.com/jwalitptl/meditracker-api/pkg/logger"
	"github.com/jwalitptl/meditracker-api/pkg/messaging"
	"github.com/jwalitptl/meditracker-api/pkg/metrics"
)

// purgeInterval is how often processed events past retention are deleted.
const purgeInterval = time.Hour

type OutboxProcessorConfig struct {
	BatchSize     int
	PollInterval  time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
	// Retention is how long processed events are kept; zero keeps them forever.
	Retention time.Duration
	// ChannelPrefix is prepended to the event type to form the broker channel.
	ChannelPrefix string
}

type OutboxProcessor struct {
	tx        repository.Transactor
	repo      repository.OutboxRepository
	broker    messaging.Broker
	config    OutboxProcessorConfig
	logger    *logger.Logger
	metrics   *metrics.Metrics
	lastPurge time.Time
}

func NewOutboxProcessor(
	tx repository.Transactor,
	repo repository.OutboxRepository,
	broker messaging.Broker,
	config OutboxProcessorConfig,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) (*OutboxProcessor, error) {
	if config.BatchSize <= 0 {
		return nil, errors.New("BatchSize must be greater than 0")
	}
	if config.PollInterval <= 0 {
		return nil, errors.New("PollInterval must be greater than 0")
	}
	if config.RetryAttempts <= 0 {
		return nil, errors.New("RetryAttempts must be greater than 0")
	}
	if config.RetryDelay < 0 {
		return nil, errors.New("RetryDelay must not be negative")
	}

	return &OutboxProcessor{
		tx:      tx,
		repo:    repo,
		broker:  broker,
		config:  config,
		logger:  logger,
		metrics: metrics,
	}, nil
}

// Start polls until ctx is cancelled.
func (p *OutboxProcessor) Start(ctx context.Context) {
	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	p.logger.Info("Starting outbox processor",
		"batch_size", p.config.BatchSize,
		"poll_interval", p.config.PollInterval.String())

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Shutting down outbox processor")
			return
		case <-ticker.C:
			if _, err := p.ProcessOnce(ctx); err != nil && ctx.Err() == nil {
				p.logger.Error(err, "Failed to process events")
			}
			if p.config.Retention > 0 && time.Since(p.lastPurge) >= purgeInterval {
				if _, err := p.Purge(ctx, time.Now().UTC()); err != nil && ctx.Err() == nil {
					p.logger.Error(err, "Failed to purge processed events")
				}
				p.lastPurge = time.Now()
			}
		}
	}
}

// ProcessOnce publishes one batch of pending events and returns how many
// were published. The whole batch is published before any event is marked,
// and rows stay locked until the marks commit.
func (p *OutboxProcessor) ProcessOnce(ctx context.Context) (int, error) {
	timer := prometheus.NewTimer(p.metrics.OutboxProcessingLatency)
	defer timer.ObserveDuration()

	published := 0
	err := p.tx.WithinTx(ctx, func(ctx context.Context) error {
		events, err := p.repo.GetPendingEventsWithLock(ctx, p.config.BatchSize)
		if err != nil {
			p.metrics.DatabaseOperations.WithLabelValues("get_pending_events", "error").Inc()
			return fmt.Errorf("failed to get pending events: %w", err)
		}
		p.metrics.DatabaseOperations.WithLabelValues("get_pending_events", "success").Inc()

		results := make([]error, len(events))
		for i, event := range events {
			results[i] = p.publish(ctx, event)
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}

		for i, event := range events {
			if err := p.mark(ctx, event, results[i]); err != nil {
				p.logger.Error(err, "Failed to process event",
					"event_id", event.ID.String(),
					"event_type", event.EventType)
				continue
			}
			published++
		}
		return nil
	})
	return published, err
}

func (p *OutboxProcessor) publish(ctx context.Context, event *model.OutboxEvent) error {
	msg := messaging.Message{
		ID:         event.ID,
		Type:       event.EventType,
		Payload:    event.Payload,
		OccurredAt: event.CreatedAt,
	}
	channel := p.channel(event.EventType)

	attempt := 0
	return retry(ctx, p.config.RetryAttempts, p.config.RetryDelay, func() error {
		if attempt > 0 {
			p.metrics.OutboxRetries.WithLabelValues(event.EventType).Inc()
		}
		attempt++
		return p.broker.Publish(ctx, channel, msg)
	})
}

// mark records the outcome of publishing event. It returns publishErr, or
// the error of marking a published event as processed.
func (p *OutboxProcessor) mark(ctx context.Context, event *model.OutboxEvent, publishErr error) error {
	if publishErr != nil {
		p.metrics.OutboxEventsFailed.Inc()
		errStr := publishErr.Error()
		if updateErr := p.repo.UpdateStatus(ctx, event.ID, model.OutboxStatusFailed, &errStr); updateErr != nil {
			p.metrics.DatabaseOperations.WithLabelValues("update_status", "error").Inc()
			p.logger.Error(updateErr, "Failed to update event status", "event_id", event.ID.String())
		}
		return publishErr
	}

	p.metrics.OutboxEventsProcessed.Inc()
	if err := p.repo.UpdateStatus(ctx, event.ID, model.OutboxStatusProcessed, nil); err != nil {
		p.metrics.DatabaseOperations.WithLabelValues("update_status", "error").Inc()
		return fmt.Errorf("failed to mark event processed: %w", err)
	}
	p.metrics.DatabaseOperations.WithLabelValues("update_status", "success").Inc()

	return nil
}

// Purge deletes processed events older than the retention window.
func (p *OutboxProcessor) Purge(ctx context.Context, now time.Time) (int64, error) {
	if p.config.Retention <= 0 {
		return 0, nil
	}
	n, err := p.repo.DeleteProcessedBefore(ctx, now.Add(-p.config.Retention))
	if err != nil {
		p.metrics.DatabaseOperations.WithLabelValues("purge_processed", "error").Inc()
		return 0, err
	}
	p.metrics.DatabaseOperations.WithLabelValues("purge_processed", "success").Inc()
	p.metrics.OutboxEventsPurged.Add(float64(n))
	if n > 0 {
		p.logger.Info("Purged processed outbox events", "count", n)
	}
	return n, nil
}

func (p *OutboxProcessor) channel(eventType string) string {
	if p.config.ChannelPrefix == "" {
		return eventType
	}
	return p.config.ChannelPrefix + "." + eventType
}

// retry calls fn up to attempts times, waiting delay between calls.
func retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return err
}
