package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"imageserver/internal/config"
)

// KafkaPublisher delivers events at least once: each attempt waits
// synchronously up to the send timeout, failed attempts back off
// exponentially, and an exhausted retry budget is logged as an
// unrecoverable delivery error.
type KafkaPublisher struct {
	writer *kafka.Writer
	cfg    config.KafkaConfig
	log    zerolog.Logger
}

func NewKafkaPublisher(cfg config.KafkaConfig, log zerolog.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}

	return &KafkaPublisher{
		writer: writer,
		cfg:    cfg,
		log:    log,
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, topic string, payload any) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	backoff := p.cfg.BackoffBase
	var lastErr error

	for attempt := 1; attempt <= p.cfg.MaxAttempts; attempt++ {
		sendCtx, cancel := context.WithTimeout(ctx, p.cfg.SendTimeout)
		lastErr = p.writer.WriteMessages(sendCtx, kafka.Message{
			Topic: topic,
			Value: value,
		})
		cancel()

		if lastErr == nil {
			p.log.Debug().Str("topic", topic).Int("attempt", attempt).Msg("event published")
			return nil
		}

		p.log.Warn().Err(lastErr).
			Str("topic", topic).
			Int("attempt", attempt).
			Msg("event publish failed")

		if attempt < p.cfg.MaxAttempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > p.cfg.BackoffLimit {
				backoff = p.cfg.BackoffLimit
			}
		}
	}

	p.log.Error().Err(lastErr).
		Str("topic", topic).
		Int("attempts", p.cfg.MaxAttempts).
		Msg("event delivery unrecoverable, giving up")
	return fmt.Errorf("publish to %s after %d attempts: %w", topic, p.cfg.MaxAttempts, lastErr)
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
