// Package outbox delivers committed domain events. The orchestrator
// appends events in the same transaction as its mutation; the dispatcher
// polls them back out afterwards, rebuilds sequences and notifies the
// broker, then marks them processed. A downstream failure therefore can
// never roll back a confirmation.
package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"imageserver/internal/config"
	"imageserver/internal/events"
	"imageserver/internal/models"
	"imageserver/internal/repository"
)

type Sequencer interface {
	Rebuild(ctx context.Context, referenceID string, orderedIDs []string) error
}

type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) error
}

type Dispatcher struct {
	txm       repository.TxManager
	sequences Sequencer
	publisher Publisher
	cfg       config.OutboxConfig
	log       zerolog.Logger
}

func NewDispatcher(txm repository.TxManager, sequences Sequencer, publisher Publisher, cfg config.OutboxConfig, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		txm:       txm,
		sequences: sequences,
		publisher: publisher,
		cfg:       cfg,
		log:       log,
	}
}

// Run polls until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := d.Dispatch(ctx); err != nil {
				d.log.Error().Err(err).Msg("outbox dispatch cycle failed")
			}
		}
	}
}

// Dispatch claims one batch of pending events and processes them. The
// claim transaction holds the row locks for the whole batch, so
// concurrent dispatcher instances skip each other's work.
func (d *Dispatcher) Dispatch(ctx context.Context) error {
	return d.txm.InTx(ctx, func(st repository.Store) error {
		pending, err := st.PendingOutbox(ctx, d.cfg.BatchSize)
		if err != nil {
			return fmt.Errorf("load pending events: %w", err)
		}

		for _, ev := range pending {
			if err := d.process(ctx, ev); err != nil {
				return fmt.Errorf("process event %s: %w", ev.ID, err)
			}
			if err := st.MarkOutboxProcessed(ctx, ev.ID); err != nil {
				return fmt.Errorf("mark processed %s: %w", ev.ID, err)
			}
		}
		return nil
	})
}

// process rebuilds the reference's sequences (its own transaction, the
// event is already durably committed) and then publishes. A sequencing
// failure leaves the event pending for a retry; a delivery failure past
// the publisher's retry budget is terminal and only logged.
func (d *Dispatcher) process(ctx context.Context, ev models.OutboxEvent) error {
	orderedIDs, payload, err := decode(ev)
	if err != nil {
		// A payload we cannot decode will never succeed; drop it loudly.
		d.log.Error().Err(err).Str("event_id", ev.ID).Msg("undecodable outbox payload, skipping")
		return nil
	}

	if err := d.sequences.Rebuild(ctx, ev.ReferenceID, orderedIDs); err != nil {
		return err
	}

	topic := events.Topic(ev.TypeCode)
	if err := d.publisher.Publish(ctx, topic, payload); err != nil {
		d.log.Error().Err(err).
			Str("event_id", ev.ID).
			Str("topic", topic).
			Msg("event delivery failed terminally")
	}
	return nil
}

func decode(ev models.OutboxEvent) ([]string, any, error) {
	switch ev.Kind {
	case models.OutboxImageChanged:
		var payload events.ImageChanged
		if err := json.Unmarshal(ev.Payload, &payload); err != nil {
			return nil, nil, err
		}
		return []string{payload.ImageID}, payload, nil
	case models.OutboxImagesChanged:
		var payload events.ImagesChanged
		if err := json.Unmarshal(ev.Payload, &payload); err != nil {
			return nil, nil, err
		}
		ids := make([]string, 0, len(payload.Items))
		for _, item := range payload.Items {
			ids = append(ids, item.ImageID)
		}
		return ids, payload, nil
	default:
		return nil, nil, fmt.Errorf("unknown outbox kind %q", ev.Kind)
	}
}
