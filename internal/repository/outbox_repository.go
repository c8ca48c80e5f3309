package repository

import (
	"context"

	"imageserver/internal/models"
)

func (s *pgStore) AppendOutbox(ctx context.Context, ev models.OutboxEvent) error {
	const query = `
		INSERT INTO image_outbox (id, reference_id, type_code, kind, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.Exec(ctx, query, ev.ID, ev.ReferenceID, ev.TypeCode, ev.Kind, ev.Payload, ev.CreatedAt)
	return err
}

// PendingOutbox claims the oldest unprocessed events. SKIP LOCKED keeps
// concurrent dispatcher instances from double-delivering the same batch.
func (s *pgStore) PendingOutbox(ctx context.Context, limit int) ([]models.OutboxEvent, error) {
	const query = `
		SELECT id, reference_id, type_code, kind, payload, created_at, processed_at
		FROM image_outbox
		WHERE processed_at IS NULL
		ORDER BY created_at
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`
	rows, err := s.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.OutboxEvent
	for rows.Next() {
		var ev models.OutboxEvent
		if err := rows.Scan(&ev.ID, &ev.ReferenceID, &ev.TypeCode, &ev.Kind, &ev.Payload, &ev.CreatedAt, &ev.ProcessedAt); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (s *pgStore) MarkOutboxProcessed(ctx context.Context, id string) error {
	const query = `UPDATE image_outbox SET processed_at = NOW() WHERE id = $1`
	_, err := s.db.Exec(ctx, query, id)
	return err
}
