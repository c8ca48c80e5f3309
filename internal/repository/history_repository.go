package repository

import (
	"context"

	"imageserver/internal/models"
)

func (s *pgStore) AppendHistory(ctx context.Context, h models.StatusHistory) error {
	const query = `
		INSERT INTO status_history (image_id, old_status, new_status, changed_by, reason, changed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.Exec(ctx, query, h.ImageID, h.OldStatus, h.NewStatus, h.ChangedBy, h.Reason, h.ChangedAt)
	return err
}

func (s *pgStore) ListHistory(ctx context.Context, imageID string) ([]models.StatusHistory, error) {
	const query = `
		SELECT id, image_id, old_status, new_status, changed_by, reason, changed_at
		FROM status_history
		WHERE image_id = $1
		ORDER BY id
	`
	rows, err := s.db.Query(ctx, query, imageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []models.StatusHistory
	for rows.Next() {
		var h models.StatusHistory
		if err := rows.Scan(&h.ID, &h.ImageID, &h.OldStatus, &h.NewStatus, &h.ChangedBy, &h.Reason, &h.ChangedAt); err != nil {
			return nil, err
		}
		history = append(history, h)
	}
	return history, rows.Err()
}
