package repository

import (
	"context"
	"fmt"

	"imageserver/internal/models"
)

// ReplaceSequences regenerates the ordered attachment list for a
// reference: delete everything, reinsert numbered by position. Sequences
// are never patched incrementally.
func (s *pgStore) ReplaceSequences(ctx context.Context, referenceID string, imageIDs []string) error {
	if err := s.DeleteSequences(ctx, referenceID); err != nil {
		return err
	}

	const query = `
		INSERT INTO image_sequence (reference_id, image_id, seq_number)
		VALUES ($1, $2, $3)
	`
	for i, imageID := range imageIDs {
		if _, err := s.db.Exec(ctx, query, referenceID, imageID, i); err != nil {
			return fmt.Errorf("insert sequence %s/%d: %w", imageID, i, err)
		}
	}
	return nil
}

func (s *pgStore) DeleteSequences(ctx context.Context, referenceID string) error {
	const query = `DELETE FROM image_sequence WHERE reference_id = $1`
	_, err := s.db.Exec(ctx, query, referenceID)
	return err
}

func (s *pgStore) ListSequences(ctx context.Context, referenceID string) ([]models.SequencedImage, error) {
	query := `SELECT` + imageColumns + `, seq.seq_number
		FROM image_sequence seq
		JOIN images i ON i.image_id = seq.image_id
		JOIN reference_types rt ON rt.id = i.reference_type_id
		LEFT JOIN storage_objects so ON so.image_id = i.image_id
		WHERE seq.reference_id = $1
		ORDER BY seq.seq_number`

	rows, err := s.db.Query(ctx, query, referenceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.SequencedImage
	for rows.Next() {
		var (
			img models.Image
			rt  models.ReferenceType

			soID       *string
			soLocation *string
			soOrigSize *int64
			soConvSize *int64
			soOrigFmt  *string
			soConvFmt  *string

			seqNumber int
		)
		err := rows.Scan(
			&img.ID, &img.Status, &img.ReferenceID, &img.ReferenceTypeID, &img.URL,
			&img.UploaderID, &img.Deleted, &img.CreatedAt, &img.UpdatedAt,
			&rt.ID, &rt.Code, &rt.Name, &rt.AllowsMultiple, &rt.MaxImages, &rt.Description,
			&soID, &soLocation, &soOrigSize, &soConvSize, &soOrigFmt, &soConvFmt,
			&seqNumber,
		)
		if err != nil {
			return nil, err
		}
		img.ReferenceType = &rt
		if soID != nil {
			img.StorageObject = &models.StorageObject{
				ImageID:         *soID,
				StorageLocation: *soLocation,
				OriginSize:      *soOrigSize,
				ConvertedSize:   soConvSize,
				OriginFormat:    *soOrigFmt,
				ConvertedFormat: soConvFmt,
			}
		}
		result = append(result, models.SequencedImage{Image: img, SeqNumber: seqNumber})
	}
	return result, rows.Err()
}
