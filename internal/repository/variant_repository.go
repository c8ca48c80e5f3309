package repository

import (
	"context"

	"imageserver/internal/models"
)

func (s *pgStore) SaveVariant(ctx context.Context, v *models.ImageVariant) error {
	const query = `
		INSERT INTO image_variants (
			image_id, variant_code, is_thumbnail, uploader_id, uploaded_at,
			width, height, url
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	return s.db.QueryRow(ctx, query,
		v.ImageID,
		v.VariantCode,
		v.Thumbnail,
		v.UploaderID,
		v.UploadedAt,
		v.Width,
		v.Height,
		v.URL,
	).Scan(&v.ID)
}

func (s *pgStore) ListVariants(ctx context.Context, imageID string) ([]models.ImageVariant, error) {
	const query = `
		SELECT id, image_id, variant_code, is_thumbnail, uploader_id, uploaded_at,
		       width, height, url
		FROM image_variants
		WHERE image_id = $1
		ORDER BY id
	`
	rows, err := s.db.Query(ctx, query, imageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var variants []models.ImageVariant
	for rows.Next() {
		var v models.ImageVariant
		if err := rows.Scan(&v.ID, &v.ImageID, &v.VariantCode, &v.Thumbnail, &v.UploaderID, &v.UploadedAt, &v.Width, &v.Height, &v.URL); err != nil {
			return nil, err
		}
		variants = append(variants, v)
	}
	return variants, rows.Err()
}
