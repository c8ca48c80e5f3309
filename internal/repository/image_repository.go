package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"imageserver/internal/models"
)

const imageColumns = `
	i.image_id, i.status, i.reference_id, i.reference_type_id, i.image_url,
	i.uploader_id, i.is_deleted, i.created_at, i.updated_at,
	rt.id, rt.code, rt.name, rt.allows_multiple, rt.max_images, rt.description,
	so.image_id, so.storage_location, so.origin_size, so.converted_size,
	so.origin_format, so.converted_format
`

const imageFrom = `
	FROM images i
	JOIN reference_types rt ON rt.id = i.reference_type_id
	LEFT JOIN storage_objects so ON so.image_id = i.image_id
`

func scanImage(row pgx.Row) (*models.Image, error) {
	var (
		img models.Image
		rt  models.ReferenceType

		soID       *string
		soLocation *string
		soOrigSize *int64
		soConvSize *int64
		soOrigFmt  *string
		soConvFmt  *string
	)

	err := row.Scan(
		&img.ID,
		&img.Status,
		&img.ReferenceID,
		&img.ReferenceTypeID,
		&img.URL,
		&img.UploaderID,
		&img.Deleted,
		&img.CreatedAt,
		&img.UpdatedAt,
		&rt.ID,
		&rt.Code,
		&rt.Name,
		&rt.AllowsMultiple,
		&rt.MaxImages,
		&rt.Description,
		&soID,
		&soLocation,
		&soOrigSize,
		&soConvSize,
		&soOrigFmt,
		&soConvFmt,
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
	return &img, nil
}

func (s *pgStore) queryImages(ctx context.Context, query string, args ...any) ([]*models.Image, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []*models.Image
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

func (s *pgStore) GetImage(ctx context.Context, id string) (*models.Image, error) {
	query := `SELECT` + imageColumns + imageFrom + `WHERE i.image_id = $1`

	img, err := scanImage(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrImageNotFound
		}
		return nil, err
	}
	return img, nil
}

// ListAttachedImages returns the images currently confirmed against a
// reference. Rows are locked for the caller's transaction so concurrent
// confirmations for the same reference serialize in the database.
func (s *pgStore) ListAttachedImages(ctx context.Context, referenceID string) ([]*models.Image, error) {
	query := `SELECT` + imageColumns + imageFrom + `
		WHERE i.reference_id = $1 AND i.status = $2 AND i.is_deleted = FALSE
		ORDER BY i.created_at
		FOR UPDATE OF i`

	return s.queryImages(ctx, query, referenceID, models.ImageStatusConfirmed)
}

func (s *pgStore) ListImagesByIDs(ctx context.Context, ids []string) ([]*models.Image, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT` + imageColumns + imageFrom + `WHERE i.image_id = ANY($1) FOR UPDATE OF i`
	return s.queryImages(ctx, query, ids)
}

func (s *pgStore) ListImagesByStatusOlderThan(ctx context.Context, status models.ImageStatus, cutoff time.Time) ([]*models.Image, error) {
	query := `SELECT` + imageColumns + imageFrom + `WHERE i.status = $1 AND i.created_at < $2`
	return s.queryImages(ctx, query, status, cutoff)
}

func (s *pgStore) ListUnconfirmedOlderThan(ctx context.Context, cutoff time.Time) ([]*models.Image, error) {
	query := `SELECT` + imageColumns + imageFrom + `WHERE i.status <> $1 AND i.created_at < $2`
	return s.queryImages(ctx, query, models.ImageStatusConfirmed, cutoff)
}

func (s *pgStore) InsertImage(ctx context.Context, img *models.Image) error {
	const query = `
		INSERT INTO images (
			image_id, status, reference_id, reference_type_id, image_url,
			uploader_id, is_deleted, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
	`
	_, err := s.db.Exec(ctx, query,
		img.ID,
		img.Status,
		img.ReferenceID,
		img.ReferenceTypeID,
		img.URL,
		img.UploaderID,
		img.Deleted,
	)
	return err
}

func (s *pgStore) UpdateImage(ctx context.Context, img *models.Image) error {
	const query = `
		UPDATE images
		SET status = $2,
		    reference_id = $3,
		    is_deleted = $4,
		    updated_at = NOW()
		WHERE image_id = $1
	`
	tag, err := s.db.Exec(ctx, query, img.ID, img.Status, img.ReferenceID, img.Deleted)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrImageNotFound
	}
	return nil
}

func (s *pgStore) UpdateImages(ctx context.Context, imgs []*models.Image) error {
	for _, img := range imgs {
		if err := s.UpdateImage(ctx, img); err != nil {
			return fmt.Errorf("update image %s: %w", img.ID, err)
		}
	}
	return nil
}

func (s *pgStore) DeleteImage(ctx context.Context, id string) error {
	const query = `DELETE FROM images WHERE image_id = $1`
	_, err := s.db.Exec(ctx, query, id)
	return err
}

// SaveStorageObject upserts, so a conversion retry replaces the previous
// record instead of failing on the primary key.
func (s *pgStore) SaveStorageObject(ctx context.Context, obj *models.StorageObject) error {
	const query = `
		INSERT INTO storage_objects (
			image_id, storage_location, origin_size, converted_size,
			origin_format, converted_format
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (image_id) DO UPDATE SET
			storage_location = EXCLUDED.storage_location,
			origin_size = EXCLUDED.origin_size,
			converted_size = EXCLUDED.converted_size,
			origin_format = EXCLUDED.origin_format,
			converted_format = EXCLUDED.converted_format
	`
	_, err := s.db.Exec(ctx, query,
		obj.ImageID,
		obj.StorageLocation,
		obj.OriginSize,
		obj.ConvertedSize,
		obj.OriginFormat,
		obj.ConvertedFormat,
	)
	return err
}
