package repository

import (
	"context"

	"imageserver/internal/models"
)

func (s *pgStore) ListReferenceTypes(ctx context.Context) ([]models.ReferenceType, error) {
	const query = `
		SELECT id, code, name, allows_multiple, max_images, description
		FROM reference_types
		ORDER BY id
	`
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []models.ReferenceType
	for rows.Next() {
		var rt models.ReferenceType
		if err := rows.Scan(&rt.ID, &rt.Code, &rt.Name, &rt.AllowsMultiple, &rt.MaxImages, &rt.Description); err != nil {
			return nil, err
		}
		types = append(types, rt)
	}
	return types, rows.Err()
}

func (s *pgStore) ListExtensions(ctx context.Context) ([]models.Extension, error) {
	const query = `SELECT code, name FROM extensions ORDER BY code`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exts []models.Extension
	for rows.Next() {
		var ext models.Extension
		if err := rows.Scan(&ext.Code, &ext.Name); err != nil {
			return nil, err
		}
		exts = append(exts, ext)
	}
	return exts, rows.Err()
}
