package repository

import (
	"context"

	"github.com/spec-kit/ticket-desk/internal/domain"
)

// TagRepository manages the tag catalogue.
type TagRepository interface {
	Create(ctx context.Context, tag *domain.Tag) error
	GetByID(ctx context.Context, id string) (*domain.Tag, error)
	List(ctx context.Context) ([]domain.Tag, error)
	Delete(ctx context.Context, id string) error
}

type tagRepository struct {
	db DBTX
}

func (r *tagRepository) Create(ctx context.Context, tag *domain.Tag) error {
	const query = `INSERT INTO tags (name) VALUES ($1) RETURNING id, created_at`
	return translate(r.db.QueryRow(ctx, query, tag.Name).Scan(&tag.ID, &tag.CreatedAt))
}

func (r *tagRepository) GetByID(ctx context.Context, id string) (*domain.Tag, error) {
	var tag domain.Tag
	err := r.db.QueryRow(ctx, `SELECT id, name, created_at FROM tags WHERE id=$1`, id).
		Scan(&tag.ID, &tag.Name, &tag.CreatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return &tag, nil
}

func (r *tagRepository) List(ctx context.Context) ([]domain.Tag, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, created_at FROM tags ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Tag{}
	for rows.Next() {
		var tag domain.Tag
		if err := rows.Scan(&tag.ID, &tag.Name, &tag.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, tag)
	}
	return result, rows.Err()
}

func (r *tagRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM tags WHERE id=$1`, id)
	if err != nil {
		return translate(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
