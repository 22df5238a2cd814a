package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vedran77/glamplanner/internal/domain"
)

type GalleryRepo struct {
	pool *pgxpool.Pool
}

func NewGalleryRepo(pool *pgxpool.Pool) *GalleryRepo {
	return &GalleryRepo{pool: pool}
}

func (r *GalleryRepo) Create(ctx context.Context, img *domain.GalleryImage) error {
	query := `
		INSERT INTO gallery_images (id, url, description, uploaded_by, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.pool.Exec(ctx, query, img.ID, img.URL, img.Desc, img.User, img.CreatedAt)
	return err
}

func (r *GalleryRepo) List(ctx context.Context) ([]domain.GalleryImage, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, url, description, uploaded_by, created_at
		FROM gallery_images
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []domain.GalleryImage
	for rows.Next() {
		var img domain.GalleryImage
		if err := rows.Scan(&img.ID, &img.URL, &img.Desc, &img.User, &img.CreatedAt); err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

func (r *GalleryRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM gallery_images WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return affected(tag)
}
