package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vedran77/glamplanner/internal/domain"
)

const eventColumns = "id, title, description, image_url, content_image_urls, created_by, created_at"

type EventRepo struct {
	pool *pgxpool.Pool
}

func NewEventRepo(pool *pgxpool.Pool) *EventRepo {
	return &EventRepo{pool: pool}
}

func (r *EventRepo) Create(ctx context.Context, e *domain.Event) error {
	query := `INSERT INTO events (` + eventColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.pool.Exec(ctx, query,
		e.ID, e.Title, e.Description, e.ImageURL, nonNilStrings(e.ContentImageURLs), e.CreatedBy, e.CreatedAt,
	)
	return err
}

func (r *EventRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	e, err := scanEvent(r.pool.QueryRow(ctx, "SELECT "+eventColumns+" FROM events WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return e, err
}

func (r *EventRepo) List(ctx context.Context) ([]domain.Event, error) {
	rows, err := r.pool.Query(ctx, "SELECT "+eventColumns+" FROM events ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// Update sets the present fields and appends content images that are not
// already on the event, in one statement.
func (r *EventRepo) Update(ctx context.Context, id uuid.UUID, patch domain.EventPatch) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE events SET
			title = COALESCE($2, title),
			description = COALESCE($3, description),
			image_url = COALESCE($4, image_url),
			content_image_urls = content_image_urls || ARRAY(
				SELECT u FROM unnest($5::text[]) WITH ORDINALITY AS n(u, pos)
				WHERE NOT (u = ANY(content_image_urls))
				GROUP BY u
				ORDER BY min(pos)
			)
		WHERE id = $1`,
		id, patch.Title, patch.Description, patch.ImageURL, nonNilStrings(patch.NewContentImages),
	)
	if err != nil {
		return err
	}
	return affected(tag)
}

func (r *EventRepo) PullContentImage(ctx context.Context, id uuid.UUID, url string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE events SET content_image_urls = array_remove(content_image_urls, $2)
		WHERE id = $1`, id, url)
	if err != nil {
		return err
	}
	return affected(tag)
}

func (r *EventRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return affected(tag)
}

func scanEvent(row pgx.Row) (*domain.Event, error) {
	var e domain.Event
	if err := row.Scan(
		&e.ID, &e.Title, &e.Description, &e.ImageURL, &e.ContentImageURLs, &e.CreatedBy, &e.CreatedAt,
	); err != nil {
		return nil, err
	}
	e.ContentImageURLs = nonNilStrings(e.ContentImageURLs)
	return &e, nil
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
