package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vedran77/glamplanner/internal/domain"
	"github.com/vedran77/glamplanner/internal/repository"
)

const planColumns = `id, requester_id, responder_id, requester_name, responder_username,
	responder_display_name, opening_message, created_at, updated_at, replies, hidden_by`

// PlanRepo stores each thread as one row. Replies live in a JSONB array and
// hidden_by is a TEXT[] so every mutation is a single-row UPDATE.
type PlanRepo struct {
	pool *pgxpool.Pool
}

func NewPlanRepo(pool *pgxpool.Pool) *PlanRepo {
	return &PlanRepo{pool: pool}
}

func (r *PlanRepo) Create(ctx context.Context, t *domain.PlanThread) error {
	replies, err := json.Marshal(nonNilReplies(t.Replies))
	if err != nil {
		return fmt.Errorf("encode replies: %w", err)
	}
	query := `
		INSERT INTO plan_threads (` + planColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err = r.pool.Exec(ctx, query,
		t.ID, t.RequesterID, t.ResponderID, t.RequesterName, t.ResponderUsername,
		t.ResponderDisplayName, t.OpeningMessage, t.CreatedAt, t.UpdatedAt,
		string(replies), t.HiddenBy.Strings(),
	)
	return err
}

func (r *PlanRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.PlanThread, error) {
	t, err := scanThread(r.pool.QueryRow(ctx, "SELECT "+planColumns+" FROM plan_threads WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return t, err
}

func (r *PlanRepo) ListByRequester(ctx context.Context, requesterID uuid.UUID) ([]domain.PlanThread, error) {
	return r.list(ctx, `
		SELECT `+planColumns+` FROM plan_threads
		WHERE requester_id = $1 AND NOT ($2 = ANY(hidden_by))
		ORDER BY created_at DESC`, requesterID, requesterID.String())
}

func (r *PlanRepo) ListByResponder(ctx context.Context, responderID uuid.UUID) ([]domain.PlanThread, error) {
	return r.list(ctx, `
		SELECT `+planColumns+` FROM plan_threads
		WHERE responder_id = $1 AND NOT ($2 = ANY(hidden_by))
		ORDER BY created_at DESC`, responderID, responderID.String())
}

func (r *PlanRepo) PushReply(ctx context.Context, threadID uuid.UUID, reply domain.Reply, at time.Time) error {
	encoded, err := json.Marshal([]domain.Reply{reply})
	if err != nil {
		return fmt.Errorf("encode reply: %w", err)
	}
	return r.exec(ctx, `
		UPDATE plan_threads
		SET replies = replies || $2::jsonb, updated_at = $3
		WHERE id = $1`, threadID, string(encoded), at)
}

func (r *PlanRepo) PullReply(ctx context.Context, threadID, replyID uuid.UUID, at time.Time) error {
	return r.exec(ctx, `
		UPDATE plan_threads
		SET replies = COALESCE((
				SELECT jsonb_agg(e.reply ORDER BY e.pos)
				FROM jsonb_array_elements(replies) WITH ORDINALITY AS e(reply, pos)
				WHERE e.reply->>'id' <> $2
			), '[]'::jsonb),
			updated_at = $3
		WHERE id = $1`, threadID, replyID.String(), at)
}

func (r *PlanRepo) AddThreadHiddenBy(ctx context.Context, threadID, actorID uuid.UUID, at time.Time) error {
	return r.exec(ctx, `
		UPDATE plan_threads
		SET hidden_by = CASE WHEN $2 = ANY(hidden_by) THEN hidden_by ELSE array_append(hidden_by, $2) END,
			updated_at = $3
		WHERE id = $1`, threadID, actorID.String(), at)
}

func (r *PlanRepo) AddReplyHiddenBy(ctx context.Context, threadID, replyID, actorID uuid.UUID, at time.Time) error {
	return r.exec(ctx, `
		UPDATE plan_threads
		SET replies = (
				SELECT jsonb_agg(
					CASE
						WHEN e.reply->>'id' = $2 AND NOT (COALESCE(e.reply->'hidden_by', '[]'::jsonb) @> jsonb_build_array($3::text))
						THEN jsonb_set(e.reply, '{hidden_by}', COALESCE(e.reply->'hidden_by', '[]'::jsonb) || jsonb_build_array($3::text))
						ELSE e.reply
					END ORDER BY e.pos)
				FROM jsonb_array_elements(replies) WITH ORDINALITY AS e(reply, pos)
			),
			updated_at = $4
		WHERE id = $1 AND replies @> jsonb_build_array(jsonb_build_object('id', $2::text))`,
		threadID, replyID.String(), actorID.String(), at)
}

func (r *PlanRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.exec(ctx, `DELETE FROM plan_threads WHERE id = $1`, id)
}

func (r *PlanRepo) exec(ctx context.Context, query string, args ...any) error {
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	return affected(tag)
}

func (r *PlanRepo) list(ctx context.Context, query string, args ...any) ([]domain.PlanThread, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var threads []domain.PlanThread
	for rows.Next() {
		t, err := scanThread(rows)
		if err != nil {
			return nil, err
		}
		threads = append(threads, *t)
	}
	return threads, rows.Err()
}

func scanThread(row pgx.Row) (*domain.PlanThread, error) {
	var t domain.PlanThread
	var replies []byte
	var hiddenBy []string
	if err := row.Scan(
		&t.ID, &t.RequesterID, &t.ResponderID, &t.RequesterName, &t.ResponderUsername,
		&t.ResponderDisplayName, &t.OpeningMessage, &t.CreatedAt, &t.UpdatedAt,
		&replies, &hiddenBy,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(replies, &t.Replies); err != nil {
		return nil, fmt.Errorf("decode replies of %s: %w", t.ID, err)
	}
	t.Replies = nonNilReplies(t.Replies)
	for i := range t.Replies {
		if t.Replies[i].HiddenBy == nil {
			t.Replies[i].HiddenBy = domain.NewIDSet()
		}
		if t.Replies[i].ImageURLs == nil {
			t.Replies[i].ImageURLs = []string{}
		}
	}
	t.HiddenBy = domain.ParseIDSet(hiddenBy)
	return &t, nil
}

func nonNilReplies(replies []domain.Reply) []domain.Reply {
	if replies == nil {
		return []domain.Reply{}
	}
	return replies
}

func affected(tag pgconn.CommandTag) error {
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
