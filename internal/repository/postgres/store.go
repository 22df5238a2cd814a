package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vedran77/glamplanner/internal/repository"
)

func NewStore(pool *pgxpool.Pool) *repository.Store {
	return &repository.Store{
		Users:   NewUserRepo(pool),
		Plans:   NewPlanRepo(pool),
		Gallery: NewGalleryRepo(pool),
		Events:  NewEventRepo(pool),
		Ping:    func(ctx context.Context) error { return pool.Ping(ctx) },
		Close:   pool.Close,
	}
}
