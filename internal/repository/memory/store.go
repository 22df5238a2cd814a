// Package memory keeps documents in process memory. A single mutex per
// collection gives the same per-document atomicity the database backends have.
package memory

import (
	"context"

	"github.com/vedran77/glamplanner/internal/repository"
)

func NewStore() *repository.Store {
	return &repository.Store{
		Users:   NewUserRepo(),
		Plans:   NewPlanRepo(),
		Gallery: NewGalleryRepo(),
		Events:  NewEventRepo(),
		Ping:    func(context.Context) error { return nil },
		Close:   func() {},
	}
}
