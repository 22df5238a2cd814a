package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/glamplanner/internal/domain"
)

// ErrNotFound is returned by mutations whose target document does not exist.
// Lookups return (nil, nil) instead.
var ErrNotFound = errors.New("document not found")

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error)
}

// PlanRepository persists one document per thread with replies embedded. Every
// mutation targets a single thread and is atomic on its own.
type PlanRepository interface {
	Create(ctx context.Context, thread *domain.PlanThread) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.PlanThread, error)
	// ListByRequester and ListByResponder return newest first and skip threads
	// whose hidden_by contains the participant.
	ListByRequester(ctx context.Context, requesterID uuid.UUID) ([]domain.PlanThread, error)
	ListByResponder(ctx context.Context, responderID uuid.UUID) ([]domain.PlanThread, error)
	PushReply(ctx context.Context, threadID uuid.UUID, reply domain.Reply, at time.Time) error
	PullReply(ctx context.Context, threadID, replyID uuid.UUID, at time.Time) error
	AddThreadHiddenBy(ctx context.Context, threadID, actorID uuid.UUID, at time.Time) error
	AddReplyHiddenBy(ctx context.Context, threadID, replyID, actorID uuid.UUID, at time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type GalleryRepository interface {
	Create(ctx context.Context, img *domain.GalleryImage) error
	List(ctx context.Context) ([]domain.GalleryImage, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type EventRepository interface {
	Create(ctx context.Context, event *domain.Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Event, error)
	List(ctx context.Context) ([]domain.Event, error)
	Update(ctx context.Context, id uuid.UUID, patch domain.EventPatch) error
	PullContentImage(ctx context.Context, id uuid.UUID, url string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Store bundles one backend's repositories.
type Store struct {
	Users   UserRepository
	Plans   PlanRepository
	Gallery GalleryRepository
	Events  EventRepository
	Ping    func(ctx context.Context) error
	Close   func()
}
