package memory

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/vedran77/glamplanner/internal/domain"
	"github.com/vedran77/glamplanner/internal/repository"
)

type EventRepo struct {
	mu     sync.RWMutex
	events map[uuid.UUID]domain.Event
}

func NewEventRepo() *EventRepo {
	return &EventRepo{events: make(map[uuid.UUID]domain.Event)}
}

func (r *EventRepo) Create(_ context.Context, event *domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := *event
	e.ContentImageURLs = slices.Clone(e.ContentImageURLs)
	r.events[e.ID] = e
	return nil
}

func (r *EventRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.events[id]
	if !ok {
		return nil, nil
	}
	e.ContentImageURLs = slices.Clone(e.ContentImageURLs)
	return &e, nil
}

func (r *EventRepo) List(_ context.Context) ([]domain.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Event, 0, len(r.events))
	for _, e := range r.events {
		e.ContentImageURLs = slices.Clone(e.ContentImageURLs)
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *EventRepo) Update(_ context.Context, id uuid.UUID, patch domain.EventPatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[id]
	if !ok {
		return repository.ErrNotFound
	}
	if patch.Title != nil {
		e.Title = *patch.Title
	}
	if patch.Description != nil {
		e.Description = *patch.Description
	}
	if patch.ImageURL != nil {
		e.ImageURL = *patch.ImageURL
	}
	urls := slices.Clone(e.ContentImageURLs)
	for _, u := range patch.NewContentImages {
		if !slices.Contains(urls, u) {
			urls = append(urls, u)
		}
	}
	e.ContentImageURLs = urls
	r.events[id] = e
	return nil
}

func (r *EventRepo) PullContentImage(_ context.Context, id uuid.UUID, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[id]
	if !ok {
		return repository.ErrNotFound
	}
	e.ContentImageURLs = slices.DeleteFunc(slices.Clone(e.ContentImageURLs), func(u string) bool { return u == url })
	r.events[id] = e
	return nil
}

func (r *EventRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.events, id)
	return nil
}
