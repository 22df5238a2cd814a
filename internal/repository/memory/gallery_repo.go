package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/vedran77/glamplanner/internal/domain"
	"github.com/vedran77/glamplanner/internal/repository"
)

type GalleryRepo struct {
	mu     sync.RWMutex
	images map[uuid.UUID]domain.GalleryImage
}

func NewGalleryRepo() *GalleryRepo {
	return &GalleryRepo{images: make(map[uuid.UUID]domain.GalleryImage)}
}

func (r *GalleryRepo) Create(_ context.Context, img *domain.GalleryImage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.images[img.ID] = *img
	return nil
}

func (r *GalleryRepo) List(_ context.Context) ([]domain.GalleryImage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.GalleryImage, 0, len(r.images))
	for _, img := range r.images {
		out = append(out, img)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *GalleryRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.images[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.images, id)
	return nil
}
