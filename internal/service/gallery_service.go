package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/glamplanner/internal/domain"
	"github.com/vedran77/glamplanner/internal/repository"
)

var ErrImageNotFound = errors.New("gallery image not found")

const defaultImageDesc = "Bez opisa."

type GalleryService struct {
	galleryRepo repository.GalleryRepository
}

func NewGalleryService(galleryRepo repository.GalleryRepository) *GalleryService {
	return &GalleryService{galleryRepo: galleryRepo}
}

type AddImageInput struct {
	URL  string `json:"url"`
	Desc string `json:"desc"`
	User string `json:"user"`
}

func (s *GalleryService) List(ctx context.Context) ([]domain.GalleryImage, error) {
	images, err := s.galleryRepo.List(ctx)
	if err != nil {
		return nil, storeErr("listing gallery", err)
	}
	if images == nil {
		images = []domain.GalleryImage{}
	}
	return images, nil
}

// Add stores a gallery entry. Blank desc gets the default caption and a blank
// user falls back to the caller's username.
func (s *GalleryService) Add(ctx context.Context, caller domain.Identity, input AddImageInput) (*domain.GalleryImage, error) {
	url := strings.TrimSpace(input.URL)
	if url == "" {
		return nil, fmt.Errorf("%w: url is required", ErrInvalidInput)
	}

	desc := strings.TrimSpace(input.Desc)
	if desc == "" {
		desc = defaultImageDesc
	}
	user := strings.TrimSpace(input.User)
	if user == "" {
		user = caller.Username
	}

	img := &domain.GalleryImage{
		ID:        uuid.New(),
		URL:       url,
		Desc:      desc,
		User:      user,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.galleryRepo.Create(ctx, img); err != nil {
		return nil, storeErr("adding gallery image", err)
	}
	return img, nil
}

func (s *GalleryService) Remove(ctx context.Context, id uuid.UUID) error {
	if err := s.galleryRepo.Delete(ctx, id); err != nil {
		return mutationErr("removing gallery image", err, ErrImageNotFound)
	}
	return nil
}
