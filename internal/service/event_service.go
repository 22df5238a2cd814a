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

var ErrEventNotFound = errors.New("event not found")

type EventService struct {
	eventRepo repository.EventRepository
}

func NewEventService(eventRepo repository.EventRepository) *EventService {
	return &EventService{eventRepo: eventRepo}
}

type CreateEventInput struct {
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	ImageURL         string   `json:"image_url"`
	ContentImageURLs []string `json:"content_image_urls"`
}

// UpdateEventInput only touches fields that are present and non-blank.
type UpdateEventInput struct {
	Title            *string  `json:"title"`
	Description      *string  `json:"description"`
	ImageURL         *string  `json:"image_url"`
	NewContentImages []string `json:"new_content_images"`
}

func (s *EventService) Create(ctx context.Context, caller domain.Identity, input CreateEventInput) (*domain.Event, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	imageURL := strings.TrimSpace(input.ImageURL)
	if title == "" || description == "" || imageURL == "" {
		return nil, fmt.Errorf("%w: title, description and image_url are required", ErrInvalidInput)
	}

	event := &domain.Event{
		ID:               uuid.New(),
		Title:            title,
		Description:      description,
		ImageURL:         imageURL,
		ContentImageURLs: nonBlank(input.ContentImageURLs),
		CreatedBy:        caller.ID,
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, storeErr("creating event", err)
	}
	return event, nil
}

func (s *EventService) List(ctx context.Context) ([]domain.Event, error) {
	events, err := s.eventRepo.List(ctx)
	if err != nil {
		return nil, storeErr("listing events", err)
	}
	if events == nil {
		events = []domain.Event{}
	}
	return events, nil
}

func (s *EventService) Get(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("loading event", err)
	}
	if event == nil {
		return nil, ErrEventNotFound
	}
	return event, nil
}

func (s *EventService) Update(ctx context.Context, id uuid.UUID, input UpdateEventInput) (*domain.Event, error) {
	patch := domain.EventPatch{
		Title:            presentOrNil(input.Title),
		Description:      presentOrNil(input.Description),
		ImageURL:         presentOrNil(input.ImageURL),
		NewContentImages: nonBlank(input.NewContentImages),
	}
	if err := s.eventRepo.Update(ctx, id, patch); err != nil {
		return nil, mutationErr("updating event", err, ErrEventNotFound)
	}
	return s.Get(ctx, id)
}

func (s *EventService) RemoveContentImage(ctx context.Context, id uuid.UUID, url string) (*domain.Event, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, fmt.Errorf("%w: image_url is required", ErrInvalidInput)
	}
	if err := s.eventRepo.PullContentImage(ctx, id, url); err != nil {
		return nil, mutationErr("removing event image", err, ErrEventNotFound)
	}
	return s.Get(ctx, id)
}

func (s *EventService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.eventRepo.Delete(ctx, id); err != nil {
		return mutationErr("deleting event", err, ErrEventNotFound)
	}
	return nil
}

func presentOrNil(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func nonBlank(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
