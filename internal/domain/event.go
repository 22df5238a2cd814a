package domain

import (
	"time"

	"github.com/google/uuid"
)

type Event struct {
	ID               uuid.UUID `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	ImageURL         string    `json:"image_url"`
	ContentImageURLs []string  `json:"content_image_urls"`
	CreatedBy        uuid.UUID `json:"created_by"`
	CreatedAt        time.Time `json:"created_at"`
}

// EventPatch carries the optional fields of an event update. Nil/empty means unchanged.
type EventPatch struct {
	Title            *string
	Description      *string
	ImageURL         *string
	NewContentImages []string
}
