package domain

import (
	"time"

	"github.com/google/uuid"
)

type GalleryImage struct {
	ID        uuid.UUID `json:"id"`
	URL       string    `json:"url"`
	Desc      string    `json:"desc"`
	User      string    `json:"user"`
	CreatedAt time.Time `json:"created_at"`
}
