// Package mongo stores every aggregate as a single document. IDs are kept as
// uuid strings so they stay URL-safe and identical across backends.
package mongo

import (
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/glamplanner/internal/domain"
)

type userDoc struct {
	ID           string    `bson:"_id"`
	Email        string    `bson:"email"`
	Username     string    `bson:"username"`
	FirstName    string    `bson:"first_name"`
	LastName     string    `bson:"last_name"`
	PasswordHash string    `bson:"password_hash"`
	Role         string    `bson:"role"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

type planDoc struct {
	ID                   string     `bson:"_id"`
	RequesterID          string     `bson:"requester_id"`
	ResponderID          string     `bson:"responder_id"`
	RequesterName        string     `bson:"requester_name"`
	ResponderUsername    string     `bson:"responder_username"`
	ResponderDisplayName string     `bson:"responder_display_name"`
	OpeningMessage       string     `bson:"opening_message"`
	CreatedAt            time.Time  `bson:"created_at"`
	UpdatedAt            time.Time  `bson:"updated_at"`
	Replies              []replyDoc `bson:"replies"`
	HiddenBy             []string   `bson:"hidden_by"`
}

type replyDoc struct {
	ID                string    `bson:"_id"`
	ResponderID       string    `bson:"responder_id"`
	ResponderUsername string    `bson:"responder_username"`
	Message           string    `bson:"message"`
	ImageURLs         []string  `bson:"image_urls"`
	CreatedAt         time.Time `bson:"created_at"`
	HiddenBy          []string  `bson:"hidden_by"`
}

type galleryDoc struct {
	ID        string    `bson:"_id"`
	URL       string    `bson:"url"`
	Desc      string    `bson:"desc"`
	User      string    `bson:"user"`
	CreatedAt time.Time `bson:"created_at"`
}

type eventDoc struct {
	ID               string    `bson:"_id"`
	Title            string    `bson:"title"`
	Description      string    `bson:"description"`
	ImageURL         string    `bson:"image_url"`
	ContentImageURLs []string  `bson:"content_image_urls"`
	CreatedBy        string    `bson:"created_by"`
	CreatedAt        time.Time `bson:"created_at"`
}

func toUserDoc(u *domain.User) userDoc {
	return userDoc{
		ID:           u.ID.String(),
		Email:        u.Email,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		PasswordHash: u.PasswordHash,
		Role:         u.Role.String(),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (d userDoc) toDomain() (domain.User, error) {
	role, err := domain.ParseRole(d.Role)
	if err != nil {
		return domain.User{}, err
	}
	return domain.User{
		ID:           uuid.MustParse(d.ID),
		Email:        d.Email,
		Username:     d.Username,
		FirstName:    d.FirstName,
		LastName:     d.LastName,
		PasswordHash: d.PasswordHash,
		Role:         role,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}, nil
}

func toPlanDoc(t *domain.PlanThread) planDoc {
	replies := make([]replyDoc, len(t.Replies))
	for i := range t.Replies {
		replies[i] = toReplyDoc(t.Replies[i])
	}
	return planDoc{
		ID:                   t.ID.String(),
		RequesterID:          t.RequesterID.String(),
		ResponderID:          t.ResponderID.String(),
		RequesterName:        t.RequesterName,
		ResponderUsername:    t.ResponderUsername,
		ResponderDisplayName: t.ResponderDisplayName,
		OpeningMessage:       t.OpeningMessage,
		CreatedAt:            t.CreatedAt,
		UpdatedAt:            t.UpdatedAt,
		Replies:              replies,
		HiddenBy:             t.HiddenBy.Strings(),
	}
}

func toReplyDoc(r domain.Reply) replyDoc {
	urls := r.ImageURLs
	if urls == nil {
		urls = []string{}
	}
	return replyDoc{
		ID:                r.ID.String(),
		ResponderID:       r.ResponderID.String(),
		ResponderUsername: r.ResponderUsername,
		Message:           r.Message,
		ImageURLs:         urls,
		CreatedAt:         r.CreatedAt,
		HiddenBy:          r.HiddenBy.Strings(),
	}
}

func (d planDoc) toDomain() domain.PlanThread {
	replies := make([]domain.Reply, len(d.Replies))
	for i, r := range d.Replies {
		urls := r.ImageURLs
		if urls == nil {
			urls = []string{}
		}
		replies[i] = domain.Reply{
			ID:                uuid.MustParse(r.ID),
			ResponderID:       uuid.MustParse(r.ResponderID),
			ResponderUsername: r.ResponderUsername,
			Message:           r.Message,
			ImageURLs:         urls,
			CreatedAt:         r.CreatedAt,
			HiddenBy:          domain.ParseIDSet(r.HiddenBy),
		}
	}
	return domain.PlanThread{
		ID:                   uuid.MustParse(d.ID),
		RequesterID:          uuid.MustParse(d.RequesterID),
		ResponderID:          uuid.MustParse(d.ResponderID),
		RequesterName:        d.RequesterName,
		ResponderUsername:    d.ResponderUsername,
		ResponderDisplayName: d.ResponderDisplayName,
		OpeningMessage:       d.OpeningMessage,
		CreatedAt:            d.CreatedAt,
		UpdatedAt:            d.UpdatedAt,
		Replies:              replies,
		HiddenBy:             domain.ParseIDSet(d.HiddenBy),
	}
}

func (d eventDoc) toDomain() domain.Event {
	urls := d.ContentImageURLs
	if urls == nil {
		urls = []string{}
	}
	return domain.Event{
		ID:               uuid.MustParse(d.ID),
		Title:            d.Title,
		Description:      d.Description,
		ImageURL:         d.ImageURL,
		ContentImageURLs: urls,
		CreatedBy:        uuid.MustParse(d.CreatedBy),
		CreatedAt:        d.CreatedAt,
	}
}
