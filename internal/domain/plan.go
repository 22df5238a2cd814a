package domain

import (
	"time"

	"github.com/google/uuid"
)

// PlanThread is a conversation between one requester (role user) and one
// responder (role admin).
//
// RequesterName, ResponderUsername and ResponderDisplayName are snapshots taken
// when the thread is created. Later profile edits are not propagated; readers
// must treat them as possibly stale.
type PlanThread struct {
	ID                   uuid.UUID `json:"id"`
	RequesterID          uuid.UUID `json:"requester_id"`
	ResponderID          uuid.UUID `json:"responder_id"`
	RequesterName        string    `json:"requester_name"`
	ResponderUsername    string    `json:"responder_username"`
	ResponderDisplayName string    `json:"responder_display_name"`
	OpeningMessage       string    `json:"opening_message"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
	Replies              []Reply   `json:"replies"`
	HiddenBy             IDSet     `json:"hidden_by"`
}

// Reply is one responder message. Replies are append-only and never edited.
type Reply struct {
	ID                uuid.UUID `json:"id"`
	ResponderID       uuid.UUID `json:"responder_id"`
	ResponderUsername string    `json:"responder_username"`
	Message           string    `json:"message"`
	ImageURLs         []string  `json:"image_urls"`
	CreatedAt         time.Time `json:"created_at"`
	HiddenBy          IDSet     `json:"hidden_by"`
}

func (t *PlanThread) IsParticipant(id uuid.UUID) bool {
	return t.RequesterID == id || t.ResponderID == id
}

// FindReply returns the reply with the given id, or nil.
func (t *PlanThread) FindReply(id uuid.UUID) *Reply {
	for i := range t.Replies {
		if t.Replies[i].ID == id {
			return &t.Replies[i]
		}
	}
	return nil
}

// VisibleTo returns a copy of the thread without the replies viewer has hidden.
func (t PlanThread) VisibleTo(viewer uuid.UUID) PlanThread {
	replies := make([]Reply, 0, len(t.Replies))
	for _, r := range t.Replies {
		if r.HiddenBy.Has(viewer) {
			continue
		}
		replies = append(replies, r)
	}
	t.Replies = replies
	return t
}
