package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/glamplanner/internal/domain"
	"github.com/vedran77/glamplanner/internal/repository"
)

type PlanRepo struct {
	mu      sync.RWMutex
	threads map[uuid.UUID]domain.PlanThread
}

func NewPlanRepo() *PlanRepo {
	return &PlanRepo{threads: make(map[uuid.UUID]domain.PlanThread)}
}

func (r *PlanRepo) Create(_ context.Context, thread *domain.PlanThread) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.threads[thread.ID] = cloneThread(*thread)
	return nil
}

func (r *PlanRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.PlanThread, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.threads[id]
	if !ok {
		return nil, nil
	}
	t = cloneThread(t)
	return &t, nil
}

func (r *PlanRepo) ListByRequester(_ context.Context, requesterID uuid.UUID) ([]domain.PlanThread, error) {
	return r.list(func(t domain.PlanThread) bool {
		return t.RequesterID == requesterID && !t.HiddenBy.Has(requesterID)
	}), nil
}

func (r *PlanRepo) ListByResponder(_ context.Context, responderID uuid.UUID) ([]domain.PlanThread, error) {
	return r.list(func(t domain.PlanThread) bool {
		return t.ResponderID == responderID && !t.HiddenBy.Has(responderID)
	}), nil
}

func (r *PlanRepo) PushReply(_ context.Context, threadID uuid.UUID, reply domain.Reply, at time.Time) error {
	return r.update(threadID, func(t *domain.PlanThread) error {
		t.Replies = append(t.Replies, cloneReply(reply))
		t.UpdatedAt = at
		return nil
	})
}

func (r *PlanRepo) PullReply(_ context.Context, threadID, replyID uuid.UUID, at time.Time) error {
	return r.update(threadID, func(t *domain.PlanThread) error {
		t.Replies = slices.DeleteFunc(t.Replies, func(rep domain.Reply) bool { return rep.ID == replyID })
		t.UpdatedAt = at
		return nil
	})
}

func (r *PlanRepo) AddThreadHiddenBy(_ context.Context, threadID, actorID uuid.UUID, at time.Time) error {
	return r.update(threadID, func(t *domain.PlanThread) error {
		t.HiddenBy.Add(actorID)
		t.UpdatedAt = at
		return nil
	})
}

func (r *PlanRepo) AddReplyHiddenBy(_ context.Context, threadID, replyID, actorID uuid.UUID, at time.Time) error {
	return r.update(threadID, func(t *domain.PlanThread) error {
		reply := t.FindReply(replyID)
		if reply == nil {
			return repository.ErrNotFound
		}
		reply.HiddenBy.Add(actorID)
		t.UpdatedAt = at
		return nil
	})
}

func (r *PlanRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.threads[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.threads, id)
	return nil
}

func (r *PlanRepo) update(id uuid.UUID, fn func(t *domain.PlanThread) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.threads[id]
	if !ok {
		return repository.ErrNotFound
	}
	t = cloneThread(t)
	if err := fn(&t); err != nil {
		return err
	}
	r.threads[id] = t
	return nil
}

func (r *PlanRepo) list(match func(domain.PlanThread) bool) []domain.PlanThread {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.PlanThread
	for _, t := range r.threads {
		if match(t) {
			out = append(out, cloneThread(t))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func cloneThread(t domain.PlanThread) domain.PlanThread {
	t.HiddenBy = t.HiddenBy.Clone()
	replies := make([]domain.Reply, len(t.Replies))
	for i, r := range t.Replies {
		replies[i] = cloneReply(r)
	}
	t.Replies = replies
	return t
}

func cloneReply(r domain.Reply) domain.Reply {
	r.HiddenBy = r.HiddenBy.Clone()
	r.ImageURLs = slices.Clone(r.ImageURLs)
	if r.ImageURLs == nil {
		r.ImageURLs = []string{}
	}
	return r
}
