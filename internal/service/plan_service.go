package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/glamplanner/internal/domain"
	"github.com/vedran77/glamplanner/internal/metrics"
	"github.com/vedran77/glamplanner/internal/repository"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrInvalidResponder = errors.New("responder does not exist or is not an admin")
	ErrPlanNotFound     = errors.New("plan thread not found")
	ErrReplyNotFound    = errors.New("reply not found")
	ErrForbidden        = errors.New("not allowed to act on this plan thread")
	ErrStoreUnavailable = errors.New("store unavailable")
)

// PlanService owns plan threads: a requester (role user) opens a thread to one
// responder (role admin), the responder appends replies and either side can
// hide the thread or a reply from their own view.
type PlanService struct {
	planRepo repository.PlanRepository
	userRepo repository.UserRepository
	now      func() time.Time
}

func NewPlanService(planRepo repository.PlanRepository, userRepo repository.UserRepository) *PlanService {
	return &PlanService{
		planRepo: planRepo,
		userRepo: userRepo,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// MaxMessageLength caps opening messages and replies, in bytes after trimming.
const MaxMessageLength = 5000

type CreatePlanInput struct {
	ResponderID string `json:"responder_id"`
	Message     string `json:"message"`
}

type AppendReplyInput struct {
	Message string `json:"message"`
	// ImageURLs is loosely typed so non-string entries can be dropped instead
	// of failing the whole request.
	ImageURLs []any `json:"image_urls"`
}

func (s *PlanService) Create(ctx context.Context, caller domain.Identity, input CreatePlanInput) (*domain.PlanThread, error) {
	if caller.Role != domain.RoleUser {
		return nil, ErrForbidden
	}

	responderID, err := uuid.Parse(strings.TrimSpace(input.ResponderID))
	if err != nil {
		return nil, ErrInvalidResponder
	}

	message, err := cleanMessage(input.Message)
	if err != nil {
		return nil, err
	}

	responder, err := s.userRepo.GetByID(ctx, responderID)
	if err != nil {
		return nil, storeErr("loading responder", err)
	}
	if responder == nil || responder.Role != domain.RoleAdmin {
		return nil, ErrInvalidResponder
	}

	now := s.now()
	thread := &domain.PlanThread{
		ID:                   uuid.New(),
		RequesterID:          caller.ID,
		ResponderID:          responder.ID,
		RequesterName:        caller.Username,
		ResponderUsername:    responder.Username,
		ResponderDisplayName: responder.DisplayName(),
		OpeningMessage:       message,
		CreatedAt:            now,
		UpdatedAt:            now,
		Replies:              []domain.Reply{},
		HiddenBy:             domain.NewIDSet(),
	}

	if err := s.planRepo.Create(ctx, thread); err != nil {
		return nil, storeErr("creating plan thread", err)
	}

	metrics.PlansCreated.Inc()
	return thread, nil
}

// ListForRequester returns the caller's threads newest first, minus the ones
// they hid. Replies the caller hid are left out of each thread.
func (s *PlanService) ListForRequester(ctx context.Context, caller domain.Identity) ([]domain.PlanThread, error) {
	threads, err := s.planRepo.ListByRequester(ctx, caller.ID)
	if err != nil {
		return nil, storeErr("listing requester threads", err)
	}
	return visible(threads, caller.ID), nil
}

func (s *PlanService) ListForResponder(ctx context.Context, caller domain.Identity) ([]domain.PlanThread, error) {
	threads, err := s.planRepo.ListByResponder(ctx, caller.ID)
	if err != nil {
		return nil, storeErr("listing responder threads", err)
	}
	return visible(threads, caller.ID), nil
}

// AppendReply adds a reply from the thread's designated responder. Any other
// caller, admin or not, is forbidden.
func (s *PlanService) AppendReply(ctx context.Context, caller domain.Identity, threadID uuid.UUID, input AppendReplyInput) (*domain.PlanThread, error) {
	if caller.Role != domain.RoleAdmin {
		return nil, ErrForbidden
	}

	message, err := cleanMessage(input.Message)
	if err != nil {
		return nil, err
	}

	thread, err := s.getThread(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if thread.ResponderID != caller.ID {
		return nil, ErrForbidden
	}

	now := s.now()
	reply := domain.Reply{
		ID:                uuid.New(),
		ResponderID:       caller.ID,
		ResponderUsername: caller.Username,
		Message:           message,
		ImageURLs:         filterImageURLs(input.ImageURLs),
		CreatedAt:         now,
		HiddenBy:          domain.NewIDSet(),
	}

	if err := s.planRepo.PushReply(ctx, threadID, reply, now); err != nil {
		return nil, mutationErr("appending reply", err, ErrPlanNotFound)
	}

	metrics.RepliesAppended.Inc()
	return s.getThread(ctx, threadID)
}

// HideThread removes the thread from the caller's own listing. The other
// participant still sees it. Hiding twice is a no-op.
func (s *PlanService) HideThread(ctx context.Context, caller domain.Identity, threadID uuid.UUID) (*domain.PlanThread, error) {
	thread, err := s.getThread(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if !thread.IsParticipant(caller.ID) {
		return nil, ErrForbidden
	}

	if err := s.planRepo.AddThreadHiddenBy(ctx, threadID, caller.ID, s.now()); err != nil {
		return nil, mutationErr("hiding plan thread", err, ErrPlanNotFound)
	}

	metrics.PlanHides.WithLabelValues("thread").Inc()
	return s.getThread(ctx, threadID)
}

// HideReply behaves by role. The responder removing a reply deletes it for
// both sides; the requester only hides it from their own view.
func (s *PlanService) HideReply(ctx context.Context, caller domain.Identity, threadID, replyID uuid.UUID) (*domain.PlanThread, error) {
	thread, err := s.getThread(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if !thread.IsParticipant(caller.ID) {
		return nil, ErrForbidden
	}
	if thread.FindReply(replyID) == nil {
		return nil, ErrReplyNotFound
	}

	now := s.now()
	switch caller.Role {
	case domain.RoleAdmin:
		if caller.ID != thread.ResponderID {
			return nil, ErrForbidden
		}
		if err := s.planRepo.PullReply(ctx, threadID, replyID, now); err != nil {
			return nil, mutationErr("removing reply", err, ErrPlanNotFound)
		}
		metrics.PlanHides.WithLabelValues("reply_removed").Inc()
	case domain.RoleUser:
		if caller.ID != thread.RequesterID {
			return nil, ErrForbidden
		}
		if err := s.planRepo.AddReplyHiddenBy(ctx, threadID, replyID, caller.ID, now); err != nil {
			return nil, mutationErr("hiding reply", err, ErrReplyNotFound)
		}
		metrics.PlanHides.WithLabelValues("reply_soft").Inc()
	default:
		return nil, ErrForbidden
	}

	return s.getThread(ctx, threadID)
}

// DeleteThread purges a thread. Only its responder may do this.
func (s *PlanService) DeleteThread(ctx context.Context, caller domain.Identity, threadID uuid.UUID) error {
	if caller.Role != domain.RoleAdmin {
		return ErrForbidden
	}

	thread, err := s.getThread(ctx, threadID)
	if err != nil {
		return err
	}
	if thread.ResponderID != caller.ID {
		return ErrForbidden
	}

	if err := s.planRepo.Delete(ctx, threadID); err != nil {
		return mutationErr("deleting plan thread", err, ErrPlanNotFound)
	}

	metrics.PlanDeletes.WithLabelValues("thread").Inc()
	return nil
}

// DeleteReply permanently removes a reply. Allowed for the admin who wrote it
// and for the thread's requester.
func (s *PlanService) DeleteReply(ctx context.Context, caller domain.Identity, threadID, replyID uuid.UUID) (*domain.PlanThread, error) {
	thread, err := s.getThread(ctx, threadID)
	if err != nil {
		return nil, err
	}

	reply := thread.FindReply(replyID)
	if reply == nil {
		return nil, ErrReplyNotFound
	}

	authorized := false
	switch caller.Role {
	case domain.RoleAdmin:
		authorized = reply.ResponderID == caller.ID
	case domain.RoleUser:
		authorized = thread.RequesterID == caller.ID
	}
	if !authorized {
		return nil, ErrForbidden
	}

	if err := s.planRepo.PullReply(ctx, threadID, replyID, s.now()); err != nil {
		return nil, mutationErr("deleting reply", err, ErrPlanNotFound)
	}

	metrics.PlanDeletes.WithLabelValues("reply").Inc()
	return s.getThread(ctx, threadID)
}

func (s *PlanService) getThread(ctx context.Context, id uuid.UUID) (*domain.PlanThread, error) {
	thread, err := s.planRepo.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("loading plan thread", err)
	}
	if thread == nil {
		return nil, ErrPlanNotFound
	}
	return thread, nil
}

func visible(threads []domain.PlanThread, viewer uuid.UUID) []domain.PlanThread {
	out := make([]domain.PlanThread, len(threads))
	for i, t := range threads {
		out[i] = t.VisibleTo(viewer)
	}
	return out
}

func cleanMessage(raw string) (string, error) {
	message := strings.TrimSpace(raw)
	if message == "" {
		return "", fmt.Errorf("%w: message is required", ErrInvalidInput)
	}
	if len(message) > MaxMessageLength {
		return "", fmt.Errorf("%w: message is longer than %d characters", ErrInvalidInput, MaxMessageLength)
	}
	return message, nil
}

// filterImageURLs keeps non-blank strings and silently drops everything else.
func filterImageURLs(raw []any) []string {
	urls := make([]string, 0, len(raw))
	for _, v := range raw {
		s, ok := v.(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		urls = append(urls, s)
	}
	return urls
}

func storeErr(action string, err error) error {
	return fmt.Errorf("%s: %w: %w", action, ErrStoreUnavailable, err)
}

// mutationErr maps a write that matched nothing (the thread or reply vanished
// after it was read) to notFound.
func mutationErr(action string, err, notFound error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return notFound
	}
	return storeErr(action, err)
}
