// Package repotest holds behaviour checks every repository backend must pass.
// Each check creates its own ids so it can run against a shared database.
package repotest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vedran77/glamplanner/internal/domain"
	"github.com/vedran77/glamplanner/internal/repository"
)

// Mongo keeps milliseconds, so fixtures never carry finer precision.
func stamp(offset time.Duration) time.Time {
	return time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC).Add(offset)
}

func RunAll(t *testing.T, store *repository.Store) {
	t.Run("users", func(t *testing.T) { RunUsers(t, store.Users) })
	t.Run("plans", func(t *testing.T) { RunPlans(t, store.Plans) })
	t.Run("gallery", func(t *testing.T) { RunGallery(t, store.Gallery) })
	t.Run("events", func(t *testing.T) { RunEvents(t, store.Events) })
	t.Run("ping", func(t *testing.T) { require.NoError(t, store.Ping(context.Background())) })
}

func RunUsers(t *testing.T, repo repository.UserRepository) {
	ctx := context.Background()
	suffix := uuid.NewString()[:8]

	admin := &domain.User{
		ID:           uuid.New(),
		Email:        "Mia." + suffix + "@Example.com",
		Username:     "mia_" + suffix,
		FirstName:    "Mia",
		LastName:     "Horvat",
		PasswordHash: "salt:hash",
		Role:         domain.RoleAdmin,
		CreatedAt:    stamp(0),
		UpdatedAt:    stamp(0),
	}
	require.NoError(t, repo.Create(ctx, admin))

	byID, err := repo.GetByID(ctx, admin.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, admin.Username, byID.Username)
	assert.Equal(t, domain.RoleAdmin, byID.Role)
	assert.Equal(t, "salt:hash", byID.PasswordHash)

	byEmail, err := repo.GetByEmail(ctx, "mia."+suffix+"@example.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail, "email lookup is case-insensitive")
	assert.Equal(t, admin.ID, byEmail.ID)

	byUsername, err := repo.GetByUsername(ctx, admin.Username)
	require.NoError(t, err)
	require.NotNil(t, byUsername)

	missing, err := repo.GetByID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)

	missing, err = repo.GetByUsername(ctx, "nobody_"+suffix)
	require.NoError(t, err)
	assert.Nil(t, missing)

	admins, err := repo.ListByRole(ctx, domain.RoleAdmin)
	require.NoError(t, err)
	found := false
	for _, u := range admins {
		assert.Equal(t, domain.RoleAdmin, u.Role)
		found = found || u.ID == admin.ID
	}
	assert.True(t, found)

	dup := *admin
	dup.ID = uuid.New()
	assert.Error(t, repo.Create(ctx, &dup), "username must be unique")
}

func newThread(requester, responder uuid.UUID, at time.Time) *domain.PlanThread {
	return &domain.PlanThread{
		ID:                   uuid.New(),
		RequesterID:          requester,
		ResponderID:          responder,
		RequesterName:        "ana",
		ResponderUsername:    "mia",
		ResponderDisplayName: "Mia Horvat",
		OpeningMessage:       "Need a quote",
		CreatedAt:            at,
		UpdatedAt:            at,
		Replies:              []domain.Reply{},
		HiddenBy:             domain.NewIDSet(),
	}
}

func newReply(responder uuid.UUID, message string, at time.Time) domain.Reply {
	return domain.Reply{
		ID:                uuid.New(),
		ResponderID:       responder,
		ResponderUsername: "mia",
		Message:           message,
		ImageURLs:         []string{"http://x/1.png"},
		CreatedAt:         at,
		HiddenBy:          domain.NewIDSet(),
	}
}

func RunPlans(t *testing.T, repo repository.PlanRepository) {
	ctx := context.Background()
	requester, responder := uuid.New(), uuid.New()

	older := newThread(requester, responder, stamp(0))
	newer := newThread(requester, responder, stamp(time.Minute))
	require.NoError(t, repo.Create(ctx, older))
	require.NoError(t, repo.Create(ctx, newer))

	got, err := repo.GetByID(ctx, older.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, older.OpeningMessage, got.OpeningMessage)
	assert.True(t, older.CreatedAt.Equal(got.CreatedAt))
	assert.NotNil(t, got.Replies)
	assert.NotNil(t, got.HiddenBy)
	assert.Empty(t, got.Replies)

	missing, err := repo.GetByID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)

	list, err := repo.ListByRequester(ctx, requester)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID, "newest first")

	// replies
	first := newReply(responder, "one", stamp(2*time.Minute))
	second := newReply(responder, "two", stamp(3*time.Minute))
	require.NoError(t, repo.PushReply(ctx, older.ID, first, first.CreatedAt))
	require.NoError(t, repo.PushReply(ctx, older.ID, second, second.CreatedAt))

	got, err = repo.GetByID(ctx, older.ID)
	require.NoError(t, err)
	require.Len(t, got.Replies, 2)
	assert.Equal(t, first.ID, got.Replies[0].ID)
	assert.Equal(t, second.ID, got.Replies[1].ID)
	assert.Equal(t, []string{"http://x/1.png"}, got.Replies[0].ImageURLs)
	assert.True(t, second.CreatedAt.Equal(got.UpdatedAt))

	// reply soft-hide is idempotent
	require.NoError(t, repo.AddReplyHiddenBy(ctx, older.ID, first.ID, requester, stamp(4*time.Minute)))
	require.NoError(t, repo.AddReplyHiddenBy(ctx, older.ID, first.ID, requester, stamp(5*time.Minute)))
	got, err = repo.GetByID(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{requester}, got.Replies[0].HiddenBy.Slice())
	assert.Empty(t, got.Replies[1].HiddenBy)
	assert.True(t, stamp(5*time.Minute).Equal(got.UpdatedAt))

	// pull
	require.NoError(t, repo.PullReply(ctx, older.ID, first.ID, stamp(6*time.Minute)))
	got, err = repo.GetByID(ctx, older.ID)
	require.NoError(t, err)
	require.Len(t, got.Replies, 1)
	assert.Equal(t, second.ID, got.Replies[0].ID)

	// thread hide is idempotent and per participant
	require.NoError(t, repo.AddThreadHiddenBy(ctx, older.ID, requester, stamp(7*time.Minute)))
	require.NoError(t, repo.AddThreadHiddenBy(ctx, older.ID, requester, stamp(8*time.Minute)))
	got, err = repo.GetByID(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{requester}, got.HiddenBy.Slice())

	list, err = repo.ListByRequester(ctx, requester)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, newer.ID, list[0].ID)

	list, err = repo.ListByResponder(ctx, responder)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	// missing targets
	assert.ErrorIs(t, repo.PushReply(ctx, uuid.New(), first, stamp(0)), repository.ErrNotFound)
	assert.ErrorIs(t, repo.AddThreadHiddenBy(ctx, uuid.New(), requester, stamp(0)), repository.ErrNotFound)
	assert.ErrorIs(t, repo.AddReplyHiddenBy(ctx, older.ID, uuid.New(), requester, stamp(0)), repository.ErrNotFound)

	require.NoError(t, repo.Delete(ctx, older.ID))
	assert.ErrorIs(t, repo.Delete(ctx, older.ID), repository.ErrNotFound)
	require.NoError(t, repo.Delete(ctx, newer.ID))
}

func RunGallery(t *testing.T, repo repository.GalleryRepository) {
	ctx := context.Background()
	img := &domain.GalleryImage{
		ID:        uuid.New(),
		URL:       "http://img/1.png",
		Desc:      "Bez opisa.",
		User:      "ana",
		CreatedAt: stamp(time.Hour),
	}
	require.NoError(t, repo.Create(ctx, img))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	found := false
	for i := range list {
		if list[i].ID == img.ID {
			found = true
			assert.Equal(t, img.Desc, list[i].Desc)
			assert.Equal(t, img.User, list[i].User)
		}
		if i > 0 {
			assert.False(t, list[i].CreatedAt.After(list[i-1].CreatedAt))
		}
	}
	assert.True(t, found)

	require.NoError(t, repo.Delete(ctx, img.ID))
	assert.ErrorIs(t, repo.Delete(ctx, img.ID), repository.ErrNotFound)
}

func RunEvents(t *testing.T, repo repository.EventRepository) {
	ctx := context.Background()
	event := &domain.Event{
		ID:               uuid.New(),
		Title:            "Masterclass",
		Description:      "Bridal makeup",
		ImageURL:         "http://img/cover.png",
		ContentImageURLs: []string{"http://img/a.png"},
		CreatedBy:        uuid.New(),
		CreatedAt:        stamp(2 * time.Hour),
	}
	require.NoError(t, repo.Create(ctx, event))

	title := "Masterclass II"
	require.NoError(t, repo.Update(ctx, event.ID, domain.EventPatch{
		Title:            &title,
		NewContentImages: []string{"http://img/a.png", "http://img/b.png"},
	}))

	got, err := repo.GetByID(ctx, event.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Masterclass II", got.Title)
	assert.Equal(t, "Bridal makeup", got.Description)
	assert.Equal(t, []string{"http://img/a.png", "http://img/b.png"}, got.ContentImageURLs)

	require.NoError(t, repo.Update(ctx, event.ID, domain.EventPatch{}))

	require.NoError(t, repo.PullContentImage(ctx, event.ID, "http://img/a.png"))
	got, err = repo.GetByID(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"http://img/b.png"}, got.ContentImageURLs)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, list)

	missing := uuid.New()
	assert.ErrorIs(t, repo.Update(ctx, missing, domain.EventPatch{Title: &title}), repository.ErrNotFound)
	assert.ErrorIs(t, repo.Update(ctx, missing, domain.EventPatch{}), repository.ErrNotFound)
	assert.ErrorIs(t, repo.PullContentImage(ctx, missing, "x"), repository.ErrNotFound)

	require.NoError(t, repo.Delete(ctx, event.ID))
	assert.ErrorIs(t, repo.Delete(ctx, event.ID), repository.ErrNotFound)

	gone, err := repo.GetByID(ctx, event.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}
