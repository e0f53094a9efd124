package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"beatbox/internal/models"
	"beatbox/internal/notifications"
	"beatbox/internal/pagination"
	"beatbox/internal/permission"
	"beatbox/internal/serializer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// suggestionRepoStub is a stub for repository.SuggestionRepository.
type suggestionRepoStub struct {
	createFn     func(context.Context, *models.Suggestion) error
	getByIDFn    func(context.Context, uint, uint) (*models.Suggestion, error)
	listWindowFn func(context.Context, uint, pagination.Window) ([]*models.Suggestion, error)
	updateFn     func(context.Context, *models.Suggestion) error
	deleteFn     func(context.Context, uint) (bool, error)
	likeFn       func(context.Context, uint, uint) (bool, error)
	unlikeFn     func(context.Context, uint, uint) (bool, error)
}

func (s *suggestionRepoStub) Create(ctx context.Context, sg *models.Suggestion) error {
	return s.createFn(ctx, sg)
}
func (s *suggestionRepoStub) GetByID(ctx context.Context, id, currentUserID uint) (*models.Suggestion, error) {
	return s.getByIDFn(ctx, id, currentUserID)
}
func (s *suggestionRepoStub) ListWindow(ctx context.Context, currentUserID uint, w pagination.Window) ([]*models.Suggestion, error) {
	return s.listWindowFn(ctx, currentUserID, w)
}
func (s *suggestionRepoStub) Update(ctx context.Context, sg *models.Suggestion) error {
	return s.updateFn(ctx, sg)
}
func (s *suggestionRepoStub) Delete(ctx context.Context, id uint) (bool, error) {
	return s.deleteFn(ctx, id)
}
func (s *suggestionRepoStub) Like(ctx context.Context, userID, suggestionID uint) (bool, error) {
	return s.likeFn(ctx, userID, suggestionID)
}
func (s *suggestionRepoStub) Unlike(ctx context.Context, userID, suggestionID uint) (bool, error) {
	return s.unlikeFn(ctx, userID, suggestionID)
}

func noopSuggestionRepo() *suggestionRepoStub {
	return &suggestionRepoStub{
		createFn: func(_ context.Context, _ *models.Suggestion) error { return nil },
		getByIDFn: func(_ context.Context, id, _ uint) (*models.Suggestion, error) {
			return &models.Suggestion{ID: id, AuthorID: 1}, nil
		},
		listWindowFn: func(_ context.Context, _ uint, _ pagination.Window) ([]*models.Suggestion, error) { return nil, nil },
		updateFn:     func(_ context.Context, _ *models.Suggestion) error { return nil },
		deleteFn:     func(_ context.Context, _ uint) (bool, error) { return true, nil },
		likeFn:       func(_ context.Context, _, _ uint) (bool, error) { return true, nil },
		unlikeFn:     func(_ context.Context, _, _ uint) (bool, error) { return true, nil },
	}
}

type eventRecorder struct {
	events []notifications.Event
	err    error
}

func (r *eventRecorder) PublishEvent(_ context.Context, ev notifications.Event) error {
	r.events = append(r.events, ev)
	return r.err
}

func newTestService(t *testing.T, repo *suggestionRepoStub, events EventPublisher) *SuggestionService {
	t.Helper()
	p, err := pagination.NewWithSize("test-salt", 2)
	require.NoError(t, err)
	svc := NewSuggestionService(repo, p, events)
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func assertAppErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T", err)
	assert.Equal(t, code, appErr.Code)
}

func ptr[T any](v T) *T { return &v }

func TestSuggestionService_RequiresAuthentication(t *testing.T) {
	svc := newTestService(t, noopSuggestionRepo(), nil)
	ctx := context.Background()

	_, err := svc.List(ctx, 0, "")
	assertAppErrorCode(t, err, "UNAUTHORIZED")
	_, err = svc.Get(ctx, 0, 1)
	assertAppErrorCode(t, err, "UNAUTHORIZED")
	_, err = svc.Create(ctx, 0, serializer.Patch{})
	assertAppErrorCode(t, err, "UNAUTHORIZED")
	_, err = svc.Update(ctx, 0, 1, permission.OpUpdate, serializer.Patch{})
	assertAppErrorCode(t, err, "UNAUTHORIZED")
	assertAppErrorCode(t, svc.Delete(ctx, 0, 1), "UNAUTHORIZED")
	_, err = svc.Like(ctx, 0, 1)
	assertAppErrorCode(t, err, "UNAUTHORIZED")
	_, err = svc.Unlike(ctx, 0, 1)
	assertAppErrorCode(t, err, "UNAUTHORIZED")
}

func TestSuggestionService_CreateSetsAuthorAndPublishes(t *testing.T) {
	repo := noopSuggestionRepo()
	var stored *models.Suggestion
	repo.createFn = func(_ context.Context, sg *models.Suggestion) error {
		sg.ID = 42
		stored = sg
		return nil
	}
	repo.getByIDFn = func(_ context.Context, id, _ uint) (*models.Suggestion, error) {
		cp := *stored
		cp.ID = id
		return &cp, nil
	}
	events := &eventRecorder{}
	svc := newTestService(t, repo, events)

	got, err := svc.Create(context.Background(), 7, serializer.Patch{
		Title:       ptr("More drums"),
		Description: ptr("Louder."),
	})
	require.NoError(t, err)
	assert.Equal(t, uint(42), got.ID)
	assert.Equal(t, uint(7), got.AuthorID)
	assert.Equal(t, models.SuggestionOpen, got.State)
	assert.Equal(t, svc.now(), got.CreatedAt)

	require.Len(t, events.events, 1)
	assert.Equal(t, notifications.EventSuggestionCreated, events.events[0].Type)
	assert.Equal(t, uint(42), events.events[0].SuggestionID)
	assert.Equal(t, uint(7), events.events[0].ActorID)
}

func TestSuggestionService_CreateRepoError(t *testing.T) {
	repo := noopSuggestionRepo()
	repo.createFn = func(_ context.Context, _ *models.Suggestion) error { return errors.New("db down") }
	events := &eventRecorder{}
	svc := newTestService(t, repo, events)

	_, err := svc.Create(context.Background(), 7, serializer.Patch{Title: ptr("t"), Description: ptr("d")})
	assertAppErrorCode(t, err, "INTERNAL_ERROR")
	assert.Empty(t, events.events)
}

func TestSuggestionService_GetNotFound(t *testing.T) {
	repo := noopSuggestionRepo()
	repo.getByIDFn = func(_ context.Context, _, _ uint) (*models.Suggestion, error) { return nil, gorm.ErrRecordNotFound }
	svc := newTestService(t, repo, nil)

	_, err := svc.Get(context.Background(), 1, 99)
	assertAppErrorCode(t, err, "NOT_FOUND")
}

func TestSuggestionService_UpdateOwnership(t *testing.T) {
	tests := []struct {
		name     string
		userID   uint
		op       permission.Operation
		wantCode string
	}{
		{name: "owner put", userID: 1, op: permission.OpUpdate},
		{name: "owner patch", userID: 1, op: permission.OpPartialUpdate},
		{name: "other user put", userID: 2, op: permission.OpUpdate, wantCode: "PERMISSION_DENIED"},
		{name: "other user patch", userID: 2, op: permission.OpPartialUpdate, wantCode: "PERMISSION_DENIED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := noopSuggestionRepo()
			var saved *models.Suggestion
			repo.updateFn = func(_ context.Context, sg *models.Suggestion) error {
				saved = sg
				return nil
			}
			svc := newTestService(t, repo, nil)

			_, err := svc.Update(context.Background(), tt.userID, 5, tt.op, serializer.Patch{State: ptr(models.SuggestionClosed)})
			if tt.wantCode != "" {
				assertAppErrorCode(t, err, tt.wantCode)
				assert.Nil(t, saved)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, saved)
			assert.Equal(t, models.SuggestionClosed, saved.State)
			assert.Equal(t, uint(1), saved.AuthorID)
		})
	}
}

func TestSuggestionService_UpdateMissingIsNotFound(t *testing.T) {
	repo := noopSuggestionRepo()
	repo.getByIDFn = func(_ context.Context, _, _ uint) (*models.Suggestion, error) { return nil, gorm.ErrRecordNotFound }
	svc := newTestService(t, repo, nil)

	_, err := svc.Update(context.Background(), 2, 5, permission.OpUpdate, serializer.Patch{})
	assertAppErrorCode(t, err, "NOT_FOUND")
}

func TestSuggestionService_Delete(t *testing.T) {
	t.Run("owner", func(t *testing.T) {
		events := &eventRecorder{}
		svc := newTestService(t, noopSuggestionRepo(), events)
		require.NoError(t, svc.Delete(context.Background(), 1, 5))
		require.Len(t, events.events, 1)
		assert.Equal(t, notifications.EventSuggestionDeleted, events.events[0].Type)
	})

	t.Run("non owner", func(t *testing.T) {
		repo := noopSuggestionRepo()
		repo.deleteFn = func(_ context.Context, _ uint) (bool, error) {
			t.Fatal("delete must not run for a non-owner")
			return false, nil
		}
		svc := newTestService(t, repo, nil)
		assertAppErrorCode(t, svc.Delete(context.Background(), 2, 5), "PERMISSION_DENIED")
	})

	t.Run("deleted concurrently", func(t *testing.T) {
		repo := noopSuggestionRepo()
		repo.deleteFn = func(_ context.Context, _ uint) (bool, error) { return false, nil }
		svc := newTestService(t, repo, nil)
		assertAppErrorCode(t, svc.Delete(context.Background(), 1, 5), "NOT_FOUND")
	})
}

func TestSuggestionService_LikeIsOpenToAnyUser(t *testing.T) {
	repo := noopSuggestionRepo()
	var likedBy uint
	repo.likeFn = func(_ context.Context, userID, _ uint) (bool, error) {
		likedBy = userID
		return true, nil
	}
	repo.getByIDFn = func(_ context.Context, id, currentUserID uint) (*models.Suggestion, error) {
		sg := &models.Suggestion{ID: id, AuthorID: 1}
		if likedBy != 0 {
			sg.LikesCount = 1
			sg.Liked = currentUserID == likedBy
		}
		return sg, nil
	}
	events := &eventRecorder{}
	svc := newTestService(t, repo, events)

	res, err := svc.Like(context.Background(), 2, 5)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.True(t, res.Suggestion.Liked)
	assert.Equal(t, 1, res.Suggestion.LikesCount)

	require.Len(t, events.events, 1)
	assert.Equal(t, notifications.EventSuggestionLiked, events.events[0].Type)
	require.NotNil(t, events.events[0].Likes)
	assert.Equal(t, 1, *events.events[0].Likes)
}

func TestSuggestionService_RepeatLikeAndUnlikeAreNoops(t *testing.T) {
	repo := noopSuggestionRepo()
	repo.likeFn = func(_ context.Context, _, _ uint) (bool, error) { return false, nil }
	repo.unlikeFn = func(_ context.Context, _, _ uint) (bool, error) { return false, nil }
	events := &eventRecorder{}
	svc := newTestService(t, repo, events)

	res, err := svc.Like(context.Background(), 2, 5)
	require.NoError(t, err)
	assert.False(t, res.Changed)
	require.NotNil(t, res.Suggestion)

	res, err = svc.Unlike(context.Background(), 2, 5)
	require.NoError(t, err)
	assert.False(t, res.Changed)

	assert.Empty(t, events.events)
}

func TestSuggestionService_UnlikePublishes(t *testing.T) {
	events := &eventRecorder{}
	svc := newTestService(t, noopSuggestionRepo(), events)

	res, err := svc.Unlike(context.Background(), 3, 5)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	require.Len(t, events.events, 1)
	assert.Equal(t, notifications.EventSuggestionUnliked, events.events[0].Type)
}

func TestSuggestionService_PublishFailureDoesNotFailRequest(t *testing.T) {
	events := &eventRecorder{err: errors.New("redis down")}
	svc := newTestService(t, noopSuggestionRepo(), events)

	_, err := svc.Like(context.Background(), 2, 5)
	assert.NoError(t, err)
	assert.Len(t, events.events, 1)
}

func TestSuggestionService_ListPages(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	all := []*models.Suggestion{
		{ID: 3, CreatedAt: base.Add(3 * time.Minute)},
		{ID: 2, CreatedAt: base.Add(2 * time.Minute)},
		{ID: 1, CreatedAt: base.Add(1 * time.Minute)},
	}

	repo := noopSuggestionRepo()
	var windows []pagination.Window
	repo.listWindowFn = func(_ context.Context, _ uint, w pagination.Window) ([]*models.Suggestion, error) {
		windows = append(windows, w)
		var out []*models.Suggestion
		for _, sg := range all {
			if w.Position == nil || olderThan(sg, *w.Position) {
				out = append(out, sg)
			}
		}
		if len(out) > w.Limit {
			out = out[:w.Limit]
		}
		return out, nil
	}
	svc := newTestService(t, repo, nil)

	first, err := svc.List(context.Background(), 1, "")
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	assert.Equal(t, uint(3), first.Items[0].ID)
	assert.Equal(t, uint(2), first.Items[1].ID)
	assert.NotEmpty(t, first.Next)
	assert.Empty(t, first.Previous)
	assert.Equal(t, 3, windows[0].Limit)

	second, err := svc.List(context.Background(), 1, first.Next)
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assert.Equal(t, uint(1), second.Items[0].ID)
	assert.Empty(t, second.Next)
	assert.NotEmpty(t, second.Previous)
}

func TestSuggestionService_ListInvalidCursor(t *testing.T) {
	svc := newTestService(t, noopSuggestionRepo(), nil)

	_, err := svc.List(context.Background(), 1, "not-a-cursor")
	assert.ErrorIs(t, err, ErrInvalidCursor)
	assertAppErrorCode(t, err, "NOT_FOUND")
}

// olderThan reports whether sg comes after pos in newest-first order.
func olderThan(sg *models.Suggestion, pos pagination.Position) bool {
	if !sg.CreatedAt.Equal(pos.CreatedAt) {
		return sg.CreatedAt.Before(pos.CreatedAt)
	}
	return sg.ID < pos.ID
}
