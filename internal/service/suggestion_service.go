// Package service holds the suggestion use cases: permission checks,
// persistence and event publication around the repository.
package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"beatbox/internal/middleware"
	"beatbox/internal/models"
	"beatbox/internal/notifications"
	"beatbox/internal/observability"
	"beatbox/internal/pagination"
	"beatbox/internal/permission"
	"beatbox/internal/repository"
	"beatbox/internal/serializer"

	"gorm.io/gorm"
)

// EventPublisher receives suggestion change events.
type EventPublisher interface {
	PublishEvent(ctx context.Context, ev notifications.Event) error
}

// LikeResult is the outcome of a like or unlike call.
type LikeResult struct {
	Suggestion *models.Suggestion
	Changed    bool
}

type SuggestionService struct {
	repo      repository.SuggestionRepository
	paginator *pagination.Paginator
	events    EventPublisher
	now       func() time.Time
}

// NewSuggestionService wires the service. events may be nil.
func NewSuggestionService(repo repository.SuggestionRepository, paginator *pagination.Paginator, events EventPublisher) *SuggestionService {
	return &SuggestionService{
		repo:      repo,
		paginator: paginator,
		events:    events,
		now:       time.Now,
	}
}

// ErrInvalidCursor is returned for cursor tokens that do not decode.
var ErrInvalidCursor = &models.AppError{Code: "NOT_FOUND", Message: "Invalid cursor"}

// List returns one page of suggestions, newest first.
func (s *SuggestionService) List(ctx context.Context, userID uint, cursor string) (pagination.Page[*models.Suggestion], error) {
	if err := permission.Authorize(permission.OpList, userID, nil); err != nil {
		return pagination.Page[*models.Suggestion]{}, err
	}

	w, err := s.paginator.Window(cursor)
	if err != nil {
		return pagination.Page[*models.Suggestion]{}, ErrInvalidCursor
	}

	rows, err := s.repo.ListWindow(ctx, userID, w)
	if err != nil {
		return pagination.Page[*models.Suggestion]{}, models.NewInternalError(err)
	}
	return pagination.Build(s.paginator, w, rows, suggestionPosition)
}

func suggestionPosition(s *models.Suggestion) pagination.Position {
	return pagination.Position{CreatedAt: s.CreatedAt, ID: s.ID}
}

// Get returns a suggestion annotated for userID.
func (s *SuggestionService) Get(ctx context.Context, userID, id uint) (*models.Suggestion, error) {
	if err := permission.Authorize(permission.OpRetrieve, userID, nil); err != nil {
		return nil, err
	}
	return s.load(ctx, userID, id)
}

// Create stores a new suggestion authored by userID.
func (s *SuggestionService) Create(ctx context.Context, userID uint, patch serializer.Patch) (*models.Suggestion, error) {
	if err := permission.Authorize(permission.OpCreate, userID, nil); err != nil {
		return nil, err
	}

	sg := patch.New(userID, s.now())
	if err := s.repo.Create(ctx, sg); err != nil {
		s.record(permission.OpCreate, err)
		return nil, models.NewInternalError(err)
	}
	s.record(permission.OpCreate, nil)

	created, err := s.load(ctx, userID, sg.ID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, notifications.EventSuggestionCreated, userID, created)
	return created, nil
}

// Update applies patch to the suggestion. op is either OpUpdate or
// OpPartialUpdate; both accept any subset of the writable fields.
func (s *SuggestionService) Update(ctx context.Context, userID, id uint, op permission.Operation, patch serializer.Patch) (*models.Suggestion, error) {
	if userID == 0 {
		return nil, permission.Authorize(op, userID, nil)
	}
	existing, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := permission.Authorize(op, userID, existing); err != nil {
		s.record(op, err)
		return nil, err
	}

	patch.Apply(existing)
	if err := s.repo.Update(ctx, existing); err != nil {
		s.record(op, err)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Suggestion", id)
		}
		return nil, models.NewInternalError(err)
	}
	s.record(op, nil)

	updated, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, notifications.EventSuggestionUpdated, userID, updated)
	return updated, nil
}

// Delete removes the suggestion and its likes.
func (s *SuggestionService) Delete(ctx context.Context, userID, id uint) error {
	if userID == 0 {
		return permission.Authorize(permission.OpDestroy, userID, nil)
	}
	existing, err := s.load(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := permission.Authorize(permission.OpDestroy, userID, existing); err != nil {
		s.record(permission.OpDestroy, err)
		return err
	}

	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		s.record(permission.OpDestroy, err)
		return models.NewInternalError(err)
	}
	if !removed {
		return models.NewNotFoundError("Suggestion", id)
	}
	s.record(permission.OpDestroy, nil)
	s.publish(ctx, notifications.EventSuggestionDeleted, userID, existing)
	return nil
}

// Like records that userID likes the suggestion. Liking twice is not an error.
func (s *SuggestionService) Like(ctx context.Context, userID, id uint) (LikeResult, error) {
	return s.toggle(ctx, permission.OpLike, userID, id)
}

// Unlike removes userID's like. Unliking without a like is not an error.
func (s *SuggestionService) Unlike(ctx context.Context, userID, id uint) (LikeResult, error) {
	return s.toggle(ctx, permission.OpUnlike, userID, id)
}

func (s *SuggestionService) toggle(ctx context.Context, op permission.Operation, userID, id uint) (LikeResult, error) {
	if userID == 0 {
		return LikeResult{}, permission.Authorize(op, userID, nil)
	}
	existing, err := s.load(ctx, userID, id)
	if err != nil {
		return LikeResult{}, err
	}
	if err := permission.Authorize(op, userID, existing); err != nil {
		return LikeResult{}, err
	}

	var changed bool
	if op == permission.OpLike {
		changed, err = s.repo.Like(ctx, userID, id)
	} else {
		changed, err = s.repo.Unlike(ctx, userID, id)
	}
	if err != nil {
		s.record(op, err)
		return LikeResult{}, models.NewInternalError(err)
	}
	s.record(op, nil)
	observability.LikeMutations.WithLabelValues(string(op), strconv.FormatBool(changed)).Inc()

	if !changed {
		middleware.Logger.DebugContext(ctx, "like state already current",
			"operation", op, "suggestion_id", id, "user_id", userID)
		return LikeResult{Suggestion: existing}, nil
	}

	current, err := s.load(ctx, userID, id)
	if err != nil {
		return LikeResult{}, err
	}
	ev := notifications.EventSuggestionLiked
	if op == permission.OpUnlike {
		ev = notifications.EventSuggestionUnliked
	}
	s.publish(ctx, ev, userID, current)
	return LikeResult{Suggestion: current, Changed: true}, nil
}

func (s *SuggestionService) load(ctx context.Context, userID, id uint) (*models.Suggestion, error) {
	sg, err := s.repo.GetByID(ctx, id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Suggestion", id)
		}
		return nil, models.NewInternalError(err)
	}
	return sg, nil
}

func (s *SuggestionService) record(op permission.Operation, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	observability.SuggestionOperations.WithLabelValues(string(op), outcome).Inc()
}

func (s *SuggestionService) publish(ctx context.Context, typ string, actorID uint, sg *models.Suggestion) {
	if s.events == nil {
		return
	}
	likes := sg.LikesCount
	ev := notifications.Event{
		Type:         typ,
		SuggestionID: sg.ID,
		ActorID:      actorID,
		Likes:        &likes,
		At:           s.now().UTC(),
	}
	if err := s.events.PublishEvent(ctx, ev); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to publish suggestion event",
			"type", typ, "suggestion_id", sg.ID, "error", err)
	}
}
