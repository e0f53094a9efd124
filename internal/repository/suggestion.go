// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"

	"beatbox/internal/models"
	"beatbox/internal/observability"
	"beatbox/internal/pagination"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SuggestionRepository defines the interface for suggestion data operations.
// Read methods annotate each row with its like count and whether
// currentUserID liked it.
type SuggestionRepository interface {
	Create(ctx context.Context, s *models.Suggestion) error
	GetByID(ctx context.Context, id uint, currentUserID uint) (*models.Suggestion, error)
	ListWindow(ctx context.Context, currentUserID uint, w pagination.Window) ([]*models.Suggestion, error)
	Update(ctx context.Context, s *models.Suggestion) error
	Delete(ctx context.Context, id uint) (bool, error)
	Like(ctx context.Context, userID, suggestionID uint) (bool, error)
	Unlike(ctx context.Context, userID, suggestionID uint) (bool, error)
}

// suggestionRepository implements SuggestionRepository
type suggestionRepository struct {
	db *gorm.DB
}

// NewSuggestionRepository creates a new suggestion repository
func NewSuggestionRepository(db *gorm.DB) SuggestionRepository {
	return &suggestionRepository{db: db}
}

func (r *suggestionRepository) Create(ctx context.Context, s *models.Suggestion) (err error) {
	ctx, span := observability.StartRepositorySpan(ctx, "Create", "suggestions")
	defer func() { observability.EndSpan(span, err) }()

	return r.db.WithContext(ctx).Omit(clause.Associations).Create(s).Error
}

func (r *suggestionRepository) GetByID(ctx context.Context, id uint, currentUserID uint) (_ *models.Suggestion, err error) {
	ctx, span := observability.StartRepositorySpan(ctx, "GetByID", "suggestions")
	defer func() { observability.EndSpan(span, err) }()

	var s models.Suggestion
	err = r.annotate(r.db.WithContext(ctx), currentUserID).
		Preload("Author").
		Where("suggestions.id = ?", id).
		Take(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *suggestionRepository) ListWindow(ctx context.Context, currentUserID uint, w pagination.Window) (_ []*models.Suggestion, err error) {
	ctx, span := observability.StartRepositorySpan(ctx, "ListWindow", "suggestions")
	defer func() { observability.EndSpan(span, err) }()

	q := r.annotate(r.db.WithContext(ctx), currentUserID).Preload("Author")

	order := "suggestions.created_at DESC, suggestions.id DESC"
	if w.Backward {
		order = "suggestions.created_at ASC, suggestions.id ASC"
	}

	if p := w.Position; p != nil {
		if w.Backward {
			q = q.Where("(suggestions.created_at > ? OR (suggestions.created_at = ? AND suggestions.id > ?))",
				p.CreatedAt, p.CreatedAt, p.ID)
		} else {
			q = q.Where("(suggestions.created_at < ? OR (suggestions.created_at = ? AND suggestions.id < ?))",
				p.CreatedAt, p.CreatedAt, p.ID)
		}
	}

	var out []*models.Suggestion
	if err = q.Order(order).Limit(w.Limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// annotate adds subqueries to fetch the like count and liked status in a single query.
func (r *suggestionRepository) annotate(db *gorm.DB, currentUserID uint) *gorm.DB {
	selectQuery := "suggestions.*, " +
		"(SELECT COUNT(*) FROM likes WHERE likes.suggestion_id = suggestions.id) AS likes_count"

	if currentUserID != 0 {
		return db.Model(&models.Suggestion{}).
			Select(selectQuery+", EXISTS(SELECT 1 FROM likes WHERE likes.suggestion_id = suggestions.id AND likes.author_id = ?) AS liked", currentUserID)
	}
	return db.Model(&models.Suggestion{}).Select(selectQuery + ", false AS liked")
}

// Update persists the mutable columns only; id and author never change here.
func (r *suggestionRepository) Update(ctx context.Context, s *models.Suggestion) (err error) {
	ctx, span := observability.StartRepositorySpan(ctx, "Update", "suggestions")
	defer func() { observability.EndSpan(span, err) }()

	result := r.db.WithContext(ctx).
		Model(&models.Suggestion{}).
		Where("id = ?", s.ID).
		Updates(map[string]any{
			"title":       s.Title,
			"description": s.Description,
			"created_at":  models.NormalizeTime(s.CreatedAt),
			"state":       s.State,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete hard-deletes the suggestion; its likes go with it through the foreign key cascade.
func (r *suggestionRepository) Delete(ctx context.Context, id uint) (_ bool, err error) {
	ctx, span := observability.StartRepositorySpan(ctx, "Delete", "suggestions")
	defer func() { observability.EndSpan(span, err) }()

	result := r.db.WithContext(ctx).Delete(&models.Suggestion{}, id)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Like inserts the like row unless it already exists and reports whether a row was inserted.
func (r *suggestionRepository) Like(ctx context.Context, userID, suggestionID uint) (_ bool, err error) {
	ctx, span := observability.StartRepositorySpan(ctx, "Like", "likes")
	defer func() { observability.EndSpan(span, err) }()

	// ON CONFLICT DO NOTHING keeps concurrent likes from racing into a duplicate key error.
	result := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Like{AuthorID: userID, SuggestionID: suggestionID})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Unlike removes the like row and reports whether one existed.
func (r *suggestionRepository) Unlike(ctx context.Context, userID, suggestionID uint) (_ bool, err error) {
	ctx, span := observability.StartRepositorySpan(ctx, "Unlike", "likes")
	defer func() { observability.EndSpan(span, err) }()

	result := r.db.WithContext(ctx).
		Where("author_id = ? AND suggestion_id = ?", userID, suggestionID).
		Delete(&models.Like{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
