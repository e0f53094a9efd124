package models

import (
	"time"
)

// Like represents a user's like on a suggestion.
// The combination of AuthorID and SuggestionID must be unique.
type Like struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	AuthorID     uint      `gorm:"not null;uniqueIndex:idx_like_author_suggestion" json:"author_id"`
	SuggestionID uint      `gorm:"not null;uniqueIndex:idx_like_author_suggestion;index" json:"suggestion_id"`
	CreatedAt    time.Time `json:"created_at"`

	Author User `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"-"`
}
