package models

import (
	"time"

	"gorm.io/gorm"
)

// SuggestionState is the lifecycle state of a suggestion.
type SuggestionState string

const (
	SuggestionOpen   SuggestionState = "open"
	SuggestionClosed SuggestionState = "closed"
)

// Valid reports whether s is one of the known states.
func (s SuggestionState) Valid() bool {
	return s == SuggestionOpen || s == SuggestionClosed
}

// SuggestionStates lists the accepted state values in display order.
func SuggestionStates() []SuggestionState {
	return []SuggestionState{SuggestionOpen, SuggestionClosed}
}

// Suggestion is an idea posted to the suggestion box.
type Suggestion struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Title       string          `gorm:"not null" json:"title"`
	Description string          `gorm:"type:text;not null" json:"description"`
	AuthorID    uint            `gorm:"not null;index" json:"author_id"`
	Author      User            `gorm:"foreignKey:AuthorID" json:"author"`
	CreatedAt   time.Time       `gorm:"index" json:"created_at"`
	State       SuggestionState `gorm:"type:varchar(16);not null;default:open" json:"state"`
	Likes       []Like          `gorm:"foreignKey:SuggestionID;constraint:OnDelete:CASCADE" json:"-"`

	// LikesCount is not persisted; computed at query time
	LikesCount int `gorm:"->" json:"likes"`
	// Liked indicates whether the requesting user liked this suggestion (computed)
	Liked bool `gorm:"->" json:"liked"`
}

// NormalizeTime truncates t to UTC microseconds, the precision every supported store keeps.
// Cursor positions compare equal to stored values only at this precision.
func NormalizeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

// BeforeCreate defaults created_at to now and normalizes it.
func (s *Suggestion) BeforeCreate(_ *gorm.DB) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	s.CreatedAt = NormalizeTime(s.CreatedAt)
	if s.State == "" {
		s.State = SuggestionOpen
	}
	return nil
}
