package serializer

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"beatbox/internal/models"
	"beatbox/internal/permission"
)

// DetailPath is the route of a single suggestion relative to the site root.
const DetailPath = "/api/suggestions/%d/"

// Context carries the per-request inputs of the derived fields.
type Context struct {
	UserID  uint
	BaseURL string
}

// Author is the public projection of a suggestion's author.
type Author struct {
	FirstName string `json:"first_name" yaml:"first_name"`
	LastName  string `json:"last_name" yaml:"last_name"`
}

// Representation is the wire form of a suggestion.
type Representation struct {
	URL         string                 `json:"url" yaml:"url"`
	UID         string                 `json:"uid" yaml:"uid"`
	Author      Author                 `json:"author" yaml:"author"`
	Likes       int                    `json:"likes" yaml:"likes"`
	Liked       bool                   `json:"liked" yaml:"liked"`
	ReadOnly    bool                   `json:"read_only" yaml:"read_only"`
	Title       string                 `json:"title" yaml:"title"`
	Description string                 `json:"description" yaml:"description"`
	CreatedAt   time.Time              `json:"created_at" yaml:"created_at"`
	State       models.SuggestionState `json:"state" yaml:"state"`
}

// DetailURL returns the hyperlink of suggestion id under baseURL.
func DetailURL(baseURL string, id uint) string {
	return strings.TrimRight(baseURL, "/") + fmt.Sprintf(DetailPath, id)
}

// Encode renders s through v. ViewEmpty yields nil.
func Encode(v View, s *models.Suggestion, ctx Context) *Representation {
	if v == ViewEmpty || s == nil {
		return nil
	}
	return &Representation{
		URL: DetailURL(ctx.BaseURL, s.ID),
		UID: strconv.FormatUint(uint64(s.ID), 10),
		Author: Author{
			FirstName: s.Author.FirstName,
			LastName:  s.Author.LastName,
		},
		Likes:       s.LikesCount,
		Liked:       s.Liked,
		ReadOnly:    !permission.CanEdit(ctx.UserID, s),
		Title:       s.Title,
		Description: s.Description,
		CreatedAt:   s.CreatedAt,
		State:       s.State,
	}
}

// EncodeAll renders every suggestion through v.
func EncodeAll(v View, items []*models.Suggestion, ctx Context) []*Representation {
	out := make([]*Representation, 0, len(items))
	for _, s := range items {
		if r := Encode(v, s, ctx); r != nil {
			out = append(out, r)
		}
	}
	return out
}
