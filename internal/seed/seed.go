// Package seed creates demo users, suggestions and likes for development
// databases and tests.
package seed

import (
	"fmt"
	"time"

	"beatbox/internal/middleware"
	"beatbox/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultPassword is the password of every seeded user.
const DefaultPassword = "BeatBox-Demo-2024!"

// Options configures a seeding run.
type Options struct {
	NumUsers       int
	NumSuggestions int
	// LikeRatio is the chance that a given user likes a given suggestion.
	LikeRatio float64
	// MaxDays spreads created_at over the last MaxDays days.
	MaxDays int
	Clean   bool
	// SkipBcrypt stores a cheap hash; logins with DefaultPassword still work.
	SkipBcrypt bool
	// RandSeed makes a run reproducible when non-zero.
	RandSeed int64
}

// Result counts what a run created.
type Result struct {
	Users       []*models.User
	Suggestions []*models.Suggestion
	Likes       int
}

// Factory builds and persists demo entities.
type Factory struct {
	db    *gorm.DB
	faker *gofakeit.Faker
	opts  Options
	now   time.Time
	hash  string
}

// NewFactory creates a Factory bound to db.
func NewFactory(db *gorm.DB, opts Options) (*Factory, error) {
	seed := opts.RandSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if opts.MaxDays <= 0 {
		opts.MaxDays = 90
	}

	cost := bcrypt.DefaultCost
	if opts.SkipBcrypt {
		cost = bcrypt.MinCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), cost)
	if err != nil {
		return nil, fmt.Errorf("hash seed password: %w", err)
	}

	return &Factory{
		db:    db,
		faker: gofakeit.New(seed),
		opts:  opts,
		now:   time.Now().UTC(),
		hash:  string(hash),
	}, nil
}

// BuildUser returns an unsaved user with fake profile data.
func (f *Factory) BuildUser(overrides ...func(*models.User)) *models.User {
	first, last := f.faker.FirstName(), f.faker.LastName()
	u := &models.User{
		Username:  fmt.Sprintf("%s%d", f.faker.Username(), f.faker.Number(100, 99999)),
		Email:     fmt.Sprintf("%s.%s.%d@example.com", first, last, f.faker.Number(100, 99999)),
		Password:  f.hash,
		FirstName: first,
		LastName:  last,
	}
	for _, o := range overrides {
		o(u)
	}
	return u
}

// BuildSuggestion returns an unsaved suggestion by author with a created_at
// spread over the configured window.
func (f *Factory) BuildSuggestion(author *models.User, overrides ...func(*models.Suggestion)) *models.Suggestion {
	back := time.Duration(f.faker.Number(0, f.opts.MaxDays*24*60)) * time.Minute
	state := models.SuggestionOpen
	if f.faker.Number(0, 4) == 0 {
		state = models.SuggestionClosed
	}
	s := &models.Suggestion{
		Title:       f.faker.Sentence(f.faker.Number(3, 8)),
		Description: f.faker.Paragraph(1, f.faker.Number(1, 4), 12, " "),
		AuthorID:    author.ID,
		CreatedAt:   f.now.Add(-back),
		State:       state,
	}
	for _, o := range overrides {
		o(s)
	}
	return s
}

// CreateUsers persists n fake users.
func (f *Factory) CreateUsers(n int) ([]*models.User, error) {
	users := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		users = append(users, f.BuildUser())
	}
	if len(users) == 0 {
		return users, nil
	}
	if err := f.db.CreateInBatches(users, 100).Error; err != nil {
		return nil, fmt.Errorf("create users: %w", err)
	}
	return users, nil
}

// CreateSuggestions persists n suggestions with random authors from users.
func (f *Factory) CreateSuggestions(users []*models.User, n int) ([]*models.Suggestion, error) {
	if len(users) == 0 || n <= 0 {
		return nil, nil
	}
	out := make([]*models.Suggestion, 0, n)
	for i := 0; i < n; i++ {
		author := users[f.faker.Number(0, len(users)-1)]
		out = append(out, f.BuildSuggestion(author))
	}
	if err := f.db.Omit(clause.Associations).CreateInBatches(out, 100).Error; err != nil {
		return nil, fmt.Errorf("create suggestions: %w", err)
	}
	return out, nil
}

// CreateLikes has each user like each suggestion with probability ratio.
func (f *Factory) CreateLikes(users []*models.User, suggestions []*models.Suggestion, ratio float64) (int, error) {
	var likes []*models.Like
	for _, s := range suggestions {
		for _, u := range users {
			if f.faker.Float64Range(0, 1) < ratio {
				likes = append(likes, &models.Like{AuthorID: u.ID, SuggestionID: s.ID})
			}
		}
	}
	if len(likes) == 0 {
		return 0, nil
	}
	res := f.db.Clauses(clause.OnConflict{DoNothing: true}).Omit(clause.Associations).CreateInBatches(likes, 500)
	if res.Error != nil {
		return 0, fmt.Errorf("create likes: %w", res.Error)
	}
	return int(res.RowsAffected), nil
}

// ClearAll deletes every like, suggestion and user.
func ClearAll(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for _, m := range []any{&models.Like{}, &models.Suggestion{}, &models.User{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(m).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Seed runs a full seeding pass.
func Seed(db *gorm.DB, opts Options) (Result, error) {
	if opts.Clean {
		if err := ClearAll(db); err != nil {
			return Result{}, fmt.Errorf("clear data: %w", err)
		}
	}

	f, err := NewFactory(db, opts)
	if err != nil {
		return Result{}, err
	}

	users, err := f.CreateUsers(opts.NumUsers)
	if err != nil {
		return Result{}, err
	}
	suggestions, err := f.CreateSuggestions(users, opts.NumSuggestions)
	if err != nil {
		return Result{}, err
	}
	likes, err := f.CreateLikes(users, suggestions, opts.LikeRatio)
	if err != nil {
		return Result{}, err
	}

	middleware.Logger.Info("seed complete",
		"users", len(users), "suggestions", len(suggestions), "likes", likes)
	return Result{Users: users, Suggestions: suggestions, Likes: likes}, nil
}
