package permission

import (
	"testing"

	"beatbox/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestCanEdit(t *testing.T) {
	s := &models.Suggestion{AuthorID: 3}
	for userID := uint(0); userID < 6; userID++ {
		assert.Equal(t, userID == 3, CanEdit(userID, s), "user %d", userID)
	}
	assert.False(t, CanEdit(3, nil))
	assert.False(t, CanEdit(0, &models.Suggestion{}))
}

func TestAuthorize(t *testing.T) {
	s := &models.Suggestion{ID: 1, AuthorID: 1}

	tests := []struct {
		op       Operation
		userID   uint
		wantCode string
	}{
		{OpList, 2, ""},
		{OpCreate, 2, ""},
		{OpRetrieve, 2, ""},
		{OpLike, 2, ""},
		{OpUnlike, 2, ""},
		{OpUpdate, 1, ""},
		{OpPartialUpdate, 1, ""},
		{OpDestroy, 1, ""},
		{OpUpdate, 2, "PERMISSION_DENIED"},
		{OpPartialUpdate, 2, "PERMISSION_DENIED"},
		{OpDestroy, 2, "PERMISSION_DENIED"},
		{Operation("archive"), 1, ""},
		{Operation("archive"), 2, "PERMISSION_DENIED"},
		{OpRetrieve, 0, "UNAUTHORIZED"},
		{OpLike, 0, "UNAUTHORIZED"},
	}

	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			err := Authorize(tt.op, tt.userID, s)
			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			appErr, ok := err.(*models.AppError)
			if assert.True(t, ok) {
				assert.Equal(t, tt.wantCode, appErr.Code)
			}
		})
	}
}
