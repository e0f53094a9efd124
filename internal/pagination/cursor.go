// Package pagination implements keyset cursor pagination over (created_at, id)
// in newest-first order.
package pagination

import (
	"errors"
	"fmt"
	"time"

	"github.com/speps/go-hashids/v2"
)

// PageSize is the fixed number of items per page.
const PageSize = 100

// ErrInvalidCursor is returned for tokens that fail to decode.
var ErrInvalidCursor = errors.New("invalid cursor")

// unixToYearOne shifts unix seconds so every representable year encodes as a
// non-negative number.
const unixToYearOne = 62135596800

const (
	forward  int64 = 0
	backward int64 = 1
)

// Position identifies a row in the ordering.
type Position struct {
	CreatedAt time.Time
	ID        uint
}

// Cursor is a decoded page token.
type Cursor struct {
	Position Position
	Backward bool
}

// Codec turns cursors into opaque tokens and back.
type Codec struct {
	h *hashids.HashID
}

// NewCodec builds a Codec keyed by salt.
func NewCodec(salt string) (*Codec, error) {
	hd := hashids.NewData()
	hd.Salt = salt
	hd.MinLength = 12
	h, err := hashids.NewWithData(hd)
	if err != nil {
		return nil, fmt.Errorf("failed to build cursor codec: %w", err)
	}
	return &Codec{h: h}, nil
}

// Encode returns the opaque token for c.
func (k *Codec) Encode(c Cursor) (string, error) {
	t := c.Position.CreatedAt.UTC()
	dir := forward
	if c.Backward {
		dir = backward
	}
	secs := t.Unix() + unixToYearOne
	if secs < 0 {
		return "", fmt.Errorf("cursor timestamp out of range: %s", t)
	}
	return k.h.EncodeInt64([]int64{
		dir,
		secs,
		int64(t.Nanosecond() / int(time.Microsecond)),
		int64(c.Position.ID),
	})
}

// Decode parses a token produced by Encode.
func (k *Codec) Decode(token string) (Cursor, error) {
	nums, err := k.h.DecodeInt64WithError(token)
	if err != nil || len(nums) != 4 {
		return Cursor{}, ErrInvalidCursor
	}
	dir, secs, micros, id := nums[0], nums[1], nums[2], nums[3]
	if dir != forward && dir != backward {
		return Cursor{}, ErrInvalidCursor
	}
	if micros < 0 || micros >= 1_000_000 || id <= 0 {
		return Cursor{}, ErrInvalidCursor
	}

	return Cursor{
		Position: Position{
			CreatedAt: time.Unix(secs-unixToYearOne, micros*int64(time.Microsecond)).UTC(),
			ID:        uint(id),
		},
		Backward: dir == backward,
	}, nil
}
