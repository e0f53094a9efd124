package pagination

import "slices"

// Window is the slice of the ordering a repository must fetch.
// Forward windows return rows after Position newest-first; backward windows
// return rows before Position oldest-first. A nil Position means the first page.
type Window struct {
	Position *Position
	Backward bool
	Limit    int
}

// Page is one page of results plus the tokens for its neighbours.
type Page[T any] struct {
	Items    []T
	Next     string
	Previous string
}

// Paginator resolves request tokens into windows and windows into pages.
type Paginator struct {
	codec    *Codec
	pageSize int
}

// New returns a Paginator with the fixed PageSize.
func New(salt string) (*Paginator, error) {
	return NewWithSize(salt, PageSize)
}

// NewWithSize returns a Paginator with a custom page size.
func NewWithSize(salt string, size int) (*Paginator, error) {
	codec, err := NewCodec(salt)
	if err != nil {
		return nil, err
	}
	if size <= 0 {
		size = PageSize
	}
	return &Paginator{codec: codec, pageSize: size}, nil
}

// Window decodes token into the window to fetch. One extra row is requested
// so the page can tell whether more rows exist.
func (p *Paginator) Window(token string) (Window, error) {
	w := Window{Limit: p.pageSize + 1}
	if token == "" {
		return w, nil
	}
	c, err := p.codec.Decode(token)
	if err != nil {
		return Window{}, err
	}
	pos := c.Position
	w.Position = &pos
	w.Backward = c.Backward
	return w, nil
}

// Build turns the rows fetched for w into a newest-first page.
func Build[T any](p *Paginator, w Window, rows []T, key func(T) Position) (Page[T], error) {
	hasMore := len(rows) > p.pageSize
	if hasMore {
		rows = rows[:p.pageSize]
	}

	items := slices.Clone(rows)
	if w.Backward {
		slices.Reverse(items)
	}

	page := Page[T]{Items: items}

	var (
		nextPos, prevPos *Position
	)
	if len(items) > 0 {
		first, last := key(items[0]), key(items[len(items)-1])
		if w.Backward {
			nextPos = &last
			if hasMore {
				prevPos = &first
			}
		} else {
			if hasMore {
				nextPos = &last
			}
			if w.Position != nil {
				prevPos = &first
			}
		}
	} else if w.Position != nil {
		// An empty page still lets the client turn around.
		if w.Backward {
			nextPos = w.Position
		} else {
			prevPos = w.Position
		}
	}

	var err error
	if nextPos != nil {
		if page.Next, err = p.codec.Encode(Cursor{Position: *nextPos}); err != nil {
			return Page[T]{}, err
		}
	}
	if prevPos != nil {
		if page.Previous, err = p.codec.Encode(Cursor{Position: *prevPos, Backward: true}); err != nil {
			return Page[T]{}, err
		}
	}
	return page, nil
}
