// Package serializer converts suggestions to and from their wire form.
//
// One field table describes every field once. A View decides, per operation,
// which of those fields a client may write; reads always expose every field.
package serializer

import (
	"beatbox/internal/models"
	"beatbox/internal/permission"
)

// Kind is the wire type of a field.
type Kind string

const (
	KindHyperlink Kind = "field"
	KindString    Kind = "string"
	KindNested    Kind = "nested object"
	KindInteger   Kind = "integer"
	KindBoolean   Kind = "boolean"
	KindDateTime  Kind = "datetime"
	KindChoice    Kind = "choice"
)

// Field is one row of the canonical field table.
type Field struct {
	Name     string
	Label    string
	Kind     Kind
	Writable bool
	// Required applies on create only.
	Required bool
	// Default is what the server fills in on create when the field is absent.
	Default  any
	Choices  []string
	Children []Field
}

// Wire field names.
const (
	FieldURL         = "url"
	FieldUID         = "uid"
	FieldAuthor      = "author"
	FieldLikes       = "likes"
	FieldLiked       = "liked"
	FieldReadOnly    = "read_only"
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldCreatedAt   = "created_at"
	FieldState       = "state"
)

func stateChoices() []string {
	states := models.SuggestionStates()
	out := make([]string, len(states))
	for i, s := range states {
		out[i] = string(s)
	}
	return out
}

var fields = []Field{
	{Name: FieldURL, Label: "Url", Kind: KindHyperlink},
	{Name: FieldUID, Label: "Uid", Kind: KindString},
	{Name: FieldAuthor, Label: "Author", Kind: KindNested, Children: []Field{
		{Name: "first_name", Label: "First name", Kind: KindString},
		{Name: "last_name", Label: "Last name", Kind: KindString},
	}},
	{Name: FieldLikes, Label: "Likes", Kind: KindInteger},
	{Name: FieldLiked, Label: "Liked", Kind: KindBoolean},
	{Name: FieldReadOnly, Label: "Read only", Kind: KindBoolean},
	{Name: FieldTitle, Label: "Title", Kind: KindString, Writable: true, Required: true},
	{Name: FieldDescription, Label: "Description", Kind: KindString, Writable: true, Required: true},
	{Name: FieldCreatedAt, Label: "Created at", Kind: KindDateTime, Writable: true, Default: "now"},
	{Name: FieldState, Label: "State", Kind: KindChoice, Writable: true, Default: string(models.SuggestionOpen), Choices: stateChoices()},
}

// View is a per-operation projection of the field table.
type View int

const (
	// ViewFull accepts every writable field and enforces create requirements.
	ViewFull View = iota
	// ViewList exposes every field read-only.
	ViewList
	// ViewDetail exposes every field read-only.
	ViewDetail
	// ViewUpdate accepts every writable field, none of them required.
	ViewUpdate
	// ViewEmpty has no body.
	ViewEmpty
)

func (v View) String() string {
	switch v {
	case ViewFull:
		return "full"
	case ViewList:
		return "list"
	case ViewDetail:
		return "detail"
	case ViewUpdate:
		return "update"
	case ViewEmpty:
		return "empty"
	default:
		return "unknown"
	}
}

var operationViews = map[permission.Operation]View{
	permission.OpList:          ViewList,
	permission.OpCreate:        ViewFull,
	permission.OpRetrieve:      ViewDetail,
	permission.OpUpdate:        ViewUpdate,
	permission.OpPartialUpdate: ViewUpdate,
	permission.OpDestroy:       ViewEmpty,
	permission.OpLike:          ViewDetail,
	permission.OpUnlike:        ViewDetail,
}

// ViewFor returns the view the controller must use for op.
// Unknown operations get the read-only detail view.
func ViewFor(op permission.Operation) View {
	if v, ok := operationViews[op]; ok {
		return v
	}
	return ViewDetail
}

// Writable reports whether clients may set f through v.
func (v View) Writable(f Field) bool {
	switch v {
	case ViewFull, ViewUpdate:
		return f.Writable
	default:
		return false
	}
}

// Required reports whether f must be present in a body decoded through v.
func (v View) Required(f Field) bool {
	return v == ViewFull && f.Writable && f.Required
}
