package serializer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"beatbox/internal/models"
)

const (
	msgRequired = "This field is required."
	msgBlank    = "This field may not be blank."
	msgNull     = "This field may not be null."
	msgString   = "Not a valid string."
	msgDateTime = "Datetime has wrong format. Use one of these formats instead: YYYY-MM-DDThh:mm[:ss[.uuuuuu]][+HH:MM|-HH:MM|Z]."
)

var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// Patch holds the writable fields a client supplied. Nil means absent.
type Patch struct {
	Title       *string
	Description *string
	CreatedAt   *time.Time
	State       *models.SuggestionState
}

// Empty reports whether no field was supplied.
func (p Patch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.CreatedAt == nil && p.State == nil
}

// Apply copies the supplied fields onto s.
func (p Patch) Apply(s *models.Suggestion) {
	if p.Title != nil {
		s.Title = *p.Title
	}
	if p.Description != nil {
		s.Description = *p.Description
	}
	if p.CreatedAt != nil {
		s.CreatedAt = *p.CreatedAt
	}
	if p.State != nil {
		s.State = *p.State
	}
}

// New builds a suggestion for authorID from p, filling create defaults.
func (p Patch) New(authorID uint, now time.Time) *models.Suggestion {
	s := &models.Suggestion{
		AuthorID:  authorID,
		CreatedAt: now,
		State:     models.SuggestionOpen,
	}
	p.Apply(s)
	return s
}

// Decode validates body against the writable fields of v. Read-only and
// unknown fields are ignored. Field errors come back as a VALIDATION_ERROR
// AppError keyed by wire field name.
func Decode(v View, body []byte) (Patch, error) {
	if v != ViewFull && v != ViewUpdate {
		return Patch{}, nil
	}

	raw := map[string]json.RawMessage{}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 {
		if trimmed[0] != '{' {
			return Patch{}, models.NewFieldValidationError(map[string][]string{
				"non_field_errors": {"Invalid data. Expected a dictionary."},
			})
		}
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return Patch{}, models.NewValidationError(fmt.Sprintf("JSON parse error - %v", err))
		}
	}

	var (
		patch  Patch
		errors = map[string][]string{}
	)

	for _, f := range fields {
		if !v.Writable(f) {
			continue
		}
		value, present := raw[f.Name]
		if !present {
			if v.Required(f) {
				errors[f.Name] = append(errors[f.Name], msgRequired)
			}
			continue
		}
		if isNull(value) {
			errors[f.Name] = append(errors[f.Name], msgNull)
			continue
		}

		switch f.Name {
		case FieldTitle, FieldDescription:
			str, msg := decodeText(value)
			if msg != "" {
				errors[f.Name] = append(errors[f.Name], msg)
				continue
			}
			if f.Name == FieldTitle {
				patch.Title = &str
			} else {
				patch.Description = &str
			}
		case FieldCreatedAt:
			t, ok := decodeDateTime(value)
			if !ok {
				errors[f.Name] = append(errors[f.Name], msgDateTime)
				continue
			}
			patch.CreatedAt = &t
		case FieldState:
			var str string
			if err := json.Unmarshal(value, &str); err != nil || !models.SuggestionState(str).Valid() {
				errors[f.Name] = append(errors[f.Name], fmt.Sprintf("%q is not a valid choice.", strings.Trim(string(value), `"`)))
				continue
			}
			state := models.SuggestionState(str)
			patch.State = &state
		}
	}

	if len(errors) > 0 {
		return Patch{}, models.NewFieldValidationError(errors)
	}
	return patch, nil
}

func isNull(value json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(value), []byte("null"))
}

func decodeText(value json.RawMessage) (string, string) {
	var str string
	if err := json.Unmarshal(value, &str); err != nil {
		return "", msgString
	}
	str = strings.TrimSpace(str)
	if str == "" {
		return "", msgBlank
	}
	return str, ""
}

func decodeDateTime(value json.RawMessage) (time.Time, bool) {
	var str string
	if err := json.Unmarshal(value, &str); err != nil {
		return time.Time{}, false
	}
	str = strings.TrimSpace(str)
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, str); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
