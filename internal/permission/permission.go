// Package permission decides which users may perform which suggestion operations.
package permission

import (
	"beatbox/internal/models"
)

// Operation is an action exposed by the suggestions resource.
type Operation string

const (
	OpList          Operation = "list"
	OpCreate        Operation = "create"
	OpRetrieve      Operation = "retrieve"
	OpUpdate        Operation = "update"
	OpPartialUpdate Operation = "partial_update"
	OpDestroy       Operation = "destroy"
	OpLike          Operation = "like"
	OpUnlike        Operation = "unlike"
)

// Rule is the check an operation requires beyond authentication.
type Rule int

const (
	// Authenticated allows any signed-in user.
	Authenticated Rule = iota
	// OwnerOnly allows only the suggestion's author.
	OwnerOnly
)

// like and unlike stay open to every user even though they are writes.
var rules = map[Operation]Rule{
	OpList:          Authenticated,
	OpCreate:        Authenticated,
	OpRetrieve:      Authenticated,
	OpLike:          Authenticated,
	OpUnlike:        Authenticated,
	OpUpdate:        OwnerOnly,
	OpPartialUpdate: OwnerOnly,
	OpDestroy:       OwnerOnly,
}

// RuleFor returns the rule for op. Unknown operations are owner-only.
func RuleFor(op Operation) Rule {
	if r, ok := rules[op]; ok {
		return r
	}
	return OwnerOnly
}

// CanEdit reports whether userID authored s.
func CanEdit(userID uint, s *models.Suggestion) bool {
	return s != nil && userID != 0 && userID == s.AuthorID
}

// Authorize checks that userID may perform op on s. s may be nil for
// collection operations.
func Authorize(op Operation, userID uint, s *models.Suggestion) error {
	if userID == 0 {
		return models.NewUnauthorizedError("Authentication credentials were not provided.")
	}
	if RuleFor(op) == OwnerOnly && !CanEdit(userID, s) {
		return models.NewPermissionDeniedError("You do not have permission to perform this action.")
	}
	return nil
}
