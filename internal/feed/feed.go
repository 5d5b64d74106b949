// Package feed implements the mutation rules shared by every resource:
// parent-existence checks on create, author-only update/delete, tolerant
// delete, and membership-idempotent like/unlike. Pagination calls pass
// through to the store unchanged.
package feed

import (
	"errors"
	"fmt"

	"github.com/feedline-io/feedline/internal/store"
)

// ErrForbidden means the caller identity does not own the target entity.
// Ownership is the only access-control axis; there is no admin override.
var ErrForbidden = errors.New("forbidden")

// DeleteResult reports a tolerant delete: ID is nil when no row was
// affected (already gone, or never existed) and set when exactly one was.
type DeleteResult struct {
	ID *string `json:"id"`
}

func deleteResult(id string, affected int64) DeleteResult {
	if affected > 0 {
		return DeleteResult{ID: &id}
	}
	return DeleteResult{}
}

func notFound(what string) error {
	return fmt.Errorf("%s: %w", what, store.ErrNotFound)
}
