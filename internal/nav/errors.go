// Package nav implements the navigation engine: address-path resolution,
// breadcrumb derivation, and the controller that drives the tree store from
// user intents.
package nav

import (
	"errors"
	"fmt"
)

// ErrInvalidPathSyntax reports a malformed address input. Rejected before
// any network call is made.
var ErrInvalidPathSyntax = errors.New("invalid path syntax")

// ErrNotFound reports an address that resolves to no matching project or
// folder. The navigation state is left untouched.
var ErrNotFound = errors.New("path not found")

// RequiresExpansionError is not a user-facing failure: it signals that
// resolution hit a folder whose children are not materialized yet. The
// controller expands the named node and retries.
type RequiresExpansionError struct {
	ProjectID string
	// FolderID is empty when the project root itself needs expansion.
	FolderID string
}

func (e *RequiresExpansionError) Error() string {
	if e.FolderID == "" {
		return fmt.Sprintf("project %s requires expansion", e.ProjectID)
	}
	return fmt.Sprintf("folder %s requires expansion", e.FolderID)
}

// LoadFailureError reports a network or server failure while expanding or
// paging a node. The node has been rolled back to its previous state; the
// caller may retry.
type LoadFailureError struct {
	Op       string // "expand", "page"
	FolderID string
	Err      error
}

func (e *LoadFailureError) Error() string {
	return fmt.Sprintf("%s %s failed: %v", e.Op, e.FolderID, e.Err)
}

func (e *LoadFailureError) Unwrap() error {
	return e.Err
}
