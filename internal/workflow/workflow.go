// Package workflow models the lifecycle of a term version and the
// edit-mode decision for an edit request.
package workflow

import "fmt"

// Status is the lifecycle state of a term version.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusPublished Status = "PUBLISHED"
	StatusArchived  Status = "ARCHIVED"
)

// ParseStatus validates a stored status value.
func ParseStatus(value string) (Status, error) {
	switch Status(value) {
	case StatusDraft, StatusPublished, StatusArchived:
		return Status(value), nil
	default:
		return "", fmt.Errorf("unknown version status %q", value)
	}
}

// CanTransition reports whether a version may move from one status to
// another. DRAFT versions publish; PUBLISHED versions archive when a
// newer version supersedes them. Nothing else is legal and nothing is
// ever deleted.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusDraft:
		return to == StatusPublished
	case StatusPublished:
		return to == StatusArchived
	default:
		return false
	}
}

// EditMode is the outcome of an edit request on a version.
type EditMode string

const (
	// EditExisting means the version is a draft and may be mutated in place.
	EditExisting EditMode = "editExisting"
	// CreateFromSource means the caller asked to fork; a new draft must be
	// created from the requested version before any mutation.
	CreateFromSource EditMode = "createFromSource"
	// NotEditable refuses all mutation; the version is read-only.
	NotEditable EditMode = "notEditable"
)

// ModeHintFork is the request hint that asks to fork a non-draft version.
const ModeHintFork = "createFromSource"

// Decide maps a version's status and the caller's mode hint to an edit
// mode. A draft is always edited in place regardless of the hint. A
// published or archived version forks only when explicitly requested,
// and is otherwise read-only.
func Decide(status Status, modeHint string) EditMode {
	if status == StatusDraft {
		return EditExisting
	}
	if modeHint == ModeHintFork {
		return CreateFromSource
	}
	return NotEditable
}
