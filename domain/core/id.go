package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	// Use UUID v7 for time-ordered, sortable IDs
	// Falls back to v4 if v7 is not available (for compatibility)
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to v4 if v7 fails
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types.
//
// FrameKey and ModelKey are minted by the analytics server and treated as
// opaque handles on this side. RunID and CheckID are minted locally by the
// verification harness.
type (
	FrameKey ID
	ModelKey ID
	RunID    ID
	CheckID  ID
)

// String conversions for domain IDs
func (k FrameKey) String() string { return ID(k).String() }
func (k ModelKey) String() string { return ID(k).String() }
func (id RunID) String() string   { return ID(id).String() }
func (id CheckID) String() string { return ID(id).String() }

// IsEmpty checks for the zero key
func (k FrameKey) IsEmpty() bool { return k == "" }

// IsEmpty checks for the zero key
func (k ModelKey) IsEmpty() bool { return k == "" }

// ParseFrameKey parses a string into FrameKey
func ParseFrameKey(s string) (FrameKey, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("frame key cannot be empty")
	}
	return FrameKey(s), nil
}

// ParseModelKey parses a string into ModelKey
func ParseModelKey(s string) (ModelKey, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("model key cannot be empty")
	}
	return ModelKey(s), nil
}

// ParseRunID parses a string into RunID
func ParseRunID(s string) (RunID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("run ID cannot be empty")
	}
	return RunID(s), nil
}

// NewRunID mints an identifier for a verification run
func NewRunID() RunID {
	return RunID(NewID())
}

// NewCheckID mints an identifier for a single check within a run
func NewCheckID() CheckID {
	return CheckID(NewID())
}
