package cascade

import (
	"errors"
	"fmt"

	"gocascade/adapters/cascade/wire"
)

// RemoteError is a server-side rejection surfaced to the caller. Suites
// assert the category, not the message.
type RemoteError struct {
	Category   wire.ErrorCategory
	Message    string
	StatusCode int
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("cluster rejected request (%s, HTTP %d): %s", e.Category, e.StatusCode, e.Message)
}

// AsRemoteError unwraps err to a RemoteError if one is present
func AsRemoteError(err error) (*RemoteError, bool) {
	var re *RemoteError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// IsInvalidParams reports whether err is a server rejection for an invalid
// parameter combination, such as cross-validation folds together with a
// validation frame.
func IsInvalidParams(err error) bool {
	re, ok := AsRemoteError(err)
	return ok && re.Category == wire.CategoryInvalidParameters
}

// IsColumnType reports whether err is a server rejection for a statistic
// requested over a column of the wrong type.
func IsColumnType(err error) bool {
	re, ok := AsRemoteError(err)
	return ok && re.Category == wire.CategoryColumnType
}

// IsNotFound reports whether err is a server rejection for an unknown frame
// or model key.
func IsNotFound(err error) bool {
	re, ok := AsRemoteError(err)
	return ok && re.Category == wire.CategoryNotFound
}
