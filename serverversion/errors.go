package serverversion

import (
	"errors"
	"fmt"
)

var (
	// ErrNilServerVersion is returned when a capability view is requested
	// for a nil server version.
	ErrNilServerVersion = errors.New("server version must not be nil")

	// ErrInvalidVersion is wrapped by Parse when no version can be read
	// from the input.
	ErrInvalidVersion = errors.New("unable to determine server version")

	// ErrUnsupportedServerType is returned for dialects without a
	// capability table.
	ErrUnsupportedServerType = errors.New("unsupported server type")
)

// ArgumentError reports an argument that could not be interpreted.
type ArgumentError struct {
	Param   string
	Value   string
	Message string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid %s '%s': %s", e.Param, e.Value, e.Message)
}
