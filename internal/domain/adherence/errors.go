package adherence

import "errors"

var (
	// ErrInvalidRecord indicates an adherence record that cannot be stored.
	ErrInvalidRecord = errors.New("invalid adherence record")
)
