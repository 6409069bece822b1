package types

import (
	"errors"
	"fmt"
)

// Entry errors.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("entry not found")
	ErrDuplicateKey = errors.New("entry id already exists")
)

// ErrItemRequired is returned when an entry's item is blank after trimming.
var ErrItemRequired = fmt.Errorf("%w: item required", ErrValidation)

// ErrStorage wraps every failure of the durable store: a unit of work that
// aborted or a connection that failed to initialize.
var ErrStorage = errors.New("storage failure")

// Import errors.
var (
	ErrParse  = errors.New("payload is not well-formed JSON")
	ErrSchema = errors.New("payload has no entries array")
)
