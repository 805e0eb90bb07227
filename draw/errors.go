// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package draw

import (
	"errors"
	"fmt"
)

var (
	// ErrPrecondition is wrapped by every input validation error returned by Draw.
	ErrPrecondition = errors.New("precondition violated")

	ErrEmptySeed           = fmt.Errorf("%w: seed must not be empty", ErrPrecondition)
	ErrNoParticipants      = fmt.Errorf("%w: participant list must not be empty", ErrPrecondition)
	ErrEmptyParticipant    = fmt.Errorf("%w: participant name must not be empty", ErrPrecondition)
	ErrInvalidCount        = fmt.Errorf("%w: count must be at least 1", ErrPrecondition)
	ErrTooManyParticipants = fmt.Errorf("%w: too many participants", ErrPrecondition)

	// ErrDigest is wrapped when a digest cannot be computed for the given text.
	ErrDigest = errors.New("digest computation failed")

	ErrUnknownAlgorithm = errors.New("unknown digest algorithm")
)
