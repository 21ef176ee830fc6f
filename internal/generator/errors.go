package generator

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/dkrando/internal/game/entrance"
	"github.com/cory-johannsen/dkrando/internal/game/fill"
)

var (
	// ErrExhausted reports a seed that found no completable placement
	// within the attempt bound.
	ErrExhausted = errors.New("generator: attempts exhausted")
	// ErrConfiguration reports settings or content that can never produce
	// a seed. It is never retried.
	ErrConfiguration = errors.New("generator: configuration error")
	// ErrFillExhausted reports a fill attempt that ran out of candidate
	// locations. It is retried.
	ErrFillExhausted = errors.New("generator: fill exhausted")
)

// GenerationError is returned when every attempt for a seed failed.
type GenerationError struct {
	Seed     uint64
	Attempts int
	// Last is the failure of the final attempt.
	Last error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("seed %d: no completable placement after %d attempts: %v", e.Seed, e.Attempts, e.Last)
}

// Unwrap exposes ErrExhausted and the last attempt's failure to errors.Is.
func (e *GenerationError) Unwrap() []error {
	return []error{ErrExhausted, e.Last}
}

// retryReason names the metric label of a failed attempt.
func retryReason(err error) string {
	switch {
	case errors.Is(err, ErrFillExhausted):
		return "fill_exhausted"
	case errors.Is(err, fill.ErrUnverified):
		return "unverified"
	case errors.Is(err, entrance.ErrDisconnected):
		return "disconnected"
	case errors.Is(err, entrance.ErrNoCandidate):
		return "no_door"
	}
	return "other"
}
