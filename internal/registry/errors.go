package registry

import (
	"errors"
	"fmt"

	"github.com/fitframework/fit-registry-go/types"
)

// ErrPartialFailure is the sentinel wrapped whenever a bulk operation
// (register/unregister/unsubscribe) had at least one sub-failure. One failure never
// aborts the rest of the batch.
var ErrPartialFailure = errors.New("registry: partial failure")

// PartialFailure carries every input that failed within a bulk operation,
// alongside the error each one produced, joined via errors.Join so
// callers can still walk the individual causes with errors.Unwrap/[]error.
type PartialFailure struct {
	Failed []types.Fitable
	causes error
}

func (e *PartialFailure) Error() string {
	return fmt.Sprintf("registry: %d of the batch failed: %v", len(e.Failed), e.causes)
}

func (e *PartialFailure) Unwrap() []error {
	return []error{ErrPartialFailure, e.causes}
}

func newPartialFailure(failed []types.Fitable, causes []error) error {
	if len(failed) == 0 {
		return nil
	}
	return &PartialFailure{Failed: failed, causes: errors.Join(causes...)}
}
