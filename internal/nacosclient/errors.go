package nacosclient

import "errors"

// Sentinel errors raised by the Backend Adapter.
var (
	// ErrBackendUnavailable means the adapter was never started, or Nacos
	// client construction failed during Start — initialization failure is
	// not retried automatically by the adapter.
	ErrBackendUnavailable = errors.New("nacosclient: backend unavailable")

	// ErrBackendTimeout means a Call exceeded its per-call timeout.
	ErrBackendTimeout = errors.New("nacosclient: backend call timed out")

	// ErrBackendShutdown means Stop was called while a Call was in flight.
	ErrBackendShutdown = errors.New("nacosclient: adapter shut down")
)
