package heartbeat

import "errors"

// errBeatRejected is used internally when the transport returns ok=false
// with a nil error — the loop still needs a non-nil err to log.
var errBeatRejected = errors.New("heartbeat: beat rejected")

// ErrAlreadyOnline is returned by Online when the agent's worker is
// already running.
var ErrAlreadyOnline = errors.New("heartbeat: already online")

// ErrNotOnline is returned by Offline when no worker is running.
var ErrNotOnline = errors.New("heartbeat: not online")
