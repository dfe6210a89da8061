package heartbeat

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
)

// ErrParentDied is returned by RunChild when stdin closes without a prior
// stop command — the out-of-process loop's signal that its parent Runtime
// is gone and it must exit without writing anything further: orphaned
// heartbeats must not keep a dead Runtime alive.
var ErrParentDied = errors.New("heartbeat: parent process died")

// RunChild is the entire body of the out-of-process heartbeat loop
// (cmd/heartbeatworker's main, factored out here so it can be unit tested
// without spawning a real subprocess). It reads one WireStartConfig line
// from stdin, then ticks forever — writing one WireTickEvent line to
// stdout per attempt — until it reads a stop command from stdin (clean
// exit, nil error) or stdin closes first (ErrParentDied).
//
// newTransport builds the Transport from the config's RPCAddr; production
// callers pass a constructor wrapping internal/heartbeatrpc.NewClient,
// tests pass a fake.
func RunChild(ctx context.Context, stdin io.Reader, stdout io.Writer, newTransport func(rpcAddr string) Transport) error {
	reader := bufio.NewReader(stdin)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return fmt.Errorf("heartbeat: child failed to read start config: %w", err)
	}
	var cfg WireStartConfig
	if err := json.Unmarshal([]byte(line), &cfg); err != nil {
		return fmt.Errorf("heartbeat: child failed to parse start config: %w", err)
	}

	transport := newTransport(cfg.RPCAddr)
	infos := []HeartBeatInfo{{SceneType: cfg.SceneType, AliveTimeMS: cfg.AliveTimeMS, InitDelayMS: cfg.InitDelayMS}}
	addr := HeartBeatAddress{WorkerID: cfg.WorkerID}
	interval := time.Duration(cfg.IntervalMS) * time.Millisecond

	stopped := make(chan struct{})
	died := make(chan struct{})
	go func() {
		for {
			cmdLine, err := reader.ReadString('\n')
			if err != nil {
				close(died)
				return
			}
			if trimNewline(cmdLine) == stopCommand {
				close(stopped)
				return
			}
		}
	}()

	state := NewLoopState()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	enc := json.NewEncoder(stdout)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stopped:
			return nil
		case <-died:
			return ErrParentDied
		case <-ticker.C:
			tickCtx, cancel := context.WithTimeout(ctx, interval)
			outcome, elapsed, unstable, tickErr := state.Tick(tickCtx, transport, infos, addr, interval)
			cancel()

			evt := WireTickEvent{
				Outcome:   outcomeToWire(outcome),
				ElapsedMS: elapsed.Milliseconds(),
				Unstable:  unstable,
				FailCount: state.FailCount(),
			}
			if tickErr != nil {
				evt.Err = tickErr.Error()
			}
			if err := enc.Encode(evt); err != nil {
				return fmt.Errorf("heartbeat: child failed to write tick event: %w", err)
			}
		}
	}
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
