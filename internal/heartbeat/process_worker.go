package heartbeat

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// processWorker runs the heartbeat loop in a separate OS process
// (cmd/heartbeatworker), reusing the same os/exec-based subprocess
// plumbing as hooks.Runner but long-lived rather than one-shot.
type processWorker struct {
	binary string
	cfg    WireStartConfig
	logger *zap.Logger

	cmd   *exec.Cmd
	stdin io.WriteCloser

	alive atomic.Bool
}

func newProcessWorker(binary string, cfg WireStartConfig, logger *zap.Logger) *processWorker {
	return &processWorker{binary: binary, cfg: cfg, logger: logger.Named("heartbeat.process")}
}

func (w *processWorker) start(onEvent func(workerEvent)) (<-chan struct{}, error) {
	cmd := exec.Command(w.binary)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, err
	}

	if err := cmd.Start(); err != nil {
		return nil, err
	}
	w.cmd = cmd
	w.stdin = stdin
	w.alive.Store(true)

	startLine, err := json.Marshal(w.cfg)
	if err != nil {
		_ = cmd.Process.Kill()
		return nil, err
	}
	if _, err := stdin.Write(append(startLine, '\n')); err != nil {
		_ = cmd.Process.Kill()
		return nil, err
	}

	done := make(chan struct{})

	go w.drainStdout(stdout, onEvent)
	go w.drainStderr(stderr)
	go func() {
		_ = cmd.Wait()
		w.alive.Store(false)
		close(done)
	}()

	return done, nil
}

func (w *processWorker) drainStdout(stdout io.Reader, onEvent func(workerEvent)) {
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		var wire WireTickEvent
		if err := json.Unmarshal(scanner.Bytes(), &wire); err != nil {
			w.logger.Warn("malformed tick event from child", zap.Error(err))
			continue
		}
		evt := workerEvent{
			Outcome:   wireToOutcome(wire.Outcome),
			Elapsed:   time.Duration(wire.ElapsedMS) * time.Millisecond,
			Unstable:  wire.Unstable,
			FailCount: wire.FailCount,
		}
		if wire.Err != "" {
			evt.Err = fmt.Errorf("%w: %s", errBeatRejected, wire.Err)
		}
		onEvent(evt)
	}
}

func (w *processWorker) drainStderr(stderr io.Reader) {
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		w.logger.Warn("heartbeat worker stderr", zap.String("line", scanner.Text()))
	}
}

func (w *processWorker) isAlive() bool {
	return w.alive.Load()
}

// stop requests a clean child exit: it writes the stop command and closes
// stdin. It does not block for the child to actually exit — the Agent's
// supervisor observes that through the done channel returned by start.
func (w *processWorker) stop() {
	if w.stdin == nil {
		return
	}
	_, _ = w.stdin.Write([]byte(stopCommand + "\n"))
	_ = w.stdin.Close()
}
