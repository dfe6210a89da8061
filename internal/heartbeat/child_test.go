package heartbeat

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunChildEmitsTickEventsUntilStopCommand(t *testing.T) {
	stdinR, stdinW := io.Pipe()
	var stdout bytes.Buffer

	cfg := WireStartConfig{SceneType: "fit-registry", IntervalMS: 10, AliveTimeMS: 10000, InitDelayMS: 3000, WorkerID: "w1", RPCAddr: "ignored"}
	line, err := json.Marshal(cfg)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		done <- RunChild(context.Background(), stdinR, &stdout, func(string) Transport {
			return &fakeTransport{results: []bool{true}}
		})
	}()

	_, err = stdinW.Write(append(line, '\n'))
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	_, err = stdinW.Write([]byte("stop\n"))
	require.NoError(t, err)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("RunChild did not exit after stop command")
	}

	scanner := bufio.NewScanner(bytes.NewReader(stdout.Bytes()))
	count := 0
	for scanner.Scan() {
		var evt WireTickEvent
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &evt))
		assert.Equal(t, outcomeSuccess, evt.Outcome)
		count++
	}
	assert.Greater(t, count, 0)
}

func TestRunChildReturnsParentDiedOnStdinClose(t *testing.T) {
	stdinR, stdinW := io.Pipe()
	var stdout bytes.Buffer

	cfg := WireStartConfig{SceneType: "fit-registry", IntervalMS: 200, AliveTimeMS: 10000, InitDelayMS: 3000, WorkerID: "w1"}
	line, err := json.Marshal(cfg)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		done <- RunChild(context.Background(), stdinR, &stdout, func(string) Transport {
			return &fakeTransport{results: []bool{true}}
		})
	}()

	_, err = stdinW.Write(append(line, '\n'))
	require.NoError(t, err)
	require.NoError(t, stdinW.Close())

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrParentDied)
	case <-time.After(time.Second):
		t.Fatal("RunChild did not exit after stdin closed")
	}
}
