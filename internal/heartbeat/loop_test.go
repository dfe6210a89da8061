package heartbeat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedTransport struct {
	results []bool
	errs    []error
	calls   int
}

func (t *scriptedTransport) Heartbeat(ctx context.Context, infos []HeartBeatInfo, addr HeartBeatAddress) (bool, error) {
	i := t.calls
	t.calls++
	if i >= len(t.results) {
		i = len(t.results) - 1
	}
	var err error
	if i < len(t.errs) {
		err = t.errs[i]
	}
	return t.results[i], err
}

func TestLoopStateFirstSuccessIsPlain(t *testing.T) {
	state := NewLoopState()
	transport := &scriptedTransport{results: []bool{true}}

	outcome, elapsed, unstable, err := state.Tick(context.Background(), transport, nil, HeartBeatAddress{}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, TickSuccess, outcome)
	assert.Zero(t, elapsed)
	assert.False(t, unstable)
	assert.Equal(t, 0, state.FailCount())
}

func TestLoopStateFailureIncrementsCounter(t *testing.T) {
	state := NewLoopState()
	transport := &scriptedTransport{results: []bool{false}, errs: []error{errors.New("boom")}}

	outcome, _, _, err := state.Tick(context.Background(), transport, nil, HeartBeatAddress{}, time.Second)
	require.Error(t, err)
	assert.Equal(t, TickFailure, outcome)
	assert.Equal(t, 1, state.FailCount())
}

func TestLoopStateReconnectAfterFailureResetsCounter(t *testing.T) {
	state := NewLoopState()
	transport := &scriptedTransport{
		results: []bool{false, false, false, true},
		errs:    []error{errors.New("1"), errors.New("2"), errors.New("3"), nil},
	}

	for i := 0; i < 3; i++ {
		outcome, _, _, err := state.Tick(context.Background(), transport, nil, HeartBeatAddress{}, time.Second)
		require.Error(t, err)
		assert.Equal(t, TickFailure, outcome)
	}
	assert.Equal(t, 3, state.FailCount())

	outcome, _, _, err := state.Tick(context.Background(), transport, nil, HeartBeatAddress{}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, TickReconnected, outcome)
	assert.Equal(t, 0, state.FailCount())
}

func TestLoopStateFlagsUnstableAfterLongGap(t *testing.T) {
	state := &LoopState{lastSuccess: time.Now().Add(-time.Hour)}
	transport := &scriptedTransport{results: []bool{true}}

	outcome, elapsed, unstable, err := state.Tick(context.Background(), transport, nil, HeartBeatAddress{}, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, TickSuccess, outcome)
	assert.True(t, unstable)
	assert.Greater(t, elapsed, time.Millisecond)
}
