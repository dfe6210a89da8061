package nacosclient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nacos-group/nacos-sdk-go/v2/model"
	"github.com/nacos-group/nacos-sdk-go/v2/vo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeNamingClient is an in-memory stand-in for the Nacos SDK used so the
// adapter's scheduler-goroutine and timeout behavior can be exercised
// without a real Nacos server.
type fakeNamingClient struct {
	instances map[string][]model.Instance
	closed    bool
	subParam  *vo.SubscribeParam

	registerErr error
	selectDelay time.Duration
}

func (f *fakeNamingClient) RegisterInstance(p vo.RegisterInstanceParam) (bool, error) {
	if f.registerErr != nil {
		return false, f.registerErr
	}
	key := p.GroupName + "|" + p.ServiceName
	f.instances[key] = append(f.instances[key], model.Instance{
		Ip: p.Ip, Port: p.Port, Healthy: true, Weight: p.Weight, Metadata: p.Metadata,
	})
	return true, nil
}

func (f *fakeNamingClient) DeregisterInstance(p vo.DeregisterInstanceParam) (bool, error) {
	key := p.GroupName + "|" + p.ServiceName
	out := f.instances[key][:0]
	for _, in := range f.instances[key] {
		if in.Ip == p.Ip && in.Port == p.Port {
			continue
		}
		out = append(out, in)
	}
	f.instances[key] = out
	return true, nil
}

func (f *fakeNamingClient) SelectInstances(p vo.SelectInstancesParam) ([]model.Instance, error) {
	if f.selectDelay > 0 {
		time.Sleep(f.selectDelay)
	}
	key := p.GroupName + "|" + p.ServiceName
	return f.instances[key], nil
}

func (f *fakeNamingClient) GetAllServicesInfo(p vo.GetAllServiceInfoParam) (model.ServiceList, error) {
	return model.ServiceList{Count: 0, Doms: nil}, nil
}

func (f *fakeNamingClient) Subscribe(p *vo.SubscribeParam) error {
	f.subParam = p
	return nil
}

func (f *fakeNamingClient) Unsubscribe(p *vo.SubscribeParam) error {
	if f.subParam != p {
		return errors.New("subscribe param mismatch")
	}
	f.subParam = nil
	return nil
}

func (f *fakeNamingClient) CloseClient() {
	f.closed = true
}

func newTestAdapter(t *testing.T, fake *fakeNamingClient) *Adapter {
	t.Helper()
	cfg := DefaultConfig()
	cfg.ServerAddr = "127.0.0.1:8848"
	cfg.CallTimeout = 200 * time.Millisecond
	cfg.InitTimeout = time.Second

	orig := newNamingClientFunc
	newNamingClientFunc = func(Config) (NamingClient, error) { return fake, nil }
	t.Cleanup(func() { newNamingClientFunc = orig })

	a := New(cfg, zap.NewNop())
	require.NoError(t, a.Start(context.Background()))
	t.Cleanup(a.Stop)
	return a
}

func TestRegisterThenListInstances(t *testing.T) {
	fake := &fakeNamingClient{instances: map[string][]model.Instance{}}
	a := newTestAdapter(t, fake)

	err := a.RegisterInstance(context.Background(), RegisterParam{
		GroupName: "g::1", ServiceName: "f::1", IP: "10.0.0.5", Port: 8080, Weight: 1, Ephemeral: true,
	})
	require.NoError(t, err)

	instances, err := a.ListInstances(context.Background(), "g::1", "f::1", true)
	require.NoError(t, err)
	require.Len(t, instances, 1)
	assert.Equal(t, "10.0.0.5", instances[0].IP)
}

func TestDeregisterIsSelective(t *testing.T) {
	fake := &fakeNamingClient{instances: map[string][]model.Instance{}}
	a := newTestAdapter(t, fake)
	ctx := context.Background()

	require.NoError(t, a.RegisterInstance(ctx, RegisterParam{GroupName: "g", ServiceName: "s", IP: "10.0.0.1", Port: 1}))
	require.NoError(t, a.RegisterInstance(ctx, RegisterParam{GroupName: "g", ServiceName: "s", IP: "10.0.0.2", Port: 2}))

	require.NoError(t, a.DeregisterInstance(ctx, DeregisterParam{GroupName: "g", ServiceName: "s", IP: "10.0.0.1", Port: 1}))

	instances, err := a.ListInstances(ctx, "g", "s", true)
	require.NoError(t, err)
	require.Len(t, instances, 1)
	assert.Equal(t, "10.0.0.2", instances[0].IP)
}

func TestSubscribeThenUnsubscribeRoundTrip(t *testing.T) {
	fake := &fakeNamingClient{instances: map[string][]model.Instance{}}
	a := newTestAdapter(t, fake)
	ctx := context.Background()

	param, err := a.Subscribe(ctx, "g", "s", func(instances []Instance, err error) {})
	require.NoError(t, err)
	require.NotNil(t, fake.subParam)

	require.NoError(t, a.Unsubscribe(ctx, param))
	assert.Nil(t, fake.subParam)
}

func TestCallTimesOutWhenBackendNeverResponds(t *testing.T) {
	fake := &fakeNamingClient{instances: map[string][]model.Instance{}, selectDelay: time.Second}
	a := newTestAdapter(t, fake)

	_, err := a.ListInstances(context.Background(), "g", "s", true)
	assert.ErrorIs(t, err, ErrBackendTimeout)
}

func TestCallFailsAfterStop(t *testing.T) {
	fake := &fakeNamingClient{instances: map[string][]model.Instance{}}
	cfg := DefaultConfig()
	cfg.CallTimeout = time.Second
	cfg.InitTimeout = time.Second

	orig := newNamingClientFunc
	newNamingClientFunc = func(Config) (NamingClient, error) { return fake, nil }
	defer func() { newNamingClientFunc = orig }()

	a := New(cfg, zap.NewNop())
	require.NoError(t, a.Start(context.Background()))
	a.Stop()
	assert.True(t, fake.closed)

	_, err := a.ListInstances(context.Background(), "g", "s", true)
	assert.ErrorIs(t, err, ErrBackendShutdown)
}

func TestStartFailsWhenClientConstructionFails(t *testing.T) {
	orig := newNamingClientFunc
	newNamingClientFunc = func(Config) (NamingClient, error) { return nil, errors.New("boom") }
	defer func() { newNamingClientFunc = orig }()

	cfg := DefaultConfig()
	cfg.InitTimeout = time.Second
	a := New(cfg, zap.NewNop())

	err := a.Start(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBackendUnavailable)

	_, err = a.ListInstances(context.Background(), "g", "s", true)
	assert.ErrorIs(t, err, ErrBackendUnavailable)
}
