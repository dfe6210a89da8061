package nacosclient

import (
	"context"

	"github.com/nacos-group/nacos-sdk-go/v2/model"
	"github.com/nacos-group/nacos-sdk-go/v2/vo"
)

// Instance is the adapter's view of a registered backend instance: just
// enough to let the Registry Client build a Fitable query result without
// depending on the Nacos SDK's model package directly.
type Instance struct {
	IP       string
	Port     int
	Healthy  bool
	Weight   float64
	Metadata map[string]string
}

func fromSDKInstance(in model.Instance) Instance {
	return Instance{
		IP:       in.Ip,
		Port:     int(in.Port),
		Healthy:  in.Healthy,
		Weight:   in.Weight,
		Metadata: in.Metadata,
	}
}

// RegisterParam is the adapter's view of a single instance registration.
type RegisterParam struct {
	GroupName   string
	ServiceName string
	IP          string
	Port        int
	Weight      float64
	Ephemeral   bool
	Metadata    map[string]string
}

// RegisterInstance registers one instance with Nacos.
func (a *Adapter) RegisterInstance(ctx context.Context, p RegisterParam) error {
	_, err := Call(ctx, a, "registerInstance", func(c NamingClient) (struct{}, error) {
		_, err := c.RegisterInstance(vo.RegisterInstanceParam{
			Ip:          p.IP,
			Port:        uint64(p.Port),
			Weight:      p.Weight,
			Enable:      true,
			Healthy:     true,
			Ephemeral:   p.Ephemeral,
			Metadata:    p.Metadata,
			GroupName:   p.GroupName,
			ServiceName: p.ServiceName,
		})
		return struct{}{}, err
	})
	return err
}

// DeregisterParam is the adapter's view of a single instance deregistration.
type DeregisterParam struct {
	GroupName   string
	ServiceName string
	IP          string
	Port        int
	Ephemeral   bool
}

// DeregisterInstance removes one instance from Nacos.
func (a *Adapter) DeregisterInstance(ctx context.Context, p DeregisterParam) error {
	_, err := Call(ctx, a, "deregisterInstance", func(c NamingClient) (struct{}, error) {
		_, err := c.DeregisterInstance(vo.DeregisterInstanceParam{
			Ip:          p.IP,
			Port:        uint64(p.Port),
			Ephemeral:   p.Ephemeral,
			GroupName:   p.GroupName,
			ServiceName: p.ServiceName,
		})
		return struct{}{}, err
	})
	return err
}

// ListInstances returns the instances registered under (group, service).
// With healthyOnly set, only healthy instances are returned.
func (a *Adapter) ListInstances(ctx context.Context, groupName, serviceName string, healthyOnly bool) ([]Instance, error) {
	sdkInstances, err := Call(ctx, a, "listInstances", func(c NamingClient) ([]model.Instance, error) {
		return c.SelectInstances(vo.SelectInstancesParam{
			GroupName:   groupName,
			ServiceName: serviceName,
			HealthyOnly: healthyOnly,
		})
	})
	if err != nil {
		return nil, err
	}

	out := make([]Instance, 0, len(sdkInstances))
	for _, in := range sdkInstances {
		out = append(out, fromSDKInstance(in))
	}
	return out, nil
}

// ListServices enumerates service names registered under a group,
// paginated — callers iterate pages until exhausted.
func (a *Adapter) ListServices(ctx context.Context, namespace, groupName string, pageNo, pageSize int) (services []string, total int, err error) {
	list, err := Call(ctx, a, "listServices", func(c NamingClient) (model.ServiceList, error) {
		return c.GetAllServicesInfo(vo.GetAllServiceInfoParam{
			NameSpace: namespace,
			GroupName: groupName,
			PageNo:    uint32(pageNo),
			PageSize:  uint32(pageSize),
		})
	})
	if err != nil {
		return nil, 0, err
	}
	return list.Doms, int(list.Count), nil
}

// Listener is invoked whenever the backend reports a membership change for
// (group, service). It runs on the goroutine the Nacos SDK delivers its
// callback on, not on the adapter's scheduler goroutine. Implementers must
// do no blocking work — enqueue into a worker pool instead.
type Listener func(instances []Instance, err error)

// Subscribe installs a backend listener for (group, service). The same
// *vo.SubscribeParam value must later be passed to Unsubscribe, because
// Nacos matches subscriptions by callback identity — the Registry Client
// is responsible for retaining the handle this returns.
func (a *Adapter) Subscribe(ctx context.Context, groupName, serviceName string, l Listener) (*vo.SubscribeParam, error) {
	param := &vo.SubscribeParam{
		GroupName:   groupName,
		ServiceName: serviceName,
		SubscribeCallback: func(services []model.Instance, err error) {
			out := make([]Instance, 0, len(services))
			for _, in := range services {
				out = append(out, fromSDKInstance(in))
			}
			l(out, err)
		},
	}

	_, err := Call(ctx, a, "subscribe", func(c NamingClient) (struct{}, error) {
		return struct{}{}, c.Subscribe(param)
	})
	if err != nil {
		return nil, err
	}
	return param, nil
}

// Unsubscribe tears down a backend listener previously installed by
// Subscribe. param must be the exact value Subscribe returned.
func (a *Adapter) Unsubscribe(ctx context.Context, param *vo.SubscribeParam) error {
	_, err := Call(ctx, a, "unsubscribe", func(c NamingClient) (struct{}, error) {
		return struct{}{}, c.Unsubscribe(param)
	})
	return err
}
