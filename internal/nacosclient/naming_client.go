package nacosclient

import (
	"github.com/nacos-group/nacos-sdk-go/v2/clients/naming_client"
	"github.com/nacos-group/nacos-sdk-go/v2/model"
	"github.com/nacos-group/nacos-sdk-go/v2/vo"
)

// NamingClient is the narrow slice of naming_client.INamingClient the
// adapter depends on. Declaring it here — rather than depending on the
// full SDK interface directly — lets tests substitute a fake without
// standing up a real Nacos server, the same boundary drawn around
// proto.AgentServiceClient in connection.Manager.
type NamingClient interface {
	RegisterInstance(vo.RegisterInstanceParam) (bool, error)
	DeregisterInstance(vo.DeregisterInstanceParam) (bool, error)
	SelectInstances(vo.SelectInstancesParam) ([]model.Instance, error)
	GetAllServicesInfo(vo.GetAllServiceInfoParam) (model.ServiceList, error)
	Subscribe(*vo.SubscribeParam) error
	Unsubscribe(*vo.SubscribeParam) error
	CloseClient()
}

// newNamingClientFunc is overridden in tests to avoid dialing a real
// Nacos server.
var newNamingClientFunc = func(cfg Config) (NamingClient, error) {
	clientConfig := constantClientConfig(cfg)
	serverConfigs := constantServerConfigs(cfg)

	client, err := naming_client.NewNamingClient(vo.NacosClientParam{
		ClientConfig:  &clientConfig,
		ServerConfigs: serverConfigs,
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}
