package nacosclient

import (
	"strings"

	"github.com/nacos-group/nacos-sdk-go/v2/common/constant"
)

// constantClientConfig translates Config into the SDK's ClientConfig.
func constantClientConfig(cfg Config) constant.ClientConfig {
	return constant.ClientConfig{
		NamespaceId:         cfg.EffectiveNamespace(),
		Username:            cfg.Username,
		Password:            cfg.Password,
		AccessKey:           cfg.AccessKey,
		SecretKey:           cfg.SecretKey,
		TimeoutMs:           uint64(cfg.CallTimeout.Milliseconds()),
		NotLoadCacheAtStart: true,
		LogDir:              "/tmp/nacos/log",
		CacheDir:            "/tmp/nacos/cache",
	}
}

// constantServerConfigs translates the comma-separated ServerAddr into one
// ServerConfig per address.
func constantServerConfigs(cfg Config) []constant.ServerConfig {
	addrs := strings.Split(cfg.ServerAddr, ",")
	out := make([]constant.ServerConfig, 0, len(addrs))
	for _, addr := range addrs {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		host, port := splitHostPort(addr)
		out = append(out, constant.ServerConfig{
			IpAddr: host,
			Port:   port,
		})
	}
	return out
}

func splitHostPort(addr string) (string, uint64) {
	idx := strings.LastIndex(addr, ":")
	if idx < 0 {
		return addr, 8848
	}
	host := addr[:idx]
	port := addr[idx+1:]
	var p uint64
	for _, r := range port {
		if r < '0' || r > '9' {
			return host, 8848
		}
		p = p*10 + uint64(r-'0')
	}
	if p == 0 {
		return host, 8848
	}
	return host, p
}
