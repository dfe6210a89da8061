package heartbeat

import "context"

// Transport is the injected heartbeat RPC, distinct from the registry
// backend. The thread worker calls it directly; the process worker's
// child process builds its own Transport (internal/heartbeatrpc.NewClient)
// from Config.RPCAddr instead, since a Go interface value cannot cross a
// process boundary.
type Transport interface {
	Heartbeat(ctx context.Context, infos []HeartBeatInfo, addr HeartBeatAddress) (bool, error)
}

// Runtime is the set of downstream methods the Heartbeat Agent calls back
// into on the owning Runtime.
type Runtime interface {
	GetRuntimeWorkerID() string
	RuntimeShutdown()
	RegisterAllFitServices()
}
