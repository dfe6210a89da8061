// Package heartbeatrpc is the default transport for the injected
// heartbeat(infos, addr) -> bool RPC. It reuses google.golang.org/grpc the
// same way connection.Manager talks to its own server, but carries plain
// JSON-tagged request/response structs instead of protobuf-generated ones:
// with no .proto-generated stubs available and no protoc step in this
// build, a hand-registered "json" encoding.Codec stands in for the
// protobuf wire codec — a real, supported gRPC extension point, not a
// hand-rolled wire format.
package heartbeatrpc

import "github.com/fitframework/fit-registry-go/internal/heartbeat"

// HeartbeatRequest is the wire shape of one heartbeat(infos, addr) call.
type HeartbeatRequest struct {
	Infos []heartbeat.HeartBeatInfo `json:"infos"`
	Addr  heartbeat.HeartBeatAddress `json:"addr"`
}

// HeartbeatResponse carries the heartbeat's bool result.
type HeartbeatResponse struct {
	OK bool `json:"ok"`
}
