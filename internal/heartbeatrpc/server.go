package heartbeatrpc

import (
	"context"

	"google.golang.org/grpc"
)

// fullMethod is the RPC route both client and server agree on. There is no
// .proto file behind it — the retrieval pack's original_source/ did not
// carry one through filtering — so the service is registered directly
// against grpc.ServiceDesc the way grpc-go itself does it before protoc-
// gen-go ever runs.
const fullMethod = "/fit.heartbeat.HeartbeatService/Heartbeat"

// Handler answers one heartbeat(infos, addr) call on the server side.
type Handler interface {
	Heartbeat(ctx context.Context, req *HeartbeatRequest) (*HeartbeatResponse, error)
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(ctx context.Context, req *HeartbeatRequest) (*HeartbeatResponse, error)

func (f HandlerFunc) Heartbeat(ctx context.Context, req *HeartbeatRequest) (*HeartbeatResponse, error) {
	return f(ctx, req)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: "fit.heartbeat.HeartbeatService",
	HandlerType: (*Handler)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Heartbeat", Handler: heartbeatHandler},
	},
	Streams: []grpc.StreamDesc{},
}

func heartbeatHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(HeartbeatRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Handler).Heartbeat(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(Handler).Heartbeat(ctx, req.(*HeartbeatRequest))
	}
	return interceptor(ctx, req, info, handler)
}

// NewServer wraps a Handler in a *grpc.Server with the heartbeat service
// already registered. Callers still choose the listener (TCP, bufconn).
func NewServer(h Handler, opts ...grpc.ServerOption) *grpc.Server {
	s := grpc.NewServer(opts...)
	s.RegisterService(&serviceDesc, h)
	return s
}
