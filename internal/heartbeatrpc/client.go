package heartbeatrpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/fitframework/fit-registry-go/internal/heartbeat"
)

// Client is the default heartbeat.Transport: a single long-lived
// *grpc.ClientConn, insecure transport credentials, and one unary call per
// tick rather than a streaming RPC — the same shape connection.Manager
// uses to reach its own server.
type Client struct {
	conn *grpc.ClientConn
}

// NewClient returns a Transport for addr. Per grpc.NewClient's own
// contract no connection is made here; connection failures surface on the
// first Heartbeat call instead.
func NewClient(addr string) (*Client, error) {
	conn, err := grpc.NewClient(
		addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecName)),
	)
	if err != nil {
		return nil, fmt.Errorf("heartbeatrpc: dial %s: %w", addr, err)
	}
	return &Client{conn: conn}, nil
}

// NewClientFromConn wraps an already-established connection (used by
// tests dialing a bufconn listener, and by anything sharing one ClientConn
// across several stubs).
func NewClientFromConn(conn *grpc.ClientConn) *Client {
	return &Client{conn: conn}
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// Heartbeat implements heartbeat.Transport.
func (c *Client) Heartbeat(ctx context.Context, infos []heartbeat.HeartBeatInfo, addr heartbeat.HeartBeatAddress) (bool, error) {
	req := &HeartbeatRequest{Infos: infos, Addr: addr}
	resp := new(HeartbeatResponse)
	if err := c.conn.Invoke(ctx, fullMethod, req, resp); err != nil {
		return false, fmt.Errorf("heartbeatrpc: heartbeat call: %w", err)
	}
	return resp.OK, nil
}
