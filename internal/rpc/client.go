package rpc

import (
	"context"
	"net"

	"github.com/hamr-launcher/hamr/internal/herr"
	"github.com/sourcegraph/jsonrpc2"
)

// Dial connects to a hamrd server's Unix socket and returns a ready
// jsonrpc2.Conn using the same length-prefixed framing as the server,
// for use by thin CLI clients (spec.md §6's CLI surface).
func Dial(ctx context.Context, socketPath string) (*jsonrpc2.Conn, error) {
	netConn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, herr.Wrap(herr.KindRPC, err, "cannot connect to hamrd socket")
	}
	stream := newFramedStream(netConn)
	conn := jsonrpc2.NewConn(ctx, stream, jsonrpc2.HandlerWithError(noopClientHandler))
	return conn, nil
}

// noopClientHandler discards server-initiated notifications (the
// `update` stream) for clients that only issue one call and exit, like
// the CLI companion; a persistent front-end would supply its own Handler.
func noopClientHandler(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (interface{}, error) {
	return nil, nil
}
