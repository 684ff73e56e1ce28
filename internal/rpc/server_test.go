package rpc

import (
	"context"
	"encoding/json"
	"net"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hamr-launcher/hamr/internal/config"
	"github.com/hamr-launcher/hamr/internal/engine"
	"github.com/hamr-launcher/hamr/internal/frecency"
	"github.com/hamr-launcher/hamr/internal/logging"
	"github.com/hamr-launcher/hamr/internal/model"
	"github.com/hamr-launcher/hamr/internal/plugin"
	"github.com/hamr-launcher/hamr/pkg/hamrproto"
	"github.com/sourcegraph/jsonrpc2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingHandler captures every `update` notification a server pushes to
// a client connection, standing in for a real front-end.
type recordingHandler struct {
	mu    sync.Mutex
	notes []hamrproto.UpdateNotification
}

func (h *recordingHandler) Handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	if req.Method != hamrproto.NotificationUpdate || req.Params == nil {
		return
	}
	var n hamrproto.UpdateNotification
	if err := json.Unmarshal(*req.Params, &n); err != nil {
		return
	}
	h.mu.Lock()
	h.notes = append(h.notes, n)
	h.mu.Unlock()
}

func (h *recordingHandler) snapshot() []hamrproto.UpdateNotification {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]hamrproto.UpdateNotification, len(h.notes))
	copy(out, h.notes)
	return out
}

func newTestHandler(t *testing.T) *handler {
	t.Helper()
	store, err := frecency.Open(filepath.Join(t.TempDir(), "frecency.json"))
	require.NoError(t, err)

	registry := plugin.NewRegistry(nil, false, false)

	var cfgPtr atomic.Pointer[config.Config]
	cfg := config.Default()
	cfgPtr.Store(&cfg)

	eng := engine.New(registry, store, &cfgPtr)
	return &handler{engine: eng, registry: registry, log: logging.WithComponent("rpc.test")}
}

// TestDispatchForwardsSynchronousUpdatesToTheCaller pins down the bug the
// RPC boundary used to have: queryChanged's fused local-results update is
// returned synchronously by Process, and must reach the client instead of
// being dropped on the floor waiting for notifyPump's async drain.
func TestDispatchForwardsSynchronousUpdatesToTheCaller(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	h := newTestHandler(t)
	ctx := context.Background()

	rh := &recordingHandler{}
	client := jsonrpc2.NewConn(ctx, newFramedStream(clientConn), rh)
	defer client.Close()

	serverJSONConn := jsonrpc2.NewConn(ctx, newFramedStream(serverConn), h)
	h.conn = serverJSONConn
	defer serverJSONConn.Close()

	var ack hamrproto.Ack
	err := client.Call(ctx, hamrproto.MethodQuery, hamrproto.QueryParams{Text: ""}, &ack)
	require.NoError(t, err)
	require.True(t, ack.OK)

	require.Eventually(t, func() bool {
		return len(rh.snapshot()) == 1
	}, time.Second, 10*time.Millisecond)

	notes := rh.snapshot()
	require.Len(t, notes, 1)
	assert.Equal(t, model.UpdateResults, notes[0].Kind)
	assert.Equal(t, "It's hamr time!", notes[0].Payload.Placeholder)
}
