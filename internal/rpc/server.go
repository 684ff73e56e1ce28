// Package rpc exposes the engine over a JSON-RPC 2.0 Unix domain socket,
// framed with a 4-byte big-endian length prefix (spec.md §6).
package rpc

import (
	"context"
	"encoding/json"
	"net"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/hamr-launcher/hamr/internal/engine"
	"github.com/hamr-launcher/hamr/internal/herr"
	"github.com/hamr-launcher/hamr/internal/logging"
	"github.com/hamr-launcher/hamr/internal/model"
	"github.com/hamr-launcher/hamr/internal/plugin"
	"github.com/hamr-launcher/hamr/pkg/hamrproto"
	"github.com/sourcegraph/jsonrpc2"
	"golang.org/x/sync/errgroup"
)

var rlog = logging.WithComponent("rpc.Server")

// notifyInterval is how often a connection's background pump checks the
// engine for buffered updates and ambient plugin pushes to forward.
const notifyInterval = 50 * time.Millisecond

// Server owns the listening Unix socket and every active connection's
// tracked task, per spec.md §5's "one task per connection" model.
type Server struct {
	socketPath string
	engine     *engine.Engine
	registry   *plugin.Registry

	group  *errgroup.Group
	gctx   context.Context
	cancel context.CancelFunc
}

// New constructs a Server bound to socketPath; call Serve to start
// accepting connections.
func New(socketPath string, eng *engine.Engine, registry *plugin.Registry) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	group, gctx := errgroup.WithContext(ctx)
	return &Server{socketPath: socketPath, engine: eng, registry: registry, group: group, gctx: gctx, cancel: cancel}
}

// Serve removes any stale socket file, listens, and accepts connections
// until the server's context is cancelled (spec.md §5's accept-loop
// task). It blocks until every tracked task has exited.
func (s *Server) Serve() error {
	_ = os.Remove(s.socketPath)

	ln, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return herr.Wrap(herr.KindRPC, err, "cannot listen on socket")
	}
	defer os.Remove(s.socketPath)

	s.group.Go(func() error {
		<-s.gctx.Done()
		return ln.Close()
	})

	s.group.Go(func() error {
		for {
			conn, err := ln.Accept()
			if err != nil {
				if s.gctx.Err() != nil {
					return nil
				}
				return herr.Wrap(herr.KindRPC, err, "accept failed")
			}
			s.group.Go(func() error {
				s.handleConn(conn)
				return nil
			})
		}
	})

	err = s.group.Wait()
	if err != nil && s.gctx.Err() != nil {
		return nil
	}
	return err
}

// Shutdown cancels the server context and returns at once: the accept
// loop stops and each connection task closes its connection. It does not
// wait for those tasks or for requests in flight, and open connections
// are closed rather than drained; Serve returns once the tasks have exited.
func (s *Server) Shutdown() {
	s.cancel()
}

func (s *Server) handleConn(netConn net.Conn) {
	connID := uuid.NewString()
	clog := rlog.WithField("conn", connID)
	clog.Debug("connection accepted")

	stream := newFramedStream(netConn)
	h := &handler{engine: s.engine, registry: s.registry, log: clog}
	conn := jsonrpc2.NewConn(s.gctx, stream, h)
	h.conn = conn

	pumpDone := make(chan struct{})
	go func() {
		defer close(pumpDone)
		s.notifyPump(conn, connID)
	}()

	select {
	case <-conn.DisconnectNotify():
	case <-s.gctx.Done():
		_ = conn.Close()
	}
	<-pumpDone
	clog.Debug("connection closed")
}

// notifyPump forwards the engine's buffered updates and ambient plugin
// pushes to this connection as `update` notifications, preserving
// emission order per connection (spec.md §5).
func (s *Server) notifyPump(conn *jsonrpc2.Conn, connID string) {
	ticker := time.NewTicker(notifyInterval)
	defer ticker.Stop()
	for {
		select {
		case <-conn.DisconnectNotify():
			return
		case <-s.gctx.Done():
			return
		case <-ticker.C:
			for _, u := range s.engine.Poll() {
				sendUpdate(conn, u)
			}
			for _, u := range s.engine.AmbientUpdates() {
				sendUpdate(conn, u)
			}
		}
	}
}

func sendUpdate(conn *jsonrpc2.Conn, u model.CoreUpdate) {
	payload := hamrproto.UpdateNotification{Kind: u.Kind, Payload: u}
	if err := conn.Notify(context.Background(), hamrproto.NotificationUpdate, payload); err != nil {
		rlog.WithError(err).Debug("failed to send update notification; connection likely closed")
	}
}

// handler dispatches each inbound JSON-RPC request to the engine,
// honoring spec.md §5's per-connection FIFO ordering: jsonrpc2 invokes
// Handle for one request at a time per connection in arrival order.
type handler struct {
	engine   *engine.Engine
	registry *plugin.Registry
	log      logging.Entry
	conn     *jsonrpc2.Conn
}

func (h *handler) Handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	result, err := h.dispatch(ctx, req)
	if req.Notif {
		return
	}
	if err != nil {
		_ = conn.ReplyWithError(ctx, req.ID, &jsonrpc2.Error{Code: jsonrpc2.CodeInternalError, Message: err.Error()})
		return
	}
	if err := conn.Reply(ctx, req.ID, result); err != nil {
		h.log.WithError(err).Debug("failed to send reply")
	}
}

// emit runs ev through the engine and pushes every synchronous update it
// returns straight to this connection, rather than leaving them to be
// picked up by notifyPump's Poll() drain. The engine's async updates
// (plugin round-trips that finish after Process returns) still arrive
// later through e.updates and are forwarded by notifyPump as before.
func (h *handler) emit(ctx context.Context, ev model.CoreEvent) hamrproto.Ack {
	for _, u := range h.engine.Process(ctx, ev) {
		sendUpdate(h.conn, u)
	}
	return hamrproto.Ack{OK: true}
}

func (h *handler) dispatch(ctx context.Context, req *jsonrpc2.Request) (interface{}, error) {
	switch req.Method {
	case hamrproto.MethodQuery:
		var p hamrproto.QueryParams
		if err := unmarshalParams(req, &p); err != nil {
			return nil, err
		}
		return h.emit(ctx, model.CoreEvent{Kind: model.EventQueryChanged, Text: p.Text}), nil

	case hamrproto.MethodSelectItem:
		var p hamrproto.SelectItemParams
		if err := unmarshalParams(req, &p); err != nil {
			return nil, err
		}
		return h.emit(ctx, model.CoreEvent{Kind: model.EventItemSelected, Key: p.Key, ActionID: p.ActionID}), nil

	case hamrproto.MethodInvokePluginAction:
		var p hamrproto.InvokePluginActionParams
		if err := unmarshalParams(req, &p); err != nil {
			return nil, err
		}
		return h.emit(ctx, model.CoreEvent{
			Kind: model.EventPluginActionInvoked, PluginID: p.PluginID, ActionID: p.ActionID, Confirmed: p.Confirmed,
		}), nil

	case hamrproto.MethodSubmitForm:
		var p hamrproto.SubmitFormParams
		if err := unmarshalParams(req, &p); err != nil {
			return nil, err
		}
		data := make(map[string]interface{}, len(p.Data))
		for k, v := range p.Data {
			data[k] = v
		}
		return h.emit(ctx, model.CoreEvent{Kind: model.EventFormSubmitted, FormData: data}), nil

	case hamrproto.MethodChangeFormSlider:
		var p hamrproto.ChangeFormSliderParams
		if err := unmarshalParams(req, &p); err != nil {
			return nil, err
		}
		return h.emit(ctx, model.CoreEvent{Kind: model.EventFormSliderChanged, FieldID: p.FieldID, SliderValue: p.Value}), nil

	case hamrproto.MethodToggleFormSwitch:
		var p hamrproto.ToggleFormSwitchParams
		if err := unmarshalParams(req, &p); err != nil {
			return nil, err
		}
		return h.emit(ctx, model.CoreEvent{Kind: model.EventFormSwitchChanged, FieldID: p.FieldID, SwitchValue: p.Value}), nil

	case hamrproto.MethodCommitSlider:
		var p hamrproto.CommitSliderParams
		if err := unmarshalParams(req, &p); err != nil {
			return nil, err
		}
		return h.emit(ctx, model.CoreEvent{Kind: model.EventSliderCommitted, ItemID: p.ItemID, SliderValue: p.Value}), nil

	case hamrproto.MethodToggleSwitch:
		var p hamrproto.ToggleSwitchParams
		if err := unmarshalParams(req, &p); err != nil {
			return nil, err
		}
		return h.emit(ctx, model.CoreEvent{Kind: model.EventSwitchToggled, ItemID: p.ItemID, SwitchValue: p.Value}), nil

	case hamrproto.MethodBack:
		return h.emit(ctx, model.CoreEvent{Kind: model.EventBack}), nil

	case hamrproto.MethodHome:
		return h.emit(ctx, model.CoreEvent{Kind: model.EventHome}), nil

	case hamrproto.MethodReindex:
		var p hamrproto.ReindexParams
		if err := unmarshalParams(req, &p); err != nil {
			return nil, err
		}
		return h.emit(ctx, model.CoreEvent{Kind: model.EventReindexRequested, PluginID: p.PluginID}), nil

	case hamrproto.MethodAudit:
		return h.audit(), nil

	default:
		return nil, herr.New(herr.KindRPC, "unknown method "+req.Method)
	}
}

func (h *handler) audit() hamrproto.AuditResult {
	plugins := h.registry.List()
	entries := make([]hamrproto.PluginAuditEntry, 0, len(plugins))
	for _, p := range plugins {
		entries = append(entries, hamrproto.PluginAuditEntry{
			ID:     p.ID,
			Status: string(p.ChecksumStatus),
			Issues: p.ChecksumIssues,
			State:  string(p.State()),
		})
	}
	return hamrproto.AuditResult{Plugins: entries}
}

func unmarshalParams(req *jsonrpc2.Request, v interface{}) error {
	if req.Params == nil {
		return herr.New(herr.KindRPC, "missing params for "+req.Method)
	}
	if err := json.Unmarshal(*req.Params, v); err != nil {
		return herr.Wrap(herr.KindCodec, err, "malformed params for "+req.Method)
	}
	return nil
}
