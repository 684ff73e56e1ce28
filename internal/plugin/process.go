package plugin

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"

	"github.com/hamr-launcher/hamr/internal/herr"
	"github.com/hamr-launcher/hamr/internal/logging"
	"github.com/hamr-launcher/hamr/pkg/pluginproto"
	"github.com/pkg/errors"
)

var plog2 = logging.WithComponent("plugin.Process")

// process wraps a spawned plugin subprocess. For one-shot plugins it lives
// for exactly one request; for daemon plugins it is kept on the owning
// Plugin for its whole run and reused across requests (spec.md §4.3
// "Subprocess model").
type process struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader

	mu      sync.Mutex
	exited  bool
	exitErr error

	waiterMu sync.Mutex
	waiter   chan *daemonResult // set while a request is outstanding

	ambient chan *pluginproto.Response // unsolicited daemon pushes
}

type daemonResult struct {
	resp *pluginproto.Response
	err  error
}

// buildCommand constructs the exec.Cmd for a plugin's handler, forwarding
// the test-mode/debug environment toggles spec.md §6 documents.
func buildCommand(ctx context.Context, argv []string, dir string, testMode, debug bool) *exec.Cmd {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Env = os.Environ()
	if testMode {
		cmd.Env = append(cmd.Env, "HAMR_TEST_MODE=1")
	}
	if debug {
		cmd.Env = append(cmd.Env, "HAMR_PLUGIN_DEBUG=1")
	}
	return cmd
}

// runOneShot spawns argv, writes req as a single JSON object to stdin,
// closes stdin, reads stdout to EOF, and parses exactly one JSON response
// (spec.md §4.3 "One-shot plugins").
func runOneShot(ctx context.Context, argv []string, dir string, testMode, debug bool, req pluginproto.Request) (*pluginproto.Response, error) {
	cmd := buildCommand(ctx, argv, dir, testMode, debug)

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, herr.Wrap(herr.KindCodec, err, "cannot encode plugin request")
	}
	cmd.Stdin = bytes.NewReader(payload)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, herr.Wrap(herr.KindPlugin, err, "one-shot handler exited with error: "+stderr.String())
	}

	var resp pluginproto.Response
	if err := json.Unmarshal(bytes.TrimSpace(stdout.Bytes()), &resp); err != nil {
		return nil, herr.Wrap(herr.KindPlugin, err, "malformed one-shot response")
	}
	return &resp, nil
}

// spawnDaemon starts a long-running plugin process with stdin/stdout kept
// open for line-delimited JSON requests and responses (spec.md §4.3
// "Daemon plugins"). The returned process's notifications channel
// receives every decoded line that isn't matched to the single in-flight
// request — i.e. unsolicited ambient pushes.
func spawnDaemon(ctx context.Context, argv []string, dir string, testMode, debug bool) (*process, error) {
	cmd := buildCommand(ctx, argv, dir, testMode, debug)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, herr.Wrap(herr.KindPlugin, err, "cannot open daemon stdin")
	}
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, herr.Wrap(herr.KindPlugin, err, "cannot open daemon stdout")
	}
	cmd.Stderr = newStderrForwarder()

	if err := cmd.Start(); err != nil {
		return nil, herr.Wrap(herr.KindPlugin, err, "cannot spawn daemon")
	}

	p := &process{
		cmd:     cmd,
		stdin:   stdin,
		stdout:  bufio.NewReader(stdoutPipe),
		ambient: make(chan *pluginproto.Response, 64),
	}

	go p.waitForExit()
	go p.readLoop()

	return p, nil
}

// readLoop is the dedicated reader task for a daemon's stdout: it
// demultiplexes each decoded line to whichever request is currently
// waiting, or forwards it as an ambient push if none is (spec.md §4.5
// "Client reader discipline", applied here to the plugin boundary rather
// than the RPC boundary). On EOF or codec error it drains any pending
// waiter with an error and exits.
func (p *process) readLoop() {
	for {
		resp, err := p.readOne()
		if err != nil {
			p.failWaiter(err)
			if err == io.EOF {
				plog2.Debug("daemon stdout closed")
			} else {
				plog2.WithError(err).Warn("daemon stdout codec error")
			}
			return
		}
		if resp == nil {
			continue
		}

		p.waiterMu.Lock()
		w := p.waiter
		p.waiter = nil
		p.waiterMu.Unlock()

		if w != nil {
			w <- &daemonResult{resp: resp}
			close(w)
			continue
		}

		select {
		case p.ambient <- resp:
		default:
			// bounded channel full: drop the oldest, favoring freshness
			// over completeness for unsolicited pushes (spec.md §5).
			select {
			case <-p.ambient:
			default:
			}
			select {
			case p.ambient <- resp:
			default:
			}
			plog2.Debug("dropped stale ambient plugin update; notification channel full")
		}
	}
}

func (p *process) failWaiter(err error) {
	p.waiterMu.Lock()
	w := p.waiter
	p.waiter = nil
	p.waiterMu.Unlock()
	if w != nil {
		w <- &daemonResult{err: err}
		close(w)
	}
}

// request sends req to the daemon and waits for the next stdout line,
// matching the protocol's at-most-one-in-flight contract. ctx
// cancellation (query change, active-plugin switch, or hard timeout)
// leaves the abandoned waiter registered, so a late response is consumed
// by it and dropped rather than forwarded as an ambient push
// (spec.md §5 "Cancellation").
func (p *process) request(ctx context.Context, req pluginproto.Request) (*pluginproto.Response, error) {
	waiter := make(chan *daemonResult, 1)

	p.waiterMu.Lock()
	p.waiter = waiter
	p.waiterMu.Unlock()

	if err := p.send(req); err != nil {
		p.failWaiter(err)
		return nil, err
	}

	select {
	case res := <-waiter:
		if res.err != nil {
			return nil, res.err
		}
		return res.resp, nil
	case <-ctx.Done():
		// waiter is buffered (capacity 1), so readLoop can still deliver
		// the late response into it without blocking; nobody reads it.
		return nil, ctx.Err()
	}
}

func (p *process) waitForExit() {
	err := p.cmd.Wait()
	p.mu.Lock()
	p.exited = true
	p.exitErr = err
	p.mu.Unlock()
	close(p.ambient)
}

// Exited reports whether the subprocess has terminated, and its exit
// error if any.
func (p *process) Exited() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exited, p.exitErr
}

// send writes req as one line of JSON to the daemon's stdin.
func (p *process) send(req pluginproto.Request) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return herr.Wrap(herr.KindCodec, err, "cannot encode daemon request")
	}
	payload = append(payload, '\n')
	if _, err := p.stdin.Write(payload); err != nil {
		return herr.Wrap(herr.KindPlugin, err, "cannot write to daemon stdin")
	}
	return nil
}

// readOne reads the next line of stdout and decodes it as a Response. It
// is intended to be driven by a dedicated reader goroutine per daemon
// (see readLoop); the engine never calls this directly.
func (p *process) readOne() (*pluginproto.Response, error) {
	line, err := p.stdout.ReadBytes('\n')
	if len(line) == 0 && err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, herr.Wrap(herr.KindPlugin, err, "daemon stdout read failed")
	}
	line = bytes.TrimRight(line, "\r\n")
	if len(line) == 0 {
		return nil, nil
	}
	var resp pluginproto.Response
	if jsonErr := json.Unmarshal(line, &resp); jsonErr != nil {
		return nil, herr.Wrap(herr.KindPlugin, jsonErr, "malformed daemon response line")
	}
	return &resp, nil
}

// kill requests subprocess termination via SIGTERM, matching spec.md §5:
// "subprocesses receive SIGTERM; failures to kill are logged at warn."
func (p *process) kill() {
	if p.cmd.Process == nil {
		return
	}
	if err := p.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		plog2.WithError(err).Warn("failed to signal plugin subprocess")
	}
}

type stderrForwarder struct {
	buf bytes.Buffer
}

func newStderrForwarder() *stderrForwarder { return &stderrForwarder{} }

func (s *stderrForwarder) Write(p []byte) (int, error) {
	s.buf.Write(p)
	for {
		line, rest, found := bytes.Cut(s.buf.Bytes(), []byte("\n"))
		if !found {
			break
		}
		if len(line) > 0 {
			plog2.WithField("stream", "stderr").Debug(string(line))
		}
		s.buf.Next(len(line) + 1)
		_ = rest
	}
	return len(p), nil
}
