// Package dap implements the Debug Adapter Protocol (DAP) adapter: JSON
// requests/responses/events framed over the HTTP-over-stdio transport.
package dap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/go-logr/logr"

	"github.com/dd86k/aliceserver/internal/adapter"
	"github.com/dd86k/aliceserver/internal/dbgproto"
	"github.com/dd86k/aliceserver/internal/transport"
)

// dapAdapter implements adapter.Adapter for DAP.
type dapAdapter struct {
	log logr.Logger

	mu          sync.Mutex
	t           transport.Transport
	seq         int64
	initialized bool
	caps        dbgproto.Capabilities
}

// New builds a DAP adapter.
func New(log logr.Logger) adapter.Adapter {
	return &dapAdapter{caps: dbgproto.Capabilities{Server: dbgproto.DefaultServerCapabilities()}, log: log}
}

func (a *dapAdapter) Name() string { return "dap" }

func (a *dapAdapter) Capabilities() dbgproto.Capabilities {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.caps
}

func (a *dapAdapter) setTransport(t transport.Transport) {
	a.mu.Lock()
	a.t = t
	a.mu.Unlock()
}

// nextSeq returns the next server-side monotonically increasing sequence
// number, starting at 1.
func (a *dapAdapter) nextSeq() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.seq++
	return a.seq
}

func (a *dapAdapter) send(m message) error {
	b, err := marshal(m)
	if err != nil {
		return fmt.Errorf("dap: marshal: %w", err)
	}
	a.mu.Lock()
	t := a.t
	a.mu.Unlock()
	return t.Send(b)
}

// Loop reads one framed JSON request per turn, dispatches it, and writes
// the JSON response. initialize must be the first request received; any
// other command arriving first is rejected with an error response.
func (a *dapAdapter) Loop(ctx context.Context, dispatch adapter.Dispatch, t transport.Transport) error {
	a.setTransport(t)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		raw, err := t.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("dap: read: %w", err)
		}

		var req message
		if err := unmarshal(raw, &req); err != nil {
			// A malformed frame carries no usable seq to correlate a
			// response to; log and keep the loop alive for the next
			// message rather than tearing down the whole session.
			a.log.Error(err, "dap: malformed request frame")
			continue
		}

		if done := a.handleRequest(dispatch, &req); done {
			return nil
		}
	}
}

func (a *dapAdapter) handleRequest(dispatch adapter.Dispatch, req *message) bool {
	if req.Type != "request" {
		return false
	}

	a.mu.Lock()
	initialized := a.initialized
	a.mu.Unlock()
	if !initialized && req.Command != "initialize" {
		a.respondError(req, "must call initialize before any other request")
		return false
	}

	kind, payload, validationErr := decodeCommand(req)
	if validationErr != nil {
		a.respondError(req, validationErr.Error())
		return false
	}

	reply, done := dispatch(dbgproto.Request{Kind: kind, ID: uint64(req.Seq), HasID: true, Payload: payload})

	if kind == dbgproto.Initialize && reply.Success {
		if caps, ok := reply.Details.(dbgproto.Capabilities); ok {
			a.mu.Lock()
			a.caps = caps
			a.initialized = true
			a.mu.Unlock()
		}
	}

	a.respond(req, kind, reply)
	return done
}

func (a *dapAdapter) respond(req *message, kind dbgproto.RequestKind, reply dbgproto.Reply) {
	resp := message{
		Seq:        a.nextSeq(),
		Type:       "response",
		Command:    req.Command,
		RequestSeq: req.Seq,
		Success:    reply.Success,
	}
	if !reply.Success {
		body, _ := marshal(errorBody{Error: reply.Message})
		resp.Body = body
		if err := a.send(resp); err != nil {
			a.log.Error(err, "dap: send error response")
		}
		return
	}

	if kind == dbgproto.Initialize {
		body, _ := marshal(capabilitiesBody(a.Capabilities()))
		resp.Body = body
	}

	if err := a.send(resp); err != nil {
		a.log.Error(err, "dap: send response")
	}
}

func (a *dapAdapter) respondError(req *message, msg string) {
	a.respond(req, dbgproto.Unknown, dbgproto.Errorf(msg))
}

// EmitEvent renders one debugger event as a DAP event message. Called
// from the session engine's event-delivery goroutine.
func (a *dapAdapter) EmitEvent(evt dbgproto.Event) error {
	name, body, ok := eventBody(evt)
	if !ok {
		return nil
	}
	b, err := marshal(body)
	if err != nil {
		return fmt.Errorf("dap: marshal event: %w", err)
	}
	return a.send(message{Seq: a.nextSeq(), Type: "event", Event: name, Body: b})
}
