// Package mi implements the GDB Machine Interface (GDB/MI) adapter: a
// line-oriented, `(gdb)\n`-prompted wire protocol understood by GDB
// front-ends such as Emacs' gud-mode and various IDE integrations.
package mi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/go-logr/logr"

	"github.com/dd86k/aliceserver/internal/adapter"
	"github.com/dd86k/aliceserver/internal/dbgproto"
	"github.com/dd86k/aliceserver/internal/mival"
	"github.com/dd86k/aliceserver/internal/transport"
)

// miAdapter implements adapter.Adapter for one negotiated MI version.
// GDB/MI has had no behavioral differences across versions 2-4 that this
// core implements; name() alone reflects the negotiated version, per
// spec's own note that version-specific behavior stays collapsed until
// something demands otherwise.
type miAdapter struct {
	name string
	log  logr.Logger

	mu sync.Mutex
	t  transport.Transport
}

// New builds an MI adapter for version (1..4). Version 1 folds to 4; any
// other value is rejected.
func New(version int, log logr.Logger) (adapter.Adapter, error) {
	if version == 1 {
		version = 4
	}
	if version < 2 || version > 4 {
		return nil, fmt.Errorf("mi: unsupported version %d", version)
	}
	return &miAdapter{name: fmt.Sprintf("mi%d", version), log: log}, nil
}

func (a *miAdapter) Name() string { return a.name }

// Capabilities is a no-op for MI: GDB/MI has no initialize-time capability
// negotiation, so this always returns the server's defaults with an empty
// client side.
func (a *miAdapter) Capabilities() dbgproto.Capabilities {
	return dbgproto.Capabilities{Server: dbgproto.DefaultServerCapabilities()}
}

func (a *miAdapter) setTransport(t transport.Transport) {
	a.mu.Lock()
	a.t = t
	a.mu.Unlock()
}

func (a *miAdapter) send(s string) error {
	a.mu.Lock()
	t := a.t
	a.mu.Unlock()
	return t.Send([]byte(s))
}

func (a *miAdapter) finishReply(l line, reply dbgproto.Reply) error {
	if !reply.Success {
		return a.finishError(l, reply.Message)
	}
	details := mival.Value{}
	if reply.Details != nil {
		if v, ok := reply.Details.(mival.Value); ok {
			details = v
		}
	}
	return a.send(resultRecord(l.HasID, l.ID, reply.Running, details) + prompt)
}

func (a *miAdapter) finishError(l line, message string) error {
	return a.send(errorRecord(l.HasID, l.ID, message) + prompt)
}

// Loop reads one MI request per line, dispatches it, and writes the
// result/error record and the following prompt. It emits the initial
// prompt immediately upon being called, before reading anything.
func (a *miAdapter) Loop(ctx context.Context, dispatch adapter.Dispatch, t transport.Transport) error {
	a.setTransport(t)

	if err := a.send(prompt); err != nil {
		return fmt.Errorf("mi: %w", err)
	}

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
			return fmt.Errorf("mi: read: %w", err)
		}

		quit, err := a.handleLine(dispatch, strings.TrimRight(string(raw), "\r\n"))
		if err != nil {
			return err
		}
		if quit {
			return nil
		}
	}
}

func (a *miAdapter) handleLine(dispatch adapter.Dispatch, raw string) (bool, error) {
	l := parse(raw)

	if l.Overflow {
		return false, a.finishError(l, "request id overflow")
	}

	if l.Name == "" {
		return false, a.send(resultRecord(l.HasID, l.ID, false, mival.Value{}) + prompt)
	}

	if !l.Dashed {
		if err := a.send(echoRecord(l.Echo)); err != nil {
			return false, err
		}
	}

	h, ok := commandTable[strings.ToLower(l.Name)]
	if !ok {
		return false, a.finishError(l, fmt.Sprintf("Unknown request: %q", l.Name))
	}
	return h(a, dispatch, l)
}

// EmitEvent renders one debugger event as an MI async-record. Called from
// the session engine's event-delivery goroutine; never emits a prompt,
// matching §4.3's framing rule that events never carry one.
func (a *miAdapter) EmitEvent(evt dbgproto.Event) error {
	switch evt.Kind {
	case dbgproto.Continued:
		return a.send(continuedRecord())
	case dbgproto.Exited:
		return a.send(exitedRecord(evt.ExitCode))
	case dbgproto.StoppedEvent:
		return a.send(stoppedRecord(evt))
	case dbgproto.Output:
		return a.send(outputRecord(evt))
	default:
		return nil
	}
}
