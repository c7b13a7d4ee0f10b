// Package adapter defines the capability interface shared by the MI and
// DAP protocol adapters and consumed by the session engine.
package adapter

import (
	"context"

	"github.com/dd86k/aliceserver/internal/dbgproto"
	"github.com/dd86k/aliceserver/internal/transport"
)

// Dispatch is supplied by the session engine: given a parsed Request, it
// runs the corresponding debugger/session-state operation and returns the
// Reply to render back onto the wire. done reports that the session has
// been closed and the adapter's Loop should return after this turn (set
// once the Request was a Close, or an MI quit/gdb-exit, that the engine
// has finished acting on).
type Dispatch func(dbgproto.Request) (reply dbgproto.Reply, done bool)

// Adapter speaks one client-facing wire protocol (DAP or MI) and
// normalizes it to the debugger abstraction's Request/Reply/Event model.
type Adapter interface {
	// Name returns the adapter's identifier, e.g. "dap" or "mi2".
	Name() string

	// Loop drives the adapter's request-handling side: it reads requests
	// off t, converts each into a dbgproto.Request, calls dispatch, and
	// renders the Reply back onto t. It returns when the peer closes the
	// transport, a fatal framing error occurs, or ctx is canceled.
	Loop(ctx context.Context, dispatch Dispatch, t transport.Transport) error

	// EmitEvent renders one debugger event onto the adapter's transport.
	// Called from the session engine's event-delivery goroutine; callers
	// must not call EmitEvent concurrently with itself, though it may run
	// concurrently with Loop (both funnel through t's atomic Send).
	EmitEvent(dbgproto.Event) error

	// Capabilities returns the adapter's negotiated capability set. Before
	// initialize/handshake completes, this returns the server's default
	// capabilities with an empty client side.
	Capabilities() dbgproto.Capabilities
}
