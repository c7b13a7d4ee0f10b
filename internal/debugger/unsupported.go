//go:build !linux || !amd64

package debugger

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/dd86k/aliceserver/internal/dbgproto"
)

// unsupportedDebugger fails every operation on platforms with no ptrace
// backend, so aliceserver still builds and its non-backend paths (MI/DAP
// framing, session bookkeeping) stay testable off Linux.
type unsupportedDebugger struct {
	log logr.Logger
}

// New returns a Debugger backend that reports ErrBackend for every
// operation. Only linux/amd64 has a real ptrace-based implementation.
func New(log logr.Logger) Debugger {
	return &unsupportedDebugger{log: log}
}

func (d *unsupportedDebugger) unsupported() error {
	return fmt.Errorf("%w: debugging is not supported on this platform", ErrBackend)
}

func (d *unsupportedDebugger) Launch(ctx context.Context, exec string, args []string, cwd string) error {
	return d.unsupported()
}

func (d *unsupportedDebugger) Attach(ctx context.Context, pid int) error {
	return d.unsupported()
}

func (d *unsupportedDebugger) ContinueThread(tid int) error {
	return d.unsupported()
}

func (d *unsupportedDebugger) Terminate() error {
	return d.unsupported()
}

func (d *unsupportedDebugger) Detach() error {
	return d.unsupported()
}

func (d *unsupportedDebugger) Wait() (dbgproto.Event, error) {
	return dbgproto.Event{}, d.unsupported()
}

func (d *unsupportedDebugger) Threads() ([]int, error) {
	return nil, d.unsupported()
}

func (d *unsupportedDebugger) Frame(tid int) (dbgproto.Frame, error) {
	return dbgproto.Frame{}, d.unsupported()
}
