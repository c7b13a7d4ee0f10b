// Package debugger defines the capability interface the session engine
// drives and the sentinel errors it can fail with. The concrete
// ptrace-based backend lives in debugger_linux_amd64.go; a stub for other
// platforms lives in unsupported.go.
package debugger

import (
	"context"
	"errors"

	"github.com/dd86k/aliceserver/internal/dbgproto"
)

// Sentinel errors wrapped by backend failures. Callers use errors.Is
// against these.
var (
	ErrNotFound         = errors.New("debugger: executable not found")
	ErrPermissionDenied = errors.New("debugger: permission denied")
	ErrBackend          = errors.New("debugger: backend error")
	ErrNoSuchProcess    = errors.New("debugger: no such process")
	ErrNotActive        = errors.New("debugger: no active process")
	ErrNoFrame          = errors.New("debugger: no frame available")
)

// Debugger is the uniform capability interface the session engine
// consumes; any backend implementing it can drive a debuggee.
type Debugger interface {
	// Launch starts exec with args in cwd under debugger control. Fails
	// with ErrNotFound, ErrPermissionDenied, or ErrBackend.
	Launch(ctx context.Context, exec string, args []string, cwd string) error

	// Attach attaches to an already-running process. Fails with
	// ErrNoSuchProcess, ErrPermissionDenied, or ErrBackend.
	Attach(ctx context.Context, pid int) error

	// ContinueThread resumes the given thread. Requires an active
	// process; otherwise fails with ErrNotActive.
	ContinueThread(tid int) error

	// Terminate kills the debuggee. Requires an active process; clears
	// the process handle on success.
	Terminate() error

	// Detach detaches from the debuggee, leaving it running. Requires an
	// active process; clears the process handle on success.
	Detach() error

	// Wait blocks until the next normalized event is available. It fails
	// only when the backend itself errors.
	Wait() (dbgproto.Event, error)

	// Threads returns the debuggee's thread ids.
	Threads() ([]int, error)

	// Frame returns stack frame 0 of the given thread. Callers must
	// tolerate ErrNoFrame and fill dbgproto.DefaultFrame() themselves.
	Frame(tid int) (dbgproto.Frame, error)
}
