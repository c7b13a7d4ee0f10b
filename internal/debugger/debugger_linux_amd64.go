//go:build linux

package debugger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/alessio/shellescape"
	"github.com/go-logr/logr"
	sys "golang.org/x/sys/unix"

	"github.com/dd86k/aliceserver/internal/dbgproto"
	"github.com/dd86k/aliceserver/internal/debuginfo"
)

// ptraceOExitKill kills the debuggee if aliceserver exits first.
const ptraceOExitKill = 0x100000

// ptraceDebugger is the linux/amd64 ptrace-based Debugger backend. Every
// ptrace syscall for a given traced process must come from the one OS
// thread that attached it, so all ptrace calls here are marshaled onto a
// single goroutine that locks itself to an OS thread for the debuggee's
// whole lifetime and services a command queue interleaved with a wait4
// poll loop. Launch/Attach return once the debuggee's initial stop has
// been seen, and ContinueThread/Terminate/Detach/Frame remain callable
// later from the session engine's own goroutine.
type ptraceDebugger struct {
	log  logr.Logger
	cmds chan func()

	events chan dbgproto.Event

	mu     sync.Mutex
	pid    int
	pgid   int
	info   debuginfo.DebugInfo
	active bool
}

// New returns the linux/amd64 ptrace-based Debugger backend.
func New(log logr.Logger) Debugger {
	return &ptraceDebugger{
		log:    log,
		cmds:   make(chan func(), 8),
		events: make(chan dbgproto.Event, 64),
	}
}

// validateExecutable resolves path to an absolute path and confirms it is
// a regular, executable file before it is ever handed to exec.Command.
func validateExecutable(path string) (string, error) {
	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBackend, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, abs)
		}
		return "", fmt.Errorf("%w: %v", ErrBackend, err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s is not a regular file", ErrBackend, abs)
	}
	if info.Mode()&0111 == 0 {
		return "", fmt.Errorf("%w: %s is not executable", ErrPermissionDenied, abs)
	}
	return abs, nil
}

func (d *ptraceDebugger) Launch(ctx context.Context, execPath string, args []string, cwd string) error {
	abs, err := validateExecutable(execPath)
	if err != nil {
		return err
	}

	cmd := exec.Command(abs, args...)
	if cwd != "" {
		cmd.Dir = cwd
	}
	// The debuggee's own stdout/stderr are captured rather than inherited:
	// aliceserver's own stdio may itself be carrying the framed wire
	// protocol, and the two must never share a descriptor. Captured bytes
	// are forwarded as Output events instead.
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	cmd.SysProcAttr = &sys.SysProcAttr{Ptrace: true}

	d.log.Info("launching", "exec", shellescape.QuoteCommand(append([]string{abs}, args...)))

	started := make(chan error, 1)
	go d.run(cmd, stdout, stderr, started)

	select {
	case err := <-started:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *ptraceDebugger) run(cmd *exec.Cmd, stdout, stderr io.ReadCloser, started chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := cmd.Start(); err != nil {
		started <- translateStartErr(err)
		return
	}

	pid := cmd.Process.Pid
	var ws sys.WaitStatus
	if _, err := sys.Wait4(pid, &ws, 0, nil); err != nil {
		started <- fmt.Errorf("%w: initial wait: %v", ErrBackend, err)
		return
	}
	if err := sys.PtraceSetOptions(pid, sys.PTRACE_O_TRACECLONE|ptraceOExitKill); err != nil {
		started <- fmt.Errorf("%w: ptrace options: %v", ErrBackend, err)
		return
	}
	pgid, err := sys.Getpgid(pid)
	if err != nil {
		started <- fmt.Errorf("%w: getpgid: %v", ErrBackend, err)
		return
	}
	info, infoErr := debuginfo.NewDebugInfo(cmd.Path, pid)

	d.mu.Lock()
	d.pid, d.pgid, d.active = pid, pgid, true
	if infoErr == nil {
		d.info = info
	}
	d.mu.Unlock()

	if infoErr != nil {
		d.log.Info("debug info unavailable, frames will use defaults", "err", infoErr)
	}

	go d.pumpOutput(stdout, "stdout")
	go d.pumpOutput(stderr, "stderr")

	started <- nil
	d.events <- dbgproto.Event{Kind: dbgproto.StoppedEvent, ThreadID: pid, Reason: dbgproto.EntryReason, Frame: d.frameOrNil(pid)}

	d.loop(pid, pgid)
}

func (d *ptraceDebugger) Attach(ctx context.Context, pid int) error {
	started := make(chan error, 1)
	go d.runAttach(pid, started)
	select {
	case err := <-started:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *ptraceDebugger) runAttach(pid int, started chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := sys.PtraceAttach(pid); err != nil {
		started <- translateAttachErr(pid, err)
		return
	}
	var ws sys.WaitStatus
	if _, err := sys.Wait4(pid, &ws, 0, nil); err != nil {
		started <- fmt.Errorf("%w: %v", ErrBackend, err)
		return
	}
	pgid, err := sys.Getpgid(pid)
	if err != nil {
		pgid = pid
	}

	d.mu.Lock()
	d.pid, d.pgid, d.active = pid, pgid, true
	d.mu.Unlock()

	if exe, err := os.Readlink(fmt.Sprintf("/proc/%d/exe", pid)); err == nil {
		if info, err := debuginfo.NewDebugInfo(exe, pid); err == nil {
			d.mu.Lock()
			d.info = info
			d.mu.Unlock()
		}
	}

	started <- nil
	d.events <- dbgproto.Event{Kind: dbgproto.StoppedEvent, ThreadID: pid, Reason: dbgproto.EntryReason, Frame: d.frameOrNil(pid)}

	d.loop(pid, pgid)
}

// loop services cmds, the only channel through which another goroutine
// may issue a ptrace syscall, interleaved with a wait4(WNOHANG) poll.
func (d *ptraceDebugger) loop(pid, pgid int) {
	for {
		select {
		case fn := <-d.cmds:
			fn()
		default:
		}

		var ws sys.WaitStatus
		wpid, err := sys.Wait4(-pgid, &ws, sys.WNOHANG, nil)
		if err != nil {
			d.events <- dbgproto.Event{Kind: dbgproto.Exited, ExitCode: -1}
			d.setInactive()
			return
		}
		if wpid == 0 {
			time.Sleep(5 * time.Millisecond)
			continue
		}

		switch {
		case ws.Exited():
			if wpid == pid {
				d.events <- dbgproto.Event{Kind: dbgproto.Exited, ExitCode: ws.ExitStatus()}
				d.setInactive()
				return
			}
			// a non-leader thread exited; the group lives on
		case ws.Signaled():
			if wpid == pid {
				d.events <- dbgproto.Event{Kind: dbgproto.Exited, ExitCode: -int(ws.Signal())}
				d.setInactive()
				return
			}
		case ws.Stopped():
			sig := ws.StopSignal()
			if sig == sys.SIGTRAP && ws.TrapCause() == sys.PTRACE_EVENT_CLONE {
				// a new thread; stay transparent and keep it running
				_ = sys.PtraceCont(wpid, 0)
				continue
			}
			reason := dbgproto.ExceptionReason
			if sig == sys.SIGTRAP {
				reason = dbgproto.BreakpointReason
			}
			d.events <- dbgproto.Event{Kind: dbgproto.StoppedEvent, ThreadID: wpid, Reason: reason, Frame: d.frameOrNil(wpid)}
			// wpid stays stopped until an explicit ContinueThread resumes it
		}
	}
}

func (d *ptraceDebugger) ContinueThread(tid int) error {
	if !d.isActive() {
		return ErrNotActive
	}
	if tid == 0 {
		d.mu.Lock()
		tid = d.pid
		d.mu.Unlock()
	}
	errCh := make(chan error, 1)
	d.cmds <- func() {
		d.events <- dbgproto.Event{Kind: dbgproto.Continued, ContinuedThreadID: tid}
		if err := sys.PtraceCont(tid, 0); err != nil {
			errCh <- fmt.Errorf("%w: %v", ErrBackend, err)
			return
		}
		errCh <- nil
	}
	return <-errCh
}

func (d *ptraceDebugger) Terminate() error {
	d.mu.Lock()
	pid, active := d.pid, d.active
	d.mu.Unlock()
	if !active {
		return ErrNotActive
	}
	errCh := make(chan error, 1)
	d.cmds <- func() { errCh <- sys.Kill(pid, sys.SIGKILL) }
	err := <-errCh
	d.setInactive()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return nil
}

func (d *ptraceDebugger) Detach() error {
	d.mu.Lock()
	pid, active := d.pid, d.active
	d.mu.Unlock()
	if !active {
		return ErrNotActive
	}
	errCh := make(chan error, 1)
	d.cmds <- func() { errCh <- sys.PtraceDetach(pid) }
	err := <-errCh
	d.setInactive()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return nil
}

func (d *ptraceDebugger) Wait() (dbgproto.Event, error) {
	evt, ok := <-d.events
	if !ok {
		return dbgproto.Event{}, fmt.Errorf("%w: event stream closed", ErrBackend)
	}
	return evt, nil
}

func (d *ptraceDebugger) Threads() ([]int, error) {
	d.mu.Lock()
	pid, active := d.pid, d.active
	d.mu.Unlock()
	if !active {
		return nil, ErrNotActive
	}
	entries, err := os.ReadDir(fmt.Sprintf("/proc/%d/task", pid))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	tids := make([]int, 0, len(entries))
	for _, e := range entries {
		if tid, err := strconv.Atoi(e.Name()); err == nil {
			tids = append(tids, tid)
		}
	}
	return tids, nil
}

type frameResult struct {
	frame dbgproto.Frame
	err   error
}

func (d *ptraceDebugger) Frame(tid int) (dbgproto.Frame, error) {
	if !d.isActive() {
		return dbgproto.Frame{}, ErrNotActive
	}
	resultCh := make(chan frameResult, 1)
	d.cmds <- func() {
		f, err := d.buildFrame(tid)
		resultCh <- frameResult{f, err}
	}
	res := <-resultCh
	return res.frame, res.err
}

// buildFrame must only run on the locked ptrace goroutine, either
// directly (frameOrNil, called from within run/loop) or via cmds.
func (d *ptraceDebugger) buildFrame(tid int) (dbgproto.Frame, error) {
	var regs sys.PtraceRegs
	if err := sys.PtraceGetRegs(tid, &regs); err != nil {
		return dbgproto.Frame{}, fmt.Errorf("%w: %v", ErrNoFrame, err)
	}
	d.mu.Lock()
	info := d.info
	d.mu.Unlock()

	f := dbgproto.Frame{Address: regs.Rip, Arch: dbgproto.X86_64}
	if info == nil {
		return f, nil
	}
	if _, _, fn := info.PCToLine(regs.Rip); fn != nil {
		f.FunctionName = fn.Name
		f.HasFunction = true
	}
	return f, nil
}

func (d *ptraceDebugger) frameOrNil(tid int) *dbgproto.Frame {
	f, err := d.buildFrame(tid)
	if err != nil {
		return nil
	}
	return &f
}

func (d *ptraceDebugger) isActive() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

func (d *ptraceDebugger) setInactive() {
	d.mu.Lock()
	d.active = false
	d.pid, d.pgid = 0, 0
	d.mu.Unlock()
}

func (d *ptraceDebugger) pumpOutput(r io.ReadCloser, category string) {
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			d.events <- dbgproto.Event{Kind: dbgproto.Output, OutputCategory: category, OutputText: string(buf[:n])}
		}
		if err != nil {
			return
		}
	}
}

func translateStartErr(err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	if errors.Is(err, os.ErrPermission) {
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}
	return fmt.Errorf("%w: %v", ErrBackend, err)
}

func translateAttachErr(pid int, err error) error {
	switch {
	case errors.Is(err, sys.ESRCH):
		return fmt.Errorf("%w: pid %d", ErrNoSuchProcess, pid)
	case errors.Is(err, sys.EPERM):
		return fmt.Errorf("%w: pid %d", ErrPermissionDenied, pid)
	default:
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
}
