// Package session implements the engine that owns the debugger handle
// and the target configuration, drives an adapter's request loop, and
// runs the background event-delivery goroutine.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"

	"github.com/dd86k/aliceserver/internal/adapter"
	"github.com/dd86k/aliceserver/internal/dbgproto"
	"github.com/dd86k/aliceserver/internal/debugger"
	"github.com/dd86k/aliceserver/internal/transport"
)

// Engine owns the one debugger handle, the target configuration, and the
// debuggee lifecycle state for a single session (spec: single-session is
// the contract). It is the only writer of dbgproto.TargetConfig and the
// only caller of lifecycle operations on debugger.Debugger.
type Engine struct {
	log     logr.Logger
	dbg     debugger.Debugger
	version string

	mu               sync.Mutex
	target           dbgproto.TargetConfig
	state            dbgproto.State
	eventLoopStarted bool

	adapter adapter.Adapter
	group   *errgroup.Group
	runCtx  context.Context
}

// New constructs an Engine around dbg. version is reported by the MI
// "show version" command and is otherwise inert.
func New(dbg debugger.Debugger, version string, log logr.Logger) *Engine {
	return &Engine{dbg: dbg, version: version, log: log, state: dbgproto.Idle}
}

// State reports the current debuggee lifecycle state.
func (e *Engine) State() dbgproto.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Target returns a copy of the current target configuration.
func (e *Engine) Target() dbgproto.TargetConfig {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.target
}

// SetTarget pre-populates the target configuration before Run starts,
// e.g. from a CLI-supplied positional executable path and arguments. A
// client's own launch/exec-run request may still overwrite it.
func (e *Engine) SetTarget(t dbgproto.TargetConfig) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.target = t
}

// Run binds a to t and drives the session to completion: the adapter's
// request loop and the event-delivery goroutine started by a successful
// Launch/Run/Attach are coordinated with golang.org/x/sync/errgroup, so
// that either side's terminal error cancels the other's context and Run
// returns once both have stopped.
func (e *Engine) Run(ctx context.Context, a adapter.Adapter, t transport.Transport) error {
	e.mu.Lock()
	e.adapter = a
	e.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	e.mu.Lock()
	e.group = g
	e.runCtx = gctx
	e.mu.Unlock()

	g.Go(func() error {
		return a.Loop(gctx, e.Dispatch, t)
	})

	return g.Wait()
}

// Dispatch runs the operation named by req's Kind and returns the Reply to
// render onto the wire, plus whether the session is now closed. It is the
// only place lifecycle state is mutated from the request-handling side.
func (e *Engine) Dispatch(req dbgproto.Request) (dbgproto.Reply, bool) {
	switch req.Kind {
	case dbgproto.Initialize:
		return e.doInitialize(req.Payload.(dbgproto.InitializePayload)), false

	case dbgproto.Launch:
		return e.doLaunch(req.Payload.(dbgproto.LaunchPayload)), false

	case dbgproto.Run:
		return e.doRun(), false

	case dbgproto.Attach:
		return e.doAttach(req.Payload.(dbgproto.AttachPayload)), false

	case dbgproto.Continue:
		return e.doContinue(req.Payload.(dbgproto.ContinuePayload)), false

	case dbgproto.Detach:
		return e.doDetach(), false

	case dbgproto.Terminate:
		return e.doTerminate(), false

	case dbgproto.Close:
		return e.doClose(req.Payload.(dbgproto.ClosePayload))

	case dbgproto.CwdSet:
		e.mu.Lock()
		e.target.SetWorkingDir(req.Payload.(dbgproto.CwdSetPayload).Path)
		e.mu.Unlock()
		return dbgproto.Ok(), false

	case dbgproto.SetArgs:
		e.mu.Lock()
		e.target.SetArguments(req.Payload.(dbgproto.SetArgsPayload).Args)
		e.mu.Unlock()
		return dbgproto.Ok(), false

	case dbgproto.SetTarget:
		e.mu.Lock()
		e.target.SetExecutable(req.Payload.(dbgproto.SetTargetPayload).Path)
		e.mu.Unlock()
		return dbgproto.Ok(), false

	case dbgproto.ConfigurationDone:
		return dbgproto.Ok(), false

	case dbgproto.Show:
		return e.doShow(req.Payload.(dbgproto.ShowPayload)), false

	default:
		return dbgproto.Errorf(fmt.Sprintf("unknown request: %q", req.Kind)), false
	}
}

func (e *Engine) doInitialize(p dbgproto.InitializePayload) dbgproto.Reply {
	caps := dbgproto.Capabilities{
		Client: p.ClientCapabilities,
		Server: dbgproto.DefaultServerCapabilities(),
	}
	e.log.Info("initialize", "client", p.ClientName, "adapterID", p.AdapterID)
	return dbgproto.OkWith(caps)
}

func (e *Engine) doLaunch(p dbgproto.LaunchPayload) dbgproto.Reply {
	e.mu.Lock()
	state := e.state
	e.mu.Unlock()
	if state != dbgproto.Idle {
		return dbgproto.Errorf(fmt.Sprintf("cannot launch: session is %s", state))
	}

	e.mu.Lock()
	e.target.SetExecutable(p.Exec)
	e.target.SetArguments(p.Args)
	if p.Cwd != "" {
		e.target.SetWorkingDir(p.Cwd)
	}
	target := e.target
	e.mu.Unlock()

	if err := e.dbg.Launch(e.runCtx, target.ExecutablePath, target.Arguments, target.WorkingDir); err != nil {
		return dbgproto.Errorf(err.Error())
	}

	e.mu.Lock()
	e.state = dbgproto.Launched
	e.mu.Unlock()

	if p.Run {
		e.mu.Lock()
		e.state = dbgproto.Running
		e.mu.Unlock()
		e.startEventLoop()
		return dbgproto.OkRunning()
	}
	return dbgproto.Ok()
}

// doRun implements MI's exec-run/exec: launch using the already-stored
// target configuration rather than a fresh payload.
func (e *Engine) doRun() dbgproto.Reply {
	e.mu.Lock()
	state := e.state
	target := e.target
	e.mu.Unlock()
	if state != dbgproto.Idle {
		return dbgproto.Errorf(fmt.Sprintf("cannot run: session is %s", state))
	}
	if !target.HasExecutable {
		return dbgproto.Errorf("no target configured")
	}

	if err := e.dbg.Launch(e.runCtx, target.ExecutablePath, target.Arguments, target.WorkingDir); err != nil {
		return dbgproto.Errorf(err.Error())
	}

	e.mu.Lock()
	e.state = dbgproto.Running
	e.mu.Unlock()
	e.startEventLoop()
	return dbgproto.OkRunning()
}

func (e *Engine) doAttach(p dbgproto.AttachPayload) dbgproto.Reply {
	e.mu.Lock()
	state := e.state
	e.mu.Unlock()
	if state != dbgproto.Idle {
		return dbgproto.Errorf(fmt.Sprintf("cannot attach: session is %s", state))
	}

	if err := e.dbg.Attach(e.runCtx, p.Pid); err != nil {
		return dbgproto.Errorf(err.Error())
	}

	e.mu.Lock()
	e.state = dbgproto.Attached
	e.mu.Unlock()
	e.startEventLoop()
	return dbgproto.OkRunning()
}

func (e *Engine) doContinue(p dbgproto.ContinuePayload) dbgproto.Reply {
	if !e.isActive() {
		return dbgproto.Errorf("cannot continue: no active process")
	}
	if err := e.dbg.ContinueThread(p.ThreadID); err != nil {
		return dbgproto.Errorf(err.Error())
	}
	e.mu.Lock()
	e.state = dbgproto.Running
	e.mu.Unlock()
	return dbgproto.OkRunning()
}

func (e *Engine) doDetach() dbgproto.Reply {
	if !e.isActive() {
		return dbgproto.Errorf("cannot detach: no active process")
	}
	if err := e.dbg.Detach(); err != nil {
		return dbgproto.Errorf(err.Error())
	}
	e.mu.Lock()
	e.state = dbgproto.Idle
	e.mu.Unlock()
	return dbgproto.Ok()
}

func (e *Engine) doTerminate() dbgproto.Reply {
	if !e.isActive() {
		return dbgproto.Errorf("cannot terminate: no active process")
	}
	if err := e.dbg.Terminate(); err != nil {
		return dbgproto.Errorf(err.Error())
	}
	e.mu.Lock()
	e.state = dbgproto.Idle
	e.mu.Unlock()
	return dbgproto.Ok()
}

// doClose implements §4.5's close policy: Launched-derived states
// terminate, Attached detaches unless the caller asked for termination,
// and Idle is a no-op. Either way it reports done=true so the adapter's
// Loop returns after rendering the reply.
func (e *Engine) doClose(p dbgproto.ClosePayload) (dbgproto.Reply, bool) {
	e.mu.Lock()
	state := e.state
	e.mu.Unlock()

	var err error
	switch state {
	case dbgproto.Idle:
		// no-op
	case dbgproto.Attached:
		if p.TerminateIfLaunched {
			err = e.dbg.Terminate()
		} else {
			err = e.dbg.Detach()
		}
	case dbgproto.Launched, dbgproto.Running, dbgproto.Stopped:
		err = e.dbg.Terminate()
	}

	e.mu.Lock()
	e.state = dbgproto.Closed
	e.mu.Unlock()

	if err != nil {
		return dbgproto.Errorf(err.Error()), true
	}
	return dbgproto.Ok(), true
}

func (e *Engine) doShow(p dbgproto.ShowPayload) dbgproto.Reply {
	if p.Arg == "version" {
		return dbgproto.OkWith(e.version)
	}
	// GDB's no-arg "show" prints everything and quits; this core replies
	// ^done instead, a deliberate deviation.
	return dbgproto.Ok()
}

func (e *Engine) isActive() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch e.state {
	case dbgproto.Attached, dbgproto.Running, dbgproto.Stopped:
		return true
	default:
		return false
	}
}

// startEventLoop spawns the background event-delivery goroutine at most
// once per session, tracked by the same errgroup.Group Run waits on.
func (e *Engine) startEventLoop() {
	e.mu.Lock()
	if e.eventLoopStarted {
		e.mu.Unlock()
		return
	}
	e.eventLoopStarted = true
	group := e.group
	e.mu.Unlock()

	group.Go(e.eventLoop)
}

func (e *Engine) eventLoop() error {
	for {
		evt, err := e.dbg.Wait()
		if err != nil {
			return fmt.Errorf("session: event wait: %w", err)
		}
		if err := e.adapter.EmitEvent(evt); err != nil {
			return fmt.Errorf("session: emit event: %w", err)
		}

		e.mu.Lock()
		switch evt.Kind {
		case dbgproto.StoppedEvent:
			e.state = dbgproto.Stopped
		case dbgproto.Continued:
			e.state = dbgproto.Running
		case dbgproto.Exited:
			e.state = dbgproto.Idle
			e.mu.Unlock()
			return nil
		}
		e.mu.Unlock()
	}
}
