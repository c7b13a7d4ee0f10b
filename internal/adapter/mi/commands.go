package mi

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dd86k/aliceserver/internal/adapter"
	"github.com/dd86k/aliceserver/internal/dbgproto"
	"github.com/dd86k/aliceserver/internal/mival"
)

// handler runs one parsed command line: it writes its own result/error
// record (and the trailing prompt) via a, and reports whether the adapter
// loop should stop reading further requests.
type handler func(a *miAdapter, dispatch adapter.Dispatch, l line) (quit bool, err error)

// commandTable maps a case-folded canonical command name to its handler.
// Aliases of the same GDB/MI command share one entry.
var commandTable map[string]handler

func init() {
	commandTable = map[string]handler{
		"exec-run":              cmdRun,
		"exec":                  cmdRun,
		"exec-continue":         cmdContinue,
		"continue":              cmdContinue,
		"exec-abort":            cmdAbort,
		"target-attach":         cmdAttach,
		"attach":                cmdAttach,
		"target-detach":         cmdDetach,
		"gdb-detach":            cmdDetach,
		"detach":                cmdDetach,
		"target-disconnect":     cmdDetach,
		"target":                cmdTarget,
		"file-exec-and-symbols": cmdFileExecAndSymbols,
		"exec-arguments":        cmdExecArguments,
		"environment-cd":        cmdEnvironmentCd,
		"show":                  cmdShow,
		"info-gdb-mi-command":   cmdInfoGdbMiCommand,
		"list-features":         cmdListFeatures,
		"gdb-exit":              cmdQuit,
		"quit":                  cmdQuit,
		"q":                     cmdQuit,
		"gdb-set":               cmdSilentNoOp,
		"inferior-tty-set":      cmdSilentNoOp,
	}
}

func cmdRun(a *miAdapter, dispatch adapter.Dispatch, l line) (bool, error) {
	reply, done := dispatch(dbgproto.Request{Kind: dbgproto.Run})
	return done, a.finishReply(l, reply)
}

func cmdContinue(a *miAdapter, dispatch adapter.Dispatch, l line) (bool, error) {
	reply, done := dispatch(dbgproto.Request{Kind: dbgproto.Continue, Payload: dbgproto.ContinuePayload{}})
	return done, a.finishReply(l, reply)
}

func cmdAbort(a *miAdapter, dispatch adapter.Dispatch, l line) (bool, error) {
	reply, done := dispatch(dbgproto.Request{Kind: dbgproto.Terminate})
	return done, a.finishReply(l, reply)
}

func cmdAttach(a *miAdapter, dispatch adapter.Dispatch, l line) (bool, error) {
	if len(l.Args) < 1 {
		return false, a.finishError(l, "attach requires a pid")
	}
	pid, err := strconv.Atoi(l.Args[0])
	if err != nil {
		return false, a.finishError(l, fmt.Sprintf("invalid pid: %q", l.Args[0]))
	}
	reply, done := dispatch(dbgproto.Request{Kind: dbgproto.Attach, Payload: dbgproto.AttachPayload{Pid: pid}})
	return done, a.finishReply(l, reply)
}

func cmdDetach(a *miAdapter, dispatch adapter.Dispatch, l line) (bool, error) {
	reply, done := dispatch(dbgproto.Request{Kind: dbgproto.Detach})
	return done, a.finishReply(l, reply)
}

// cmdTarget implements the two-word "target exec <path>" form; other
// "target ..." subcommands are not part of this command table.
func cmdTarget(a *miAdapter, dispatch adapter.Dispatch, l line) (bool, error) {
	if len(l.Args) >= 2 && strings.EqualFold(l.Args[0], "exec") {
		reply, done := dispatch(dbgproto.Request{Kind: dbgproto.SetTarget, Payload: dbgproto.SetTargetPayload{Path: l.Args[1]}})
		return done, a.finishReply(l, reply)
	}
	return false, a.finishError(l, fmt.Sprintf("Unknown request: %q", l.Name))
}

func cmdFileExecAndSymbols(a *miAdapter, dispatch adapter.Dispatch, l line) (bool, error) {
	if len(l.Args) < 1 {
		return false, a.finishError(l, "file-exec-and-symbols requires a path")
	}
	reply, done := dispatch(dbgproto.Request{Kind: dbgproto.SetTarget, Payload: dbgproto.SetTargetPayload{Path: l.Args[0]}})
	return done, a.finishReply(l, reply)
}

func cmdExecArguments(a *miAdapter, dispatch adapter.Dispatch, l line) (bool, error) {
	reply, done := dispatch(dbgproto.Request{Kind: dbgproto.SetArgs, Payload: dbgproto.SetArgsPayload{Args: l.Args}})
	return done, a.finishReply(l, reply)
}

func cmdEnvironmentCd(a *miAdapter, dispatch adapter.Dispatch, l line) (bool, error) {
	if len(l.Args) < 1 {
		return false, a.finishError(l, "environment-cd requires a path")
	}
	reply, done := dispatch(dbgproto.Request{Kind: dbgproto.CwdSet, Payload: dbgproto.CwdSetPayload{Path: l.Args[0]}})
	return done, a.finishReply(l, reply)
}

// cmdShow implements "show version" (emits a console-stream record ahead
// of ^done) and bare "show" (^done only, a deliberate deviation from
// GDB's "print everything and quit").
func cmdShow(a *miAdapter, dispatch adapter.Dispatch, l line) (bool, error) {
	arg := ""
	if len(l.Args) > 0 {
		arg = l.Args[0]
	}
	reply, done := dispatch(dbgproto.Request{Kind: dbgproto.Show, Payload: dbgproto.ShowPayload{Arg: arg}})
	if !reply.Success {
		return done, a.finishError(l, reply.Message)
	}
	if arg == "version" {
		if version, ok := reply.Details.(string); ok {
			if err := a.send(consoleRecord(version)); err != nil {
				return done, err
			}
		}
	}
	return done, a.finishReply(l, reply)
}

// cmdInfoGdbMiCommand answers entirely from this adapter's own command
// table, never consulting the session engine.
func cmdInfoGdbMiCommand(a *miAdapter, dispatch adapter.Dispatch, l line) (bool, error) {
	name := ""
	if len(l.Args) > 0 {
		name = l.Args[0]
	}
	_, exists := commandTable[strings.ToLower(name)]
	details := mival.NewObject()
	command := mival.NewObject()
	command.Set("exists", mival.NewBool(exists))
	details.Set("command", command)
	return false, a.send(resultRecord(l.HasID, l.ID, false, details) + prompt)
}

// cmdListFeatures answers from this adapter's own (currently empty)
// feature list.
func cmdListFeatures(a *miAdapter, dispatch adapter.Dispatch, l line) (bool, error) {
	details := mival.NewObject()
	details.Set("features", mival.NewArray())
	return false, a.send(resultRecord(l.HasID, l.ID, false, details) + prompt)
}

// cmdQuit terminates the session without emitting a reply or a further
// prompt, matching GDB's own gdb-exit/quit/q behavior.
func cmdQuit(a *miAdapter, dispatch adapter.Dispatch, l line) (bool, error) {
	_, done := dispatch(dbgproto.Request{Kind: dbgproto.Close, Payload: dbgproto.ClosePayload{TerminateIfLaunched: true}})
	return done, nil
}

// cmdSilentNoOp implements gdb-set/inferior-tty-set: no reply, no prompt.
func cmdSilentNoOp(a *miAdapter, dispatch adapter.Dispatch, l line) (bool, error) {
	return false, nil
}
