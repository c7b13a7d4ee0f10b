package mi

import (
	"strconv"

	"github.com/dd86k/aliceserver/internal/cescape"
	"github.com/dd86k/aliceserver/internal/dbgproto"
	"github.com/dd86k/aliceserver/internal/mival"
)

const prompt = "(gdb)\n"

// resultPrefix builds the "[<id>]^<tag>" prefix shared by result and error
// records: the numeric id, if the request carried one, directly abuts the
// record's leading character with no separator.
func resultPrefix(hasID bool, id uint64, tag string) string {
	if !hasID {
		return tag
	}
	return strconv.FormatUint(id, 10) + tag
}

// resultRecord formats a "^done"/"^running" record, with details appended
// via the MI value tree's own comma-joining rule.
func resultRecord(hasID bool, id uint64, running bool, details mival.Value) string {
	tag := "^done"
	if running {
		tag = "^running"
	}
	return mival.ToMessage(resultPrefix(hasID, id, tag), details)
}

// errorRecord formats "[<id>]^error,msg=\"<c-escaped message>\"\n".
func errorRecord(hasID bool, id uint64, message string) string {
	details := mival.NewObject()
	details.Set("msg", mival.NewString(message))
	return mival.ToMessage(resultPrefix(hasID, id, "^error"), details)
}

// echoRecord formats the log-stream command-echo record GDB emits before
// running a non-dashed (CLI-style) command.
func echoRecord(text string) string {
	return "&\"" + cescape.Escape(text) + "\"\n"
}

// consoleRecord formats a console-stream record carrying text, with a
// trailing (escaped) newline inside the quotes.
func consoleRecord(text string) string {
	return "~\"" + cescape.Escape(text+"\n") + "\"\n"
}

// outputRecord maps a debuggee Output event onto an MI stream record:
// inferior stdout/stderr go out as target-stream ("@"), anything else as
// console-stream ("~").
func outputRecord(evt dbgproto.Event) string {
	switch evt.OutputCategory {
	case "stdout", "stderr":
		return "@\"" + cescape.Escape(evt.OutputText) + "\"\n"
	default:
		return "~\"" + cescape.Escape(evt.OutputText) + "\"\n"
	}
}

// continuedRecord formats the exec-async record for a Continued event.
func continuedRecord() string {
	return "*running,thread-id=\"all\"\n"
}

// exitedRecord formats the exec-async record for an Exited event.
func exitedRecord(exitCode int) string {
	v := mival.NewObject()
	if exitCode == 0 {
		v.Set("reason", mival.NewString("exited-normally"))
		return mival.ToMessage("*stopped", v)
	}
	v.Set("reason", mival.NewString("exited"))
	v.Set("exit-code", mival.NewInt(int64(exitCode)))
	return mival.ToMessage("*stopped", v)
}

// stoppedReasonMI maps a dbgproto.StopReason to its MI string.
func stoppedReasonMI(r dbgproto.StopReason) string {
	switch r {
	case dbgproto.StepReason:
		return "step"
	case dbgproto.BreakpointReason:
		return "breakpoint-hit"
	case dbgproto.ExceptionReason:
		return "signal-received"
	default:
		return "unknown"
	}
}

func frameValue(f dbgproto.Frame) mival.Value {
	v := mival.NewObject()
	v.Set("addr", mival.NewString("0x"+strconv.FormatUint(f.Address, 16)))
	fn := f.FunctionName
	if !f.HasFunction {
		fn = "??"
	}
	v.Set("func", mival.NewString(fn))
	args := mival.NewArray()
	for _, a := range f.Arguments {
		entry := mival.NewObject()
		entry.Set("name", mival.NewString(a.Name))
		entry.Set("value", mival.NewString(a.Value))
		args.Append(entry)
	}
	v.Set("args", args)
	v.Set("arch", mival.NewString(f.Arch.MIName()))
	return v
}

// stoppedRecord formats the exec-async record for a Stopped event, filling
// defaults wherever the backend supplied no frame.
func stoppedRecord(evt dbgproto.Event) string {
	v := mival.NewObject()
	v.Set("reason", mival.NewString(stoppedReasonMI(evt.Reason)))

	signalName, signalMeaning := "0", "0"
	if evt.ExceptionKind != "" {
		signalName = evt.ExceptionKind
	}
	if evt.Description != "" {
		signalMeaning = evt.Description
	}
	v.Set("signal-name", mival.NewString(signalName))
	v.Set("signal-meaning", mival.NewString(signalMeaning))

	frame := dbgproto.DefaultFrame()
	if evt.Frame != nil {
		frame = *evt.Frame
	}
	v.Set("frame", frameValue(frame))

	v.Set("thread-id", mival.NewInt(int64(evt.ThreadID)))
	v.Set("stopped-threads", mival.NewString("all"))

	return mival.ToMessage("*stopped", v)
}
