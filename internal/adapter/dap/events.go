package dap

import "github.com/dd86k/aliceserver/internal/dbgproto"

type stoppedBody struct {
	Reason      string `json:"reason"`
	Description string `json:"description,omitempty"`
	ThreadID    int    `json:"threadId"`
}

type exitedBody struct {
	ExitCode int `json:"exitCode"`
}

type outputBody struct {
	Category string `json:"category"`
	Output   string `json:"output"`
}

// dapStopReason maps a dbgproto.StopReason to its literal DAP string.
func dapStopReason(r dbgproto.StopReason) string {
	switch r {
	case dbgproto.StepReason:
		return "step"
	case dbgproto.BreakpointReason:
		return "breakpoint"
	case dbgproto.ExceptionReason:
		return "exception"
	case dbgproto.PauseReason:
		return "pause"
	case dbgproto.EntryReason:
		return "entry"
	case dbgproto.GotoReason:
		return "goto"
	case dbgproto.FunctionBreakpointReason:
		return "function breakpoint"
	case dbgproto.DataBreakpointReason:
		return "data breakpoint"
	case dbgproto.InstructionBreakpointReason:
		return "instruction breakpoint"
	default:
		return "unknown"
	}
}

// eventBody translates evt into its DAP event name and JSON body. ok is
// false for event kinds this adapter has no DAP rendering for.
func eventBody(evt dbgproto.Event) (string, any, bool) {
	switch evt.Kind {
	case dbgproto.StoppedEvent:
		return "stopped", stoppedBody{
			Reason:      dapStopReason(evt.Reason),
			Description: evt.Description,
			ThreadID:    evt.ThreadID,
		}, true
	case dbgproto.Exited:
		return "exited", exitedBody{ExitCode: evt.ExitCode}, true
	case dbgproto.Output:
		return "output", outputBody{Category: evt.OutputCategory, Output: evt.OutputText}, true
	default:
		return "", nil, false
	}
}
