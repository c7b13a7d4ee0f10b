package dbgproto

// Reply is the result of dispatching one Request: either Success (with
// optional structured Details an adapter may render into its wire format)
// or Error (with a human-readable Message). Running distinguishes a
// "launched/continued, debuggee now executing" success from a plain
// "done" success, since the MI adapter renders the two differently
// (^running vs ^done).
type Reply struct {
	Success bool
	Message string // set when !Success
	Running bool    // set when Success and the debuggee is now running
	Details any     // kind-specific structured payload, e.g. Capabilities
}

// Ok builds a plain success Reply.
func Ok() Reply { return Reply{Success: true} }

// OkRunning builds a success Reply marked as having resumed the debuggee.
func OkRunning() Reply { return Reply{Success: true, Running: true} }

// OkWith builds a success Reply carrying structured Details.
func OkWith(details any) Reply { return Reply{Success: true, Details: details} }

// Errorf builds an Error Reply.
func Errorf(message string) Reply { return Reply{Success: false, Message: message} }
