// Package dbgproto holds the protocol-independent data model shared by
// every adapter and the session engine: requests, replies, events, frames,
// capabilities, the target configuration, and the session state machine.
// Nothing in this package knows about DAP JSON or MI text — adapters
// translate their wire format into these types and back.
package dbgproto

// RequestKind tags the variant carried by a Request.
type RequestKind int

const (
	Initialize RequestKind = iota
	Launch
	Attach
	Run
	Continue
	Detach
	Terminate
	Close
	CwdSet
	ConfigurationDone
	SetArgs
	SetTarget
	Show
	Unknown
)

func (k RequestKind) String() string {
	switch k {
	case Initialize:
		return "Initialize"
	case Launch:
		return "Launch"
	case Attach:
		return "Attach"
	case Run:
		return "Run"
	case Continue:
		return "Continue"
	case Detach:
		return "Detach"
	case Terminate:
		return "Terminate"
	case Close:
		return "Close"
	case CwdSet:
		return "CwdSet"
	case ConfigurationDone:
		return "ConfigurationDone"
	case SetArgs:
		return "SetArgs"
	case SetTarget:
		return "SetTarget"
	case Show:
		return "Show"
	default:
		return "Unknown"
	}
}

// InitializePayload carries the client-identification fields of an
// Initialize request.
type InitializePayload struct {
	ClientID             string
	ClientName           string
	AdapterID            string
	Locale               string
	PathFormat           string // "path" or "uri"
	ClientCapabilities   []Capability
}

// LaunchPayload carries the arguments of a Launch request. Exec/Args/Cwd
// mirror dbgproto.TargetConfig's fields; a Launch request both updates the
// engine's TargetConfig and triggers the launch in one step.
type LaunchPayload struct {
	Exec string
	Args []string
	Cwd  string
	Run  bool // start the debuggee immediately (always true for DAP)
}

// AttachPayload carries the pid of an Attach request.
type AttachPayload struct {
	Pid int
}

// ContinuePayload carries the thread id of a Continue request.
type ContinuePayload struct {
	ThreadID int
}

// ClosePayload carries the close policy of a Close request: whether an
// Attached session should be Terminated (true) rather than detached. A
// Launched session is terminated on Close either way.
type ClosePayload struct {
	TerminateIfLaunched bool
}

// CwdSetPayload carries the working directory of a CwdSet request.
type CwdSetPayload struct {
	Path string
}

// SetArgsPayload carries the target arguments of a SetArgs request. A nil
// Args clears the stored arguments.
type SetArgsPayload struct {
	Args []string
}

// SetTargetPayload carries the executable path of a SetTarget request.
type SetTargetPayload struct {
	Path string
}

// ShowPayload carries the (possibly empty) argument of a Show request.
type ShowPayload struct {
	Arg string
}

// Request is a tagged record describing one inbound client operation.
// Kind and Payload must agree: Payload holds the XPayload value (not a
// pointer) matching Kind, or nil for kinds that carry no payload (Run, Detach, Terminate,
// ConfigurationDone, Unknown).
type Request struct {
	Kind    RequestKind
	ID      uint64
	HasID   bool // true when the client supplied a correlation id
	Payload any
}
