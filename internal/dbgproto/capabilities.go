package dbgproto

// Capability is one named boolean flag negotiated at initialize time.
type Capability struct {
	Name      string
	Supported bool
}

// Capabilities holds the two ordered capability sequences exchanged during
// Initialize: the client's declared capabilities and aliceserver's own.
// Iteration order is the order capabilities were appended, which is
// deterministic and worth pinning down in tests.
type Capabilities struct {
	Client []Capability
	Server []Capability
}

// ServerCapabilityNames lists the DAP server capability names aliceserver
// always declares support for. The DAP adapter reports every one of them
// in its initialize response; the list is not trimmed against the
// client's declared capabilities.
var ServerCapabilityNames = []string{
	"supportsConfigurationDoneRequest",
	"supportsFunctionBreakpoints",
	"supportsConditionalBreakpoints",
	"supportsEvaluateForHovers",
	"supportsSetVariable",
	"supportsExceptionInfoRequest",
	"supportsDelayedStackTraceLoading",
	"supportsLogPoints",
	"supportsSteppingGranularity",
	"supportsInstructionBreakpoints",
}

// DefaultServerCapabilities returns the fixed server capability list, all
// marked supported, in ServerCapabilityNames order.
func DefaultServerCapabilities() []Capability {
	caps := make([]Capability, len(ServerCapabilityNames))
	for i, name := range ServerCapabilityNames {
		caps[i] = Capability{Name: name, Supported: true}
	}
	return caps
}
