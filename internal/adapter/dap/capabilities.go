package dap

import "github.com/dd86k/aliceserver/internal/dbgproto"

// capabilitiesBody builds the initialize response body: an object whose
// keys are the server capability names marked supported, each mapped to
// true. Capabilities with supported=false are omitted entirely rather
// than emitted as false, matching the DAP convention that an absent key
// means "not supported".
func capabilitiesBody(caps dbgproto.Capabilities) map[string]bool {
	body := make(map[string]bool, len(caps.Server))
	for _, c := range caps.Server {
		if c.Supported {
			body[c.Name] = true
		}
	}
	return body
}
