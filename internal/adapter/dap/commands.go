package dap

import (
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/dd86k/aliceserver/internal/dbgproto"
)

// knownInitializeFields are the initialize arguments that name the client
// rather than declare a boolean capability; anything else present and
// boolean is treated as a client capability flag.
var knownInitializeFields = map[string]bool{
	"clientID": true, "clientName": true, "adapterID": true,
	"locale": true, "pathFormat": true, "linesStartAt1": true,
	"columnsStartAt1": true,
}

type initializeArgs struct {
	ClientID   string `json:"clientID"`
	ClientName string `json:"clientName"`
	AdapterID  string `json:"adapterID"`
	Locale     string `json:"locale"`
	PathFormat string `json:"pathFormat"`
}

type launchArgs struct {
	Path string   `json:"path"`
	Args []string `json:"args"`
	Cwd  string   `json:"cwd"`
}

type attachArgs struct {
	Pid *int `json:"pid"`
}

type continueArgs struct {
	ThreadID *int `json:"threadId"`
}

type disconnectArgs struct {
	TerminateDebuggee bool `json:"terminateDebuggee"`
}

// decodeCommand validates and translates one DAP request into the
// protocol-independent Request kind/payload pair the session engine
// consumes. A non-nil error is a client-facing validation failure and is
// rendered verbatim into the response's body.error.
func decodeCommand(req *message) (dbgproto.RequestKind, any, error) {
	switch req.Command {
	case "initialize":
		return decodeInitialize(req.Arguments)
	case "configurationDone":
		return dbgproto.ConfigurationDone, nil, nil
	case "launch":
		var args launchArgs
		if len(req.Arguments) > 0 {
			if err := unmarshal(req.Arguments, &args); err != nil {
				return 0, nil, fmt.Errorf("malformed launch arguments: %w", err)
			}
		}
		if args.Path == "" {
			return 0, nil, fmt.Errorf("missing required argument 'path'")
		}
		return dbgproto.Launch, dbgproto.LaunchPayload{Exec: args.Path, Args: args.Args, Cwd: args.Cwd, Run: true}, nil
	case "attach":
		var args attachArgs
		if len(req.Arguments) > 0 {
			if err := unmarshal(req.Arguments, &args); err != nil {
				return 0, nil, fmt.Errorf("malformed attach arguments: %w", err)
			}
		}
		if args.Pid == nil {
			return 0, nil, fmt.Errorf("missing required argument 'pid'")
		}
		return dbgproto.Attach, dbgproto.AttachPayload{Pid: *args.Pid}, nil
	case "continue":
		var args continueArgs
		if len(req.Arguments) > 0 {
			if err := unmarshal(req.Arguments, &args); err != nil {
				return 0, nil, fmt.Errorf("malformed continue arguments: %w", err)
			}
		}
		if args.ThreadID == nil {
			return 0, nil, fmt.Errorf("missing required argument 'threadId'")
		}
		return dbgproto.Continue, dbgproto.ContinuePayload{ThreadID: *args.ThreadID}, nil
	case "disconnect":
		var args disconnectArgs
		if len(req.Arguments) > 0 {
			if err := unmarshal(req.Arguments, &args); err != nil {
				return 0, nil, fmt.Errorf("malformed disconnect arguments: %w", err)
			}
		}
		return dbgproto.Close, dbgproto.ClosePayload{TerminateIfLaunched: args.TerminateDebuggee}, nil
	default:
		return 0, nil, fmt.Errorf("unknown command: %q", req.Command)
	}
}

func decodeInitialize(raw json.RawMessage) (dbgproto.RequestKind, any, error) {
	var args initializeArgs
	if len(raw) > 0 {
		if err := unmarshal(raw, &args); err != nil {
			return 0, nil, fmt.Errorf("malformed initialize arguments: %w", err)
		}
	}

	pathFormat := args.PathFormat
	if pathFormat == "" {
		pathFormat = "path"
	}
	if pathFormat != "path" && pathFormat != "uri" {
		return 0, nil, fmt.Errorf("unsupported pathFormat: %q", args.PathFormat)
	}

	var fields map[string]json.RawMessage
	if len(raw) > 0 {
		_ = unmarshal(raw, &fields)
	}
	var caps []dbgproto.Capability
	for name, v := range fields {
		if knownInitializeFields[name] {
			continue
		}
		var b bool
		if err := unmarshal(v, &b); err != nil {
			continue
		}
		caps = append(caps, dbgproto.Capability{Name: name, Supported: b})
	}

	return dbgproto.Initialize, dbgproto.InitializePayload{
		ClientID:           args.ClientID,
		ClientName:         args.ClientName,
		AdapterID:          args.AdapterID,
		Locale:             args.Locale,
		PathFormat:         pathFormat,
		ClientCapabilities: caps,
	}, nil
}
