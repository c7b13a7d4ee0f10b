package dap

import (
	json "github.com/goccy/go-json"
)

// message is the wire shape shared by DAP requests, responses, and events;
// fields irrelevant to a given type are simply omitted by json's
// omitempty. success is always written, so a failed response carries an
// explicit false (and an event carries success=false as well).
type message struct {
	Seq        int64           `json:"seq"`
	Type       string          `json:"type"`
	Command    string          `json:"command,omitempty"`
	Event      string          `json:"event,omitempty"`
	Arguments  json.RawMessage `json:"arguments,omitempty"`
	Body       json.RawMessage `json:"body,omitempty"`
	Success    bool            `json:"success"`
	RequestSeq int64           `json:"request_seq,omitempty"`
}

// errorBody is the response body shape for a failed request.
type errorBody struct {
	Error string `json:"error"`
}

func marshal(v any) ([]byte, error) { return json.Marshal(v) }

func unmarshal(b []byte, v any) error { return json.Unmarshal(b, v) }
