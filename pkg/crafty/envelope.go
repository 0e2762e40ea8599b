package crafty

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/jsonc"
)

// Envelope is the top-level JSON wrapper the controller returns on every call.
// Unknown top-level and nested keys are ignored for forward compatibility.
type Envelope struct {
	Status    string       `json:"status"`
	Data      *ServerState `json:"data"`
	Error     string       `json:"error"`
	ErrorData string       `json:"errorData"`
	Info      string       `json:"info"`
}

// ServerState is the nested server-state payload of an ok reply. A missing
// running key decodes to false, which the engine reads as stopped.
type ServerState struct {
	Running bool `json:"running"`
}

// OK reports whether the controller accepted the request
func (e *Envelope) OK() bool {
	return e.Status == "ok"
}

// ErrorDetail returns the most specific error text the reply carries
func (e *Envelope) ErrorDetail() string {
	switch {
	case e.Error != "":
		return e.Error
	case e.ErrorData != "":
		return e.ErrorData
	case e.Info != "":
		return e.Info
	default:
		return "controller returned status " + e.Status
	}
}

// decodeEnvelope parses a controller reply body. A strict decode is tried
// first; on failure the raw text is re-parsed leniently (stray log output
// around the envelope, trailing commas, comments) before giving up.
func decodeEnvelope(body []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err == nil {
		return &env, nil
	}

	text := strings.TrimSpace(string(body))
	if start, end := strings.IndexByte(text, '{'), strings.LastIndexByte(text, '}'); start >= 0 && end > start {
		text = text[start : end+1]
	}
	if err := json.Unmarshal(jsonc.ToJSON([]byte(text)), &env); err != nil {
		return nil, fmt.Errorf("unparseable reply body: %w", err)
	}
	return &env, nil
}

// Result is what one transport call produces. Built once, never mutated,
// consumed immediately by the engine.
type Result struct {
	// OK mirrors the envelope status; false for controller-reported errors
	// and for recoverable transport or parse failures.
	OK bool

	// State is the nested server-state payload, nil when the reply had none
	State *ServerState

	// ErrorDetail is a human-readable diagnostic when OK is false
	ErrorDetail string
}
