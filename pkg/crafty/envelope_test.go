package crafty

import (
	"net/http"
	"testing"
)

func TestActionEncode(t *testing.T) {
	tests := []struct {
		action ActionKind
		method string
		suffix string
	}{
		{ActionStart, http.MethodPost, "action/start_server"},
		{ActionStop, http.MethodPost, "action/stop_server"},
		{ActionDelete, http.MethodDelete, ""},
		{ActionKill, http.MethodPost, "action/kill_server"},
		{ActionStatus, http.MethodGet, "stats"},
	}

	for _, tt := range tests {
		method, suffix, err := tt.action.Encode()
		if err != nil {
			t.Fatalf("Encode(%s) returned error: %v", tt.action, err)
		}
		if method != tt.method || suffix != tt.suffix {
			t.Errorf("Encode(%s) = (%s, %q), want (%s, %q)", tt.action, method, suffix, tt.method, tt.suffix)
		}
	}

	if _, _, err := ActionKind("reboot").Encode(); err == nil {
		t.Error("expected error for unknown action")
	}
}

func TestDecodeEnvelopeIgnoresUnknownKeys(t *testing.T) {
	env, err := decodeEnvelope([]byte(`{"status":"ok","data":{"running":true,"mem":"2G"},"future_field":1}`))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !env.OK() {
		t.Error("expected ok envelope")
	}
	if env.Data == nil || !env.Data.Running {
		t.Error("expected running state")
	}
}

func TestDecodeEnvelopeMissingRunningIsFalse(t *testing.T) {
	env, err := decodeEnvelope([]byte(`{"status":"ok","data":{"mem":"2G"}}`))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if env.Data == nil {
		t.Fatal("expected data payload")
	}
	if env.Data.Running {
		t.Error("missing running flag must decode as false")
	}
}

func TestErrorDetailPrecedence(t *testing.T) {
	tests := []struct {
		name     string
		env      Envelope
		expected string
	}{
		{
			name:     "error field wins",
			env:      Envelope{Status: "error", Error: "boom", ErrorData: "detail", Info: "note"},
			expected: "boom",
		},
		{
			name:     "errorData next",
			env:      Envelope{Status: "error", ErrorData: "detail", Info: "note"},
			expected: "detail",
		},
		{
			name:     "info last",
			env:      Envelope{Status: "error", Info: "note"},
			expected: "note",
		},
		{
			name:     "fallback names the status",
			env:      Envelope{Status: "error"},
			expected: "controller returned status error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.env.ErrorDetail(); got != tt.expected {
				t.Errorf("ErrorDetail() = %q, want %q", got, tt.expected)
			}
		})
	}
}
