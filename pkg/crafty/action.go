package crafty

import (
	"fmt"
	"net/http"
)

// ActionKind is an abstract lifecycle action against the remote controller
type ActionKind string

const (
	ActionStart  ActionKind = "start"
	ActionStop   ActionKind = "stop"
	ActionDelete ActionKind = "delete"
	ActionKill   ActionKind = "kill" // forced removal on older controller generations
	ActionStatus ActionKind = "status"
)

// Encode maps an action to its HTTP method and path suffix under
// api/v2/servers/{serverID}/. Each action maps to exactly one pair.
func (a ActionKind) Encode() (method, suffix string, err error) {
	switch a {
	case ActionStart:
		return http.MethodPost, "action/start_server", nil
	case ActionStop:
		return http.MethodPost, "action/stop_server", nil
	case ActionDelete:
		return http.MethodDelete, "", nil
	case ActionKill:
		return http.MethodPost, "action/kill_server", nil
	case ActionStatus:
		return http.MethodGet, "stats", nil
	default:
		return "", "", fmt.Errorf("unknown action %q", string(a))
	}
}
