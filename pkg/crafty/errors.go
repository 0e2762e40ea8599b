package crafty

import (
	"errors"
	"fmt"
	"time"

	"github.com/Thebestandgreatest/craftybroker/pkg/types"
)

var (
	// ErrConfigType is returned when a configuration is not tagged for a crafty broker
	ErrConfigType = errors.New("configuration is not for a crafty server")

	// ErrNoAddress is returned by Address when no server address is configured
	ErrNoAddress = errors.New("no server address configured")
)

// CommandRejectedError means the controller refused the lifecycle command
// itself. No polling was attempted: the operation never started remotely.
type CommandRejectedError struct {
	Action ActionKind
	Detail string
}

func (e *CommandRejectedError) Error() string {
	return fmt.Sprintf("controller rejected %s command: %s", e.Action, e.Detail)
}

// ConvergenceTimeoutError means the controller accepted the command but the
// server never reached the target state before the polling deadline. Distinct
// from CommandRejectedError so callers can tell "never attempted" from
// "attempted but did not converge".
type ConvergenceTimeoutError struct {
	Target types.RemoteStatus
	Waited time.Duration
}

func (e *ConvergenceTimeoutError) Error() string {
	return fmt.Sprintf("server did not reach %s state within %s", e.Target, e.Waited)
}

// StateUnknownError means a status read failed while polling toward a target
// state. The server is presumed crashed or unreachable; polling aborts
// immediately rather than waiting out the deadline.
type StateUnknownError struct {
	Target types.RemoteStatus
	Detail string
}

func (e *StateUnknownError) Error() string {
	msg := fmt.Sprintf("server state became unknown while waiting for %s", e.Target)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}
