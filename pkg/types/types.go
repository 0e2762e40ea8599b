package types

import (
	"fmt"
	"time"
)

// RemoteStatus represents the observable state of a remotely managed server
type RemoteStatus string

const (
	// StatusRunning means the remote controller reports the server process as up
	StatusRunning RemoteStatus = "running"

	// StatusStopped means the remote controller reports the server process as down.
	// An ok reply with no running flag also counts as stopped.
	StatusStopped RemoteStatus = "stopped"

	// StatusUnknown means the status read failed or was ambiguous. Unknown is
	// reserved for transport and protocol failure, never for
	// missing-but-successful data, and is never conflated with stopped.
	StatusUnknown RemoteStatus = "unknown"
)

// BrokerKind identifies which broker implementation a Config targets
type BrokerKind string

const (
	BrokerKindCrafty BrokerKind = "crafty"
)

// Config is the orchestrator-supplied configuration for one managed server.
// It is a tagged union: Type selects which broker-specific payload is valid.
type Config struct {
	Name   string        `yaml:"name" json:"name"`
	Type   BrokerKind    `yaml:"type" json:"type"`
	Crafty *CraftyConfig `yaml:"crafty,omitempty" json:"crafty,omitempty"`
}

// CraftyPayload returns the crafty-specific payload after checking the
// discriminant. A wrong or missing tag is a recoverable error, not a cast fault.
func (c *Config) CraftyPayload() (*CraftyConfig, error) {
	if c.Type != BrokerKindCrafty {
		return nil, fmt.Errorf("config type %q is not %q", c.Type, BrokerKindCrafty)
	}
	if c.Crafty == nil {
		return nil, fmt.Errorf("config %q has type %q but no crafty payload", c.Name, BrokerKindCrafty)
	}
	return c.Crafty, nil
}

// CraftyConfig holds the Crafty Controller connection settings for one server
type CraftyConfig struct {
	// ServerID is the opaque identifier the controller assigned to the server
	ServerID string `yaml:"serverID" json:"serverID"`

	// Token authenticates every API request (Authorization: Bearer)
	Token string `yaml:"token" json:"token"`

	// CraftyAddress is the base URL of the controller, e.g. https://crafty:8443
	CraftyAddress string `yaml:"craftyAddress" json:"craftyAddress"`

	// InsecureMode disables certificate validation on the transport.
	// Explicit opt-in; the default is secure validation.
	InsecureMode bool `yaml:"insecureMode,omitempty" json:"insecureMode,omitempty"`

	// Address is the game-facing host[:port] of the server itself (not the
	// controller). Port defaults to 25565 when omitted.
	Address string `yaml:"address,omitempty" json:"address,omitempty"`

	// LegacyKill selects the kill_server action instead of DELETE for
	// removal, for older controller generations.
	LegacyKill bool `yaml:"legacyKill,omitempty" json:"legacyKill,omitempty"`
}

// ServerRecord is the broker-side record of a managed server
type ServerRecord struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Config     Config       `json:"config"`
	LastStatus RemoteStatus `json:"last_status"`
	LastSeen   time.Time    `json:"last_seen"`
	CreatedAt  time.Time    `json:"created_at"`
}
