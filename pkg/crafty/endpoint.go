package crafty

import (
	"github.com/Thebestandgreatest/craftybroker/pkg/types"
)

// Endpoint is the connection configuration for one managed server. A broker
// holds exactly one Endpoint at a time and replaces it wholesale on
// configuration change; it is never mutated field by field, so a poll loop
// reading a snapshot sees either fully-old or fully-new values.
type Endpoint struct {
	// BaseURL is the controller base address, e.g. https://crafty:8443
	BaseURL string

	// ServerID is the controller-assigned identifier of the managed server
	ServerID string

	// Token is the bearer token sent on every request
	Token string

	// Insecure disables certificate validation on the transport
	Insecure bool

	// Address is the game-facing host[:port] of the server itself
	Address string

	// LegacyKill selects kill_server instead of DELETE for removal
	LegacyKill bool
}

// EndpointFromConfig builds an Endpoint from the crafty payload of a broker config
func EndpointFromConfig(cfg *types.CraftyConfig) Endpoint {
	return Endpoint{
		BaseURL:    cfg.CraftyAddress,
		ServerID:   cfg.ServerID,
		Token:      cfg.Token,
		Insecure:   cfg.InsecureMode,
		Address:    cfg.Address,
		LegacyKill: cfg.LegacyKill,
	}
}
