package storage

import (
	"github.com/Thebestandgreatest/craftybroker/pkg/types"
)

// Store defines the interface for broker state storage
type Store interface {
	// Servers
	SaveServer(record *types.ServerRecord) error
	GetServer(name string) (*types.ServerRecord, error)
	ListServers() ([]*types.ServerRecord, error)
	DeleteServer(name string) error

	// Utility
	Close() error
}
