/*
Package storage persists the broker's server records in a BoltDB database.

Records are stored as JSON values keyed by server name in a single bucket.
The Store interface exists so tests and future backends can swap the
implementation.
*/
package storage
