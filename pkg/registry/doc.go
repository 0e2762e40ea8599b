/*
Package registry wires the per-server brokers to the rest of the process.

The registry owns one broker per managed server, persists server records
through the storage package, publishes lifecycle events and records
operation metrics. It is the host-side collaborator of the crafty package:
deciding which server to act on and when happens here or above, never inside
a broker.
*/
package registry
