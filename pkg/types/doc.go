/*
Package types defines the domain types shared across the craftybroker
packages: the RemoteStatus enumeration, the tagged broker configuration
union, and the persisted server record.

Config is a tagged union over broker kinds. The Type field is the
discriminant and must be checked (via CraftyPayload) before the
broker-specific payload is used; an invalid kind is a recoverable error.
*/
package types
