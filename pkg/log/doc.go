/*
Package log provides structured logging for craftybroker built on zerolog.

Call Init once at startup, then use the package helpers or derive child
loggers with WithComponent and WithServer so every line carries its origin.
*/
package log
