/*
Package events provides an in-process publish/subscribe bus for lifecycle
events (server started, stopped, removed, status unknown, configuration
changed).

Publishing never blocks: events are dropped when the bus or a subscriber
falls behind. Subscribers receive events on a buffered channel until they
unsubscribe.
*/
package events
