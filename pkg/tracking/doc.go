/*
Package tracking maintains the live subscription to the backend's
push channel and normalizes inbound messages into canonical tracking
events for the device registry.

Messages arrive as JSON envelopes:

	{"event": "tracking_update", "data": {"imei": "...", "latitude": ..., ...}}
	{"event": "device_frozen",   "data": {"imei": "..."}}

tracking_update payloads are normalized and merged into the registry.
Updates without an IMEI are dropped silently; non-numeric coordinates are
coerced to 0 with the fix flagged unusable. device_frozen is advisory and
only produces a notification event. Unknown kinds are ignored.

The channel redials forever with exponential backoff after any drop.
Close stops the retry loop, closes the socket, and waits for the read
goroutine, so a torn-down view leaks no timers or sockets.
*/
package tracking
