/*
Package events provides the in-memory signal broker connecting trackd's core
services to its UI shell.

Services publish advisory signals (channel connected, backend offline,
session expired) and the shell subscribes to render them. Publishing is
non-blocking: a subscriber that stops draining its channel misses events
rather than stalling the publisher.

# Usage

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	broker.Publish(events.New(events.EventConnectivityOffline, "probe failed"))
*/
package events
