/*
Package connectivity monitors backend reachability.

A Monitor probes the backend health endpoint once at startup and then every
60 seconds, tracking an online/offline/unknown state machine and publishing
transition signals on the event broker. Reachability is a report, never an
error: a failed probe changes state, it does not fail any operation.

An offline-to-online transition additionally emits a reconnected signal so
the shell can show a restoration notice. The notice is suppressed when the
link flaps within the banner window, so a bouncing connection produces one
notice, not a stream of them.

The Prober interface abstracts the actual probe; HTTPProber is the
production implementation and tests substitute scripted probers.
*/
package connectivity
