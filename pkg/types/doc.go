// Package types defines the core data types shared across trackd: tracked
// devices and their movement trails, tracking events, users, sessions, and
// the connectivity state machine.
package types
