/*
Package session holds the authenticated user's credential and identity and
guards the rest of the application behind token-expiry and role checks.

Store persists the session in a bbolt database so it survives process
restarts; it caches the current session in memory for synchronous reads.

Guard evaluates token expiry locally, with no network round-trip:

  - no token: expired (fail closed)
  - undecodable token payload: expired (fail closed)
  - decodable payload without an exp claim: not expired (fail open; the
    token is assumed session-scoped rather than time-scoped)
  - exp claim present: expired once the clock passes exp minus a
    10-second grace buffer

The asymmetry between the two failure paths is deliberate: a corrupt token
is untrustworthy, an absent claim is not.

A periodic enforcement loop (180s) clears the session and publishes
session.expired when the token has lapsed. Guard.Authorize performs the
synchronous role check used by role-gated views, returning Allow,
DenyNoSession, or DenyWrongRole.
*/
package session
