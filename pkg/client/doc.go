/*
Package client implements the backend REST API client.

Every request runs under a 15 second default timeout and carries the stored
bearer token. A 401 response clears the persisted session: the backend has
rejected the credential, so keeping it would only produce more failures.

Responses arrive either bare or wrapped in the backend's success envelope;
the client unwraps transparently.
*/
package client
