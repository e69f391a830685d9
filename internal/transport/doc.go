/*
Package transport is the WebSocket adapter: it accepts inbound upgrades
on the device/client bind paths, parses the session identifier out of the
url path via gorilla/mux, and owns the http.Server lifecycle. Everything
session/queue/routing related lives in internal/hub; this package only
ever constructs a session and starts its read/write flows.
*/
package transport
