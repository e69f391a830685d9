// Package common provides the shutdown interface the relay hub's
// transport server implements; cmd/server stops it through
// StopWithTimeout. The registry and the signaling sweep ticker have their
// own stop paths and do not implement Stoppable.
//
// Key Components:
//   - Stoppable: Interface for services requiring graceful shutdown
//   - StopWithTimeout: Helper function for timeout-based shutdown
package common
