// Package server provides HTTP server lifecycle management: non-blocking Start, signal-aware
// WaitForShutdown, and a bounded graceful Shutdown wrapped around net/http.Server.
package server
