// Package httpserver provides the reusable HTTP server shell for the vote
// backend binaries.
//
// The httpserver package implements a base HTTP server with standard health
// endpoints, graceful shutdown, and flexible routing. API handlers plug in
// through the RouteRegistrar interface, keeping server lifecycle concerns
// out of the handler packages.
//
// # Server Lifecycle
//
//  1. Initialization: configure the server with HTTP settings and route registrars
//  2. Startup: run the HTTP server in a background goroutine
//  3. Readiness control: drain/undrain operations for load balancers
//  4. Graceful shutdown: wait for in-flight requests to complete
//
// # Health and Diagnostics
//
// Every server built on BaseServer includes:
//
//   - Liveness check: /livez
//   - Readiness check: /readyz
//   - Drain control: /drain, /undrain
//   - Profiling: optional pprof endpoints under /debug when enabled
//
// # Usage
//
//	baseServer, err := httpserver.New(cfg, apiHandler)
//	if err != nil {
//	    return err
//	}
//	baseServer.RunInBackground()
//	defer baseServer.Shutdown()
package httpserver
