// Package application provides application initialization and dependency wiring.
// It selects the catalog source, the history storage and the preview cache
// from configuration, builds the calculation service, handlers and routers,
// and creates the HTTP server, keeping the main package focused on CLI
// parsing and orchestration.
package application
