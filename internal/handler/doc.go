// Package handler installs the catch-all route that proxies unmatched
// requests to the SPA development server.
// It coordinates the launch manager gate, forwarding, logging and metric events.
package handler
