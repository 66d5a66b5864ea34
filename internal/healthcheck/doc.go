// Package healthcheck periodically probes the SPA development server.
//
// Any HTTP response counts as reachable, since development servers commonly
// answer their root path with a 404 or a redirect. Results are logged on
// change and reported to the metrics collector; they never gate forwarding.
package healthcheck
