// Package forwarder relays HTTP requests to a single SPA development server.
//
// It builds on net/http/httputil.ReverseProxy and adds the pieces the proxy
// itself does not decide:
//
//   - a shared outbound transport that ignores ambient proxy settings, never
//     follows redirects, never decompresses and keeps no cookies
//   - a request transform that targets the destination and clears the
//     inbound Host so the destination's own host is used
//   - an upper bound on the time to receive response headers
//   - typed failure reasons, see ErrorReason
//
// Usage:
//
//	fwd, err := forwarder.New(forwarder.Options{
//		Destination: clientURL,
//		Transport:   forwarder.NewTransport(),
//	})
//	if err != nil {
//		return err
//	}
//	if ferr := fwd.Forward(w, r); ferr != nil {
//		logger.Warn("forward failed", slog.String("reason", ferr.Reason.String()))
//	}
package forwarder
