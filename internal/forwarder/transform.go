package forwarder

import (
	"net/http/httputil"
	"net/url"
	"slices"
)

// ReverseProxy strips these before calling Rewrite. They are restored so the
// destination sees the inbound header set unchanged.
var forwardingHeaders = []string{
	"Forwarded",
	"X-Forwarded-For",
	"X-Forwarded-Host",
	"X-Forwarded-Proto",
}

// Transform points the outbound request at destination, keeping the inbound
// path and query, and clears the Host so it is derived from destination.
// Headers are otherwise left as the inbound request had them.
func Transform(pr *httputil.ProxyRequest, destination *url.URL) {
	pr.SetURL(destination)

	for _, name := range forwardingHeaders {
		if values, ok := pr.In.Header[name]; ok {
			pr.Out.Header[name] = slices.Clone(values)
		}
	}

	pr.Out.Host = ""
}
