// Devserver is a stand-in SPA development server for trying the proxy
// locally. It serves an index page, a script bundle, an echo endpoint and a
// slow endpoint.
//
// Usage:
//
//	go run devserver.go -port 5173
//
// Point spa.proxy.json at it with "ClientUrl": "http://localhost:5173".
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const indexPage = `<!doctype html>
<html>
  <head><title>dev server</title></head>
  <body><div id="app"></div><script src="/app/main.js"></script></body>
</html>
`

const mainBundle = `document.getElementById("app").textContent = "served by the dev server";
`

// Echo is returned by /echo so proxy behaviour can be inspected.
type Echo struct {
	ID      string              `json:"id"`
	Method  string              `json:"method"`
	Host    string              `json:"host"`
	Path    string              `json:"path"`
	Query   string              `json:"query"`
	Headers map[string][]string `json:"headers"`
	Body    string              `json:"body"`
}

func main() {
	port := flag.Int("port", 5173, "port to listen on")
	flag.Parse()

	mux := http.NewServeMux()

	mux.HandleFunc("/app/main.js", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/javascript")
		io.WriteString(w, mainBundle)
	})

	mux.HandleFunc("/echo", func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		log.Printf("request: method=%s host=%s path=%s from=%s", r.Method, r.Host, r.URL.Path, r.RemoteAddr)

		b, _ := json.Marshal(Echo{
			ID:      uuid.NewString(),
			Method:  r.Method,
			Host:    r.Host,
			Path:    r.URL.Path,
			Query:   r.URL.RawQuery,
			Headers: r.Header,
			Body:    string(body),
		})
		w.Header().Set("Content-Type", "application/json")
		w.Write(b)
	})

	// slow answers after ?delay=, e.g. /slow?delay=2m, to exercise the proxy timeout
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		delay, err := time.ParseDuration(r.URL.Query().Get("delay"))
		if err != nil {
			delay = 5 * time.Second
		}
		select {
		case <-time.After(delay):
			fmt.Fprintf(w, "waited %s\n", delay)
		case <-r.Context().Done():
		}
	})

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(w, indexPage)
	})

	addr := fmt.Sprintf(":%d", *port)
	log.Printf("starting dev server on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
