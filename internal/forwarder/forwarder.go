package forwarder

import (
	"context"
	"errors"
	"io"
	"log"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"sync"
	"time"
)

// DefaultTimeout bounds sending the request and receiving the response
// headers. Streaming the response body is bounded only by the caller.
const DefaultTimeout = 100 * time.Second

// Options configures a Forwarder.
type Options struct {
	// Destination is the origin every request is relayed to. Required.
	Destination *url.URL

	// Transport is shared by all forwards. Defaults to NewTransport().
	Transport http.RoundTripper

	// Timeout defaults to DefaultTimeout.
	Timeout time.Duration

	// ErrorHandler defaults to WriteError.
	ErrorHandler ErrorHandler

	// Logger receives diagnostics from the underlying reverse proxy.
	// Defaults to discarding them.
	Logger *slog.Logger
}

// Forwarder relays requests to one destination. It is safe for concurrent use.
type Forwarder struct {
	destination *url.URL
	timeout     time.Duration
	onError     ErrorHandler
	proxy       *httputil.ReverseProxy
}

type stateKey struct{}

// forwardState is per request. Its fields are only touched on the handler
// goroutine, apart from the tracked bodies which carry their own lock.
type forwardState struct {
	timer        *time.Timer
	requestBody  *trackedBody
	responseBody *trackedBody
	err          *Error
}

// New creates a Forwarder from opts.
func New(opts Options) (*Forwarder, error) {
	if opts.Destination == nil {
		return nil, errors.New("forwarder: destination is required")
	}
	if opts.Destination.Scheme != "http" && opts.Destination.Scheme != "https" {
		return nil, errors.New("forwarder: destination must use http or https scheme")
	}
	if opts.Destination.Host == "" {
		return nil, errors.New("forwarder: destination must have a host")
	}

	f := &Forwarder{
		destination: opts.Destination,
		timeout:     opts.Timeout,
		onError:     opts.ErrorHandler,
	}
	if f.timeout <= 0 {
		f.timeout = DefaultTimeout
	}
	if f.onError == nil {
		f.onError = WriteError
	}

	transport := opts.Transport
	if transport == nil {
		transport = NewTransport()
	}

	errorLog := log.New(io.Discard, "", 0)
	if opts.Logger != nil {
		errorLog = slog.NewLogLogger(opts.Logger.Handler(), slog.LevelDebug)
	}

	f.proxy = &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			Transform(pr, f.destination)
		},
		Transport:      transport,
		FlushInterval:  -1,
		ErrorLog:       errorLog,
		ModifyResponse: f.modifyResponse,
		ErrorHandler:   f.handleError,
	}

	return f, nil
}

// Destination returns the origin requests are relayed to.
func (f *Forwarder) Destination() *url.URL {
	return f.destination
}

// Timeout returns the bound on receiving response headers.
func (f *Forwarder) Timeout() time.Duration {
	return f.timeout
}

// Forward relays r to the destination and streams the response into w.
// It returns nil when the whole response was relayed.
//
// If the failure happens before the response is started, the configured
// ErrorHandler has already written a response when Forward returns. Otherwise
// the returned error reports ShouldAbort.
func (f *Forwarder) Forward(w http.ResponseWriter, r *http.Request) (ferr *Error) {
	ctx, cancel := context.WithCancelCause(r.Context())
	defer cancel(nil)

	state := &forwardState{}
	state.timer = time.AfterFunc(f.timeout, func() {
		cancel(ErrTimedOut)
	})
	defer state.timer.Stop()

	out := r.WithContext(context.WithValue(ctx, stateKey{}, state))
	if r.Body != nil && r.Body != http.NoBody {
		state.requestBody = &trackedBody{ReadCloser: r.Body}
		out.Body = state.requestBody
	}

	defer func() {
		v := recover()
		if v == nil {
			return
		}
		if v != http.ErrAbortHandler {
			panic(v)
		}
		ferr = f.streamFailure(r, state)
	}()

	f.proxy.ServeHTTP(w, out)

	if state.err != nil {
		return state.err
	}
	if state.responseBody != nil {
		if err := state.responseBody.Err(); err != nil {
			return f.streamFailure(r, state)
		}
	}

	return nil
}

// ServeHTTP forwards the request and aborts the caller's connection when the
// response could only be partially relayed.
func (f *Forwarder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if ferr := f.Forward(w, r); ferr != nil && ferr.ShouldAbort() {
		panic(http.ErrAbortHandler)
	}
}

func (f *Forwarder) modifyResponse(resp *http.Response) error {
	state, ok := resp.Request.Context().Value(stateKey{}).(*forwardState)
	if !ok {
		return nil
	}

	if !state.timer.Stop() {
		return context.Cause(resp.Request.Context())
	}

	// Upgraded connections need the raw io.ReadWriteCloser body.
	if resp.StatusCode == http.StatusSwitchingProtocols {
		return nil
	}

	if resp.Body != nil && resp.Body != http.NoBody {
		state.responseBody = &trackedBody{ReadCloser: resp.Body}
		resp.Body = state.responseBody
	}

	return nil
}

func (f *Forwarder) handleError(w http.ResponseWriter, r *http.Request, err error) {
	state, ok := r.Context().Value(stateKey{}).(*forwardState)
	if !ok {
		state = &forwardState{}
	}

	ferr := &Error{
		Reason:      classify(r.Context(), state),
		Destination: f.destination.String(),
		Err:         err,
	}
	if ferr.Reason == ErrorTimedOut {
		ferr.Err = ErrTimedOut
	}

	state.err = ferr
	f.onError(w, r, ferr)
}

func (f *Forwarder) streamFailure(r *http.Request, state *forwardState) *Error {
	ferr := &Error{
		Reason:      ErrorResponseBody,
		Destination: f.destination.String(),
		Err:         http.ErrAbortHandler,
		abort:       true,
	}

	if err := r.Context().Err(); err != nil {
		ferr.Reason = ErrorRequestCanceled
		ferr.Err = err
		return ferr
	}

	if state.responseBody != nil {
		if err := state.responseBody.Err(); err != nil {
			ferr.Err = err
		}
	}

	return ferr
}

func classify(ctx context.Context, state *forwardState) ErrorReason {
	if errors.Is(context.Cause(ctx), ErrTimedOut) {
		return ErrorTimedOut
	}
	if state.requestBody != nil && state.requestBody.Err() != nil {
		return ErrorRequestBody
	}
	if ctx.Err() != nil {
		return ErrorRequestCanceled
	}
	return ErrorDestinationUnreachable
}

// trackedBody remembers the first read error other than io.EOF.
type trackedBody struct {
	io.ReadCloser

	mutex sync.Mutex
	err   error
}

func (b *trackedBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		b.mutex.Lock()
		if b.err == nil {
			b.err = err
		}
		b.mutex.Unlock()
	}
	return n, err
}

func (b *trackedBody) Err() error {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.err
}
