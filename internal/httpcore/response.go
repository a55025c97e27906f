package httpcore

import (
	"strconv"
	"time"
)

// Response is built incrementally by the back-end dispatchers, then
// frozen by Finalize. ServerSoftware is substituted into the Server
// header if the caller hasn't already set one.
type Response struct {
	Status     int
	StatusText string
	Version    string
	Headers    Headers

	Head *Buffer
	Body *Buffer

	finalized bool
}

// NewResponse returns a 200 OK response with an empty body, ready for
// headers and body bytes to be added by a back-end dispatcher.
func NewResponse() *Response {
	return &Response{
		Status:     200,
		StatusText: "OK",
		Version:    "HTTP/1.0",
		Body:       NewBuffer(0),
	}
}

// AddHeader appends a header; duplicate keys are allowed.
func (r *Response) AddHeader(key, value string) {
	r.Headers.Add(key, value)
}

// Finalized reports whether Finalize has already run.
func (r *Response) Finalized() bool {
	return r.finalized
}

// Finalize renders the status line and headers into Head exactly once.
// Calling it again is a no-op: the head buffer stays frozen and further
// AddHeader calls after this point have no effect on the wire image,
// since Finalize is the only place headLine bytes are produced.
func (r *Response) Finalize(serverSoftware string, now time.Time) {
	if r.finalized {
		return
	}
	r.finalized = true

	if !r.Headers.Has("Content-Length") {
		r.Headers.Add("Content-Length", strconv.Itoa(r.Body.Len()))
	}
	if !r.Headers.Has("Date") {
		r.Headers.Add("Date", now.UTC().Format(time.RFC1123))
	}
	if !r.Headers.Has("Server") {
		r.Headers.Add("Server", serverSoftware)
	}

	head := NewBuffer(256)
	head.Appendf("%s %d %s\r\n", r.Version, r.Status, r.StatusText)
	for _, f := range r.Headers.All() {
		head.Appendf("%s: %s\r\n", f.Key, f.Value)
	}
	head.AppendString("\r\n")
	r.Head = head
}

// ClearBodyForHead empties the body buffer, used for HEAD requests after
// Finalize has computed Content-Length from the pre-clear body length.
func (r *Response) ClearBodyForHead() {
	r.Body.Clear()
}
