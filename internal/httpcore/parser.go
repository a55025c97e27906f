package httpcore

import "strconv"

// ParseState is the resumable request parser's current stage.
type ParseState int

const (
	StateHead ParseState = iota
	StateBody
	StateDone
)

// RequestParser incrementally builds a Request from lines and byte
// blocks fed to it across any number of non-blocking reads. It never
// blocks and never unwinds on "need more input" -- FeedLine/FeedBytes
// simply return and the caller re-invokes them as more data arrives.
type RequestParser struct {
	State         ParseState
	Req           *Request
	headComplete  bool
	contentLength int
	sawFirstLine  bool
	err           error
}

// NewRequestParser returns a parser in StateHead, ready to consume the
// request line.
func NewRequestParser() *RequestParser {
	return &RequestParser{Req: NewRequest()}
}

// Err returns the first parse error encountered, if any (e.g. BadRequest).
func (p *RequestParser) Err() error {
	return p.err
}

// FeedLine consumes one LF-terminated line while in StateHead. It is a
// no-op once the parser has left StateHead.
func (p *RequestParser) FeedLine(raw []byte) {
	if p.State != StateHead || p.err != nil {
		return
	}
	rawLine := string(raw)
	line := chomp(rawLine)

	if line == "" {
		// Blank line: end of headers.
		p.req().headLines = append(p.req().headLines, rawLine)
		p.headComplete = true
		p.contentLength = p.computeContentLength()
		if p.contentLength <= 0 {
			p.State = StateDone
		} else {
			p.State = StateBody
		}
		return
	}

	p.req().headLines = append(p.req().headLines, rawLine)

	if !p.sawFirstLine {
		p.sawFirstLine = true
		method, uri, version, ok := splitRequestLine(line)
		if !ok {
			p.err = NewBadRequest("malformed request line")
			return
		}
		if !validMethods[method] {
			p.err = NewBadRequest("unsupported method '" + method + "'")
			return
		}
		path, query := splitURI(uri)
		if path == "" {
			path = "/"
		}
		if path[0] != '/' {
			p.err = NewBadRequest("malformed request URI '" + uri + "'")
			return
		}
		req := p.req()
		req.Method = method
		req.URI = uri
		req.Path = path
		req.Query = query
		req.Version = version
		return
	}

	key, value, ok := splitHeaderLine(line)
	if !ok {
		p.err = NewBadRequest("malformed header line '" + line + "'")
		return
	}
	p.req().Headers.Add(key, value)
}

// FeedBytes appends raw body bytes while in StateBody, transitioning to
// StateDone once body length reaches the declared Content-Length.
func (p *RequestParser) FeedBytes(data []byte) {
	if p.State != StateBody || p.err != nil {
		return
	}
	body := p.req().Body
	remaining := p.contentLength - body.Len()
	if remaining <= 0 {
		p.State = StateDone
		return
	}
	if len(data) > remaining {
		data = data[:remaining] // ignore excess per Open Question 2: ignore, don't reject
	}
	body.Append(data)
	if body.Len() >= p.contentLength {
		p.State = StateDone
	}
}

// ForceDone transitions to StateDone immediately, used when the socket
// reports closed while still in StateBody (truncated body accepted as-is).
func (p *RequestParser) ForceDone() {
	if p.State == StateBody {
		p.State = StateDone
	}
}

func (p *RequestParser) req() *Request {
	return p.Req
}

func (p *RequestParser) computeContentLength() int {
	cl := p.Req.Headers.Get("Content-Length")
	if cl == "" {
		return 0
	}
	n, err := strconv.Atoi(cl)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
