package httpcore

import (
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// ReadRequest implements spec.md section 4.6. It loops feeding the
// resumable parser until a WouldBlock or a zero-progress read, then
// dispatches to ProcessRequest once the parser reaches StateDone.
func (s *Server) ReadRequest(ctx *Context) {
	for {
		switch ctx.Parser.State {
		case StateHead:
			line, err := ctx.Reader.ReadLine()
			if err != nil {
				if IsWouldBlock(err) {
					return
				}
				s.log.Error("read_request", zap.Error(err))
				s.TerminateSession(ctx)
				return
			}
			if line == nil {
				if ctx.Reader.Closed() {
					ctx.Parser.ForceDone()
					if ctx.Parser.State != StateDone {
						// Peer closed before the head was complete.
						s.TerminateSession(ctx)
						return
					}
					break
				}
				return
			}
			ctx.Parser.FeedLine(line)
			if err := ctx.Parser.Err(); err != nil {
				s.metrics.ObserveParseError()
				s.ProcessErrorResponse(ctx, 400, err.Error())
				return
			}
		case StateBody:
			data, err := ctx.Reader.ReadBytes(8192)
			if err != nil {
				if IsWouldBlock(err) {
					return
				}
				s.log.Error("read_request", zap.Error(err))
				s.TerminateSession(ctx)
				return
			}
			if data == nil && !ctx.Reader.Closed() {
				return
			}
			if data != nil {
				ctx.Parser.FeedBytes(data)
			}
			if ctx.Reader.Closed() {
				ctx.Parser.ForceDone()
			}
		}

		if ctx.Reader.Closed() {
			ctx.Parser.ForceDone()
		}

		if ctx.Parser.State == StateDone {
			ctx.Request = ctx.Parser.Req
			s.readiness.ClearRead(ctx.SelectFD)
			unix.Shutdown(ctx.SelectFD, unix.SHUT_RD)
			s.ProcessRequest(ctx)
			return
		}
	}
}

// WriteResponse implements spec.md section 4.11's terminal writer: drain
// resp.Head first, then resp.Body.
func (s *Server) WriteResponse(ctx *Context) {
	resp := ctx.Response
	if !resp.Head.Drained() {
		n, err := writeNonBlocking(ctx.SelectFD, resp.Head.Remaining())
		if handleWriteResult(s, ctx, n, err, nil) {
			return
		}
		resp.Head.Advance(n)
		return
	}
	if !resp.Body.Drained() {
		n, err := writeNonBlocking(ctx.SelectFD, resp.Body.Remaining())
		if handleWriteResult(s, ctx, n, err, nil) {
			return
		}
		resp.Body.Advance(n)
		return
	}
	s.TerminateSession(ctx)
}

// WriteCGIInput implements spec.md section 4.9's write_cgi_input: drain
// the input buffer, then half-close and drop the auxiliary Context.
func (s *Server) WriteCGIInput(ctx *Context) {
	buf := ctx.CGIInput
	if !buf.Drained() {
		n, err := writeNonBlocking(ctx.SelectFD, buf.Remaining())
		if err != nil {
			if IsWouldBlock(err) {
				return
			}
			s.closePipeFD(ctx.SelectFD)
			s.registry.Remove(ctx.SelectFD)
			return
		}
		buf.Advance(n)
		return
	}
	s.readiness.ClearWrite(ctx.SelectFD)
	s.closePipeFD(ctx.SelectFD)
	s.registry.Remove(ctx.SelectFD)
}

// ReadCGIOutput implements spec.md section 4.9's read_cgi_output: read
// until EOF, then parse the CGI response and hand off to ProcessResponse.
func (s *Server) ReadCGIOutput(ctx *Context) {
	data, err := ctx.Reader.ReadBytes(8192)
	if err != nil {
		if IsWouldBlock(err) {
			return
		}
		s.closePipeFD(ctx.CGIFD)
		ctx.CGIFD = 0
		s.ProcessErrorResponse(ctx, 500, "Error processing CGI output.")
		return
	}
	if data != nil {
		ctx.CGIOutput.Append(data)
	}
	if !ctx.Reader.Closed() {
		return
	}

	s.closePipeFD(ctx.CGIFD)
	ctx.CGIFD = 0

	parseCGIOutput(ctx.CGIOutput.Bytes(), ctx.Response)
	s.ProcessResponse(ctx)
}
