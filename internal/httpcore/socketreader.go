package httpcore

import (
	"bytes"

	"golang.org/x/sys/unix"
)

// socketReaderBufSize matches the original LK_BUFSIZE_LARGE refill size.
const socketReaderBufSize = 8192

// SocketReader wraps a non-blocking fd with a fixed-size refill buffer
// and delivers one logical line at a time, or raw byte blocks, tracking
// an EOF flag. It never blocks the calling goroutine: a refill that
// would block returns ErrWouldBlock and leaves any already-buffered data
// available for the next read_line/read_bytes call.
type SocketReader struct {
	fd     int
	refill [socketReaderBufSize]byte
	pend   []byte // unconsumed bytes from the last refill
	closed bool
}

// NewSocketReader wraps fd, which must already be non-blocking.
func NewSocketReader(fd int) *SocketReader {
	return &SocketReader{fd: fd}
}

// Closed reports whether the peer has shut down its write side.
func (sr *SocketReader) Closed() bool {
	return sr.closed
}

// refillIfEmpty tops up pend from the socket when it is empty. Returns
// ErrWouldBlock if no bytes were available and the peer has not closed.
func (sr *SocketReader) refillIfEmpty() error {
	if len(sr.pend) > 0 {
		return nil
	}
	n, err := unix.Read(sr.fd, sr.refill[:])
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return ErrWouldBlock
		}
		return &IOError{Kind: KindServerError, Message: "socket read", Cause: err}
	}
	if n == 0 {
		sr.closed = true
		return nil
	}
	sr.pend = sr.refill[:n]
	return nil
}

// ReadLine returns one LF-terminated segment (LF included) from the
// socket, or the residual final segment once the socket has reached EOF.
// A partial line with no LF is never returned unless the socket closed.
// Returns (nil, nil) when there is currently nothing to deliver (try
// again after more data arrives) and ErrWouldBlock when the underlying
// read would have blocked with no complete line buffered to serve from.
// A buffered partial line is kept and extended by later reads.
func (sr *SocketReader) ReadLine() (line []byte, err error) {
	if idx := bytes.IndexByte(sr.pend, '\n'); idx >= 0 {
		line = append([]byte(nil), sr.pend[:idx+1]...)
		sr.pend = sr.pend[idx+1:]
		return line, nil
	}
	partial := append([]byte(nil), sr.pend...)
	sr.pend = nil
	err = sr.refillIfEmpty()
	sr.pend = append(partial, sr.pend...)
	if err != nil {
		if IsWouldBlock(err) {
			return nil, ErrWouldBlock
		}
		return nil, err
	}
	if sr.closed {
		if len(sr.pend) > 0 {
			line = append([]byte(nil), sr.pend...)
			sr.pend = nil
			return line, nil
		}
		return nil, nil
	}
	if idx := bytes.IndexByte(sr.pend, '\n'); idx >= 0 {
		line = append([]byte(nil), sr.pend[:idx+1]...)
		sr.pend = sr.pend[idx+1:]
		return line, nil
	}
	// No full line yet; nothing to deliver this pass, but not an error.
	return nil, nil
}

// ReadBytes returns up to maxLen bytes of raw body data.
func (sr *SocketReader) ReadBytes(maxLen int) (data []byte, err error) {
	if len(sr.pend) == 0 {
		if err := sr.refillIfEmpty(); err != nil {
			if IsWouldBlock(err) {
				return nil, ErrWouldBlock
			}
			return nil, err
		}
	}
	if len(sr.pend) == 0 {
		return nil, nil
	}
	n := len(sr.pend)
	if n > maxLen {
		n = maxLen
	}
	data = append([]byte(nil), sr.pend[:n]...)
	sr.pend = sr.pend[n:]
	return data, nil
}
