package httpcore

import "golang.org/x/sys/unix"

// writeNonBlocking writes as much of data as the fd will accept right
// now. It returns ErrWouldBlock, never a partial-n-plus-error pair, so
// callers can treat (0, ErrWouldBlock) as "try again next pass."
func writeNonBlocking(fd int, data []byte) (int, error) {
	if len(data) == 0 {
		return 0, nil
	}
	n, err := unix.Write(fd, data)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return 0, ErrWouldBlock
		}
		return 0, &IOError{Kind: KindPeerClosed, Message: "write", Cause: err}
	}
	return n, nil
}

// handleWriteResult centralizes the would-block/error branch shared by
// every *_write_* role handler: returns true if the caller should return
// immediately (either because nothing more can be done this pass, or
// because the session was torn down).
func handleWriteResult(s *Server, ctx *Context, n int, err error, onError func()) bool {
	if err != nil {
		if IsWouldBlock(err) {
			return true
		}
		if onError != nil {
			onError()
		} else {
			s.TerminateSession(ctx)
		}
		return true
	}
	return false
}
