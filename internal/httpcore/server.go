// Package httpcore is the core of the littlekitten server: the
// per-connection state machine driven by a single select(2)-based
// selector loop, as specified in spec.md sections 2-5 and 9.
package httpcore

import (
	"os/exec"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/littlekitten/lkserver/internal/config"
)

// MetricsSink receives the observability events the selector loop and
// its handlers emit. internal/metrics implements this with Prometheus
// collectors; tests can substitute a no-op.
type MetricsSink interface {
	ObserveConnection()
	ObserveResponse(ctx *Context, status int)
	ObserveCGISpawn()
	ObserveProxyDial()
	ObserveParseError()
}

type noopMetrics struct{}

func (noopMetrics) ObserveConnection()                      {}
func (noopMetrics) ObserveResponse(ctx *Context, status int) {}
func (noopMetrics) ObserveCGISpawn()                         {}
func (noopMetrics) ObserveProxyDial()                        {}
func (noopMetrics) ObserveParseError()                       {}

// Server owns the listening socket, the readiness sets, and the context
// registry -- the single-threaded state the original C implementation
// kept in global variables (spec.md section 9 notes this can be wrapped
// in a server object threaded through handlers, which is what this is).
type Server struct {
	listenFD  int
	registry  *Registry
	readiness *readinessSets

	config *config.Finalized

	log    *zap.Logger
	access *zap.Logger

	metrics MetricsSink

	serverSoftware string
	cgiStatics     CGIStatics

	pipeFiles map[int]closer

	childrenMu sync.Mutex
	children   map[int]*exec.Cmd

	clock func() time.Time // overridable in tests; nil means time.Now

	acceptLimiter acceptLimiter
}

// acceptLimiter decouples the selector loop from golang.org/x/time/rate
// so httpcore doesn't have to import it directly; internal/lkserver
// wires a *rate.Limiter in via SetAcceptLimiter.
type acceptLimiter interface {
	Allow() bool
}

// SetAcceptLimiter installs a token-bucket guard on the accept loop, per
// SPEC_FULL.md section 4: a burst of connection attempts sheds load by
// accept-then-close rather than letting the single selector thread fall
// behind servicing already-established connections.
func (s *Server) SetAcceptLimiter(l acceptLimiter) {
	s.acceptLimiter = l
}

type closer interface{ Close() error }

// New constructs a Server bound to an already-open, non-blocking
// listening socket.
func New(listenFD int, cfg *config.Finalized, log, access *zap.Logger, metrics MetricsSink, serverSoftware string, cgiStatics CGIStatics) *Server {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	s := &Server{
		listenFD:       listenFD,
		registry:       NewRegistry(),
		readiness:      newReadinessSets(),
		config:         cfg,
		log:            log,
		access:         access,
		metrics:        metrics,
		serverSoftware: serverSoftware,
		cgiStatics:     cgiStatics,
		pipeFiles:      make(map[int]closer),
		children:       make(map[int]*exec.Cmd),
	}
	s.readiness.SetRead(listenFD)
	return s
}

// RegistrySize exposes the active-context count for the admin surface's
// /debug/contexts endpoint.
func (s *Server) RegistrySize() int { return s.registry.Len() }

// RoleHistogram exposes the per-role active-context counts for
// /debug/contexts.
func (s *Server) RoleHistogram() map[string]int { return s.registry.RoleHistogram() }

// Serve runs the selector loop until stop is closed or a fatal select(2)
// error occurs. It blocks the calling goroutine; internal/lkserver runs
// it under an errgroup alongside the SIGCHLD reaper and admin server.
func (s *Server) Serve(stop <-chan struct{}) error {
	for {
		select {
		case <-stop:
			return nil
		default:
		}

		readSet, writeSet, fds := s.readiness.snapshot()
		n, err := unix.Select(s.readiness.maxFD+1, readSet, writeSet, nil, &unix.Timeval{Sec: 1})
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return err
		}
		if n == 0 {
			continue
		}

		for _, fd := range fds {
			if fdIsSet(readSet, fd) {
				s.handleReadable(fd)
			} else if fdIsSet(writeSet, fd) {
				s.handleWritable(fd)
			}
		}
	}
}

func (s *Server) handleReadable(fd int) {
	if fd == s.listenFD {
		s.acceptOne()
		return
	}
	ctx := s.registry.Lookup(fd)
	if ctx == nil {
		s.log.Warn("read on unregistered fd", zap.Int("fd", fd))
		s.readiness.ClearRead(fd)
		unix.Close(fd)
		return
	}
	switch ctx.Role {
	case RoleReadRequest:
		s.ReadRequest(ctx)
	case RoleReadCGIOutput:
		s.ReadCGIOutput(ctx)
	case RoleProxyReadResponse:
		s.ReadProxyResponse(ctx)
	default:
		s.log.Warn("read on unexpected role", zap.String("role", ctx.Role.String()), zap.Int("fd", fd))
	}
}

func (s *Server) handleWritable(fd int) {
	ctx := s.registry.Lookup(fd)
	if ctx == nil {
		s.log.Warn("write on unregistered fd", zap.Int("fd", fd))
		s.readiness.ClearWrite(fd)
		unix.Close(fd)
		return
	}
	switch ctx.Role {
	case RoleWriteResponse:
		s.WriteResponse(ctx)
	case RoleWriteCGIInput:
		s.WriteCGIInput(ctx)
	case RoleProxyWriteRequest:
		s.WriteProxyRequest(ctx)
	case RoleProxyWriteResponse:
		s.WriteProxyResponse(ctx)
	default:
		s.log.Warn("write on unexpected role", zap.String("role", ctx.Role.String()), zap.Int("fd", fd))
	}
}

func (s *Server) acceptOne() {
	connFD, sa, err := unix.Accept4(s.listenFD, unix.SOCK_NONBLOCK)
	if err != nil {
		if err != unix.EAGAIN && err != unix.EWOULDBLOCK {
			s.log.Error("accept", zap.Error(err))
		}
		return
	}

	if s.acceptLimiter != nil && !s.acceptLimiter.Allow() {
		unix.Close(connFD)
		return
	}

	ip, port := addrToIPPort(sa)
	ctx := NewClientContext(connFD, ip, port)
	s.registry.Add(ctx)
	s.readiness.SetRead(connFD)
	s.metrics.ObserveConnection()
}

func addrToIPPort(sa unix.Sockaddr) (string, int) {
	switch addr := sa.(type) {
	case *unix.SockaddrInet4:
		return ipv4String(addr.Addr), addr.Port
	case *unix.SockaddrInet6:
		return ipv6String(addr.Addr), addr.Port
	default:
		return "", 0
	}
}

func ipv4String(b [4]byte) string {
	return itoa(int(b[0])) + "." + itoa(int(b[1])) + "." + itoa(int(b[2])) + "." + itoa(int(b[3]))
}

func ipv6String(b [16]byte) string {
	// Minimal, non-compressed rendering; sufficient for its consumers:
	// logging, CGI REMOTE_ADDR, and the PROXY protocol header (which
	// parses it with net.ParseIP).
	out := make([]byte, 0, 40)
	for i := 0; i < 16; i += 2 {
		if i > 0 {
			out = append(out, ':')
		}
		out = append(out, hexByte(b[i])...)
		out = append(out, hexByte(b[i+1])...)
	}
	return string(out)
}

func hexByte(b byte) []byte {
	const hex = "0123456789abcdef"
	return []byte{hex[b>>4], hex[b&0xf]}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [4]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// TerminateSession implements spec.md section 4.12: close every fd this
// session owns (shutdown-then-close for sockets, close only for pipes),
// remove every Context sharing the client fd, and let the Contexts'
// buffers fall out of scope for GC.
func (s *Server) TerminateSession(ctx *Context) {
	s.readiness.ClearRead(ctx.ClientFD)
	s.readiness.ClearWrite(ctx.ClientFD)
	if ctx.ClientFD != 0 {
		unix.Shutdown(ctx.ClientFD, unix.SHUT_RDWR)
		unix.Close(ctx.ClientFD)
	}
	if ctx.CGIFD != 0 {
		s.closePipeFD(ctx.CGIFD)
	}
	if ctx.ProxyFD != 0 {
		s.readiness.ClearRead(ctx.ProxyFD)
		s.readiness.ClearWrite(ctx.ProxyFD)
		unix.Shutdown(ctx.ProxyFD, unix.SHUT_RDWR)
		unix.Close(ctx.ProxyFD)
	}
	s.registry.RemoveSharing(ctx.ClientFD)
}

func (s *Server) closePipeFD(fd int) {
	s.readiness.ClearRead(fd)
	s.readiness.ClearWrite(fd)
	if f, ok := s.pipeFiles[fd]; ok {
		f.Close()
		delete(s.pipeFiles, fd)
	} else {
		unix.Close(fd)
	}
}
