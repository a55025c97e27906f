package httpcore

import (
	"net"
	"strconv"
	"strings"

	proxyproto "github.com/pires/go-proxyproto"
	"golang.org/x/sys/unix"
)

// ServeProxy implements spec.md section 4.10: open a non-blocking
// connection to the upstream and transition the Context into the
// proxy-write-request role.
func (s *Server) ServeProxy(ctx *Context, hc *HostConfigView) {
	proxyFD, err := dialNonBlocking(hc.ProxyHost)
	if err != nil {
		s.TerminateSession(ctx)
		return
	}

	ctx.Request.MaterializeHead()
	ctx.ProxyFD = proxyFD
	ctx.Role = RoleProxyWriteRequest
	ctx.SendProxyPP = hc.SendProxyProtocol

	if hc.SendProxyProtocol {
		prependProxyProtocolHeader(ctx)
	}

	s.registry.Retarget(ctx, proxyFD)
	s.readiness.SetWrite(proxyFD)
	s.metrics.ObserveProxyDial()
}

// prependProxyProtocolHeader writes a PROXY protocol v1 header ahead of
// the request head bytes so the upstream sees the original client
// address, using github.com/pires/go-proxyproto's header encoder on the
// outbound leg (the same encoder caddy uses on inbound listeners).
func prependProxyProtocolHeader(ctx *Context) {
	srcPort := ctx.ClientPort
	srcIP := net.ParseIP(ctx.ClientIP)
	if srcIP == nil {
		srcIP = net.IPv4zero
	}
	hdr := proxyproto.HeaderProxyFromAddrs(1,
		&net.TCPAddr{IP: srcIP, Port: srcPort},
		&net.TCPAddr{IP: net.IPv4zero, Port: 0},
	)
	var sb strings.Builder
	_, _ = hdr.WriteTo(&stringBuilderWriter{&sb})

	prefixed := NewBuffer(ctx.Request.Head.Len() + sb.Len())
	prefixed.AppendString(sb.String())
	prefixed.Append(ctx.Request.Head.Bytes())
	ctx.Request.Head = prefixed
}

type stringBuilderWriter struct{ sb *strings.Builder }

func (w *stringBuilderWriter) Write(p []byte) (int, error) { return w.sb.Write(p) }

func dialNonBlocking(hostport string) (int, error) {
	host, portStr, err := net.SplitHostPort(hostport)
	if err != nil {
		host, portStr = hostport, "80"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		port = 80
	}
	ips, err := net.LookupIP(host)
	if err != nil || len(ips) == 0 {
		return -1, err
	}
	ip4 := ips[0].To4()

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		return -1, err
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return -1, err
	}
	addr := &unix.SockaddrInet4{Port: port}
	copy(addr.Addr[:], ip4)
	err = unix.Connect(fd, addr)
	if err != nil && err != unix.EINPROGRESS {
		unix.Close(fd)
		return -1, err
	}
	return fd, nil
}

// WriteProxyRequest implements the PROXY_WRITE_REQ role.
func (s *Server) WriteProxyRequest(ctx *Context) {
	req := ctx.Request
	if !req.Head.Drained() {
		n, err := writeNonBlocking(ctx.SelectFD, req.Head.Remaining())
		if handleWriteResult(s, ctx, n, err, nil) {
			return
		}
		req.Head.Advance(n)
		return
	}
	if !req.Body.Drained() {
		n, err := writeNonBlocking(ctx.SelectFD, req.Body.Remaining())
		if handleWriteResult(s, ctx, n, err, nil) {
			return
		}
		req.Body.Advance(n)
		return
	}

	s.readiness.ClearWrite(ctx.SelectFD)
	unix.Shutdown(ctx.SelectFD, unix.SHUT_WR)
	ctx.Role = RoleProxyReadResponse
	ctx.ProxyResp = NewBuffer(0)
	ctx.Reader = NewSocketReader(ctx.SelectFD)
	s.readiness.SetRead(ctx.SelectFD)
}

// ReadProxyResponse implements the PROXY_READ_RESP role: read until
// upstream EOF, then hand the Context back to the client fd for the
// verbatim forward.
func (s *Server) ReadProxyResponse(ctx *Context) {
	data, err := ctx.Reader.ReadBytes(8192)
	if err != nil {
		if IsWouldBlock(err) {
			return
		}
		s.TerminateSession(ctx)
		return
	}
	if data != nil {
		ctx.ProxyResp.Append(data)
	}
	if !ctx.Reader.Closed() {
		return
	}

	s.readiness.ClearRead(ctx.ProxyFD)
	unix.Shutdown(ctx.ProxyFD, unix.SHUT_RD)
	unix.Close(ctx.ProxyFD)
	ctx.ProxyFD = 0

	ctx.Role = RoleProxyWriteResponse
	s.registry.Retarget(ctx, ctx.ClientFD)
	s.readiness.SetWrite(ctx.ClientFD)
}

// WriteProxyResponse implements the PROXY_WRITE_RESP role, draining the
// proxy buffer to the client verbatim -- no parsing of the upstream
// response occurs, per spec.md section 4.10.
func (s *Server) WriteProxyResponse(ctx *Context) {
	if !ctx.ProxyResp.Drained() {
		n, err := writeNonBlocking(ctx.SelectFD, ctx.ProxyResp.Remaining())
		if handleWriteResult(s, ctx, n, err, nil) {
			return
		}
		ctx.ProxyResp.Advance(n)
		return
	}
	s.TerminateSession(ctx)
}
