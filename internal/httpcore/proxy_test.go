package httpcore

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/littlekitten/lkserver/internal/config"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := &config.Finalized{}
	return New(-1, cfg, zap.NewNop(), zap.NewNop(), nil, "littlekitten/0.1", CGIStatics{})
}

func socketpair(t *testing.T) (a, b int) {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	require.NoError(t, err)
	require.NoError(t, unix.SetNonblock(fds[0], true))
	require.NoError(t, unix.SetNonblock(fds[1], true))
	return fds[0], fds[1]
}

func drainUntilClosed(t *testing.T, fd int) []byte {
	t.Helper()
	var out []byte
	var buf [4096]byte
	for {
		n, err := unix.Read(fd, buf[:])
		if err != nil {
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
				continue
			}
			t.Fatalf("read: %v", err)
		}
		if n == 0 {
			return out
		}
		out = append(out, buf[:n]...)
	}
}

// TestProxyForwardsResponseVerbatim is spec section 8 scenario 6: the
// client receives the upstream's exact bytes, unparsed and unmodified.
func TestProxyForwardsResponseVerbatim(t *testing.T) {
	s := newTestServer(t)

	upstreamServerSide, upstreamTestSide := socketpair(t)
	clientServerSide, clientTestSide := socketpair(t)

	req := NewRequest()
	req.Head = NewBuffer(0)
	req.Head.AppendString("GET / HTTP/1.0\r\n\r\n")

	ctx := &Context{
		Role:     RoleProxyWriteRequest,
		ClientFD: clientServerSide,
		ProxyFD:  upstreamServerSide,
		SelectFD: upstreamServerSide,
		Request:  req,
	}

	for ctx.Role == RoleProxyWriteRequest {
		s.WriteProxyRequest(ctx)
	}
	require.Equal(t, RoleProxyReadResponse, ctx.Role)

	sentToUpstream := drainUntilClosed(t, upstreamTestSide)
	require.Equal(t, "GET / HTTP/1.0\r\n\r\n", string(sentToUpstream))

	stubResponse := "HTTP/1.0 200 OK\r\n\r\nUP"
	_, err := unix.Write(upstreamTestSide, []byte(stubResponse))
	require.NoError(t, err)
	require.NoError(t, unix.Shutdown(upstreamTestSide, unix.SHUT_WR))

	for ctx.Role == RoleProxyReadResponse {
		s.ReadProxyResponse(ctx)
	}
	require.Equal(t, RoleProxyWriteResponse, ctx.Role)
	require.Equal(t, stubResponse, ctx.ProxyResp.String())

	for !ctx.ProxyResp.Drained() {
		s.WriteProxyResponse(ctx)
	}
	s.WriteProxyResponse(ctx) // buffer drained: terminates the session, closing the client fd

	received := drainUntilClosed(t, clientTestSide)
	require.Equal(t, stubResponse, string(received))
	require.Len(t, received, 20)

	unix.Close(upstreamTestSide)
	unix.Close(clientTestSide)
}
