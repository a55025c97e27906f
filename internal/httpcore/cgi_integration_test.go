package httpcore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// TestServeCGIRoundTrip spawns a real CGI script and drives it through
// ServeCGI/ReadCGIOutput exactly as the selector loop would, verifying
// the synthesized Status header and the metavariables reach the child.
func TestServeCGIRoundTrip(t *testing.T) {
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("/bin/sh not available")
	}

	dir := t.TempDir()
	script := filepath.Join(dir, "hello.cgi")
	body := "#!/bin/sh\n" +
		"printf 'Status: 201 Created\\r\\n'\n" +
		"printf 'Content-Type: text/plain\\r\\n'\n" +
		"printf '\\r\\n'\n" +
		"printf 'method=%s\\n' \"$REQUEST_METHOD\"\n"
	require.NoError(t, os.WriteFile(script, []byte(body), 0o755))

	s := newTestServer(t)
	clientServerSide, clientTestSide := socketpair(t)
	defer unix.Close(clientTestSide)

	req := newTestRequest("GET", "/cgi-bin/hello.cgi")
	hc := &HostConfigView{HomeDir: dir}
	ctx := &Context{
		ClientFD: clientServerSide,
		Request:  req,
		Response: NewResponse(),
	}

	s.ServeCGI(ctx, hc)
	require.Equal(t, RoleReadCGIOutput, ctx.Role)

	for ctx.Role == RoleReadCGIOutput {
		s.ReadCGIOutput(ctx)
	}

	assert.Equal(t, 201, ctx.Response.Status)
	assert.Equal(t, "text/plain", ctx.Response.Headers.Get("Content-Type"))
	assert.Equal(t, "method=GET\n", ctx.Response.Body.String())
}
