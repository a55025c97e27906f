package httpcore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRequest(method, path string) *Request {
	req := NewRequest()
	req.Method = method
	req.Path = path
	return req
}

// TestServeFilesIndexHTML is spec section 8 scenario 1.
func TestServeFilesIndexHTML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("hello\n"), 0o644))

	req := newTestRequest("GET", "/index.html")
	resp := NewResponse()
	ctx := &Context{Request: req, Response: resp}
	hc := &HostConfigView{HomeDir: dir}

	ServeFiles(ctx, hc)

	assert.Equal(t, 200, resp.Status)
	assert.Equal(t, "text/html", resp.Headers.Get("Content-Type"))
	assert.Equal(t, "hello\n", resp.Body.String())
}

// TestServeFilesMissingFile is spec section 8 scenario 2.
func TestServeFilesMissingFile(t *testing.T) {
	dir := t.TempDir()

	req := newTestRequest("GET", "/missing")
	resp := NewResponse()
	ctx := &Context{Request: req, Response: resp}
	hc := &HostConfigView{HomeDir: dir}

	ServeFiles(ctx, hc)

	assert.Equal(t, 404, resp.Status)
	assert.Equal(t, "text/plain", resp.Headers.Get("Content-Type"))
	assert.Contains(t, resp.Body.String(), "File not found '/missing'")
}

// TestServeFilesEchoesPostBody is spec section 8 scenario 3.
func TestServeFilesEchoesPostBody(t *testing.T) {
	req := newTestRequest("POST", "/echo")
	req.Headers.Add("Content-Length", "5")
	req.Body.AppendString("ABCDE")
	resp := NewResponse()
	ctx := &Context{Request: req, Response: resp}
	hc := &HostConfigView{HomeDir: t.TempDir()}

	ServeFiles(ctx, hc)

	assert.Equal(t, 200, resp.Status)
	assert.Contains(t, resp.Body.String(), "<pre>\nABCDE\n</pre>")
}

// TestServeFilesUnsupportedMethod is spec section 8 scenario 4.
func TestServeFilesUnsupportedMethod(t *testing.T) {
	req := newTestRequest("PATCH", "/x")
	resp := NewResponse()
	ctx := &Context{Request: req, Response: resp}
	hc := &HostConfigView{HomeDir: t.TempDir()}

	ServeFiles(ctx, hc)

	assert.Equal(t, 501, resp.Status)
	assert.Contains(t, resp.Body.String(), "PATCH")
}

// TestServeFilesHeadMatchesGet is spec section 8 scenario 5.
func TestServeFilesHeadMatchesGet(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("hello\n"), 0o644))
	hc := &HostConfigView{HomeDir: dir}

	getReq := newTestRequest("GET", "/index.html")
	getResp := NewResponse()
	ServeFiles(&Context{Request: getReq, Response: getResp}, hc)
	getResp.Finalize("littlekitten/0.1", fixedClock())

	headReq := newTestRequest("HEAD", "/index.html")
	headResp := NewResponse()
	ServeFiles(&Context{Request: headReq, Response: headResp}, hc)
	headResp.Finalize("littlekitten/0.1", fixedClock())
	headResp.ClearBodyForHead()

	assert.Equal(t, getResp.Headers.Get("Content-Length"), headResp.Headers.Get("Content-Length"))
	assert.Equal(t, "6", headResp.Headers.Get("Content-Length"))
	assert.Equal(t, 0, headResp.Body.Len())
	assert.Equal(t, getResp.Status, headResp.Status)
}

func TestServeFilesGzipSkippedBelowFloor(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("hello\n"), 0o644))

	req := newTestRequest("GET", "/index.html")
	req.Headers.Add("Accept-Encoding", "gzip")
	resp := NewResponse()
	ServeFiles(&Context{Request: req, Response: resp}, &HostConfigView{HomeDir: dir})

	assert.Equal(t, "", resp.Headers.Get("Content-Encoding"))
	assert.Equal(t, "hello\n", resp.Body.String())
}
