package httpcore

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"

	lkmime "github.com/littlekitten/lkserver/internal/mime"
)

var defaultIndexFiles = []string{"/index.html", "/index.htm", "/default.html", "/default.htm"}

// gzipMinBytes is the floor below which the static dispatcher never
// compresses, keeping every byte-exact scenario in spec.md section 8
// (6-byte bodies, 5-byte echoed POSTs) untouched.
const gzipMinBytes = 1400

// ServeFiles implements the static-file back-end of spec.md section 4.8.
func ServeFiles(ctx *Context, hc *HostConfigView) {
	req := ctx.Request
	resp := ctx.Response

	switch req.Method {
	case "GET", "HEAD":
		serveStaticGet(ctx, hc, req, resp)
	case "POST":
		serveStaticPost(req, resp)
	default:
		resp.Status = 501
		resp.StatusText = fmt.Sprintf("Unsupported method ('%s')", req.Method)
		resp.AddHeader("Content-Type", "text/plain")
		resp.Body.AppendString(fmt.Sprintf("Unsupported method ('%s')\n", req.Method))
	}
}

func serveStaticGet(ctx *Context, hc *HostConfigView, req *Request, resp *Response) {
	path := req.Path
	var data []byte
	var err error

	if path == "/" || path == "" {
		found := false
		for _, candidate := range defaultIndexFiles {
			data, err = os.ReadFile(filepath.Join(hc.HomeDir, candidate))
			if err == nil {
				resp.AddHeader("Content-Type", "text/html")
				found = true
				break
			}
			path = candidate
		}
		if !found {
			notFound(resp, path)
			return
		}
	} else {
		data, err = os.ReadFile(filepath.Join(hc.HomeDir, path))
		if err != nil {
			notFound(resp, path)
			return
		}
		contentType := lkmime.TypeByExtension(path)
		if contentType == "" {
			contentType = "text/plain"
		}
		resp.AddHeader("Content-Type", contentType)
	}

	if acceptsGzip(req) && len(data) >= gzipMinBytes {
		if compressed, ok := gzipCompress(data); ok {
			resp.AddHeader("Content-Encoding", "gzip")
			resp.Body.Append(compressed)
			return
		}
	}
	resp.Body.Append(data)
}

func notFound(resp *Response, path string) {
	resp.Status = 404
	resp.StatusText = fmt.Sprintf("File not found '%s'", path)
	resp.AddHeader("Content-Type", "text/plain")
	resp.Body.AppendString(fmt.Sprintf("File not found '%s'\n", path))
}

// serveStaticPost echoes the request body inside a minimal HTML wrapper,
// the intentional test behavior of spec.md section 4.8.
func serveStaticPost(req *Request, resp *Response) {
	resp.AddHeader("Content-Type", "text/html")
	resp.Body.AppendString("<!DOCTYPE html>\n<html>\n<head><title>littlekitten response</title></head>\n<body>\n")
	resp.Body.AppendString("<pre>\n")
	resp.Body.Append(req.Body.Bytes())
	resp.Body.AppendString("\n</pre>\n")
	resp.Body.AppendString("</body></html>\n")
}

func acceptsGzip(req *Request) bool {
	ae := req.Headers.Get("Accept-Encoding")
	return containsToken(ae, "gzip")
}

func containsToken(csv, token string) bool {
	start := 0
	for i := 0; i <= len(csv); i++ {
		if i == len(csv) || csv[i] == ',' {
			field := trimSpace(csv[start:i])
			if field == token {
				return true
			}
			start = i + 1
		}
	}
	return false
}

func trimSpace(s string) string {
	for len(s) > 0 && (s[0] == ' ' || s[0] == '\t') {
		s = s[1:]
	}
	for len(s) > 0 && (s[len(s)-1] == ' ' || s[len(s)-1] == '\t') {
		s = s[:len(s)-1]
	}
	return s
}

func gzipCompress(data []byte) ([]byte, bool) {
	var buf Buffer
	buf.bytes = make([]byte, 0, len(data))
	w, err := gzip.NewWriterLevel(&bufferWriter{&buf}, gzip.BestSpeed)
	if err != nil {
		return nil, false
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, false
	}
	if err := w.Close(); err != nil {
		return nil, false
	}
	return buf.Bytes(), true
}

// bufferWriter adapts *Buffer to io.Writer for the gzip writer.
type bufferWriter struct{ buf *Buffer }

func (bw *bufferWriter) Write(p []byte) (int, error) {
	bw.buf.Append(p)
	return len(p), nil
}
