package httpcore

import (
	"os"
	"path/filepath"
	"strings"
)

// ProcessRequest implements the dispatcher of spec.md section 4.7. It is
// invoked once a request has fully parsed (StateDone) and decides which
// back-end -- proxy, CGI, or static files -- handles it, or produces an
// error response directly.
func (s *Server) ProcessRequest(ctx *Context) {
	req := ctx.Request
	hostHeader := req.Headers.Get("Host")
	hc := s.config.Lookup(hostHeader)
	if hc == nil {
		s.ProcessErrorResponse(ctx, 404, "littlekitten webserver: hostconfig not found.")
		return
	}

	view := &HostConfigView{
		HomeDir:           hc.HomeDir,
		CGIDir:            hc.CGIDir,
		ProxyHost:         hc.ProxyHost,
		Aliases:           hc.Aliases,
		SendProxyProtocol: hc.SendProxyProtocol,
	}
	ctx.HostConfig = view

	if view.ProxyHost != "" {
		s.ServeProxy(ctx, view)
		return
	}

	if view.HomeDir == "" {
		s.ProcessErrorResponse(ctx, 404, "littlekitten webserver: hostconfig homedir not specified.")
		return
	}

	// Exact-match alias replacement only (spec.md Open Question 3: the
	// source matches the entire path exactly, no prefix aliasing).
	if match, ok := view.Aliases[req.Path]; ok {
		req.Path = match
	}

	if view.CGIDir != "" && strings.HasPrefix(req.Path, view.CGIDir) {
		if fileExists(filepath.Join(view.HomeDir, req.Path)) {
			s.ServeCGI(ctx, view)
			return
		}
	}

	ServeFiles(ctx, view)
	s.ProcessResponse(ctx)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
