package httpcore

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"syscall"

	"golang.org/x/sys/unix"
)

// CGIStatics are the metavariables that stay constant across requests
// (spec.md section 4.9's set_cgi_env1 equivalent), computed once at
// server startup.
type CGIStatics struct {
	ServerName     string
	ServerSoftware string
	ServerProtocol string
	ServerPort     string
}

// ServeCGI implements the CGI launcher of spec.md section 4.9.
func (s *Server) ServeCGI(ctx *Context, hc *HostConfigView) {
	req := ctx.Request
	resp := ctx.Response
	scriptPath := filepath.Join(hc.HomeDir, req.Path)

	env := s.newCGIEnviron(ctx, hc, scriptPath)

	cmd := exec.Command(scriptPath)
	cmd.Env = env
	cmd.Stderr = os.Stderr

	stdinR, stdinW, err := os.Pipe()
	if err != nil {
		s.cgiSpawnError(ctx, err)
		return
	}
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		stdinR.Close()
		stdinW.Close()
		s.cgiSpawnError(ctx, err)
		return
	}
	cmd.Stdin = stdinR
	cmd.Stdout = stdoutW

	if err := cmd.Start(); err != nil {
		stdinR.Close()
		stdinW.Close()
		stdoutR.Close()
		stdoutW.Close()
		resp.Status = 500
		resp.StatusText = fmt.Sprintf("Server error '%s'", err)
		resp.AddHeader("Content-Type", "text/plain")
		resp.Body.AppendString(resp.StatusText + "\n")
		s.ProcessResponse(ctx)
		return
	}
	s.metrics.ObserveCGISpawn()
	stdinR.Close()
	stdoutW.Close()
	s.trackChild(cmd)

	outFD := int(stdoutR.Fd())
	unix.SetNonblock(outFD, true)

	ctx.CGIFD = outFD
	ctx.Role = RoleReadCGIOutput
	ctx.CGIOutput = NewBuffer(0)
	ctx.Reader = NewSocketReader(outFD)
	s.registry.Retarget(ctx, outFD)
	s.readiness.SetRead(outFD)
	s.pipeFiles[outFD] = stdoutR

	if req.Body.Len() > 0 {
		inFD := int(stdinW.Fd())
		unix.SetNonblock(inFD, true)

		inCtx := &Context{
			ID:       ctx.ID,
			ClientFD: ctx.ClientFD,
			CGIFD:    inFD,
			SelectFD: inFD,
			Role:     RoleWriteCGIInput,
			CGIInput: NewBuffer(0),
		}
		inCtx.CGIInput.Append(req.Body.Bytes())
		s.registry.Add(inCtx)
		s.readiness.SetWrite(inFD)
		s.pipeFiles[inFD] = stdinW
	} else {
		stdinW.Close()
	}
}

func (s *Server) cgiSpawnError(ctx *Context, err error) {
	resp := ctx.Response
	resp.Status = 500
	resp.StatusText = fmt.Sprintf("Server error '%s'", err)
	resp.AddHeader("Content-Type", "text/plain")
	resp.Body.AppendString(resp.StatusText + "\n")
	s.ProcessResponse(ctx)
}

// newCGIEnviron builds the child's environment from scratch -- the
// Go-idiomatic equivalent of the original's clearenv() + setenv() calls:
// exec.Cmd inherits nothing unless listed in cmd.Env.
func (s *Server) newCGIEnviron(ctx *Context, hc *HostConfigView, scriptPath string) []string {
	req := ctx.Request
	env := []string{
		"SERVER_NAME=" + s.cgiStatics.ServerName,
		"SERVER_SOFTWARE=" + s.cgiStatics.ServerSoftware,
		"SERVER_PROTOCOL=" + s.cgiStatics.ServerProtocol,
		"SERVER_PORT=" + s.cgiStatics.ServerPort,
		"DOCUMENT_ROOT=" + hc.HomeDir,
		"HTTP_USER_AGENT=" + req.Headers.Get("User-Agent"),
		"HTTP_HOST=" + req.Headers.Get("Host"),
		"SCRIPT_FILENAME=" + scriptPath,
		"REQUEST_METHOD=" + req.Method,
		"SCRIPT_NAME=" + req.Path,
		"REQUEST_URI=" + req.URI,
		"QUERY_STRING=" + req.Query,
		"CONTENT_TYPE=" + req.Headers.Get("Content-Type"),
		"CONTENT_LENGTH=" + strconv.Itoa(req.Body.Len()),
		"REMOTE_ADDR=" + ctx.ClientIP,
		"REMOTE_PORT=" + strconv.Itoa(ctx.ClientPort),
	}
	return env
}

// parseCGIOutput splits a CGI child's stdout into headers (up to the
// first blank line) and body, honoring a synthesized Status header, per
// spec.md section 4.9 / the CGI contract in section 6.
func parseCGIOutput(raw []byte, resp *Response) {
	resp.Status = 200
	resp.StatusText = "OK"

	lines, body := splitCGIHeaderBlock(raw)
	for _, line := range lines {
		key, value, ok := splitHeaderLine(line)
		if !ok {
			continue
		}
		if equalFoldASCII(key, "Status") {
			code, text := splitStatusValue(value)
			if code > 0 {
				resp.Status = code
				resp.StatusText = text
			}
			continue
		}
		resp.AddHeader(key, value)
	}
	resp.Body.Append(body)
}

func splitCGIHeaderBlock(raw []byte) (headerLines []string, body []byte) {
	start := 0
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\n' {
			continue
		}
		line := raw[start:i]
		trimmed := chomp(string(line))
		if trimmed == "" {
			return headerLines, raw[i+1:]
		}
		headerLines = append(headerLines, trimmed)
		start = i + 1
	}
	return headerLines, nil
}

func splitStatusValue(value string) (code int, text string) {
	var i int
	for i = 0; i < len(value) && value[i] >= '0' && value[i] <= '9'; i++ {
	}
	if i == 0 {
		return 0, ""
	}
	n, err := strconv.Atoi(value[:i])
	if err != nil {
		return 0, ""
	}
	return n, trimSpace(value[i:])
}

func equalFoldASCII(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// trackChild registers cmd with the SIGCHLD reaper so its exit status is
// drained non-blockingly, per spec.md section 5 ("the server does not
// track child exit status" -- reaping still must happen to avoid zombies).
func (s *Server) trackChild(cmd *exec.Cmd) {
	s.childrenMu.Lock()
	s.children[cmd.Process.Pid] = cmd
	s.childrenMu.Unlock()
}

// ReapChildren drains zombie children with WNOHANG, called from the
// SIGCHLD-triggered goroutine started by internal/lkserver.
func (s *Server) ReapChildren() {
	for {
		var ws syscall.WaitStatus
		pid, err := syscall.Wait4(-1, &ws, syscall.WNOHANG, nil)
		if err != nil || pid <= 0 {
			return
		}
		s.childrenMu.Lock()
		delete(s.children, pid)
		s.childrenMu.Unlock()
	}
}
