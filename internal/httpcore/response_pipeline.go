package httpcore

import (
	"time"

	"go.uber.org/zap"
)

// ProcessResponse implements spec.md section 4.11: finalize, clear the
// body on HEAD, log the one-line summary, then hand the Context to the
// terminal writer on the client fd.
func (s *Server) ProcessResponse(ctx *Context) {
	resp := ctx.Response
	req := ctx.Request

	resp.Finalize(s.serverSoftware, s.now())

	if req.Method == "HEAD" {
		resp.ClearBodyForHead()
	}

	s.logAccess(ctx)
	s.metrics.ObserveResponse(ctx, resp.Status)

	ctx.Role = RoleWriteResponse
	s.registry.Retarget(ctx, ctx.ClientFD)
	s.readiness.SetWrite(ctx.ClientFD)
}

// ProcessErrorResponse builds a plain-text error body at status and
// routes it through the same finalize/log/write pipeline.
func (s *Server) ProcessErrorResponse(ctx *Context, status int, msg string) {
	resp := ctx.Response
	resp.Status = status
	resp.StatusText = msg
	resp.AddHeader("Content-Type", "text/plain")
	resp.Body.AppendString(msg)
	s.ProcessResponse(ctx)
}

func (s *Server) logAccess(ctx *Context) {
	req, resp := ctx.Request, ctx.Response
	localTime := s.now().Format("02/Jan/2006:15:04:05 -0700")
	s.access.Info("request",
		zap.String("request_id", ctx.ID.String()),
		zap.String("client_ip", ctx.ClientIP),
		zap.String("time", localTime),
		zap.String("method", req.Method),
		zap.String("uri", req.URI),
		zap.String("version", req.Version),
		zap.Int("status", resp.Status),
	)
	if resp.Status >= 500 && resp.Status < 600 && resp.StatusText != "" {
		s.access.Info("server_error",
			zap.String("request_id", ctx.ID.String()),
			zap.String("client_ip", ctx.ClientIP),
			zap.String("time", localTime),
			zap.Int("status", resp.Status),
			zap.String("status_text", resp.StatusText),
		)
	}
}

func (s *Server) now() time.Time {
	if s.clock != nil {
		return s.clock()
	}
	return time.Now()
}
