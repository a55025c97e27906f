package lkserver

import (
	"context"
	"net/http"
	"time"
)

// adminHTTPServer is a thin wrapper giving the admin net/http.Server a
// context-cancellation-aware run method, so it shares the errgroup's
// lifecycle with the selector loop and the SIGCHLD reaper.
type adminHTTPServer struct {
	srv *http.Server
}

func newAdminHTTPServer(addr string, handler http.Handler) *adminHTTPServer {
	return &adminHTTPServer{srv: &http.Server{Addr: addr, Handler: handler}}
}

func (a *adminHTTPServer) run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- a.srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
