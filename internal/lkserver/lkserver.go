// Package lkserver wires the httpcore selector loop into a runnable
// process: logging, the listening socket, the admin HTTP side channel,
// and the SIGCHLD/SIGINT/SIGTERM signal plumbing the original C
// implementation handled inline in its own main loop (original_source's
// tserv.c and lkhttpserver.c).
package lkserver

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"
	"golang.org/x/time/rate"

	"github.com/littlekitten/lkserver/internal/admin"
	"github.com/littlekitten/lkserver/internal/config"
	"github.com/littlekitten/lkserver/internal/httpcore"
	"github.com/littlekitten/lkserver/internal/metrics"
)

// ServerSoftware is substituted into CGI's SERVER_SOFTWARE and into the
// HTTP response's Server header, per spec.md section 4.9.
const ServerSoftware = "littlekitten/0.1"

// Options collects the command-line-derived settings Run needs.
type Options struct {
	Config      *config.Finalized
	Log         *zap.Logger
	Access      *zap.Logger
	AcceptRPS   float64
	AcceptBurst int
}

// Run opens the listening socket, builds the httpcore.Server, and blocks
// running the selector loop, the SIGCHLD reaper, and the admin HTTP
// server together under one errgroup, returning when any of them fails
// or the process receives SIGINT/SIGTERM.
func Run(opts Options) error {
	listenFD, err := openListenSocket(opts.Config.ListenHost, opts.Config.ListenPort, opts.Config.Backlog)
	if err != nil {
		return fmt.Errorf("lkserver: listen: %w", err)
	}
	defer unix.Close(listenFD)

	opts.Log.Info("serving HTTP",
		zap.String("host", opts.Config.ListenHost),
		zap.Int("port", opts.Config.ListenPort),
		zap.String("admin_addr", opts.Config.AdminAddr),
		zap.String("max_buffer_hint", humanize.Bytes(8192)),
	)

	coll := metrics.New()
	statics := httpcore.CGIStatics{
		ServerName:     hostnameOrEmpty(),
		ServerSoftware: ServerSoftware,
		ServerProtocol: "HTTP/1.0",
		ServerPort:     fmt.Sprintf("%d", opts.Config.ListenPort),
	}
	srv := httpcore.New(listenFD, opts.Config, opts.Log, opts.Access, coll, ServerSoftware, statics)

	if opts.AcceptRPS > 0 {
		srv.SetAcceptLimiter(rate.NewLimiter(rate.Limit(opts.AcceptRPS), opts.AcceptBurst))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sigchld := make(chan os.Signal, 8)
	signal.Notify(sigchld, syscall.SIGCHLD)
	defer signal.Stop(sigchld)

	stop := make(chan struct{})
	group, gctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		err := srv.Serve(stop)
		if err != nil {
			opts.Log.Error("selector loop exited", zap.Error(err))
		}
		return err
	})

	group.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-sigchld:
				srv.ReapChildren()
			}
		}
	})

	var adminServer *adminHTTPServer
	if opts.Config.AdminAddr != "" {
		adminServer = newAdminHTTPServer(opts.Config.AdminAddr, admin.NewRouter(srv, coll))
		group.Go(func() error {
			return adminServer.run(gctx)
		})
	}

	group.Go(func() error {
		<-gctx.Done()
		close(stop)
		return nil
	})

	return group.Wait()
}

func hostnameOrEmpty() string {
	name, err := os.Hostname()
	if err != nil {
		return ""
	}
	return name
}
