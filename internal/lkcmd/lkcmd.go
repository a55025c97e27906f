// Package lkcmd is the command-line surface, built the way
// caddyserver/caddy's cmd/caddy/main.go + cmd/commands.go split entry
// point from command tree: main.go stays a two-line shim, and the
// cobra.Command wiring lives here.
package lkcmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/KimMachineGun/automemlimit/memlimit"
	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/littlekitten/lkserver/internal/config"
	"github.com/littlekitten/lkserver/internal/lkserver"
)

// Main builds and executes the root command. It is the sole call in
// cmd/lkserverd/main.go, matching caddycmd.Main()'s role for caddy.
func Main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "lkserverd",
		Short: "littlekitten is a single-threaded HTTP/1.0 origin server",
	}
	root.AddCommand(newRunCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the server version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), lkserver.ServerSoftware)
			return nil
		},
	}
}

func newRunCmd() *cobra.Command {
	var (
		configPath  string
		host        string
		port        int
		adminAddr   string
		logFile     string
		acceptRPS   float64
		acceptBurst int
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the server in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Startup failures (bind, listen, config parse) exit 1, per
			// spec.md section 6; success runs until signaled and
			// returns nil (exit 0).
			undoMaxProcs, err := maxprocs.Set()
			if err != nil {
				undoMaxProcs = func() {}
			}
			defer undoMaxProcs()
			_, _ = memlimit.SetGoMemLimitWithOpts()

			finalized, err := loadConfig(configPath, host, port, adminAddr)
			if err != nil {
				return err
			}

			log, access, err := lkserver.NewLoggers(logFile)
			if err != nil {
				return err
			}
			defer log.Sync()
			defer access.Sync()

			return lkserver.Run(lkserver.Options{
				Config:      finalized,
				Log:         log,
				Access:      access,
				AcceptRPS:   acceptRPS,
				AcceptBurst: acceptBurst,
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "", "path to the TOML host configuration file")
	flags.StringVar(&host, "host", "0.0.0.0", "listen host, overridden by --config's [server] table if set there")
	flags.IntVar(&port, "port", 8080, "listen port, overridden by --config's [server] table if set there")
	flags.StringVar(&adminAddr, "admin", "localhost:2020", "admin HTTP listen address (empty disables it)")
	flags.StringVar(&logFile, "log-file", "", "write logs as rotated JSON here instead of the console")
	flags.Float64Var(&acceptRPS, "accept-rps", 500, "token-bucket rate limit on accept(), 0 disables it")
	flags.IntVar(&acceptBurst, "accept-burst", 100, "token-bucket burst size for --accept-rps")

	return cmd
}

func loadConfig(configPath, host string, port int, adminAddr string) (*config.Finalized, error) {
	if configPath == "" {
		cfg := &config.Config{}
		cfg.Server.ListenHost = host
		cfg.Server.ListenPort = port
		cfg.Server.AdminAddr = adminAddr
		fin, err := cfg.Finalize(".")
		if err != nil {
			return nil, err
		}
		return fin, nil
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("startup: %w", err)
	}
	if cfg.Server.ListenHost == "" {
		cfg.Server.ListenHost = host
	}
	if cfg.Server.ListenPort == 0 {
		cfg.Server.ListenPort = port
	}
	if cfg.Server.AdminAddr == "" {
		cfg.Server.AdminAddr = adminAddr
	}

	fin, err := cfg.Finalize(filepath.Dir(configPath))
	if err != nil {
		return nil, fmt.Errorf("startup: %w", err)
	}
	return fin, nil
}
