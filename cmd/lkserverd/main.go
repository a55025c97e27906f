// Command lkserverd is the entry point of the littlekitten HTTP/1.0
// server. Most of its behavior lives in internal/lkcmd and
// internal/lkserver; this file stays a shim by design, the same
// separation caddyserver/caddy draws between cmd/caddy/main.go and
// cmd/commands.go.
package main

import "github.com/littlekitten/lkserver/internal/lkcmd"

func main() {
	lkcmd.Main()
}
