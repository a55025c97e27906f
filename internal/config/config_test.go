package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTOML = `
[server]
listen_host = "0.0.0.0"
listen_port = 8080
admin_addr = "localhost:2020"

[[host]]
host = "example.com"
home_dir = "www"
cgi_dir = "/cgi-bin"

[[host]]
host = "*"
home_dir = "default-www"
proxy_host = "upstream:9000"
send_proxy_protocol = true
`

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "lkserver.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAndFinalizeResolvesRelativeHomeDir(t *testing.T) {
	path := writeTempConfig(t, sampleTOML)
	baseDir := filepath.Dir(path)

	cfg, err := Load(path)
	require.NoError(t, err)

	fin, err := cfg.Finalize(baseDir)
	require.NoError(t, err)

	assert.Equal(t, 8080, fin.ListenPort)
	assert.Equal(t, "localhost:2020", fin.AdminAddr)
	assert.Equal(t, 50, fin.Backlog) // default applied

	hc := fin.Lookup("example.com")
	require.NotNil(t, hc)
	assert.Equal(t, filepath.Join(baseDir, "www"), hc.HomeDir)
	assert.Equal(t, "/cgi-bin", hc.CGIDir) // already absolute, untouched
}

func TestLookupFallsBackToWildcard(t *testing.T) {
	path := writeTempConfig(t, sampleTOML)
	cfg, err := Load(path)
	require.NoError(t, err)
	fin, err := cfg.Finalize(filepath.Dir(path))
	require.NoError(t, err)

	hc := fin.Lookup("unknown-host.example:8080")
	require.NotNil(t, hc)
	assert.Equal(t, "upstream:9000", hc.ProxyHost)
	assert.True(t, hc.SendProxyProtocol)
}

func TestLookupReturnsNilWithoutWildcard(t *testing.T) {
	cfg := &Config{Host: []HostConfig{{Host: "example.com", HomeDir: "www"}}}
	fin, err := cfg.Finalize(t.TempDir())
	require.NoError(t, err)

	assert.Nil(t, fin.Lookup("nope.example"))
}

func TestFinalizeDefaultsListenHost(t *testing.T) {
	cfg := &Config{}
	fin, err := cfg.Finalize(".")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", fin.ListenHost)
	assert.Equal(t, 50, fin.Backlog)
}
