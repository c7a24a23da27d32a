package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeProfile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".yaml"), []byte(body), 0644))
}

func TestResolveProfile(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "home", "url: http://nas:9091/transmission/rpc\n")

	p, err := resolveProfile(config{ProfileDir: dir}, zap.NewNop())
	require.NoError(t, err)
	require.Equal(t, "home", p.Name)

	writeProfile(t, dir, "seedbox", "url: https://seedbox.example/transmission/rpc\nmaxPeers: 50\n")
	_, err = resolveProfile(config{ProfileDir: dir}, zap.NewNop())
	require.ErrorContains(t, err, "home seedbox")

	p, err = resolveProfile(config{ProfileDir: dir, Profile: "seedbox"}, zap.NewNop())
	require.NoError(t, err)
	require.Equal(t, 50, p.MaxPeers)

	p, err = resolveProfile(config{ProfileDir: dir, Profile: "seedbox", MaxPeers: 7}, zap.NewNop())
	require.NoError(t, err)
	require.Equal(t, 7, p.MaxPeers)

	p, err = resolveProfile(config{DaemonURL: "http://127.0.0.1:9091/transmission/rpc", ProfileDir: "/nonexistent"}, zap.NewNop())
	require.NoError(t, err)
	require.Equal(t, "env", p.Name)

	_, err = resolveProfile(config{ProfileDir: dir, Profile: "missing"}, zap.NewNop())
	require.Error(t, err)
}

func TestLoadConfig_EnvFile(t *testing.T) {
	env := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(env, []byte("TRG_MAX_PEERS=123\nSERVER_PORT=9999\n"), 0644))
	t.Setenv("TRG_MAX_PEERS", "")
	os.Unsetenv("TRG_MAX_PEERS")
	t.Setenv("SERVER_PORT", "7000")

	cfg, err := loadConfig(env)
	require.NoError(t, err)
	require.Equal(t, 123, cfg.MaxPeers)
	require.Equal(t, "7000", cfg.Port, "set variables win over the env file")

	_, err = loadConfig(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
}
