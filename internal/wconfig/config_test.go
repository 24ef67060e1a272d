package wconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestLoadFromFileAppliesOverridesAndDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	contents := "data_dir = \"/var/lib/watch\"\nnetwork = \"mainnet\"\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	require.Equal(t, "/var/lib/watch", cfg.DataDir)
	require.Equal(t, "mainnet", cfg.Network)
	require.Equal(t, uint32(100), cfg.GapLimit)
	require.Equal(t, "kv", cfg.Backend)
}

func TestValidateRejectsUnknownNetwork(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Network = "nonsense"
	err := cfg.Validate()
	require.Error(t, err)
}

func TestValidateRejectsZeroGapLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GapLimit = 0
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsUnknownBackend(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backend = "redis"
	require.Error(t, cfg.Validate())
}

func TestNetworkParamsResolvesAllKnownNetworks(t *testing.T) {
	for _, name := range []string{"mainnet", "testnet3", "regtest", "signet"} {
		cfg := DefaultConfig()
		cfg.Network = name
		_, err := cfg.NetworkParams()
		require.NoError(t, err)
	}
}
