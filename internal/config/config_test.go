package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultPortal, cfg.Portal)
	assert.Equal(t, DefaultPortalDeployTx, cfg.PortalDeployTx)
	assert.Equal(t, uint64(50), cfg.BatchSize)
	assert.Equal(t, 500*time.Millisecond, cfg.RetryBackoff)
	assert.True(t, cfg.CheckpointEnabled)
	assert.Equal(t, "./data/components.jsonl", cfg.Components)
	assert.Equal(t, "nabla", cfg.StateName)
	assert.Equal(t, RPCLimits{RequestsPerSecond: 0, Burst: 10, CallCacheMB: 32}, cfg.RPCLimits)
	assert.Empty(t, cfg.MetricsAddr)
}

func TestLoadReplayRPCLimitsFromEnv(t *testing.T) {
	t.Setenv("INDEXER_RPC_RPS", "12.5")
	t.Setenv("INDEXER_CALL_CACHE_MB", "64")

	cfg, err := LoadReplay("", nil)
	require.NoError(t, err)
	assert.Equal(t, 12.5, cfg.RPCLimits.RequestsPerSecond)
	assert.Equal(t, 10, cfg.RPCLimits.Burst)
	assert.Equal(t, 64, cfg.RPCLimits.CallCacheMB)
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "indexer.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rpc: http://file:8545\nbatch-size: 10\nfrom: 5\n"), 0o644))

	t.Setenv("INDEXER_BATCH_SIZE", "20")

	flags := pflag.NewFlagSet("run", pflag.ContinueOnError)
	flags.Uint64("from", 0, "")
	require.NoError(t, flags.Parse([]string{"--from", "7"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)
	assert.Equal(t, "http://file:8545", cfg.RPCURL)
	assert.Equal(t, uint64(20), cfg.BatchSize)
	assert.Equal(t, uint64(7), cfg.FromBlock)
}

func TestLoadRegisterTokens(t *testing.T) {
	flags := pflag.NewFlagSet("register", pflag.ContinueOnError)
	flags.String("token", "", "")
	flags.String("kind", "", "")
	require.NoError(t, flags.Parse([]string{"--token", "0xa, 0xb,", "--kind", "swap_pool"}))

	cfg, err := LoadRegister("", flags)
	require.NoError(t, err)
	assert.Equal(t, []string{"0xa", "0xb"}, cfg.Tokens)
	assert.Equal(t, "swap_pool", cfg.Kind)
	assert.True(t, cfg.Migrate)
}

func TestLoadReplayMissingFile(t *testing.T) {
	_, err := LoadReplay(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}
