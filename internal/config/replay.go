package config

import (
	"github.com/spf13/pflag"
)

// ReplayConfig holds configuration for the replay command.
type ReplayConfig struct {
	RPCURL         string
	In             string
	Out            string
	Errors         string
	Portal         string
	PortalDeployTx string
	PGDSN          string
	RPCLimits      RPCLimits
	LogLevel       string
}

// LoadReplay merges config file, environment variables, and flags into ReplayConfig.
func LoadReplay(cfgFile string, flags *pflag.FlagSet) (ReplayConfig, error) {
	v := newViper()

	v.SetDefault("portal", DefaultPortal)
	v.SetDefault("portal-deploy-tx", DefaultPortalDeployTx)
	v.SetDefault("out", "./data/replay_changes.jsonl")
	v.SetDefault("errors", "./data/replay_errors.jsonl")
	v.SetDefault("log-level", "info")
	setRPCLimitDefaults(v)

	if err := readConfig(v, cfgFile, flags); err != nil {
		return ReplayConfig{}, err
	}

	return ReplayConfig{
		RPCURL:         v.GetString("rpc"),
		In:             v.GetString("in"),
		Out:            v.GetString("out"),
		Errors:         v.GetString("errors"),
		Portal:         v.GetString("portal"),
		PortalDeployTx: v.GetString("portal-deploy-tx"),
		PGDSN:          v.GetString("pg-dsn"),
		RPCLimits:      loadRPCLimits(v),
		LogLevel:       v.GetString("log-level"),
	}, nil
}
