package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// DefaultPortal is the Nabla portal deployment tracked when none is configured.
	DefaultPortal = "0xcB94Eee869a2041F3B44da423F78134aFb6b676B"
	// DefaultPortalDeployTx is the transaction that deployed DefaultPortal.
	DefaultPortalDeployTx = "0x7e9c5f39e41080aa7ab891ddd8669efc7191bae5906f74c2d5c7e7c12e219046"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	RPCURL            string
	FromBlock         uint64
	ToBlock           uint64
	Portal            string
	PortalDeployTx    string
	BatchSize         uint64
	FetchConcurrency  int
	Out               string
	RawOut            string
	Checkpoint        string
	CheckpointEnabled bool
	Components        string
	PGDSN             string
	StateName         string
	MaxRetries        int
	RetryBackoff      time.Duration
	RPCLimits         RPCLimits
	MetricsAddr       string
	LogLevel          string
}

// RPCLimits bounds the load put on the RPC endpoint.
type RPCLimits struct {
	RequestsPerSecond float64
	Burst             int
	CallCacheMB       int
}

func setRPCLimitDefaults(v *viper.Viper) {
	v.SetDefault("rpc-rps", 0.0)
	v.SetDefault("rpc-burst", 10)
	v.SetDefault("call-cache-mb", 32)
}

func loadRPCLimits(v *viper.Viper) RPCLimits {
	return RPCLimits{
		RequestsPerSecond: v.GetFloat64("rpc-rps"),
		Burst:             v.GetInt("rpc-burst"),
		CallCacheMB:       v.GetInt("call-cache-mb"),
	}
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := newViper()

	v.SetDefault("portal", DefaultPortal)
	v.SetDefault("portal-deploy-tx", DefaultPortalDeployTx)
	v.SetDefault("batch-size", uint64(50))
	v.SetDefault("fetch-concurrency", 4)
	v.SetDefault("out", "./data/entity_changes.jsonl")
	v.SetDefault("checkpoint", "./data/checkpoint.json")
	v.SetDefault("checkpoint-enabled", true)
	v.SetDefault("components", "./data/components.jsonl")
	v.SetDefault("state-name", "nabla")
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("log-level", "info")
	setRPCLimitDefaults(v)

	if err := readConfig(v, cfgFile, flags); err != nil {
		return Config{}, err
	}

	cfg := Config{
		RPCURL:            v.GetString("rpc"),
		FromBlock:         v.GetUint64("from"),
		ToBlock:           v.GetUint64("to"),
		Portal:            v.GetString("portal"),
		PortalDeployTx:    v.GetString("portal-deploy-tx"),
		BatchSize:         v.GetUint64("batch-size"),
		FetchConcurrency:  v.GetInt("fetch-concurrency"),
		Out:               v.GetString("out"),
		RawOut:            v.GetString("raw-out"),
		Checkpoint:        v.GetString("checkpoint"),
		CheckpointEnabled: v.GetBool("checkpoint-enabled"),
		Components:        v.GetString("components"),
		PGDSN:             v.GetString("pg-dsn"),
		StateName:         v.GetString("state-name"),
		MaxRetries:        v.GetInt("max-retries"),
		RetryBackoff:      v.GetDuration("retry-backoff"),
		RPCLimits:         loadRPCLimits(v),
		MetricsAddr:       v.GetString("metrics-addr"),
		LogLevel:          v.GetString("log-level"),
	}

	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("INDEXER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

func readConfig(v *viper.Viper, cfgFile string, flags *pflag.FlagSet) error {
	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
		return nil
	}

	v.SetConfigName("config")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
