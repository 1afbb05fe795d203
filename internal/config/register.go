package config

import (
	"github.com/spf13/pflag"
)

// RegisterConfig holds configuration for the register command.
type RegisterConfig struct {
	PGDSN    string
	ID       string
	Kind     string
	Tokens   []string
	Migrate  bool
	LogLevel string
}

// LoadRegister merges config file, environment variables, and flags into RegisterConfig.
func LoadRegister(cfgFile string, flags *pflag.FlagSet) (RegisterConfig, error) {
	v := newViper()

	v.SetDefault("migrate", true)
	v.SetDefault("log-level", "info")

	if err := readConfig(v, cfgFile, flags); err != nil {
		return RegisterConfig{}, err
	}

	return RegisterConfig{
		PGDSN:    v.GetString("pg-dsn"),
		ID:       v.GetString("id"),
		Kind:     v.GetString("kind"),
		Tokens:   getStringSlice(v, "token"),
		Migrate:  v.GetBool("migrate"),
		LogLevel: v.GetString("log-level"),
	}, nil
}
