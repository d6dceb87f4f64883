// Package config loads the store's connection settings from flags, the
// environment, and a YAML config file via viper, the same layered way
// the teacher's cmd/bd layer binds config.yaml, env vars, and flags
// through a per-command viper instance, in flags > env > file > defaults
// order.
package config

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DatabaseConfig is the connection info get_subgraph, create_type and the
// snapshot pipeline all dial against, read from PG{HOST,PORT,USER,
// PASSWORD,DBNAME} per spec.md §6.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// fileConfig is the subset of a YAML config file's keys this package
// understands, mirroring the teacher's LocalConfig: a small struct read
// directly off disk rather than through viper's own (non-YAML-aware)
// file merge, so comments and indentation in the file don't confuse it.
type fileConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// loadFileConfig reads path's YAML content, returning a zero fileConfig
// (not an error) if the file does not exist, the same "best effort"
// posture the teacher's LoadLocalConfig takes toward a missing or
// unparsable config.yaml.
func loadFileConfig(path string) fileConfig {
	data, err := os.ReadFile(path) // #nosec G304 -- path is operator-supplied via flag/env, not derived from untrusted input
	if err != nil {
		return fileConfig{}
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fileConfig{}
	}
	return cfg
}

// Load reads a DatabaseConfig from, in increasing precedence: built-in
// defaults (the same ones `psql`/libpq apply when a variable is unset),
// a YAML config file, the process environment, and flags already parsed
// into fs. libpq's own env variables have no prefix separator (PGHOST,
// not PG_HOST), so each key is bound to its literal env var rather than
// via SetEnvPrefix, which would insert one.
//
// configFile names the YAML file to read; an empty string skips the
// file layer entirely. fs may be nil to skip the flag layer.
func Load(configFile string, fs *pflag.FlagSet) DatabaseConfig {
	v := viper.New()

	v.SetDefault("HOST", "localhost")
	v.SetDefault("PORT", 5432)
	v.SetDefault("USER", "postgres")
	v.SetDefault("PASSWORD", "")
	v.SetDefault("DBNAME", "typegraph")
	v.SetDefault("SSLMODE", "prefer")

	// File values are applied via SetDefault, not Set: viper's precedence
	// order is override > flag > env > config > default, and Set writes
	// to the override tier, which would wrongly let the file beat flags
	// and env. SetDefault instead overwrites the built-in default above,
	// landing the file exactly between env/flags and the hardcoded
	// defaults.
	if configFile != "" {
		file := loadFileConfig(configFile)
		if file.Host != "" {
			v.SetDefault("HOST", file.Host)
		}
		if file.Port != 0 {
			v.SetDefault("PORT", file.Port)
		}
		if file.User != "" {
			v.SetDefault("USER", file.User)
		}
		if file.Password != "" {
			v.SetDefault("PASSWORD", file.Password)
		}
		if file.DBName != "" {
			v.SetDefault("DBNAME", file.DBName)
		}
		if file.SSLMode != "" {
			v.SetDefault("SSLMODE", file.SSLMode)
		}
	}

	v.BindEnv("HOST", "PGHOST")
	v.BindEnv("PORT", "PGPORT")
	v.BindEnv("USER", "PGUSER")
	v.BindEnv("PASSWORD", "PGPASSWORD")
	v.BindEnv("DBNAME", "PGDBNAME")
	v.BindEnv("SSLMODE", "PGSSLMODE")

	if fs != nil {
		for key, flag := range map[string]string{
			"HOST": "host", "PORT": "port", "USER": "user",
			"PASSWORD": "password", "DBNAME": "dbname", "SSLMODE": "sslmode",
		} {
			if f := fs.Lookup(flag); f != nil {
				v.BindPFlag(key, f)
			}
		}
	}

	return DatabaseConfig{
		Host:     v.GetString("HOST"),
		Port:     v.GetInt("PORT"),
		User:     v.GetString("USER"),
		Password: v.GetString("PASSWORD"),
		DBName:   v.GetString("DBNAME"),
		SSLMode:  v.GetString("SSLMODE"),
	}
}

// DSN renders the libpq connection string pgxpool.ParseConfig accepts.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}
