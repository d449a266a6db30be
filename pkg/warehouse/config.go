// SPDX-License-Identifier: Apache-2.0

package warehouse

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"sigs.k8s.io/yaml"
)

// Config is a warehouse connection configuration. Which fields are required
// depends on the warehouse (spec.md §6): snowflake needs Account/User/
// Password; postgres/redshift need Host/User/Password/Database; databricks
// needs Host/Token.
type Config struct {
	Account  string `json:"account,omitempty" yaml:"account,omitempty"`
	Host     string `json:"host,omitempty" yaml:"host,omitempty"`
	Port     string `json:"port,omitempty" yaml:"port,omitempty"`
	User     string `json:"user,omitempty" yaml:"user,omitempty"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
	Database string `json:"database,omitempty" yaml:"database,omitempty"`
	Schema   string `json:"schema,omitempty" yaml:"schema,omitempty"`
	Token    string `json:"token,omitempty" yaml:"token,omitempty"`
}

// RequiredFields returns the Config fields that must be non-empty for
// warehouse, per spec.md §6's "Connection config" table.
func RequiredFields(warehouseName string) []string {
	switch strings.ToLower(warehouseName) {
	case "snowflake":
		return []string{"account", "user", "password"}
	case "postgres", "redshift":
		return []string{"host", "user", "password", "database"}
	case "databricks":
		return []string{"host", "token"}
	default:
		return nil
	}
}

// Validate reports a ConfigError listing every required field that is
// missing or empty for warehouseName.
func Validate(warehouseName string, cfg Config) error {
	var missing []string
	for _, field := range RequiredFields(warehouseName) {
		if fieldValue(cfg, field) == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return ConfigError{
			Path:  fmt.Sprintf("<%s connection config>", warehouseName),
			Cause: fmt.Errorf("missing required connection parameters: %s", strings.Join(missing, ", ")),
		}
	}
	return nil
}

func fieldValue(cfg Config, field string) string {
	switch field {
	case "account":
		return cfg.Account
	case "host":
		return cfg.Host
	case "port":
		return cfg.Port
	case "user":
		return cfg.User
	case "password":
		return cfg.Password
	case "database":
		return cfg.Database
	case "token":
		return cfg.Token
	default:
		return ""
	}
}

// LoadConfig loads a Config for warehouseName following the lookup order
// from spec.md §6: an explicit path, then $HOME/.scia/<warehouse>.yaml,
// then environment variables, then built-in (possibly incomplete)
// defaults. Grounded on original_source/scia/config/connection.py's
// load_connection_config priority chain.
func LoadConfig(explicitPath, warehouseName string) (Config, error) {
	if explicitPath != "" {
		cfg, err := loadYAMLConfig(explicitPath)
		if err != nil {
			return Config{}, err
		}
		return cfg, nil
	}

	if home, err := os.UserHomeDir(); err == nil {
		defaultPath := filepath.Join(home, ".scia", strings.ToLower(warehouseName)+".yaml")
		if _, statErr := os.Stat(defaultPath); statErr == nil {
			return loadYAMLConfig(defaultPath)
		}
	}

	if cfg, ok := loadFromEnv(warehouseName); ok {
		return cfg, nil
	}

	return defaults(warehouseName), nil
}

func loadYAMLConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, ConfigError{Path: path, Cause: err}
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, ConfigError{Path: path, Cause: err}
	}
	return cfg, nil
}

// loadFromEnv reads <WAREHOUSE>_{ACCOUNT,USER,PASSWORD,HOST,PORT,DATABASE}.
func loadFromEnv(warehouseName string) (Config, bool) {
	prefix := strings.ToUpper(warehouseName)
	found := false
	var cfg Config

	setIfPresent := func(suffix string, dest *string) {
		if v := os.Getenv(prefix + "_" + suffix); v != "" {
			*dest = v
			found = true
		}
	}
	setIfPresent("ACCOUNT", &cfg.Account)
	setIfPresent("USER", &cfg.User)
	setIfPresent("PASSWORD", &cfg.Password)
	setIfPresent("HOST", &cfg.Host)
	setIfPresent("PORT", &cfg.Port)
	setIfPresent("DATABASE", &cfg.Database)
	setIfPresent("TOKEN", &cfg.Token)

	return cfg, found
}

func defaults(warehouseName string) Config {
	switch strings.ToLower(warehouseName) {
	case "snowflake":
		return Config{Schema: "PUBLIC"}
	case "postgres":
		return Config{Host: "localhost", Port: "5432"}
	case "databricks":
		return Config{}
	case "redshift":
		return Config{Port: "5439"}
	default:
		return Config{}
	}
}
