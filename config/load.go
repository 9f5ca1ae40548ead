package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "BOOKPARSE_"

// LoadFile reads a TOML file on top of the defaults.
// Keys missing from the file keep their default values.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("decode config %q: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, fmt.Errorf("config %q: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return cfg, nil
}

// ApplyEnv overrides cfg with BOOKPARSE_* environment variables.
func (c *Config) ApplyEnv() error {
	if v, ok, err := EnvInt("WORKERS"); err != nil {
		return err
	} else if ok {
		c.Workers = v
	}
	if v, ok, err := EnvInt("DEDUPE_MAX_SIZE"); err != nil {
		return err
	} else if ok {
		c.DedupeMaxSize = v
	}
	if v, ok, err := EnvInt("MAX_RETRIES"); err != nil {
		return err
	} else if ok {
		c.MaxRetries = v
	}
	if v, ok, err := EnvDuration("TIMEOUT"); err != nil {
		return err
	} else if ok {
		c.Timeout = Duration{v}
	}
	if v, ok := EnvString("OUTPUT"); ok {
		c.OutputFile = v
	}
	if v, ok := EnvString("FORMAT"); ok {
		c.OutputFormat = strings.ToLower(v)
	}
	if v, ok := EnvString("METRICS_ADDR"); ok {
		c.MetricsAddr = v
	}
	return nil
}

// EnvString returns the value of EnvPrefix+name when it is set and non-blank.
func EnvString(name string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + name)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

// EnvInt parses EnvPrefix+name as an integer.
func EnvInt(name string) (int, bool, error) {
	v, ok := EnvString(name)
	if !ok {
		return 0, false, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false, fmt.Errorf("invalid %s%s: %w", EnvPrefix, name, err)
	}
	return n, true, nil
}

// EnvDuration parses EnvPrefix+name as a duration such as "5s".
func EnvDuration(name string) (time.Duration, bool, error) {
	v, ok := EnvString(name)
	if !ok {
		return 0, false, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, false, fmt.Errorf("invalid %s%s: %w", EnvPrefix, name, err)
	}
	return d, true, nil
}
