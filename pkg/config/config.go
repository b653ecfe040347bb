package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes every environment override, e.g.
// DEVPRINT_SERVER_TRUST_PROXY -> server.trust_proxy.
const EnvPrefix = "DEVPRINT_"

// Defaults returns the baseline configuration.
func Defaults() map[string]any {
	return map[string]any{
		"server.addr":            ":19890",
		"server.trust_proxy":     false,
		"server.max_body_bytes":  int64(1 << 20),
		"server.hmac_secret":     "",
		"server.require_hmac":    false,
		"server.ip_hash_secret":  "",
		"server.allowed_origins": []string{"*"},
		"server.read_timeout":    10 * time.Second,
		"server.write_timeout":   10 * time.Second,

		"match.min_similarity": 70,
		"match.limit":          5,
		"match.window":         500,

		"store.driver":         "memory",
		"store.postgres_dsn":   "",
		"store.postgres_table": "device_fingerprints",
		"store.redis_addr":     "localhost:6379",
		"store.redis_password": "",
		"store.redis_db":       0,
		"store.redis_ttl":      720 * time.Hour,
		"store.memory_cap":     10000,

		"sinks.outputs":               []string{"log"},
		"sinks.log_path":              "",
		"sinks.kafka.brokers":         []string{"localhost:9092"},
		"sinks.kafka.topic":           "devprint.captures",
		"sinks.kafka.acks":            "all",
		"sinks.kafka.compression":     "snappy",
		"sinks.kafka.client_id":       "devprint",
		"sinks.kafka.linger_ms":       5,
		"sinks.kafka.batch_bytes":     1 << 20,
		"sinks.kafka.sasl_mechanism":  "",
		"sinks.kafka.sasl_user":       "",
		"sinks.kafka.sasl_password":   "",
		"sinks.kafka.tls_ca_path":     "",
		"sinks.kafka.tls_skip_verify": false,

		"metrics.enabled": false,
		"metrics.addr":    "127.0.0.1:9090",

		"capture.audio_timeout": time.Second,
		"capture.headless":      true,
		"capture.browser_bin":   "",
		"capture.url":           "about:blank",

		"log.level":  "info",
		"log.format": "json",
	}
}

// Load merges defaults, the optional YAML file at path, DEVPRINT_*
// environment variables and changed flags, in increasing precedence. A
// missing file is not an error.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")
	defaults := Defaults()

	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return Config{}, fmt.Errorf("load config file %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("stat config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envValueMapper(defaults)), nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return Config{}, fmt.Errorf("load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// envKeyMapper resolves DEVPRINT_STORE_REDIS_TTL to store.redis_ttl by
// looking the name up among known keys, since key segments may contain
// underscores themselves. Unknown names fall back to one segment per
// underscore.
func envKeyMapper(known map[string]any) func(string) string {
	byEnv := make(map[string]string, len(known))
	for key := range known {
		byEnv[strings.ToUpper(strings.ReplaceAll(key, ".", "_"))] = key
	}
	return func(name string) string {
		name = strings.TrimPrefix(name, EnvPrefix)
		if key, ok := byEnv[name]; ok {
			return key
		}
		return strings.ReplaceAll(strings.ToLower(name), "_", ".")
	}
}

// envValueMapper splits comma separated values for keys whose default is a
// list, e.g. DEVPRINT_SINKS_OUTPUTS=log,kafka.
func envValueMapper(known map[string]any) func(string, string) (string, any) {
	keyOf := envKeyMapper(known)
	return func(name, value string) (string, any) {
		key := keyOf(name)
		if _, isList := known[key].([]string); !isList {
			return key, value
		}
		parts := strings.Split(value, ",")
		out := parts[:0]
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return key, out
	}
}

var (
	validDrivers = map[string]bool{"memory": true, "postgres": true, "redis": true}
	validOutputs = map[string]bool{"log": true, "kafka": true}
)

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	if !validDrivers[c.Store.Driver] {
		return fmt.Errorf("store.driver %q: must be memory, postgres or redis", c.Store.Driver)
	}
	if c.Store.Driver == "postgres" && c.Store.PostgresDSN == "" {
		return errors.New("store.postgres_dsn is required for the postgres driver")
	}
	for _, o := range c.Sinks.Outputs {
		if !validOutputs[o] {
			return fmt.Errorf("sinks.outputs: unknown output %q", o)
		}
	}
	if c.Server.RequireHMAC && c.Server.HMACSecret == "" {
		return errors.New("server.require_hmac set without server.hmac_secret")
	}
	if c.Match.MinSimilarity < 0 || c.Match.MinSimilarity > 100 {
		return fmt.Errorf("match.min_similarity %d: must be within 0..100", c.Match.MinSimilarity)
	}
	if c.HasOutput("kafka") && (len(c.Sinks.Kafka.Brokers) == 0 || c.Sinks.Kafka.Topic == "") {
		return errors.New("sinks.kafka.brokers and sinks.kafka.topic are required for the kafka output")
	}
	if c.Server.MaxBodyBytes <= 0 {
		return errors.New("server.max_body_bytes must be positive")
	}
	return nil
}

// HasOutput reports whether the named sink is enabled.
func (c Config) HasOutput(name string) bool {
	for _, o := range c.Sinks.Outputs {
		if o == name {
			return true
		}
	}
	return false
}
