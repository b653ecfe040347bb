package config

import "time"

// Config is the root configuration of the devprint server and CLI.
type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Match   MatchConfig   `koanf:"match"`
	Store   StoreConfig   `koanf:"store"`
	Sinks   SinksConfig   `koanf:"sinks"`
	Metrics MetricsConfig `koanf:"metrics"`
	Capture CaptureConfig `koanf:"capture"`
	Log     LogConfig     `koanf:"log"`
}

type ServerConfig struct {
	Addr         string `koanf:"addr"`
	TrustProxy   bool   `koanf:"trust_proxy"`
	MaxBodyBytes int64  `koanf:"max_body_bytes"` // capture payload limit
	HMACSecret   string `koanf:"hmac_secret"`
	RequireHMAC  bool   `koanf:"require_hmac"`
	// IPHashSecret salts client IP hashes; empty disables IP recording.
	IPHashSecret   string        `koanf:"ip_hash_secret"`
	AllowedOrigins []string      `koanf:"allowed_origins"`
	ReadTimeout    time.Duration `koanf:"read_timeout"`
	WriteTimeout   time.Duration `koanf:"write_timeout"`
}

// MatchConfig is the caller-side threshold policy applied to stored
// fingerprints on capture.
type MatchConfig struct {
	MinSimilarity int `koanf:"min_similarity"`
	Limit         int `koanf:"limit"`
	Window        int `koanf:"window"` // most recent records scanned
}

type StoreConfig struct {
	Driver        string        `koanf:"driver"` // memory, postgres, redis
	PostgresDSN   string        `koanf:"postgres_dsn"`
	PostgresTable string        `koanf:"postgres_table"`
	RedisAddr     string        `koanf:"redis_addr"`
	RedisPassword string        `koanf:"redis_password"`
	RedisDB       int           `koanf:"redis_db"`
	RedisTTL      time.Duration `koanf:"redis_ttl"`
	MemoryCap     int           `koanf:"memory_cap"`
}

type SinksConfig struct {
	Outputs []string `koanf:"outputs"` // log, kafka
	// LogPath sends the log sink to an NDJSON file instead of the process log.
	LogPath string      `koanf:"log_path"`
	Kafka   KafkaConfig `koanf:"kafka"`
}

type KafkaConfig struct {
	Brokers     []string `koanf:"brokers"`
	Topic       string   `koanf:"topic"`
	Acks        string   `koanf:"acks"`
	Compression string   `koanf:"compression"`
	ClientID    string   `koanf:"client_id"`
	LingerMs    int      `koanf:"linger_ms"`
	BatchBytes  int      `koanf:"batch_bytes"`

	SASLMechanism string `koanf:"sasl_mechanism"`
	SASLUser      string `koanf:"sasl_user"`
	SASLPassword  string `koanf:"sasl_password"`
	TLSCAPath     string `koanf:"tls_ca_path"`
	TLSSkipVerify bool   `koanf:"tls_skip_verify"`
}

type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

// CaptureConfig drives the live browser used by `devprint capture`.
type CaptureConfig struct {
	AudioTimeout time.Duration `koanf:"audio_timeout"`
	Headless     bool          `koanf:"headless"`
	BrowserBin   string        `koanf:"browser_bin"`
	URL          string        `koanf:"url"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json, console
}
