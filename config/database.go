package config

import "strings"

// RedisConfig contains Redis configuration.
type RedisConfig struct {
	URI                string   `env:"URI"                  envDefault:"localhost:6379"`
	Password           string   `env:"PASSWORD"             envDefault:""`
	DB                 int      `env:"DB"                   envDefault:"0"`
	SentinelNodes      []string `env:"SENTINEL_NODES"       envDefault:"localhost:26379"`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"    envDefault:""`
	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
	ClusterNodes       []string `env:"CLUSTER_NODES"        envDefault:""`
	UseCluster         bool     `env:"USE_CLUSTER"          envDefault:"false"`
}

// StoreBackend selects where the latest audit result is persisted.
type StoreBackend string

const (
	// StoreBackendRedis keeps the latest result under a single Redis key.
	StoreBackendRedis StoreBackend = "redis"
	// StoreBackendMemory keeps the latest result in process memory.
	StoreBackendMemory StoreBackend = "memory"
)

// StoreConfig contains latest-result persistence configuration.
type StoreConfig struct {
	Backend StoreBackend `env:"STORE_BACKEND" envDefault:"redis"`

	// LatestResultKey is the single durable key holding the latest result record.
	LatestResultKey string `env:"LATEST_RESULT_KEY" envDefault:"latestAuditResult"`
}

// Sanitize normalises the backend name and key.
func (s *StoreConfig) Sanitize() {
	switch StoreBackend(strings.ToLower(strings.TrimSpace(string(s.Backend)))) {
	case StoreBackendMemory:
		s.Backend = StoreBackendMemory
	default:
		s.Backend = StoreBackendRedis
	}
	s.LatestResultKey = strings.TrimSpace(s.LatestResultKey)
	if s.LatestResultKey == "" {
		s.LatestResultKey = "latestAuditResult"
	}
}
