// Package config builds runtime configuration from the environment so main
// stays lean. Viper handles env binding and defaults; nothing here reads
// files except the optional .env loaded by cmd/server.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures everything the server needs at startup.
type Config struct {
	Server     ServerConfig
	Postgres   PostgresConfig
	Redis      RedisConfig
	Kafka      KafkaConfig
	Compliance ComplianceConfig
	Cards      CardsConfig
}

type ServerConfig struct {
	Addr            string
	ShutdownTimeout time.Duration
}

type PostgresConfig struct {
	// URL is empty when the server runs on in-memory stores (dev, tests).
	URL string
}

type RedisConfig struct {
	// URL is empty when Redis is not configured; caches become no-ops.
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type KafkaConfig struct {
	// Brokers is empty when event emission stays in-process.
	Brokers []string
	Topic   string
}

type ComplianceConfig struct {
	// ValidityWindow bounds how long an APPROVED verification keeps gating
	// transfers before it is treated as expired.
	ValidityWindow time.Duration
	// CacheTTL bounds the redis gating cache.
	CacheTTL time.Duration
}

type CardsConfig struct {
	// ExpirySweepSchedule is a cron expression for the expiry sweeper.
	ExpirySweepSchedule string
	// Lifetime of a newly issued card.
	Lifetime time.Duration
}

// Load reads configuration from COREBANK_* environment variables.
func Load() Config {
	v := viper.New()
	v.SetEnvPrefix("COREBANK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("addr", ":8080")
	v.SetDefault("shutdown_timeout", 10*time.Second)
	v.SetDefault("postgres_url", "")
	v.SetDefault("redis_url", "")
	v.SetDefault("redis_pool_size", 10)
	v.SetDefault("redis_min_idle_conns", 2)
	v.SetDefault("redis_dial_timeout", 5*time.Second)
	v.SetDefault("redis_read_timeout", 3*time.Second)
	v.SetDefault("redis_write_timeout", 3*time.Second)
	v.SetDefault("kafka_brokers", "")
	v.SetDefault("kafka_topic", "transfers.completed")
	v.SetDefault("kyc_validity_window", 365*24*time.Hour)
	v.SetDefault("kyc_cache_ttl", 5*time.Minute)
	v.SetDefault("card_expiry_schedule", "@hourly")
	v.SetDefault("card_lifetime", 3*365*24*time.Hour)

	var brokers []string
	if raw := v.GetString("kafka_brokers"); raw != "" {
		brokers = strings.Split(raw, ",")
	}

	return Config{
		Server: ServerConfig{
			Addr:            v.GetString("addr"),
			ShutdownTimeout: v.GetDuration("shutdown_timeout"),
		},
		Postgres: PostgresConfig{
			URL: v.GetString("postgres_url"),
		},
		Redis: RedisConfig{
			URL:          v.GetString("redis_url"),
			PoolSize:     v.GetInt("redis_pool_size"),
			MinIdleConns: v.GetInt("redis_min_idle_conns"),
			DialTimeout:  v.GetDuration("redis_dial_timeout"),
			ReadTimeout:  v.GetDuration("redis_read_timeout"),
			WriteTimeout: v.GetDuration("redis_write_timeout"),
		},
		Kafka: KafkaConfig{
			Brokers: brokers,
			Topic:   v.GetString("kafka_topic"),
		},
		Compliance: ComplianceConfig{
			ValidityWindow: v.GetDuration("kyc_validity_window"),
			CacheTTL:       v.GetDuration("kyc_cache_ttl"),
		},
		Cards: CardsConfig{
			ExpirySweepSchedule: v.GetString("card_expiry_schedule"),
			Lifetime:            v.GetDuration("card_lifetime"),
		},
	}
}
