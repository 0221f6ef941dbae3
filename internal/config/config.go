// Package config loads service configuration from the environment, with an
// optional .env file for local development and an SSM-backed parameter
// source for values managed outside the process environment.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service settings. Zero values mean "not configured";
// callers decide which backends to wire based on what is set.
type Config struct {
	ServerAddr  string // HTTP listen address for GraphQL and websockets
	MetricsAddr string // Prometheus metrics listen address

	RPCEndpoint string // Solana RPC HTTP endpoint

	PostgresDSN   string
	ClickhouseDSN string
	UseMemory     bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AWSRegion         string
	SSMPrefix         string // SSM path prefix for provisioned parameters
	DynamoLeaderboard string // DynamoDB leaderboard table name
	DynamoTrades      string // DynamoDB trade table name
	SNSTopicARN       string

	KafkaBrokers []string
	KafkaTopic   string

	CoinGeckoURL string
	JupiterURL   string

	TrackMint      string   // mint whose top holders seed the wallet set
	Wallets        []string // explicit wallets to track
	SeedWallets    []string // fallback wallets when no source yields any
	Format         string   // transaction input shape
	UpdateInterval time.Duration
	Workers        int
}

// Load reads a .env file if present and builds the configuration from
// environment variables.
func Load() (*Config, error) {
	// Missing .env is fine; system env vars still apply.
	_ = godotenv.Load()

	cfg := &Config{
		ServerAddr:  envOr("SERVER_ADDR", ":8080"),
		MetricsAddr: envOr("METRICS_ADDR", ":9090"),

		RPCEndpoint: os.Getenv("SOLANA_RPC_ENDPOINT"),

		PostgresDSN:   os.Getenv("POSTGRES_DSN"),
		ClickhouseDSN: os.Getenv("CLICKHOUSE_DSN"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		AWSRegion:         envOr("AWS_REGION", "us-east-1"),
		SSMPrefix:         os.Getenv("SSM_PARAM_PREFIX"),
		DynamoLeaderboard: os.Getenv("DYNAMO_LEADERBOARD_TABLE"),
		DynamoTrades:      os.Getenv("DYNAMO_TRADES_TABLE"),
		SNSTopicARN:       os.Getenv("SNS_TOPIC_ARN"),

		KafkaTopic: os.Getenv("KAFKA_TOPIC"),

		CoinGeckoURL: os.Getenv("COINGECKO_URL"),
		JupiterURL:   os.Getenv("JUPITER_URL"),

		TrackMint: os.Getenv("TRACK_MINT"),
		Format:    envOr("TX_FORMAT", "balance_diff"),
	}

	if v := os.Getenv("USE_MEMORY"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("parse USE_MEMORY: %w", err)
		}
		cfg.UseMemory = b
	}

	if v := os.Getenv("REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("parse REDIS_DB: %w", err)
		}
		cfg.RedisDB = n
	}

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.KafkaBrokers = splitList(v)
	}
	if v := os.Getenv("TRACK_WALLETS"); v != "" {
		cfg.Wallets = splitList(v)
	}
	if v := os.Getenv("SEED_WALLETS"); v != "" {
		cfg.SeedWallets = splitList(v)
	}

	cfg.UpdateInterval = 30 * time.Second
	if v := os.Getenv("UPDATE_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("parse UPDATE_INTERVAL: %w", err)
		}
		cfg.UpdateInterval = d
	}

	cfg.Workers = 1
	if v := os.Getenv("WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("parse WORKERS: %w", err)
		}
		if n < 1 {
			return nil, fmt.Errorf("WORKERS must be at least 1, got %d", n)
		}
		cfg.Workers = n
	}

	return cfg, nil
}

// ResolveParameters fills deployment-provisioned values that the
// environment left empty from src. Names are joined with SSMPrefix when
// it is set. A parameter that is not provisioned leaves the value empty
// and the matching backend unconfigured.
func (c *Config) ResolveParameters(ctx context.Context, src ParameterSource) error {
	targets := []struct {
		name string
		dst  *string
	}{
		{"DYNAMO_LEADERBOARD_TABLE", &c.DynamoLeaderboard},
		{"DYNAMO_TRADES_TABLE", &c.DynamoTrades},
		{"SNS_TOPIC_ARN", &c.SNSTopicARN},
	}

	for _, t := range targets {
		if *t.dst != "" {
			continue
		}
		name := t.name
		if c.SSMPrefix != "" {
			name = path.Join(c.SSMPrefix, t.name)
		}
		v, err := src.Parameter(ctx, name)
		if errors.Is(err, ErrParameterNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("resolve %s: %w", name, err)
		}
		*t.dst = v
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
