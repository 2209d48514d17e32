package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultChainlistURL is the public chain directory (chainid.network).
const DefaultChainlistURL = "https://chainid.network/chains_mini.json"

type Config struct {
	ChainlistURL     string
	RPCURLs          []string // 静态候选列表，设置后跳过 chainlist
	ProbeTimeout     time.Duration
	ProbeConcurrency int
	ProbeRPS         int
	VerifyChainID    bool
	LogLevel         string
	LogFormat        string
	MetricsAddr      string

	// Credentials is the environment snapshot taken at Load time.
	Credentials Credentials
}

// Load reads the process configuration once. The optional .env file is merged
// into the environment before the credential snapshot is taken.
func Load() *Config {
	_ = godotenv.Load() // .env文件是可选的

	var rpcURLs []string
	if raw := getEnv("RPC_URLS", ""); raw != "" {
		for _, url := range strings.Split(raw, ",") {
			if url = strings.TrimSpace(url); url != "" {
				rpcURLs = append(rpcURLs, url)
			}
		}
	}

	timeoutSeconds := getEnvAsInt64("PROBE_TIMEOUT_SECONDS", 10)
	if timeoutSeconds <= 0 {
		log.Printf("Invalid PROBE_TIMEOUT_SECONDS: %d, using default 10", timeoutSeconds)
		timeoutSeconds = 10
	}

	concurrency := getEnvAsInt64("PROBE_CONCURRENCY", 8)
	if concurrency <= 0 {
		concurrency = 8
	}

	return &Config{
		ChainlistURL:     getEnv("CHAINLIST_URL", DefaultChainlistURL),
		RPCURLs:          rpcURLs,
		ProbeTimeout:     time.Duration(timeoutSeconds) * time.Second,
		ProbeConcurrency: int(concurrency),
		ProbeRPS:         int(getEnvAsInt64("PROBE_RPS", 0)),
		VerifyChainID:    getEnvAsBool("VERIFY_CHAIN_ID", false),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "json"),
		MetricsAddr:      getEnv("METRICS_ADDR", ""),
		Credentials:      SnapshotEnv(),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		log.Printf("Invalid %s: %s, using default %d", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Invalid %s: %s, using default %t", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}
