// Package config loads the lexrag YAML configuration with ${VAR} and
// ${VAR:-default} environment expansion.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the lexrag API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Graph     GraphConfig     `yaml:"graph"`
	LLM       LLMConfig       `yaml:"llm"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Engine    EngineConfig    `yaml:"engine"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds key-value store connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// GraphConfig holds graph store settings. Disabled when URI is empty.
type GraphConfig struct {
	Enabled  bool   `yaml:"enabled"`
	URI      string `yaml:"uri"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// ProviderConfig holds one model provider's credentials.
type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// LLMConfig holds language model settings. Fallback lists the provider
// names tried in order after the primary.
type LLMConfig struct {
	Primary    string                    `yaml:"primary"`
	Fallback   []string                  `yaml:"fallback"`
	Providers  map[string]ProviderConfig `yaml:"providers"`
	TimeoutSec int                       `yaml:"timeout_sec"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"`
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

// EngineConfig holds the retrieval and reasoning tunables.
type EngineConfig struct {
	RRFK              int     `yaml:"rrf_k"`
	TopK              int     `yaml:"top_k"`
	AdapterTimeoutSec int     `yaml:"adapter_timeout_sec"`
	GraphWeight       float64 `yaml:"graph_weight"`
	IncludeGraph      bool    `yaml:"include_graph"`

	GateMinBest    float64 `yaml:"gate_min_best"`
	GateMinAvgTop3 float64 `yaml:"gate_min_avg_top3"`

	PlannerMaxDepth    int `yaml:"planner_max_depth"`
	PlannerMaxChildren int `yaml:"planner_max_children"`
	PlannerMaxParallel int `yaml:"planner_max_parallel"`

	ConflictWindow int `yaml:"conflict_window"`

	MaxBranches     int `yaml:"max_branches"`
	EvidencePerNode int `yaml:"evidence_per_node"`
	BudgetSec       int `yaml:"budget_sec"`

	MemoryThreshold float64 `yaml:"memory_similarity_threshold"`
	ReuseMemory     bool    `yaml:"reuse_memory"`
	AllowLLMClass   bool    `yaml:"allow_llm_classification"`
	AbstainOnGap    bool    `yaml:"abstain_on_insufficient"`

	ClassCacheTTLSec  int `yaml:"class_cache_ttl_sec"`
	ProvCacheTTLSec   int `yaml:"provider_cache_ttl_sec"`
	ProvRateLimit     int `yaml:"provider_rate_limit"`
	ProvRateWindowSec int `yaml:"provider_rate_window_sec"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		// Streaming answers hold the connection open well past a normal
		// request.
		c.HTTP.WriteTimeoutSec = 120
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.LLM.Primary == "" {
		c.LLM.Primary = "openai"
	}
	if c.LLM.TimeoutSec <= 0 {
		c.LLM.TimeoutSec = 30
	}
	if c.Engine.RRFK <= 0 {
		c.Engine.RRFK = 60
	}
	if c.Engine.TopK <= 0 {
		c.Engine.TopK = 10
	}
	if c.Engine.AdapterTimeoutSec <= 0 {
		c.Engine.AdapterTimeoutSec = 5
	}
	if c.Engine.GraphWeight <= 0 {
		c.Engine.GraphWeight = 0.25
	}
	if c.Engine.GateMinBest <= 0 {
		c.Engine.GateMinBest = 0.35
	}
	if c.Engine.GateMinAvgTop3 <= 0 {
		c.Engine.GateMinAvgTop3 = 0.25
	}
	if c.Engine.PlannerMaxDepth <= 0 {
		c.Engine.PlannerMaxDepth = 3
	}
	if c.Engine.PlannerMaxChildren <= 0 {
		c.Engine.PlannerMaxChildren = 3
	}
	if c.Engine.PlannerMaxParallel <= 0 {
		c.Engine.PlannerMaxParallel = 4
	}
	if c.Engine.ConflictWindow <= 0 {
		c.Engine.ConflictWindow = 3
	}
	if c.Engine.MaxBranches <= 0 {
		c.Engine.MaxBranches = 4
	}
	if c.Engine.EvidencePerNode <= 0 {
		c.Engine.EvidencePerNode = 5
	}
	if c.Engine.BudgetSec <= 0 {
		c.Engine.BudgetSec = 90
	}
	if c.Engine.MemoryThreshold <= 0 {
		c.Engine.MemoryThreshold = 0.55
	}
	if c.Engine.ClassCacheTTLSec <= 0 {
		c.Engine.ClassCacheTTLSec = 3600
	}
	if c.Engine.ProvCacheTTLSec <= 0 {
		c.Engine.ProvCacheTTLSec = 300
	}
	if c.Engine.ProvRateLimit <= 0 {
		c.Engine.ProvRateLimit = 60
	}
	if c.Engine.ProvRateWindowSec <= 0 {
		c.Engine.ProvRateWindowSec = 60
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if c.Graph.Enabled && c.Graph.URI == "" {
		return fmt.Errorf("graph.uri is required when graph is enabled")
	}
	if _, ok := c.LLM.Providers[c.LLM.Primary]; !ok {
		return fmt.Errorf("llm.providers is missing primary provider %q", c.LLM.Primary)
	}
	for _, name := range c.LLM.Fallback {
		if _, ok := c.LLM.Providers[name]; !ok {
			return fmt.Errorf("llm.providers is missing fallback provider %q", name)
		}
	}
	if c.Engine.GateMinBest > 1 || c.Engine.GateMinAvgTop3 > 1 {
		return fmt.Errorf("gate thresholds must not exceed 1.0")
	}
	if c.Engine.MemoryThreshold > 1 {
		return fmt.Errorf("engine.memory_similarity_threshold must not exceed 1.0")
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
