package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{Addrs: []string{"localhost:6379"}},
		LLM: LLMConfig{
			Primary: "openai",
			Providers: map[string]ProviderConfig{
				"openai": {APIKey: "test-key"},
			},
		},
	}
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0
	assert.Error(t, cfg.Validate())
}

func TestValidate_MissingDatabaseAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Addrs = nil
	assert.Error(t, cfg.Validate())
}

func TestValidate_GraphEnabledWithoutURI(t *testing.T) {
	cfg := validConfig()
	cfg.Graph.Enabled = true
	assert.Error(t, cfg.Validate())
}

func TestValidate_MissingPrimaryProvider(t *testing.T) {
	cfg := validConfig()
	cfg.LLM.Primary = "anthropic"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Equal(t, `llm.providers is missing primary provider "anthropic"`, err.Error())
}

func TestValidate_MissingFallbackProvider(t *testing.T) {
	cfg := validConfig()
	cfg.LLM.Fallback = []string{"anthropic"}
	assert.Error(t, cfg.Validate())
}

func TestValidate_GateThresholdsAboveOne(t *testing.T) {
	cfg := validConfig()
	cfg.Engine.GateMinBest = 1.5
	assert.Error(t, cfg.Validate())
}

func TestValidate_MemoryThresholdAboveOne(t *testing.T) {
	cfg := validConfig()
	cfg.Engine.MemoryThreshold = 1.1
	assert.Error(t, cfg.Validate())
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	assert.Equal(t, 10, cfg.HTTP.ReadTimeoutSec)
	// Streaming answers hold the connection open well past a normal request.
	assert.Equal(t, 120, cfg.HTTP.WriteTimeoutSec)
	assert.Equal(t, 10, cfg.HTTP.ShutdownSec)
	assert.Equal(t, 10, cfg.Database.ReadinessTimeout)
	assert.Equal(t, "openai", cfg.LLM.Primary)
	assert.Equal(t, 30, cfg.LLM.TimeoutSec)
	assert.Equal(t, 60, cfg.Engine.RRFK)
	assert.Equal(t, 10, cfg.Engine.TopK)
	assert.Equal(t, 5, cfg.Engine.AdapterTimeoutSec)
	assert.Equal(t, 0.25, cfg.Engine.GraphWeight)
	assert.Equal(t, 0.35, cfg.Engine.GateMinBest)
	assert.Equal(t, 0.25, cfg.Engine.GateMinAvgTop3)
	assert.Equal(t, 3, cfg.Engine.PlannerMaxDepth)
	assert.Equal(t, 3, cfg.Engine.PlannerMaxChildren)
	assert.Equal(t, 4, cfg.Engine.PlannerMaxParallel)
	assert.Equal(t, 3, cfg.Engine.ConflictWindow)
	assert.Equal(t, 4, cfg.Engine.MaxBranches)
	assert.Equal(t, 5, cfg.Engine.EvidencePerNode)
	assert.Equal(t, 90, cfg.Engine.BudgetSec)
	assert.Equal(t, 0.55, cfg.Engine.MemoryThreshold)
	assert.Equal(t, 3600, cfg.Engine.ClassCacheTTLSec)
	assert.Equal(t, 300, cfg.Engine.ProvCacheTTLSec)
	assert.Equal(t, 60, cfg.Engine.ProvRateLimit)
	assert.Equal(t, 60, cfg.Engine.ProvRateWindowSec)
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:   HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 240, ShutdownSec: 5},
		Engine: EngineConfig{RRFK: 20, TopK: 25, BudgetSec: 30},
	}
	cfg.ApplyDefaults()

	assert.Equal(t, 30, cfg.HTTP.ReadTimeoutSec)
	assert.Equal(t, 240, cfg.HTTP.WriteTimeoutSec)
	assert.Equal(t, 5, cfg.HTTP.ShutdownSec)
	assert.Equal(t, 20, cfg.Engine.RRFK)
	assert.Equal(t, 25, cfg.Engine.TopK)
	assert.Equal(t, 30, cfg.Engine.BudgetSec)
}

func TestExpandEnvVars(t *testing.T) {
	os.Setenv("LEXRAG_TEST_VAR", "secret-value")
	defer os.Unsetenv("LEXRAG_TEST_VAR")

	in := []byte("api_key: ${LEXRAG_TEST_VAR}\nmodel: ${LEXRAG_TEST_MISSING:-gpt-4o-mini}\nempty: ${LEXRAG_TEST_MISSING}")
	out := string(expandEnvVars(in))

	assert.Equal(t, "api_key: secret-value\nmodel: gpt-4o-mini\nempty: ", out)
}
