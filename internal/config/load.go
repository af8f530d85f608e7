package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load reads a YAML parameter file over the defaults and validates the result.
// An empty path returns the validated defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := Parse(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes YAML into cfg. Keys absent from data keep their current values;
// a present scenarios or strategies list replaces the whole list.
func Parse(data []byte, cfg *Config) error {
	return yaml.Unmarshal(data, cfg)
}

// Marshal encodes cfg as YAML.
func Marshal(cfg Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}

// Overrides is the refreshed-input document produced by the external
// assumption refresh job. It is applied only when QualityGatePassed is true.
type Overrides struct {
	QualityGatePassed bool   `json:"quality_gate_passed"`
	Source            string `json:"source,omitempty"`

	RealRetailGrowthPct *float64 `json:"real_retail_growth_pct,omitempty"`
	HourlyWageEUR       *float64 `json:"hourly_wage_eur,omitempty"`

	Scenarios map[string]ScenarioOverride `json:"scenarios,omitempty"`
}

// ScenarioOverride carries refreshed macro indicators for one scenario.
type ScenarioOverride struct {
	ConsumerClimate *float64 `json:"consumer_climate_index,omitempty"`
	SavingsRatePct  *float64 `json:"savings_rate_percent,omitempty"`
	InflationPct    *float64 `json:"inflation_percent,omitempty"`
}

// ApplyOverridesFile reads an overrides document and applies it to cfg.
// Returns the (possibly) updated config and whether the overrides were applied.
// A document whose quality gate did not pass is rejected and cfg is returned
// unchanged (last-known-good). The result is re-validated.
func ApplyOverridesFile(cfg Config, path string) (Config, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, false, fmt.Errorf("read overrides %s: %w", path, err)
	}
	var ov Overrides
	if err := json.Unmarshal(data, &ov); err != nil {
		return cfg, false, fmt.Errorf("parse overrides %s: %w", path, err)
	}
	return ApplyOverrides(cfg, ov)
}

// ApplyOverrides applies ov to a copy of cfg when its quality gate passed.
func ApplyOverrides(cfg Config, ov Overrides) (Config, bool, error) {
	if !ov.QualityGatePassed {
		return cfg, false, nil
	}

	out := cfg.Clone()
	if ov.RealRetailGrowthPct != nil {
		out.Market.RealRetailGrowthPct = *ov.RealRetailGrowthPct
	}
	if ov.HourlyWageEUR != nil {
		out.Operations.HourlyWageEUR = *ov.HourlyWageEUR
	}
	for i, s := range out.Scenarios {
		so, ok := ov.Scenarios[s.Name]
		if !ok {
			continue
		}
		if so.ConsumerClimate != nil {
			out.Scenarios[i].ConsumerClimate = *so.ConsumerClimate
		}
		if so.SavingsRatePct != nil {
			out.Scenarios[i].SavingsRatePct = *so.SavingsRatePct
		}
		if so.InflationPct != nil {
			out.Scenarios[i].InflationPct = *so.InflationPct
		}
	}

	if err := out.Validate(); err != nil {
		return cfg, false, err
	}
	return out, true, nil
}

// Env holds infrastructure settings taken from the environment.
type Env struct {
	PostgresDSN   string
	ClickhouseDSN string
	LogLevel      string
	LogPretty     bool
	MetricsAddr   string
}

// LoadEnv reads infrastructure settings from the environment,
// loading a .env file first if one exists.
func LoadEnv() Env {
	_ = godotenv.Load()

	return Env{
		PostgresDSN:   getEnv("ENTRYLAB_POSTGRES_DSN", ""),
		ClickhouseDSN: getEnv("ENTRYLAB_CLICKHOUSE_DSN", ""),
		LogLevel:      getEnv("ENTRYLAB_LOG_LEVEL", "info"),
		LogPretty:     getEnvAsBool("ENTRYLAB_LOG_PRETTY", false),
		MetricsAddr:   getEnv("ENTRYLAB_METRICS_ADDR", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
