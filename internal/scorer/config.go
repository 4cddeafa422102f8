package scorer

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"
)

// Config holds the caller-supplied inputs to the calculators. The score
// thresholds are fixed and are not configurable.
type Config struct {
	UseMarketCap   bool     `json:"use_market_cap" yaml:"use_market_cap" mapstructure:"use_market_cap"`
	MarketCap      *float64 `json:"market_cap,omitempty" yaml:"market_cap,omitempty" mapstructure:"market_cap"`
	BurnGrowthRate *float64 `json:"burn_growth_rate,omitempty" yaml:"burn_growth_rate,omitempty" mapstructure:"burn_growth_rate"`
}

// DefaultConfig returns a Config that prefers market capitalization for the
// Altman equity ratio.
func DefaultConfig() Config {
	return Config{UseMarketCap: true}
}

// ValidateConfig checks that a Config is internally consistent.
func ValidateConfig(c Config) error {
	var errs []string

	if c.MarketCap != nil {
		if math.IsNaN(*c.MarketCap) || math.IsInf(*c.MarketCap, 0) {
			errs = append(errs, "market_cap must be finite")
		} else if *c.MarketCap < 0 {
			errs = append(errs, "market_cap must be >= 0")
		}
	}
	if c.BurnGrowthRate != nil {
		if math.IsNaN(*c.BurnGrowthRate) || math.IsInf(*c.BurnGrowthRate, 0) {
			errs = append(errs, "burn_growth_rate must be finite")
		} else if *c.BurnGrowthRate < -1 {
			errs = append(errs, fmt.Sprintf("burn_growth_rate must be >= -1, got %.2f", *c.BurnGrowthRate))
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("scorer: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// ConfigHash returns a short SHA-256 hash of the config so stored results can
// be tied to the inputs that produced them.
func ConfigHash(c Config) string {
	data, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:16])
}
