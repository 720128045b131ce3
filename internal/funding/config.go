package funding

import "fmt"

// Config carries the funding-pool options recognized by the allocator.
// Unknown keys in the configuration file are ignored; a disabled bonus
// contributes exactly zero.
type Config struct {
	BaseAmount              int64 `mapstructure:"base_amount"`
	RankBonusEnabled        bool  `mapstructure:"rank_bonus_enabled"`
	RankBonusPool           int64 `mapstructure:"rank_bonus_pool"`
	PerformanceBonusEnabled bool  `mapstructure:"performance_bonus_enabled"`
	PerformanceBonusPool    int64 `mapstructure:"performance_bonus_pool"`
}

// Validate rejects negative sat amounts.
func (c Config) Validate() error {
	if c.BaseAmount < 0 {
		return fmt.Errorf("funding.base_amount cannot be negative")
	}
	if c.RankBonusPool < 0 {
		return fmt.Errorf("funding.rank_bonus_pool cannot be negative")
	}
	if c.PerformanceBonusPool < 0 {
		return fmt.Errorf("funding.performance_bonus_pool cannot be negative")
	}
	return nil
}

// NominalTotal is the configured ceiling for a pool of n economies. The
// actual allocated total may undercut it by floor rounding, bounded by n
// sats per enabled bonus term.
func (c Config) NominalTotal(n int) int64 {
	total := c.BaseAmount * int64(n)
	if c.RankBonusEnabled {
		total += c.RankBonusPool
	}
	if c.PerformanceBonusEnabled {
		total += c.PerformanceBonusPool
	}
	return total
}
