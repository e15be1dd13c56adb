package config

import (
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// TierLevel is one membership level as declared in tiers.yml. Price is a
// decimal string; parsing into minor units happens when the catalog is
// built so a bad price degrades the whole catalog rather than panicking
// here.
type TierLevel struct {
	Name       string  `mapstructure:"name"`
	Tier       int     `mapstructure:"tier"`
	RoleIDs    []int64 `mapstructure:"roleIds"`
	Commission int64   `mapstructure:"commission"`
	Price      string  `mapstructure:"price"`
}

// LoadTierLevels reads the tier catalog from tiers.yml. A missing or
// malformed file is not fatal: the bot runs with no paid tiers and logs
// a warning.
func LoadTierLevels(log *zap.Logger) []TierLevel {
	v := viper.New()

	v.SetConfigName("tiers")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/commissionbot")
	v.AddConfigPath(".")

	v.SetEnvPrefix("COMMISSIONBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Warn("tier catalog file not found; running with no paid tiers")
		} else {
			log.Warn("tier catalog unreadable; running with no paid tiers", zap.Error(err))
		}
		return nil
	}

	var levels []TierLevel
	if err := v.UnmarshalKey("tiers", &levels); err != nil {
		log.Warn("tier catalog malformed; running with no paid tiers", zap.Error(err))
		return nil
	}
	return levels
}
