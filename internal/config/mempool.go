package config

import (
	"github.com/entrypointlabs/uopguard/pkg/entities"
	"github.com/spf13/viper"
)

// NewReputationConstantsFromEnv reads the reputation thresholds entities.Reputation enforces, defaulting
// to the values EIP-4337 reference implementations use.
func NewReputationConstantsFromEnv() *entities.ReputationConstants {
	viper.SetDefault("uopguard_min_unstake_delay", 86400)
	viper.SetDefault("uopguard_min_stake_value", 2000000000000000)
	viper.SetDefault("uopguard_same_sender_mempool_count", 10)
	viper.SetDefault("uopguard_same_unstaked_entity_mempool_count", 11)
	viper.SetDefault("uopguard_throttled_entity_mempool_count", 4)
	viper.SetDefault("uopguard_throttled_entity_live_blocks", 10)
	viper.SetDefault("uopguard_throttled_entity_bundle_count", 10)
	viper.SetDefault("uopguard_min_inclusion_rate_denominator", 10)
	viper.SetDefault("uopguard_throttling_slack", 10)
	viper.SetDefault("uopguard_ban_slack", 50)

	_ = viper.BindEnv("uopguard_min_unstake_delay")
	_ = viper.BindEnv("uopguard_min_stake_value")
	_ = viper.BindEnv("uopguard_same_sender_mempool_count")
	_ = viper.BindEnv("uopguard_same_unstaked_entity_mempool_count")
	_ = viper.BindEnv("uopguard_throttled_entity_mempool_count")
	_ = viper.BindEnv("uopguard_throttled_entity_live_blocks")
	_ = viper.BindEnv("uopguard_throttled_entity_bundle_count")
	_ = viper.BindEnv("uopguard_min_inclusion_rate_denominator")
	_ = viper.BindEnv("uopguard_throttling_slack")
	_ = viper.BindEnv("uopguard_ban_slack")

	return &entities.ReputationConstants{
		MinUnstakeDelay:                viper.GetInt("uopguard_min_unstake_delay"),
		MinStakeValue:                  viper.GetInt64("uopguard_min_stake_value"),
		SameSenderMempoolCount:         viper.GetInt("uopguard_same_sender_mempool_count"),
		SameUnstakedEntityMempoolCount: viper.GetInt("uopguard_same_unstaked_entity_mempool_count"),
		ThrottledEntityMempoolCount:    viper.GetInt("uopguard_throttled_entity_mempool_count"),
		ThrottledEntityLiveBlocks:      viper.GetInt("uopguard_throttled_entity_live_blocks"),
		ThrottledEntityBundleCount:     viper.GetInt("uopguard_throttled_entity_bundle_count"),
		MinInclusionRateDenominator:    viper.GetInt("uopguard_min_inclusion_rate_denominator"),
		ThrottlingSlack:                viper.GetInt("uopguard_throttling_slack"),
		BanSlack:                       viper.GetInt("uopguard_ban_slack"),
	}
}
