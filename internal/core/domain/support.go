package domain

import "time"

// SupportTier enumerates the support queues tickets are routed to.
type SupportTier string

const (
	SupportBasic  SupportTier = "basic"
	SupportGrowth SupportTier = "growth"
	SupportScale  SupportTier = "scale"
)

// SupportLevel carries the service attributes of a support tier. Response SLA
// and channel availability hang off the derived tier, not the subscription
// tier directly.
type SupportLevel struct {
	Tier          SupportTier
	FirstResponse time.Duration
	LiveChat      bool
	Phone         bool
}

var supportLevels = map[SupportTier]SupportLevel{
	SupportBasic:  {Tier: SupportBasic, FirstResponse: 24 * time.Hour},
	SupportGrowth: {Tier: SupportGrowth, FirstResponse: 12 * time.Hour, LiveChat: true},
	SupportScale:  {Tier: SupportScale, FirstResponse: 4 * time.Hour, LiveChat: true, Phone: true},
}

// SupportTierFor maps a subscription tier to its support queue.
func SupportTierFor(tier SubscriptionTier) SupportTier {
	switch tier {
	case TierGrowth:
		return SupportGrowth
	case TierScale, TierWhiteLabel, TierCustom:
		return SupportScale
	default:
		return SupportBasic
	}
}

// SupportLevelFor returns the full support level attributes for a
// subscription tier.
func SupportLevelFor(tier SubscriptionTier) SupportLevel {
	return supportLevels[SupportTierFor(tier)]
}
