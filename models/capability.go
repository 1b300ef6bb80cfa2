package models

// Capability is an explicit permission an actor holds by virtue of its tier.
// Capabilities are derived once from the tier and checked at the boundary
// (middleware, assignment validation) instead of scattering boolean flags
// across documents.
type Capability string

const (
	CapManageChannels Capability = "channels:manage"
	CapManageActors   Capability = "actors:manage"
	CapAssignPricing  Capability = "pricing:assign"
	CapWalletAdjust   Capability = "wallet:adjust"
	CapInitiatePayout Capability = "payout:initiate"
	CapViewHierarchy  Capability = "hierarchy:view"
)

var tierCapabilities = map[Tier][]Capability{
	TierAdmin: {
		CapManageChannels,
		CapManageActors,
		CapAssignPricing,
		CapWalletAdjust,
		CapInitiatePayout,
		CapViewHierarchy,
	},
	TierWhiteLabel: {
		CapManageActors,
		CapAssignPricing,
		CapInitiatePayout,
		CapViewHierarchy,
	},
	TierMasterDistributor: {
		CapManageActors,
		CapAssignPricing,
		CapInitiatePayout,
		CapViewHierarchy,
	},
	TierDistributor: {
		CapManageActors,
		CapAssignPricing,
		CapInitiatePayout,
		CapViewHierarchy,
	},
	TierRetailer: {
		CapInitiatePayout,
	},
}

// CapabilitiesForTier returns the capability set granted to a tier.
func CapabilitiesForTier(t Tier) []Capability {
	return tierCapabilities[t]
}

// HasCapability reports whether tier t grants capability c.
func HasCapability(t Tier, c Capability) bool {
	for _, have := range tierCapabilities[t] {
		if have == c {
			return true
		}
	}
	return false
}
