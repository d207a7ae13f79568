// Package commission implements the tiered revenue-split arithmetic shared by
// the analytics reporter and the payout processor. It is pure computation:
// no I/O, no clocks, no stores.
package commission

import "github.com/shopspring/decimal"

// Tier is the plan tier a franchise has subscribed to.
type Tier string

// Known plan tiers.
const (
	TierFree     Tier = "free"
	TierStandard Tier = "standard"
	TierPremium  Tier = "premium"
	TierElite    Tier = "elite"
)

// PlatformChargePerOrder is a flat per-delivered-order charge in currency
// units. It is intentionally not tier dependent; the rate table is.
var PlatformChargePerOrder = decimal.NewFromInt(7)

// companyShareRates maps each tier to the fraction of admin commission the
// company retains. The franchise keeps the complement.
var companyShareRates = map[Tier]decimal.Decimal{
	TierFree:     decimal.NewFromFloat(0.70),
	TierStandard: decimal.NewFromFloat(0.60),
	TierPremium:  decimal.NewFromFloat(0.50),
	TierElite:    decimal.NewFromFloat(0.30),
}

// ParseTier normalizes a stored plan string. Unknown or empty values resolve
// to the free tier, the most conservative split; tier lookup never fails.
func ParseTier(s string) Tier {
	t := Tier(s)
	if _, ok := companyShareRates[t]; ok {
		return t
	}
	return TierFree
}

// CompanyShareRate returns the company's fraction of admin commission for the
// tier, defaulting to the free tier's rate for unknown tiers.
func CompanyShareRate(t Tier) decimal.Decimal {
	if rate, ok := companyShareRates[t]; ok {
		return rate
	}
	return companyShareRates[TierFree]
}

// FranchiseShareRate is the complement of CompanyShareRate.
func FranchiseShareRate(t Tier) decimal.Decimal {
	return decimal.NewFromInt(1).Sub(CompanyShareRate(t))
}

// CompanyShare computes the company's revenue figure for an aggregate:
//
//	adminCommissionTotal * rate(tier) + deliveredOrders * PlatformChargePerOrder
func CompanyShare(t Tier, adminCommissionTotal decimal.Decimal, deliveredOrders int64) decimal.Decimal {
	charges := PlatformChargePerOrder.Mul(decimal.NewFromInt(deliveredOrders))
	return adminCommissionTotal.Mul(CompanyShareRate(t)).Add(charges)
}

// FranchiseNet computes what the franchise is owed: its share of the admin
// commission less the per-order platform charges. Negative results clamp to
// zero for presentation; a franchise is never billed by the reporting layer.
func FranchiseNet(t Tier, adminCommissionTotal decimal.Decimal, deliveredOrders int64) decimal.Decimal {
	charges := PlatformChargePerOrder.Mul(decimal.NewFromInt(deliveredOrders))
	net := adminCommissionTotal.Mul(FranchiseShareRate(t)).Sub(charges)
	if net.IsNegative() {
		return decimal.Zero
	}
	return net
}
