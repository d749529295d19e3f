package risk

import "math/big"

// Tier is the exposure classification of an allowance. Ordering matters:
// higher tiers compare greater and sort first in risk views.
type Tier int

const (
	TierLow Tier = iota
	TierMedium
	TierHigh
)

// String returns the display name for a tier.
func (t Tier) String() string {
	switch t {
	case TierHigh:
		return "HIGH"
	case TierMedium:
		return "MEDIUM"
	default:
		return "LOW"
	}
}

// Rank returns the sort rank of a tier. Rank 0 is reserved for tokens with
// no snapshot yet, so classified tiers start at 1.
func (t Tier) Rank() int {
	return int(t) + 1
}

// Classification is the full classifier output for one raw allowance.
type Classification struct {
	Tier           Tier
	UnlimitedExact bool // raw == 2^256 - 1
	UnlimitedLike  bool // practically unlimited, including the exact case
}

// Policy holds the classification thresholds. The unit thresholds are
// product-level choices, not protocol constants; keep them tunable.
type Policy struct {
	UnlimitedLikePercent int64 // % of max uint256 treated as unlimited-like
	UnlimitedLikeUnits   int64 // whole-token units treated as unlimited-like
	HighUnits            int64
	MediumUnits          int64
}

// DefaultPolicy is the standard threshold set.
var DefaultPolicy = Policy{
	UnlimitedLikePercent: 99,
	UnlimitedLikeUnits:   1_000_000_000,
	HighUnits:            10_000,
	MediumUnits:          1_000,
}

// maxDecimals bounds the unit-threshold conversion: 10^78 exceeds 2^256, so
// any unit threshold at higher decimals is unrepresentable and skipped.
const maxDecimals = 77

// MaxUint256 returns 2^256 - 1, the largest raw allowance an ERC-20 can hold.
func MaxUint256() *big.Int {
	max := new(big.Int).Lsh(big.NewInt(1), 256)
	return max.Sub(max, big.NewInt(1))
}

// Classify maps a raw allowance and the token's decimal count to a tier
// using DefaultPolicy.
func Classify(raw *big.Int, decimals int) Classification {
	return DefaultPolicy.Classify(raw, decimals)
}

// Classify evaluates the policy checks in precedence order; first match wins.
// The two max-value checks never depend on decimals; the unit-threshold
// checks are fail-soft and treated as not met when the threshold cannot be
// represented for the given decimal count.
func (p Policy) Classify(raw *big.Int, decimals int) Classification {
	max := MaxUint256()

	if raw.Cmp(max) == 0 {
		return Classification{Tier: TierHigh, UnlimitedExact: true, UnlimitedLike: true}
	}

	nearMax := new(big.Int).Mul(max, big.NewInt(p.UnlimitedLikePercent))
	nearMax.Div(nearMax, big.NewInt(100))
	if raw.Cmp(nearMax) >= 0 {
		return Classification{Tier: TierHigh, UnlimitedLike: true}
	}

	if t, ok := unitsToRaw(p.UnlimitedLikeUnits, decimals); ok && raw.Cmp(t) >= 0 {
		return Classification{Tier: TierHigh, UnlimitedLike: true}
	}
	if t, ok := unitsToRaw(p.HighUnits, decimals); ok && raw.Cmp(t) >= 0 {
		return Classification{Tier: TierHigh}
	}
	if t, ok := unitsToRaw(p.MediumUnits, decimals); ok && raw.Cmp(t) >= 0 {
		return Classification{Tier: TierMedium}
	}
	return Classification{Tier: TierLow}
}

// unitsToRaw converts whole-token units to a raw threshold (units * 10^decimals).
// Returns ok=false when decimals is out of range or the result exceeds uint256.
func unitsToRaw(units int64, decimals int) (*big.Int, bool) {
	if decimals < 0 || decimals > maxDecimals {
		return nil, false
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	raw := scale.Mul(scale, big.NewInt(units))
	if raw.Cmp(MaxUint256()) > 0 {
		return nil, false
	}
	return raw, true
}
