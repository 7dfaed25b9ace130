// Package fees computes the deterministic platform/affiliate fee split
// applied to every submitted trade order.
//
// Basis points stay integers until the final rounding step; the only
// decimal conversions are the two bps/10000 divisions, each rounded to
// six places. This keeps repeated percentage math free of accumulated
// binary floating-point error.
package fees

import "github.com/shopspring/decimal"

// feePrecision is the rounding scale for all fee amounts.
const feePrecision = 6

var bpsDenominator = decimal.NewFromInt(10000)

// Split is the outcome of a fee computation. AffiliateFee + ForkFee
// reconstruct TotalFee within 1e-6.
type Split struct {
	// TotalFee is the fee rate charged for the trade. The factor of 2
	// inside ComputeSplit charges both legs of a matched trade.
	TotalFee decimal.Decimal

	// AffiliateFee is the portion routed to the referring user. Zero
	// when no affiliate resolves.
	AffiliateFee decimal.Decimal

	// ForkFee is the platform's share: the remainder after the
	// affiliate cut, clamped at zero.
	ForkFee decimal.Decimal
}

// ComputeSplit derives the fee split from basis-point configuration and
// whether an affiliate resolved for the trading user.
func ComputeSplit(tradeFeeBps, affiliateShareBps int64, hasAffiliate bool) Split {
	// totalFee = round(2 * tradeFeeBps / 10000, 6)
	totalFee := decimal.NewFromInt(2 * tradeFeeBps).
		Div(bpsDenominator).
		Round(feePrecision)

	if !hasAffiliate {
		return Split{
			TotalFee:     totalFee,
			AffiliateFee: decimal.Zero,
			ForkFee:      totalFee,
		}
	}

	// affiliateFee = round(totalFee * affiliateShareBps / 10000, 6)
	affiliateFee := totalFee.
		Mul(decimal.NewFromInt(affiliateShareBps)).
		Div(bpsDenominator).
		Round(feePrecision)

	// The clamp guards against a negative remainder from rounding,
	// which would corrupt accounting downstream.
	forkFee := totalFee.Sub(affiliateFee).Round(feePrecision)
	if forkFee.IsNegative() {
		forkFee = decimal.Zero
	}

	return Split{
		TotalFee:     totalFee,
		AffiliateFee: affiliateFee,
		ForkFee:      forkFee,
	}
}
