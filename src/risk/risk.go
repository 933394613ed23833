package risk

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Legiang98/hyperliquid-trading/src/model"
)

const (
	// MaxSignificantFigures is the exchange limit on price precision.
	MaxSignificantFigures = 5
	// MaxPriceDecimals bounds price decimals together with the asset's
	// size decimals: a price may carry at most (6 - szDecimals) decimals.
	MaxPriceDecimals = 6
)

// ComputeOrderSize returns the raw position size for a fixed USD risk
// budget: riskUSD / |price - stopLoss|. The resulting position loses
// exactly riskUSD when the stop is hit, independent of stop distance.
func ComputeOrderSize(riskUSD, price, stopLoss decimal.Decimal) (decimal.Decimal, error) {
	if riskUSD.Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("risk amount must be positive, got %s", riskUSD)
	}

	distance := price.Sub(stopLoss).Abs()
	if distance.IsZero() {
		return decimal.Zero, fmt.Errorf("stop loss equals price %s, cannot size order", price)
	}

	return riskUSD.Div(distance), nil
}

// NormalizeOrderSize truncates a raw size down to the asset's allowed
// size-decimal precision. Always floors, never rounds up, so the order
// can never exceed the sized risk.
func NormalizeOrderSize(size decimal.Decimal, szDecimals int) decimal.Decimal {
	if szDecimals < 0 {
		szDecimals = 0
	}
	return size.Truncate(int32(szDecimals))
}

// NormalizePrice truncates a price onto the exchange tick grid: at most
// MaxSignificantFigures significant figures and at most
// (MaxPriceDecimals - szDecimals) decimal places, whichever is stricter.
// Truncation always floors so the result stays on an accepted tick.
func NormalizePrice(price decimal.Decimal, szDecimals int) decimal.Decimal {
	if price.Sign() <= 0 {
		return decimal.Zero
	}

	maxDecimals := MaxPriceDecimals - szDecimals
	if maxDecimals < 0 {
		maxDecimals = 0
	}

	sigDecimals := MaxSignificantFigures - msdExponent(price) - 1
	if sigDecimals < 0 {
		sigDecimals = 0
	}

	allowed := sigDecimals
	if maxDecimals < allowed {
		allowed = maxDecimals
	}

	return price.Truncate(int32(allowed))
}

// msdExponent returns the power of ten of a positive price's most
// significant digit, e.g. 2 for 950.1 and -4 for 0.00012.
func msdExponent(price decimal.Decimal) int {
	s := price.String()

	dot := strings.IndexByte(s, '.')
	if dot < 0 {
		return len(s) - 1
	}
	if s[0] != '0' {
		return dot - 1
	}

	for i := dot + 1; i < len(s); i++ {
		if s[i] != '0' {
			return dot - i
		}
	}
	return 0
}

// LiquidationPrice returns the price at which a leveraged position is
// forcibly closed. With margin = entry * size / leverage, the position
// liquidates at entry -/+ margin/size, i.e. one full leverage fraction
// away from entry against the position direction.
func LiquidationPrice(side model.Side, entry, size decimal.Decimal, leverage int) decimal.Decimal {
	if leverage <= 0 || size.Sign() <= 0 {
		return decimal.Zero
	}

	margin := entry.Mul(size).Div(decimal.NewFromInt(int64(leverage)))
	step := margin.Div(size)

	if side == model.SideBuy {
		return entry.Sub(step)
	}
	return entry.Add(step)
}

// ValidateStopLoss checks stop-loss ordering relative to the entry price:
// below price for a long, above price for a short.
func ValidateStopLoss(side model.Side, price, stopLoss decimal.Decimal) bool {
	if stopLoss.Sign() <= 0 || price.Sign() <= 0 {
		return false
	}

	if side == model.SideBuy {
		return stopLoss.LessThan(price)
	}
	return stopLoss.GreaterThan(price)
}

// ValidateStopAgainstLiquidation checks that the stop-loss lies strictly
// beyond the liquidation price, so the stop always triggers before the
// exchange force-closes the position.
func ValidateStopAgainstLiquidation(side model.Side, stopLoss, liquidation decimal.Decimal) bool {
	if side == model.SideBuy {
		return stopLoss.GreaterThan(liquidation)
	}
	return stopLoss.LessThan(liquidation)
}
