package holdings

import (
	"github.com/shopspring/decimal"

	"github.com/marketlens/watchstream/internal/model"
)

var hundred = decimal.NewFromInt(100)

// UnrealizedPL returns (price − purchase) × quantity, or nil when any input
// is absent. Absence is never collapsed to zero: a missing price must not
// read as break-even.
func UnrealizedPL(price, purchase, quantity *decimal.Decimal) *decimal.Decimal {
	if price == nil || purchase == nil || quantity == nil {
		return nil
	}
	pl := price.Sub(*purchase).Mul(*quantity)
	return &pl
}

// ChangePair returns the absolute and percentage change of current versus
// previousClose: ((current − previousClose) / previousClose) × 100. Both are
// nil when either input is absent or previousClose is zero; the pair is
// never NaN or infinite.
func ChangePair(current, previousClose *decimal.Decimal) (change, percent *decimal.Decimal) {
	if current == nil || previousClose == nil || previousClose.IsZero() {
		return nil, nil
	}
	diff := current.Sub(*previousClose)
	pct := diff.Div(*previousClose).Mul(hundred)
	return &diff, &pct
}

// copyView returns a detached copy of v so callers cannot mutate book state
// through the returned value.
func copyView(v *model.HoldingView) model.HoldingView {
	out := *v

	out.Quantity = model.DecCopy(v.Quantity)
	out.PurchasePrice = model.DecCopy(v.PurchasePrice)
	out.Price = model.DecCopy(v.Price)
	out.Change = model.DecCopy(v.Change)
	out.ChangePercent = model.DecCopy(v.ChangePercent)
	out.UnrealizedPL = model.DecCopy(v.UnrealizedPL)

	if v.Tags != nil {
		out.Tags = append([]string(nil), v.Tags...)
	}
	if v.Market != nil {
		m := *v.Market
		out.Market = &m
	}
	return out
}
