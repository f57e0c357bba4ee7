package api

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/marketlens/watchstream/internal/model"
)

// ToHolding converts an API holding to the domain type.
func (h APIHolding) ToHolding() (model.Holding, error) {
	id, err := uuid.Parse(h.InstrumentID)
	if err != nil {
		return model.Holding{}, fmt.Errorf("parse instrument_id %q: %w", h.InstrumentID, err)
	}

	return model.Holding{
		InstrumentID:  id,
		Ticker:        h.TickerSymbol,
		DisplayName:   h.DisplayName,
		Quantity:      model.DecCopy(h.Quantity),
		PurchasePrice: model.DecCopy(h.PurchasePrice),
		Memo:          h.Memo,
		Tags:          h.Tags,
	}, nil
}

// ToMarketStatus converts an API market status to the domain type.
func (s *APIMarketStatus) ToMarketStatus() *model.MarketStatus {
	if s == nil {
		return nil
	}
	return &model.MarketStatus{
		IsOpen:         s.IsOpen,
		Reason:         s.Reason,
		LastTradingDay: s.LastTradingDay,
		NextTradingDay: s.NextTradingDay,
	}
}
