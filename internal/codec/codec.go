// Package codec decodes inbound stream frames into typed price updates.
//
// A bad frame is rejected with an error and otherwise has no effect: the
// connection stays up, and only transport-level failures touch connection
// state.
package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marketlens/watchstream/internal/model"
)

// Errors
var (
	ErrMalformed      = errors.New("malformed frame")
	ErrUnexpectedType = errors.New("unexpected frame type")
)

// TypePriceUpdate is the frame discriminant the decoder accepts.
const TypePriceUpdate = "price_update"

type wireFrame struct {
	Type      string     `json:"type"`
	TargetID  string     `json:"target_id"`
	Ticks     []wireTick `json:"ticks"`
	Timestamp time.Time  `json:"timestamp"`
}

type wireTick struct {
	InstrumentID  string            `json:"instrument_id"`
	DisplayName   string            `json:"display_name"`
	Price         *decimal.Decimal  `json:"price"`
	Change        *decimal.Decimal  `json:"change"`
	ChangePercent *decimal.Decimal  `json:"change_percent"`
	AsOfDate      string            `json:"as_of_date"`
	MarketStatus  *wireMarketStatus `json:"market_status"`
}

type wireMarketStatus struct {
	IsOpen         bool   `json:"is_open"`
	Reason         string `json:"reason"`
	LastTradingDay string `json:"last_trading_day"`
	NextTradingDay string `json:"next_trading_day"`
}

// Decode parses one raw text frame into a PriceUpdate. The ticks in the
// result are a full replacement for the instruments they name, in server
// order.
func Decode(data []byte) (*model.PriceUpdate, error) {
	var frame wireFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if frame.Type != TypePriceUpdate {
		return nil, fmt.Errorf("%w: %q", ErrUnexpectedType, frame.Type)
	}

	update := &model.PriceUpdate{
		TargetID:  frame.TargetID,
		Ticks:     make([]model.PriceTick, 0, len(frame.Ticks)),
		Timestamp: frame.Timestamp,
	}

	for i, wt := range frame.Ticks {
		id, err := uuid.Parse(wt.InstrumentID)
		if err != nil {
			return nil, fmt.Errorf("%w: tick %d instrument_id %q: %v", ErrMalformed, i, wt.InstrumentID, err)
		}

		tick := model.PriceTick{
			InstrumentID:  id,
			DisplayName:   wt.DisplayName,
			Price:         model.DecCopy(wt.Price),
			Change:        model.DecCopy(wt.Change),
			ChangePercent: model.DecCopy(wt.ChangePercent),
			AsOf:          wt.AsOfDate,
		}
		if wt.MarketStatus != nil {
			tick.Market = &model.MarketStatus{
				IsOpen:         wt.MarketStatus.IsOpen,
				Reason:         wt.MarketStatus.Reason,
				LastTradingDay: wt.MarketStatus.LastTradingDay,
				NextTradingDay: wt.MarketStatus.NextTradingDay,
			}
		}
		update.Ticks = append(update.Ticks, tick)
	}

	return update, nil
}
