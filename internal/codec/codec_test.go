package codec

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestDecode_PriceUpdate(t *testing.T) {
	id := uuid.New()
	raw := fmt.Sprintf(`{
		"type": "price_update",
		"target_id": "wl-1",
		"timestamp": "2026-08-28T06:00:00Z",
		"ticks": [
			{
				"instrument_id": %q,
				"display_name": "Toyota Motor",
				"price": "2850.5",
				"change": "50.5",
				"change_percent": "1.8036",
				"as_of_date": "2026-08-28",
				"market_status": {
					"is_open": true,
					"last_trading_day": "2026-08-28",
					"next_trading_day": "2026-08-31"
				}
			},
			{
				"instrument_id": %q,
				"display_name": "Delisted Corp",
				"price": null,
				"as_of_date": "2026-08-28"
			}
		]
	}`, id, uuid.New())

	update, err := Decode([]byte(raw))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if update.TargetID != "wl-1" {
		t.Errorf("TargetID = %q, want %q", update.TargetID, "wl-1")
	}
	if !update.Timestamp.Equal(time.Date(2026, 8, 28, 6, 0, 0, 0, time.UTC)) {
		t.Errorf("Timestamp = %v", update.Timestamp)
	}
	if len(update.Ticks) != 2 {
		t.Fatalf("got %d ticks, want 2", len(update.Ticks))
	}

	first := update.Ticks[0]
	if first.InstrumentID != id {
		t.Errorf("InstrumentID = %v, want %v", first.InstrumentID, id)
	}
	if first.Price == nil || !first.Price.Equal(decimal.NewFromFloat(2850.5)) {
		t.Errorf("Price = %v, want 2850.5", first.Price)
	}
	if first.Market == nil || !first.Market.IsOpen {
		t.Errorf("Market = %+v, want open", first.Market)
	}

	second := update.Ticks[1]
	if second.Price != nil || second.Change != nil || second.ChangePercent != nil {
		t.Errorf("absent price should decode to nil trio, got %v/%v/%v",
			second.Price, second.Change, second.ChangePercent)
	}
	if second.Market != nil {
		t.Errorf("Market = %+v, want nil", second.Market)
	}
}

func TestDecode_RejectsMalformed(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want error
	}{
		{"not json", `{{{`, ErrMalformed},
		{"wrong type", `{"type":"heartbeat"}`, ErrUnexpectedType},
		{"missing type", `{"target_id":"wl-1"}`, ErrUnexpectedType},
		{"bad instrument id", `{"type":"price_update","ticks":[{"instrument_id":"nope"}]}`, ErrMalformed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode([]byte(tc.raw))
			if !errors.Is(err, tc.want) {
				t.Errorf("Decode error = %v, want %v", err, tc.want)
			}
		})
	}
}
