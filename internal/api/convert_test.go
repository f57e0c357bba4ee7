package api

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestAPIHolding_ToHolding(t *testing.T) {
	id := uuid.New()
	qty := decimal.NewFromInt(25)

	h := APIHolding{
		InstrumentID: id.String(),
		TickerSymbol: "6758.T",
		DisplayName:  "Sony Group",
		Quantity:     &qty,
		Memo:         "earnings play",
		Tags:         []string{"tech"},
	}

	holding, err := h.ToHolding()
	if err != nil {
		t.Fatalf("ToHolding failed: %v", err)
	}

	if holding.InstrumentID != id {
		t.Errorf("InstrumentID = %v, want %v", holding.InstrumentID, id)
	}
	if holding.Quantity == nil || !holding.Quantity.Equal(qty) {
		t.Errorf("Quantity = %v, want %s", holding.Quantity, qty)
	}
	if holding.Quantity == &qty {
		t.Error("Quantity should be a copy, not the wire pointer")
	}
	if holding.PurchasePrice != nil {
		t.Error("PurchasePrice should stay nil")
	}
}

func TestAPIHolding_ToHolding_BadID(t *testing.T) {
	h := APIHolding{InstrumentID: "nope"}
	if _, err := h.ToHolding(); err == nil {
		t.Fatal("expected error for malformed instrument_id")
	}
}

func TestAPIMarketStatus_ToMarketStatus(t *testing.T) {
	if got := (*APIMarketStatus)(nil).ToMarketStatus(); got != nil {
		t.Errorf("nil status = %v, want nil", got)
	}

	s := &APIMarketStatus{
		IsOpen:         false,
		Reason:         "weekend",
		LastTradingDay: "2026-08-28",
		NextTradingDay: "2026-08-31",
	}
	got := s.ToMarketStatus()
	if got.IsOpen || got.Reason != "weekend" || got.NextTradingDay != "2026-08-31" {
		t.Errorf("unexpected conversion: %+v", got)
	}
}
