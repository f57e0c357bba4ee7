package holdings

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/marketlens/watchstream/internal/model"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestUnrealizedPL(t *testing.T) {
	t.Run("all present", func(t *testing.T) {
		pl := UnrealizedPL(dec("2850.5"), dec("2800.0"), dec("100"))
		if pl == nil {
			t.Fatal("UnrealizedPL = nil, want 5050")
		}
		if !pl.Equal(decimal.RequireFromString("5050")) {
			t.Errorf("UnrealizedPL = %s, want 5050", pl)
		}
	})

	t.Run("zero P&L is present, not absent", func(t *testing.T) {
		pl := UnrealizedPL(dec("2800"), dec("2800"), dec("100"))
		if pl == nil {
			t.Fatal("UnrealizedPL = nil, want 0")
		}
		if !pl.IsZero() {
			t.Errorf("UnrealizedPL = %s, want 0", pl)
		}
	})

	t.Run("any absent input", func(t *testing.T) {
		cases := []struct {
			name                 string
			price, purchase, qty *decimal.Decimal
		}{
			{"no price", nil, dec("2800"), dec("100")},
			{"no purchase", dec("2850.5"), nil, dec("100")},
			{"no quantity", dec("2850.5"), dec("2800"), nil},
		}
		for _, tc := range cases {
			if pl := UnrealizedPL(tc.price, tc.purchase, tc.qty); pl != nil {
				t.Errorf("%s: UnrealizedPL = %s, want nil", tc.name, pl)
			}
		}
	})
}

func TestChangePair(t *testing.T) {
	t.Run("computed", func(t *testing.T) {
		change, pct := ChangePair(dec("102"), dec("100"))
		if change == nil || pct == nil {
			t.Fatal("pair absent, want values")
		}
		if !change.Equal(decimal.NewFromInt(2)) {
			t.Errorf("change = %s, want 2", change)
		}
		if !pct.Equal(decimal.NewFromInt(2)) {
			t.Errorf("percent = %s, want 2", pct)
		}
	})

	t.Run("zero previous close", func(t *testing.T) {
		change, pct := ChangePair(dec("102"), dec("0"))
		if change != nil || pct != nil {
			t.Errorf("pair = (%v, %v), want absent", change, pct)
		}
	})

	t.Run("absent inputs", func(t *testing.T) {
		if change, pct := ChangePair(nil, dec("100")); change != nil || pct != nil {
			t.Error("absent current should yield absent pair")
		}
		if change, pct := ChangePair(dec("102"), nil); change != nil || pct != nil {
			t.Error("absent previous close should yield absent pair")
		}
	})
}

func TestCopyView_Detaches(t *testing.T) {
	src := &model.HoldingView{
		Holding: model.Holding{
			Quantity: dec("10"),
			Tags:     []string{"a"},
		},
		Price:  dec("100"),
		Market: &model.MarketStatus{IsOpen: true},
	}

	cp := copyView(src)
	*cp.Price = decimal.NewFromInt(999)
	cp.Tags[0] = "mutated"
	cp.Market.IsOpen = false

	if !src.Price.Equal(decimal.NewFromInt(100)) {
		t.Error("copy shares Price with source")
	}
	if src.Tags[0] != "a" {
		t.Error("copy shares Tags with source")
	}
	if !src.Market.IsOpen {
		t.Error("copy shares Market with source")
	}
}
