package recorder

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marketlens/watchstream/internal/config"
	"github.com/marketlens/watchstream/internal/model"
)

func testConfig() config.RecorderConfig {
	return config.RecorderConfig{
		Enabled:       true,
		BatchSize:     100,
		FlushInterval: time.Hour,
		BufferSize:    10,
	}
}

func TestTransform(t *testing.T) {
	id := uuid.New()
	receivedAt := time.Date(2026, 8, 28, 6, 0, 0, 0, time.UTC)

	price := decimal.RequireFromString("2850.5")
	change := decimal.RequireFromString("50.5")
	pct := decimal.RequireFromString("1.8")

	tick := model.PriceTick{
		InstrumentID:  id,
		Price:         &price,
		Change:        &change,
		ChangePercent: &pct,
		AsOf:          "2026-08-28",
		Market:        &model.MarketStatus{IsOpen: true},
	}

	row := transform("wl-main", &tick, receivedAt)

	if row.InstrumentID != id {
		t.Errorf("InstrumentID = %s, want %s", row.InstrumentID, id)
	}
	if row.Target != "wl-main" {
		t.Errorf("Target = %q, want wl-main", row.Target)
	}
	if row.Price == nil || *row.Price != "2850.5" {
		t.Errorf("Price = %v, want 2850.5", row.Price)
	}
	if row.Change == nil || *row.Change != "50.5" {
		t.Errorf("Change = %v, want 50.5", row.Change)
	}
	if row.ChangePercent == nil || *row.ChangePercent != "1.8" {
		t.Errorf("ChangePercent = %v, want 1.8", row.ChangePercent)
	}
	if row.AsOf == nil || *row.AsOf != "2026-08-28" {
		t.Errorf("AsOf = %v, want 2026-08-28", row.AsOf)
	}
	if row.MarketOpen == nil || !*row.MarketOpen {
		t.Errorf("MarketOpen = %v, want true", row.MarketOpen)
	}
	if row.ReceivedAt != receivedAt.UnixMicro() {
		t.Errorf("ReceivedAt = %d, want %d", row.ReceivedAt, receivedAt.UnixMicro())
	}
}

func TestTransform_AbsentFields(t *testing.T) {
	tick := model.PriceTick{InstrumentID: uuid.New()}

	row := transform("wl-main", &tick, time.Now())

	if row.Price != nil {
		t.Errorf("Price = %v, want nil for absent", row.Price)
	}
	if row.Change != nil {
		t.Errorf("Change = %v, want nil for absent", row.Change)
	}
	if row.ChangePercent != nil {
		t.Errorf("ChangePercent = %v, want nil for absent", row.ChangePercent)
	}
	if row.AsOf != nil {
		t.Errorf("AsOf = %v, want nil for absent", row.AsOf)
	}
	if row.MarketOpen != nil {
		t.Errorf("MarketOpen = %v, want nil for absent", row.MarketOpen)
	}
}

func TestRecorder_Lifecycle(t *testing.T) {
	r := New(config.RecorderConfig{
		BatchSize:     10,
		FlushInterval: 100 * time.Millisecond,
		BufferSize:    10,
	}, nil, nil)

	ctx := context.Background()
	if err := r.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	time.Sleep(20 * time.Millisecond)

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := r.Stop(stopCtx); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}

func TestRecorder_EnqueueAddsToBatch(t *testing.T) {
	r := New(testConfig(), nil, nil)

	ctx := context.Background()
	if err := r.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		// Batch is empty by the time we stop, so the final flush is a no-op
		// and the nil pool is never touched.
		r.batchMu.Lock()
		r.batch = r.batch[:0]
		r.batchMu.Unlock()
		r.Stop(stopCtx)
	}()

	price := decimal.NewFromInt(100)
	r.Enqueue(&model.PriceUpdate{
		TargetID:  "wl-main",
		Ticks:     []model.PriceTick{{InstrumentID: uuid.New(), Price: &price}},
		Timestamp: time.Now(),
	})

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		r.batchMu.Lock()
		n := len(r.batch)
		r.batchMu.Unlock()
		if n == 1 {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("tick never reached the batch")
}

func TestRecorder_EnqueueDropsWhenFull(t *testing.T) {
	cfg := testConfig()
	cfg.BufferSize = 1
	r := New(cfg, nil, nil)
	// Not started: the queue fills and overflow is counted.

	price := decimal.NewFromInt(1)
	update := &model.PriceUpdate{
		TargetID: "wl-main",
		Ticks: []model.PriceTick{
			{InstrumentID: uuid.New(), Price: &price},
			{InstrumentID: uuid.New(), Price: &price},
			{InstrumentID: uuid.New(), Price: &price},
		},
		Timestamp: time.Now(),
	}
	r.Enqueue(update)

	if got := r.Stats().Dropped; got != 2 {
		t.Errorf("Dropped = %d, want 2", got)
	}
}

func TestRecorder_Stats(t *testing.T) {
	r := New(testConfig(), nil, nil)

	stats := r.Stats()

	if stats.Inserts != 0 {
		t.Errorf("initial Inserts = %d, want 0", stats.Inserts)
	}
	if stats.Errors != 0 {
		t.Errorf("initial Errors = %d, want 0", stats.Errors)
	}
	if stats.Flushes != 0 {
		t.Errorf("initial Flushes = %d, want 0", stats.Flushes)
	}
}
