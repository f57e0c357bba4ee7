package recorder

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/marketlens/watchstream/internal/config"
	"github.com/marketlens/watchstream/internal/model"
)

// Metrics counts recorder activity since start.
type Metrics struct {
	Inserts   int64
	Conflicts int64
	Flushes   int64
	Errors    int64
	Dropped   int64
}

// tickRow is the stored form of one applied tick. Decimal columns travel as
// strings so NUMERIC keeps full precision; nil means SQL NULL.
type tickRow struct {
	InstrumentID  uuid.UUID
	Target        string
	Price         *string
	Change        *string
	ChangePercent *string
	AsOf          *string
	MarketOpen    *bool
	ReceivedAt    int64 // unix micros
}

// Recorder consumes price updates and writes them to the price_ticks table.
type Recorder struct {
	cfg    config.RecorderConfig
	logger *slog.Logger

	input chan tickRow

	db *pgxpool.Pool

	batch       []tickRow
	batchMu     sync.Mutex
	flushTicker *time.Ticker

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	metrics Metrics
}

// New creates a Recorder writing to the given pool.
func New(cfg config.RecorderConfig, db *pgxpool.Pool, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		cfg:    cfg,
		db:     db,
		logger: logger,
		input:  make(chan tickRow, cfg.BufferSize),
		batch:  make([]tickRow, 0, cfg.BatchSize),
	}
}

// Start begins consuming ticks and writing to the database.
func (r *Recorder) Start(ctx context.Context) error {
	r.ctx, r.cancel = context.WithCancel(ctx)
	r.flushTicker = time.NewTicker(r.cfg.FlushInterval)

	r.wg.Add(1)
	go r.consumeLoop()

	r.wg.Add(1)
	go r.flushLoop()

	r.logger.Info("recorder started",
		"batch_size", r.cfg.BatchSize,
		"flush_interval", r.cfg.FlushInterval,
	)
	return nil
}

// Stop gracefully shuts down the recorder.
func (r *Recorder) Stop(ctx context.Context) error {
	r.logger.Info("stopping recorder")

	if r.cancel != nil {
		r.cancel()
	}

	if r.flushTicker != nil {
		r.flushTicker.Stop()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("recorder stopped")
	case <-ctx.Done():
		r.logger.Warn("recorder stop timed out")
	}

	// Final flush
	r.flush()

	return nil
}

// Enqueue accepts a decoded price update for persistence. Never blocks;
// ticks are dropped when the queue is full.
func (r *Recorder) Enqueue(update *model.PriceUpdate) {
	receivedAt := update.Timestamp
	if receivedAt.IsZero() {
		receivedAt = time.Now()
	}

	for i := range update.Ticks {
		row := transform(update.TargetID, &update.Ticks[i], receivedAt)
		select {
		case r.input <- row:
		default:
			r.batchMu.Lock()
			r.metrics.Dropped++
			r.batchMu.Unlock()
			r.logger.Warn("recorder queue full, dropping tick",
				"instrument_id", row.InstrumentID,
			)
		}
	}
}

// Stats returns current metrics.
func (r *Recorder) Stats() Metrics {
	r.batchMu.Lock()
	defer r.batchMu.Unlock()
	return r.metrics
}

func (r *Recorder) consumeLoop() {
	defer r.wg.Done()

	for {
		select {
		case <-r.ctx.Done():
			return
		case row := <-r.input:
			r.handleRow(row)
		}
	}
}

func (r *Recorder) flushLoop() {
	defer r.wg.Done()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-r.flushTicker.C:
			r.flush()
		}
	}
}

func (r *Recorder) handleRow(row tickRow) {
	r.batchMu.Lock()
	r.batch = append(r.batch, row)
	shouldFlush := len(r.batch) >= r.cfg.BatchSize
	r.batchMu.Unlock()

	if shouldFlush {
		r.flush()
	}
}

// transform converts one tick to its stored row.
func transform(target string, tick *model.PriceTick, receivedAt time.Time) tickRow {
	row := tickRow{
		InstrumentID:  tick.InstrumentID,
		Target:        target,
		Price:         decString(tick.Price),
		Change:        decString(tick.Change),
		ChangePercent: decString(tick.ChangePercent),
		ReceivedAt:    receivedAt.UnixMicro(),
	}
	if tick.AsOf != "" {
		asOf := tick.AsOf
		row.AsOf = &asOf
	}
	if tick.Market != nil {
		open := tick.Market.IsOpen
		row.MarketOpen = &open
	}
	return row
}

func decString(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

// flush writes the current batch to the database.
func (r *Recorder) flush() {
	r.batchMu.Lock()
	if len(r.batch) == 0 {
		r.batchMu.Unlock()
		return
	}

	// Take ownership of current batch
	batch := r.batch
	r.batch = make([]tickRow, 0, r.cfg.BatchSize)
	r.batchMu.Unlock()

	start := time.Now()

	conflicts, err := r.batchInsert(batch)
	if err != nil {
		r.logger.Error("batch insert failed", "error", err, "count", len(batch))
		r.batchMu.Lock()
		r.metrics.Errors++
		r.batchMu.Unlock()
		return
	}

	r.batchMu.Lock()
	r.metrics.Inserts += int64(len(batch) - conflicts)
	r.metrics.Conflicts += int64(conflicts)
	r.metrics.Flushes++
	r.batchMu.Unlock()

	r.logger.Debug("flushed ticks",
		"count", len(batch),
		"conflicts", conflicts,
		"duration", time.Since(start),
	)
}

// batchInsert inserts rows using pgx.Batch with ON CONFLICT DO NOTHING.
func (r *Recorder) batchInsert(rows []tickRow) (conflicts int, err error) {
	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(`
			INSERT INTO price_ticks (instrument_id, target_id, price, change, change_percent, as_of_date, market_open, received_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (instrument_id, received_at) DO NOTHING
		`, row.InstrumentID, row.Target, row.Price, row.Change, row.ChangePercent, row.AsOf, row.MarketOpen, row.ReceivedAt)
	}

	results := r.db.SendBatch(r.ctx, batch)
	defer results.Close()

	for range rows {
		ct, err := results.Exec()
		if err != nil {
			return 0, err
		}
		if ct.RowsAffected() == 0 {
			conflicts++
		}
	}

	return conflicts, nil
}
