// Package marketcal derives market-status descriptors from exchange trading
// calendars. It is the fallback used when a price read arrives without a
// status attached.
package marketcal

import (
	"strings"
	"sync"
	"time"

	"github.com/scmhub/calendar"

	"github.com/marketlens/watchstream/internal/model"
)

// dateLayout is the civil date form used across the product.
const dateLayout = "2006-01-02"

// suffixToMIC maps ticker suffixes to ISO 10383 market identifier codes.
// Bare tickers default to NYSE.
var suffixToMIC = map[string]string{
	".T":  "xtks",
	".L":  "xlon",
	".PA": "xpar",
	".DE": "xfra",
	".AS": "xams",
	".MI": "xmil",
	".MC": "xmad",
	".SW": "xswx",
	".TO": "xtse",
	".HK": "xhkg",
	".AX": "xasx",
	".KS": "xkrx",
	".SS": "xshg",
	".SZ": "xshe",
}

// Resolver derives market status per ticker, caching calendars by MIC.
type Resolver struct {
	mu   sync.Mutex
	cals map[string]*calendar.Calendar
}

// NewResolver creates a Resolver.
func NewResolver() *Resolver {
	return &Resolver{cals: make(map[string]*calendar.Calendar)}
}

func micFor(ticker string) string {
	if dot := strings.LastIndex(ticker, "."); dot >= 0 {
		if mic, ok := suffixToMIC[ticker[dot:]]; ok {
			return mic
		}
	}
	return "xnys"
}

func (r *Resolver) calendarFor(ticker string) *calendar.Calendar {
	mic := micFor(ticker)

	r.mu.Lock()
	defer r.mu.Unlock()

	if cal, ok := r.cals[mic]; ok {
		return cal
	}
	cal := calendar.GetCalendar(mic)
	if cal == nil {
		cal = calendar.GetCalendar("xnys")
	}
	r.cals[mic] = cal
	return cal
}

// Status returns the market-status descriptor for a ticker at the given
// instant, or nil when no calendar is available for its exchange.
func (r *Resolver) Status(ticker string, now time.Time) *model.MarketStatus {
	cal := r.calendarFor(ticker)
	if cal == nil {
		return nil
	}

	local := now
	if cal.Loc != nil {
		local = now.In(cal.Loc)
	}

	status := &model.MarketStatus{
		IsOpen:         cal.IsOpen(local),
		LastTradingDay: lastTradingDay(cal, local).Format(dateLayout),
		NextTradingDay: nextTradingDay(cal, local).Format(dateLayout),
	}

	if !status.IsOpen {
		status.Reason = closedReason(cal, local)
	}

	return status
}

func closedReason(cal *calendar.Calendar, t time.Time) string {
	switch {
	case t.Weekday() == time.Saturday || t.Weekday() == time.Sunday:
		return "weekend"
	case !cal.IsBusinessDay(t):
		return "holiday"
	default:
		return "after_hours"
	}
}

// lastTradingDay walks back from t to the most recent business day,
// inclusive of t's own date.
func lastTradingDay(cal *calendar.Calendar, t time.Time) time.Time {
	day := t
	for i := 0; i < 14; i++ {
		if cal.IsBusinessDay(day) {
			return day
		}
		day = day.AddDate(0, 0, -1)
	}
	return t
}

// nextTradingDay walks forward from the day after t.
func nextTradingDay(cal *calendar.Calendar, t time.Time) time.Time {
	day := t.AddDate(0, 0, 1)
	for i := 0; i < 14; i++ {
		if cal.IsBusinessDay(day) {
			return day
		}
		day = day.AddDate(0, 0, 1)
	}
	return t
}
