// Package session maps wall-clock time to market sessions and the
// opening-range capture window.
package session

import (
	"time"

	"orb-trader/internal/models"
)

// Hours describes a market's trading session in observer-local minutes
// from midnight. A session with CloseMinute < OpenMinute spans midnight.
type Hours struct {
	OpenMinute  int
	CloseMinute int
}

// Spans reports whether the session wraps past local midnight.
func (h Hours) Spans() bool {
	return h.CloseMinute < h.OpenMinute
}

// contains is the wrap-aware interval membership test. The open edge is
// inclusive, the close edge exclusive.
func (h Hours) contains(minute int) bool {
	if h.Spans() {
		return minute >= h.OpenMinute || minute < h.CloseMinute
	}
	return minute >= h.OpenMinute && minute < h.CloseMinute
}

// DefaultHours returns the session table for a Dubai-based observer:
// UK cash session 12:00-20:30, US cash session 18:30-01:00 next day.
func DefaultHours() map[models.Market]Hours {
	return map[models.Market]Hours{
		models.MarketUK: {OpenMinute: 12 * 60, CloseMinute: 20*60 + 30},
		models.MarketUS: {OpenMinute: 18*60 + 30, CloseMinute: 1 * 60},
	}
}

// Resolver resolves session state for symbols. It is a pure function of
// time and the static session table; it holds no mutable state.
type Resolver struct {
	location       *time.Location
	hours          map[models.Market]Hours
	captureMinutes int
	markets        map[string]models.Market
	symbols        []string
}

// NewResolver creates a session resolver for the given observer timezone
// and symbol universe.
func NewResolver(loc *time.Location, hours map[models.Market]Hours, captureMinutes int) *Resolver {
	return &Resolver{
		location:       loc,
		hours:          hours,
		captureMinutes: captureMinutes,
		markets:        make(map[string]models.Market),
	}
}

// AddSymbols registers symbols for a market.
func (r *Resolver) AddSymbols(market models.Market, symbols []string) {
	for _, s := range symbols {
		if _, ok := r.markets[s]; !ok {
			r.symbols = append(r.symbols, s)
		}
		r.markets[s] = market
	}
}

// MarketFor returns the home market for a symbol.
func (r *Resolver) MarketFor(symbol string) (models.Market, bool) {
	m, ok := r.markets[symbol]
	return m, ok
}

// Symbols returns all registered symbols.
func (r *Resolver) Symbols() []string {
	return r.symbols
}

// sessionWeekday returns the weekday governing the session at t. For a
// session that spans midnight, the portion before the close belongs to
// the previous calendar day.
func (r *Resolver) sessionWeekday(h Hours, t time.Time) time.Weekday {
	if h.Spans() && minuteOf(t) < h.CloseMinute {
		return t.AddDate(0, 0, -1).Weekday()
	}
	return t.Weekday()
}

// IsOpen reports whether the market is open for trading at t.
// Weekends are treated as closed; exact holiday calendars are out of scope.
func (r *Resolver) IsOpen(market models.Market, t time.Time) bool {
	h, ok := r.hours[market]
	if !ok {
		return false
	}
	t = t.In(r.location)
	wd := r.sessionWeekday(h, t)
	if wd == time.Saturday || wd == time.Sunday {
		return false
	}
	return h.contains(minuteOf(t))
}

// IsSymbolOpen reports whether the symbol's home market is open at t.
func (r *Resolver) IsSymbolOpen(symbol string, t time.Time) bool {
	m, ok := r.markets[symbol]
	if !ok {
		return false
	}
	return r.IsOpen(m, t)
}

// InCaptureWindow reports whether t is inside the market's opening-range
// capture window (the first captureMinutes after the open).
func (r *Resolver) InCaptureWindow(market models.Market, t time.Time) bool {
	h, ok := r.hours[market]
	if !ok || !r.IsOpen(market, t) {
		return false
	}
	t = t.In(r.location)
	end := Hours{OpenMinute: h.OpenMinute, CloseMinute: (h.OpenMinute + r.captureMinutes) % (24 * 60)}
	return end.contains(minuteOf(t))
}

// CaptureBars returns the number of leading bars that make up the
// capture window at the given bar interval, rounded down.
func (r *Resolver) CaptureBars(barIntervalMinutes int) int {
	if barIntervalMinutes <= 0 {
		return 0
	}
	return r.captureMinutes / barIntervalMinutes
}

// ActiveSymbols returns the symbols whose markets are open at t.
func (r *Resolver) ActiveSymbols(t time.Time) []string {
	var active []string
	for _, s := range r.symbols {
		if r.IsOpen(r.markets[s], t) {
			active = append(active, s)
		}
	}
	return active
}

// AnyOpen reports whether any registered market is open at t.
func (r *Resolver) AnyOpen(t time.Time) bool {
	for m := range r.hours {
		if r.IsOpen(m, t) {
			return true
		}
	}
	return false
}

// DayKey returns the trading-day marker for a market at t. For sessions
// spanning midnight, the early-morning portion keys to the previous
// calendar day, so one session maps to exactly one key.
func (r *Resolver) DayKey(market models.Market, t time.Time) string {
	t = t.In(r.location)
	if h, ok := r.hours[market]; ok && h.Spans() && minuteOf(t) < h.CloseMinute {
		t = t.AddDate(0, 0, -1)
	}
	return t.Format("2006-01-02")
}

// LocalDay returns the observer-local calendar date key at t.
func (r *Resolver) LocalDay(t time.Time) string {
	return t.In(r.location).Format("2006-01-02")
}

// Now returns the current observer-local time.
func (r *Resolver) Now() time.Time {
	return time.Now().In(r.location)
}

func minuteOf(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}
