package main

import (
	"time"
)

var (
	_ Clocker       = (*Clock)(nil)     // ensure Clock implements Clocker
	_ TickerClocker = (*TickClock)(nil) // ensure TickClock implements TickerClocker
)

// Clocker is an interface for getting current real time.
type Clocker interface {
	Now() time.Time
}

// TickerClocker is a Clocker which can also provide a ticker.
type TickerClocker interface {
	Clocker
	NewTicker(time.Duration) *time.Ticker
}

// Clock implements the Clocker interface.
type Clock struct {
	tz *time.Location
}

// NewClock returns a ready to use Clock with timezone sets
// to UTC in production environment and Local in dev env.
func NewClock(isProd bool) *Clock {
	if isProd {
		return &Clock{time.UTC}
	}
	return &Clock{time.Local}
}

// Now provides current clock time.
func (ck *Clock) Now() time.Time {
	return time.Now().In(ck.tz)
}

// Timestamp formats the current UTC time the way book records carry it.
func Timestamp(c Clocker) string {
	return c.Now().UTC().String()
}

// CurrentYear is the reference year of the book age computation. It
// follows the clock location, so a dev clock uses the local calendar.
func CurrentYear(c Clocker) int {
	return c.Now().Year()
}

// NewTickerFrom returns a ticker from c when it can provide one.
func NewTickerFrom(c Clocker, d time.Duration) *time.Ticker {
	if tc, ok := c.(TickerClocker); ok {
		return tc.NewTicker(d)
	}
	return time.NewTicker(d)
}

// TickClock adds ticker capability to a Clocker. It is used by zap
// as its clock and by the rate limiter cleanup.
type TickClock struct {
	clock Clocker
}

func NewTickClock(ck Clocker) *TickClock {
	return &TickClock{ck}
}

func (tc *TickClock) Now() time.Time {
	return tc.clock.Now()
}

func (tc *TickClock) NewTicker(d time.Duration) *time.Ticker {
	return time.NewTicker(d)
}
