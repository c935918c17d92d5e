package timegrid

import (
	"errors"
	"fmt"
	"time"
)

const (
	// DefaultSlotMinutes is the default grid resolution.
	DefaultSlotMinutes = 30
	// DefaultHorizonDays is the default planning horizon.
	DefaultHorizonDays = 14
)

var (
	ErrInvalidSlotMinutes = errors.New("slot minutes must be 30 or 60")
	ErrInvalidHorizon     = errors.New("horizon must be positive")
)

// Grid discretizes a contiguous horizon into uniform slots.
// The start instant is floored to a slot boundary and all instants are UTC.
type Grid struct {
	start       time.Time
	slotMinutes int
	count       int
}

// New creates a grid starting at start (floored to the slot boundary) covering
// the given horizon.
func New(start time.Time, horizon time.Duration, slotMinutes int) (Grid, error) {
	if slotMinutes != 30 && slotMinutes != 60 {
		return Grid{}, ErrInvalidSlotMinutes
	}
	if horizon <= 0 {
		return Grid{}, ErrInvalidHorizon
	}

	slot := time.Duration(slotMinutes) * time.Minute
	floored := start.UTC().Truncate(slot)
	count := int((horizon + slot - 1) / slot)

	return Grid{
		start:       floored,
		slotMinutes: slotMinutes,
		count:       count,
	}, nil
}

// NewDefault creates a 30-minute grid covering 14 days from start.
func NewDefault(start time.Time) Grid {
	g, _ := New(start, DefaultHorizonDays*24*time.Hour, DefaultSlotMinutes)
	return g
}

// Start returns the first slot instant.
func (g Grid) Start() time.Time { return g.start }

// End returns the instant just past the last slot.
func (g Grid) End() time.Time {
	return g.start.Add(time.Duration(g.count*g.slotMinutes) * time.Minute)
}

// SlotMinutes returns the grid resolution in minutes.
func (g Grid) SlotMinutes() int { return g.slotMinutes }

// Count returns the number of slots in the horizon.
func (g Grid) Count() int { return g.count }

// SlotsPerDay returns the number of slots covering one day.
func (g Grid) SlotsPerDay() int { return 24 * 60 / g.slotMinutes }

// At returns the instant of slot i.
func (g Grid) At(i int) time.Time {
	return g.start.Add(time.Duration(i*g.slotMinutes) * time.Minute)
}

// Slots returns every slot instant in order.
func (g Grid) Slots() []time.Time {
	out := make([]time.Time, g.count)
	for i := range out {
		out[i] = g.At(i)
	}
	return out
}

// Index returns the slot index containing the instant. Instants before the
// grid start map to negative indexes; callers clamp as needed.
func (g Grid) Index(t time.Time) int {
	d := t.UTC().Sub(g.start)
	slot := time.Duration(g.slotMinutes) * time.Minute
	if d < 0 {
		// Floor toward negative infinity so pre-horizon instants stay negative.
		return int((d - slot + 1) / slot)
	}
	return int(d / slot)
}

// IndexCeil returns the smallest slot index at or after the instant.
func (g Grid) IndexCeil(t time.Time) int {
	i := g.Index(t)
	if g.At(i).Before(t.UTC()) {
		return i + 1
	}
	return i
}

// Contains reports whether slot index i lies inside the horizon.
func (g Grid) Contains(i int) bool {
	return i >= 0 && i < g.count
}

// DayOf returns the day ordinal (0-based from the grid start's midnight)
// containing slot i.
func (g Grid) DayOf(i int) int {
	at := g.At(i)
	midnight := time.Date(g.start.Year(), g.start.Month(), g.start.Day(), 0, 0, 0, 0, time.UTC)
	return int(at.Sub(midnight).Hours() / 24)
}

// Weekday returns the weekday of an instant with Monday as 0.
func Weekday(t time.Time) int {
	wd := int(t.UTC().Weekday())
	return (wd + 6) % 7
}

// SlotKey returns the "Weekday-Hour" key used by slot weight maps,
// for example "Monday-14".
func SlotKey(t time.Time) string {
	return fmt.Sprintf("%s-%d", t.UTC().Weekday().String(), t.UTC().Hour())
}

// SlotKeyFor builds a slot key from a weekday and hour.
func SlotKeyFor(day time.Weekday, hour int) string {
	return fmt.Sprintf("%s-%d", day.String(), hour)
}
