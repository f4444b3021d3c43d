// services/daily.go
package services

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Fixed guessing range for the daily challenge.
const (
	DailyRangeMin = 1
	DailyRangeMax = 100
)

// DateKeyLayout is the canonical calendar-day form for challenge keys.
// Every caller must produce the identical string for the same UTC day —
// the generator is only as deterministic as its input key.
const DateKeyLayout = "2006-01-02"

var (
	ErrEmptyDateKey = errors.New("date key must not be empty")
	ErrInvalidRange = errors.New("range min must not exceed range max")
)

// ComputeDailyValue maps a calendar-day key to a reproducible integer in
// [rangeMin, rangeMax] inclusive. Same key, same value — across processes,
// restarts, and any number of concurrent callers. No clock, no entropy,
// no stored state.
//
// The hash is the legacy 32-bit rolling hash over the UTF-8 bytes of the key
// (h = h*31 + byte, wrapping int32 arithmetic), kept bit-for-bit so every
// client of the existing deployment agrees on the day's value.
func ComputeDailyValue(dateKey string, rangeMin, rangeMax int) (int, error) {
	if dateKey == "" {
		return 0, ErrEmptyDateKey
	}
	if rangeMin > rangeMax {
		return 0, fmt.Errorf("%w: got [%d, %d]", ErrInvalidRange, rangeMin, rangeMax)
	}

	var h int32
	for i := 0; i < len(dateKey); i++ {
		h = h*31 + int32(dateKey[i])
	}

	// MinInt32 has no positive counterpart in two's complement; the fold
	// treats that hash as 0 so abs below cannot overflow.
	if h == math.MinInt32 {
		h = 0
	}
	if h < 0 {
		h = -h
	}

	span := rangeMax - rangeMin + 1
	return int(h)%span + rangeMin, nil
}

// TodayKey returns the current UTC day in canonical form. All date keys are
// pinned to the UTC day boundary so every region plays the same challenge.
func TodayKey() string {
	return time.Now().UTC().Format(DateKeyLayout)
}

// ParseDateKey validates a client-supplied date key and returns it in
// canonical form.
func ParseDateKey(raw string) (string, error) {
	t, err := time.Parse(DateKeyLayout, raw)
	if err != nil {
		return "", fmt.Errorf("invalid date %q — expected YYYY-MM-DD", raw)
	}
	return t.Format(DateKeyLayout), nil
}
