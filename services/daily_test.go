package services

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestComputeDailyValue_Golden(t *testing.T) {
	// Regression values for the legacy rolling hash — these must never change.
	tests := []struct {
		dateKey string
		want    int
	}{
		{"2024-01-01", 33},
		{"2024-01-02", 32},
		{"2024-06-15", 43},
		{"2025-12-31", 55},
		{"2024-02-29", 72},
		{"1970-01-01", 46},
	}
	for _, tt := range tests {
		t.Run(tt.dateKey, func(t *testing.T) {
			got, err := ComputeDailyValue(tt.dateKey, 1, 100)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestComputeDailyValue_Deterministic(t *testing.T) {
	first, err := ComputeDailyValue("2024-01-01", 1, 100)
	require.NoError(t, err)
	for i := 0; i < 1000; i++ {
		got, err := ComputeDailyValue("2024-01-01", 1, 100)
		require.NoError(t, err)
		require.Equal(t, first, got)
	}
}

func TestComputeDailyValue_Bounds(t *testing.T) {
	day, err := time.Parse(DateKeyLayout, "2024-01-01")
	require.NoError(t, err)

	seen := map[int]bool{}
	for i := 0; i < 366; i++ {
		key := day.AddDate(0, 0, i).Format(DateKeyLayout)
		v, err := ComputeDailyValue(key, 1, 100)
		require.NoError(t, err)
		require.GreaterOrEqual(t, v, 1, "key %s", key)
		require.LessOrEqual(t, v, 100, "key %s", key)
		seen[v] = true
	}
	// A year of keys should cover a healthy share of the range.
	require.Greater(t, len(seen), 50)
}

func TestComputeDailyValue_CustomRanges(t *testing.T) {
	got, err := ComputeDailyValue("2024-01-01", 5, 10)
	require.NoError(t, err)
	require.Equal(t, 7, got)

	// Single-point range always returns its only value.
	got, err = ComputeDailyValue("2024-01-01", 7, 7)
	require.NoError(t, err)
	require.Equal(t, 7, got)

	got, err = ComputeDailyValue("2025-12-31", 42, 42)
	require.NoError(t, err)
	require.Equal(t, 42, got)
}

func TestComputeDailyValue_AdversarialKeys(t *testing.T) {
	// Long keys drive the hash through many wraparounds; the result must
	// still land in range.
	for _, key := range []string{
		strings.Repeat("2024-01-01", 100),
		strings.Repeat("\xff", 64),
		"9999-12-31",
	} {
		v, err := ComputeDailyValue(key, 1, 100)
		require.NoError(t, err)
		require.GreaterOrEqual(t, v, 1)
		require.LessOrEqual(t, v, 100)
	}
}

func TestComputeDailyValue_Errors(t *testing.T) {
	_, err := ComputeDailyValue("", 1, 100)
	require.ErrorIs(t, err, ErrEmptyDateKey)

	_, err = ComputeDailyValue("2024-01-01", 100, 1)
	require.ErrorIs(t, err, ErrInvalidRange)
}

func TestComputeDailyValue_Concurrent(t *testing.T) {
	want, err := ComputeDailyValue("2024-06-15", 1, 100)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				got, err := ComputeDailyValue("2024-06-15", 1, 100)
				if err != nil || got != want {
					t.Errorf("concurrent call: got %d, %v; want %d", got, err, want)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestParseDateKey(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{raw: "2024-01-01", want: "2024-01-01"},
		{raw: "2024-02-29", want: "2024-02-29"},
		{raw: "2024-13-01", wantErr: true},
		{raw: "2024-02-30", wantErr: true},
		{raw: "20240101", wantErr: true},
		{raw: "not-a-date", wantErr: true},
		{raw: "2024-1-1", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseDateKey(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestTodayKey(t *testing.T) {
	key := TodayKey()
	parsed, err := time.Parse(DateKeyLayout, key)
	require.NoError(t, err)
	require.Equal(t, key, parsed.Format(DateKeyLayout))
}
