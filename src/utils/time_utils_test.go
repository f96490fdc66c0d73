package utils

import (
	"testing"
	"time"
)

func TestResetTime(t *testing.T) {
	ts := time.Date(2024, 1, 31, 15, 45, 2, 900, time.UTC)

	t.Run("Minute", func(t *testing.T) {
		got := ResetTime(ts, "minute")
		want := time.Date(2024, 1, 31, 15, 45, 0, 0, time.UTC)
		if !got.Equal(want) {
			t.Fatalf("expected %v, got %v", want, got)
		}
	})

	t.Run("Hour", func(t *testing.T) {
		got := ResetTime(ts, "hour")
		want := time.Date(2024, 1, 31, 15, 0, 0, 0, time.UTC)
		if !got.Equal(want) {
			t.Fatalf("expected %v, got %v", want, got)
		}
	})

	t.Run("UnknownGranularityReturnsInput", func(t *testing.T) {
		got := ResetTime(ts, "day")
		if !got.Equal(ts) {
			t.Fatalf("expected input back, got %v", got)
		}
	})
}

func TestTimestampToken(t *testing.T) {
	t.Run("FormatsUTC", func(t *testing.T) {
		ts := time.Date(2024, 1, 31, 15, 45, 2, 0, time.UTC)
		if got := TimestampToken(ts); got != "20240131_154502" {
			t.Fatalf("unexpected token: %s", got)
		}
	})

	t.Run("ConvertsZoneBeforeFormatting", func(t *testing.T) {
		loc := time.FixedZone("UTC+3", 3*60*60)
		ts := time.Date(2024, 1, 31, 18, 45, 2, 0, loc)
		if got := TimestampToken(ts); got != "20240131_154502" {
			t.Fatalf("unexpected token: %s", got)
		}
	})
}
