package services

import "testing"

func TestTotalCoins(t *testing.T) {
	t.Parallel()

	cases := []struct {
		duration int
		rate     int
		want     int64
	}{
		{60, 5, 5},
		{61, 5, 10},
		{125, 5, 15},
		{120, 5, 10},
		{1, 10, 10},
		{596, 10, 100},
		{0, 5, 0},
		{100, 0, 0},
		{-10, 5, 0},
	}

	for _, c := range cases {
		if got := TotalCoins(c.duration, c.rate); got != c.want {
			t.Errorf("TotalCoins(%d, %d) = %d, want %d", c.duration, c.rate, got, c.want)
		}
	}
}

func TestClampWatched(t *testing.T) {
	t.Parallel()

	if got := ClampWatched(-5, 100); got != 0 {
		t.Errorf("negative report should clamp to 0, got %v", got)
	}
	if got := ClampWatched(150, 100); got != 100 {
		t.Errorf("oversized report should clamp to duration, got %v", got)
	}
	if got := ClampWatched(42.5, 100); got != 42.5 {
		t.Errorf("in-range report should pass through, got %v", got)
	}
}

func TestIsComplete(t *testing.T) {
	t.Parallel()

	if IsComplete(98, 100) {
		t.Error("98s of a 100s video should not be complete")
	}
	if !IsComplete(99, 100) {
		t.Error("99s of a 100s video should be complete")
	}
	if !IsComplete(100, 100) {
		t.Error("full duration should be complete")
	}
	if !IsComplete(ClampWatched(150, 100), 100) {
		t.Error("clamped oversized report should be complete")
	}
}

func TestMinutesLabel(t *testing.T) {
	t.Parallel()

	cases := []struct {
		watched float64
		want    int
	}{
		{0, 0},
		{-3, 0},
		{1, 1},
		{60, 1},
		{61, 2},
		{125, 3},
	}

	for _, c := range cases {
		if got := MinutesLabel(c.watched); got != c.want {
			t.Errorf("MinutesLabel(%v) = %d, want %d", c.watched, got, c.want)
		}
	}
}
