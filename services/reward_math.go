package services

import "math"

// completionFraction is the share of a video's duration that counts as fully
// watched. The last 1% absorbs player reporting jitter near the end of the
// stream; the server clamps reports to the duration, so the tolerance cannot
// be used to shave watch time.
const completionFraction = 0.99

// TotalCoins prices a video from its duration and per-minute rate. Partial
// minutes round up: a 61-second video at rate R pays 2×R. Crediting is
// all-or-nothing at completion, so this is the only amount ever posted.
func TotalCoins(durationSeconds, coinsPerMinute int) int64 {
	if durationSeconds <= 0 || coinsPerMinute <= 0 {
		return 0
	}
	minutes := (durationSeconds + 59) / 60
	return int64(minutes) * int64(coinsPerMinute)
}

// MinutesLabel is the integer minute count shown alongside the playback
// timer. Display only; it has no bearing on crediting.
func MinutesLabel(watchedSeconds float64) int {
	if watchedSeconds <= 0 {
		return 0
	}
	return int(math.Ceil(watchedSeconds / 60))
}

// ClampWatched bounds a client-reported watch time to [0, duration]. Reports
// above the duration come from manipulated or buggy clients and are treated
// as the full duration.
func ClampWatched(reported float64, durationSeconds int) float64 {
	if reported < 0 {
		return 0
	}
	if d := float64(durationSeconds); reported > d {
		return d
	}
	return reported
}

// CompletionThreshold returns the watched-seconds value at which a video of
// the given duration counts as complete.
func CompletionThreshold(durationSeconds int) float64 {
	return float64(durationSeconds) * completionFraction
}

// IsComplete reports whether watchedSeconds satisfies the completion
// predicate for the given duration.
func IsComplete(watchedSeconds float64, durationSeconds int) bool {
	return watchedSeconds >= CompletionThreshold(durationSeconds)
}
