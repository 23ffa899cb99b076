// Package utils provides small generic helpers.
package utils

import (
	"math"
	"time"
)

// CalculateBackoff calculates the exponential backoff duration for a
// given attempt, capped at maxDelay.
func CalculateBackoff(attempt int, initialDelay, maxDelay time.Duration, factor float64) time.Duration {
	delay := float64(initialDelay) * math.Pow(factor, float64(attempt))
	if delay > float64(maxDelay) {
		delay = float64(maxDelay)
	}
	return time.Duration(delay)
}
