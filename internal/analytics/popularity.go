// Package analytics holds the pure feedback scoring, ranking and rollup
// computations. Nothing here performs I/O; callers pass in the records and
// the evaluation instant.
package analytics

import (
	"math"
	"time"

	"github.com/DJ-LIFE/feedback-tool/internal/domain"
)

const (
	ratingWeight      = 0.6
	recencyWeight     = 0.4
	recencyWindowDays = 30.0
)

// Score returns the popularity of f at instant now: its rating weighted by
// 0.6 plus a recency bonus of up to 0.4 that decays linearly to zero over 30
// days. Records dated in the future are treated as brand new.
func Score(f domain.Feedback, now time.Time) float64 {
	ageDays := now.Sub(f.CreatedAt).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	recency := math.Max(0, (recencyWindowDays-ageDays)/recencyWindowDays) * recencyWeight
	return Round2(float64(f.Rating)*ratingWeight + recency)
}

// Round2 rounds v to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Round1 rounds v to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
