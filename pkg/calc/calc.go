// Package calc provides progress and size math for download reporting.
package calc

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Progress calculates the percentage for a given pair of byte counts.
func Progress(downloaded, total int) int {
	if total > 0 {
		return int(math.Round(float64(downloaded) / float64(total) * 100))
	}
	return 0
}

// ParsePercent parses a yt-dlp style percent descriptor such as " 42.3%".
// Malformed or missing values yield 0, never an error: a bad progress tick
// must not fail the item it belongs to.
func ParsePercent(s string) float64 {
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	if s == "" {
		return 0
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}

	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}

	return v
}

// MapToBand maps a 0-100 percent onto the [base, base+width] portion of an
// overall progress range.
func MapToBand(percent float64, base, width int) int {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	return base + int(percent*float64(width)/100)
}

// ETA calculates the estimated time of arrival.
func ETA(downloaded, total int, started time.Time) time.Duration {
	if total > 0 && downloaded > 0 {
		downloaded := float64(downloaded)
		total := float64(total)
		elapsed := time.Since(started)

		return time.Duration(float64(elapsed) * (total/downloaded - 1))
	}
	return 0
}

// HumanBytes renders a byte count as a short binary-unit descriptor.
func HumanBytes(n int64) string {
	const unit = 1024

	if n < unit {
		return fmt.Sprintf("%dB", n)
	}

	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.2f%ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// Speed renders the mean transfer rate since started, e.g. "3.20MiB/s".
func Speed(downloaded int, started time.Time) string {
	elapsed := time.Since(started).Seconds()
	if elapsed <= 0 || downloaded <= 0 {
		return "0B/s"
	}

	return HumanBytes(int64(float64(downloaded)/elapsed)) + "/s"
}
