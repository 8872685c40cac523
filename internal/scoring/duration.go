// Package scoring holds the pure timing rules: segment spans, leg scores,
// challenge bonus and the scoreboard.
package scoring

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// NotAvailable marks a leg without a recorded score.
const NotAvailable = "N/A"

// FormatHHMM renders d as HH:MM, or -HH:MM when negative. Seconds are truncated
// and hours are not capped at two digits.
func FormatHHMM(d time.Duration) string {
	sign := ""
	if d < 0 {
		sign = "-"
		d = -d
	}
	s := int64(d / time.Second)
	hours := s / 3600
	minutes := s/60 - hours*60
	return fmt.Sprintf("%s%02d:%02d", sign, hours, minutes)
}

// ParseHHMM accepts HH:MM or HH:MM:SS, as used for challenge rewards.
func ParseHHMM(s string) (time.Duration, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid duration %q: want HH:MM", s)
	}
	var vals [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid duration %q: want HH:MM", s)
		}
		vals[i] = n
	}
	if vals[1] > 59 || vals[2] > 59 {
		return 0, fmt.Errorf("invalid duration %q: out of range", s)
	}
	return time.Duration(vals[0])*time.Hour + time.Duration(vals[1])*time.Minute + time.Duration(vals[2])*time.Second, nil
}
