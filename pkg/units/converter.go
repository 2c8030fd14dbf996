package units

import (
	"math"
	"strconv"
	"strings"
)

// Shortest limit the device accepts.
const MinLimitSeconds = 1

// HoursToSeconds converts a limit in hours to whole seconds.
// No zero or negative limits.
func HoursToSeconds(hours float64) int {
	if math.IsNaN(hours) || math.IsInf(hours, 0) {
		return MinLimitSeconds
	}
	sec := math.Round(hours * 3600)
	if sec < MinLimitSeconds {
		return MinLimitSeconds
	}
	if sec > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(sec)
}

func SecondsToHours(sec int) float64 {
	return float64(sec) / 3600
}

// ParseLeadingInt reads an optionally signed integer prefix, ignoring
// anything after the digits ("12min" is 12, "3.7" is 3).
func ParseLeadingInt(raw string) (int, bool) {
	s := strings.TrimSpace(raw)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digitsStart := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digitsStart {
		return 0, false
	}
	v, err := strconv.ParseInt(s[:end], 10, 32)
	if err != nil {
		// Out of int32 range, saturate in the direction of the sign.
		if s[0] == '-' {
			return math.MinInt32, true
		}
		return math.MaxInt32, true
	}
	return int(v), true
}

// ParseLeadingFloat reads the longest decimal prefix ("2.5h" is 2.5).
func ParseLeadingFloat(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
		digits++
	}
	if end < len(s) && s[end] == '.' {
		end++
		for end < len(s) && s[end] >= '0' && s[end] <= '9' {
			end++
			digits++
		}
	}
	if digits == 0 {
		return 0, false
	}
	// Optional exponent, only when followed by digits.
	if end < len(s) && (s[end] == 'e' || s[end] == 'E') {
		exp := end + 1
		if exp < len(s) && (s[exp] == '-' || s[exp] == '+') {
			exp++
		}
		expDigits := exp
		for exp < len(s) && s[exp] >= '0' && s[exp] <= '9' {
			exp++
		}
		if exp > expDigits {
			end = exp
		}
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(s[:end], "."), 64)
	if err != nil || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
