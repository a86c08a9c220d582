package transcript

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatDisplay renders seconds as M:SS below one hour and H:MM:SS otherwise.
func FormatDisplay(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	total := int(seconds)
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%d:%02d", minutes, secs)
}

// ParseDisplay parses M:SS, MM:SS, or H:MM:SS, optionally wrapped in brackets.
// Fractional seconds are accepted.
func ParseDisplay(value string) (float64, bool) {
	value = strings.TrimSpace(value)
	value = strings.TrimPrefix(value, "[")
	value = strings.TrimSuffix(value, "]")
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	parts := strings.Split(value, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, false
	}
	var total float64
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			return 0, false
		}
		last := i == len(parts)-1
		var n float64
		if last {
			f, err := strconv.ParseFloat(part, 64)
			if err != nil || f < 0 || f >= 60 {
				return 0, false
			}
			n = f
		} else {
			v, err := strconv.Atoi(part)
			if err != nil || v < 0 {
				return 0, false
			}
			if i > 0 && v >= 60 {
				return 0, false
			}
			n = float64(v)
		}
		total = total*60 + n
	}
	return total, true
}

// FormatSRT renders seconds as an SRT timestamp (HH:MM:SS,mmm).
func FormatSRT(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	msTotal := int(seconds*1000 + 0.5)
	hours := msTotal / 3_600_000
	msTotal %= 3_600_000
	minutes := msTotal / 60_000
	msTotal %= 60_000
	secs := msTotal / 1_000
	millis := msTotal % 1_000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}

func parseSRTTimestamp(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	// WebVTT style uses a period for milliseconds.
	value = strings.ReplaceAll(value, ".", ",")
	timeParts := strings.Split(value, ",")
	if len(timeParts) != 2 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(timeParts[0], ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	seconds, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(timeParts[1])
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	return float64(hours*3600+minutes*60+seconds) + float64(millis)/1000, nil
}
