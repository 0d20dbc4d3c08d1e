package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// parseISODuration parses the ISO-8601 duration subset the dataset uses:
// PnDTnHnMnS with any combination of parts, e.g. "PT30M", "PT1H10M", "P1D".
// Empty input is zero; negative or malformed input is an input error.
func parseISODuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	upper := strings.ToUpper(s)
	if strings.HasPrefix(upper, "-") || !strings.HasPrefix(upper, "P") {
		return 0, fmt.Errorf("%w: invalid duration %q", ErrInvalidInput, s)
	}

	rest := upper[1:]
	if rest == "" {
		return 0, fmt.Errorf("%w: invalid duration %q", ErrInvalidInput, s)
	}

	var total time.Duration
	inTime := false
	num := ""
	sawPart := false
	for _, r := range rest {
		switch {
		case r >= '0' && r <= '9' || r == '.':
			num += string(r)
		case r == 'T':
			if inTime || num != "" {
				return 0, fmt.Errorf("%w: invalid duration %q", ErrInvalidInput, s)
			}
			inTime = true
		default:
			if num == "" {
				return 0, fmt.Errorf("%w: invalid duration %q", ErrInvalidInput, s)
			}
			value, err := strconv.ParseFloat(num, 64)
			if err != nil {
				return 0, fmt.Errorf("%w: invalid duration %q", ErrInvalidInput, s)
			}
			num = ""
			var unit time.Duration
			switch {
			case r == 'D' && !inTime:
				unit = 24 * time.Hour
			case r == 'H' && inTime:
				unit = time.Hour
			case r == 'M' && inTime:
				unit = time.Minute
			case r == 'S' && inTime:
				unit = time.Second
			default:
				return 0, fmt.Errorf("%w: invalid duration %q", ErrInvalidInput, s)
			}
			total += time.Duration(value * float64(unit))
			sawPart = true
		}
	}
	if num != "" || !sawPart {
		return 0, fmt.Errorf("%w: invalid duration %q", ErrInvalidInput, s)
	}
	return total, nil
}

// formatISODuration renders a duration as PT..H..M..S, hours unbounded.
func formatISODuration(d time.Duration) string {
	if d == 0 {
		return "PT0S"
	}

	hours := int64(d / time.Hour)
	d -= time.Duration(hours) * time.Hour
	minutes := int64(d / time.Minute)
	d -= time.Duration(minutes) * time.Minute
	seconds := int64(d / time.Second)

	var b strings.Builder
	b.WriteString("PT")
	if hours > 0 {
		fmt.Fprintf(&b, "%dH", hours)
	}
	if minutes > 0 {
		fmt.Fprintf(&b, "%dM", minutes)
	}
	if seconds > 0 {
		fmt.Fprintf(&b, "%dS", seconds)
	}
	return b.String()
}
