package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/araddon/dateparse"
)

var (
	fillerPattern  = regexp.MustCompile(`\s*\b(?:onwards?|till late)\b`)
	clockPattern   = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?\s*(am|pm)`)
	twentyFourHour = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
	isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// NormalizeTime coerces a free-text time string ("5 PM", "5:30 pm",
// "9am onwards") to zero-padded 24-hour "HH:MM". Input that already is
// a 24-hour clock passes through zero-padded. Anything unparseable
// yields the empty string, never an error.
func NormalizeTime(raw string) string {
	t := strings.ToLower(strings.TrimSpace(raw))
	if t == "" {
		return ""
	}

	t = strings.TrimSpace(fillerPattern.ReplaceAllString(t, ""))

	if m := twentyFourHour.FindStringSubmatch(t); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if hour > 23 || minute > 59 {
			return ""
		}
		return fmt.Sprintf("%02d:%02d", hour, minute)
	}

	m := clockPattern.FindStringSubmatch(t)
	if m == nil {
		return ""
	}

	hour, _ := strconv.Atoi(m[1])
	minute := 0
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	if hour > 12 || hour == 0 || minute > 59 {
		return ""
	}

	switch m[3] {
	case "pm":
		if hour != 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	}

	return fmt.Sprintf("%02d:%02d", hour, minute)
}

// NormalizeDate coerces a loose date string to "YYYY-MM-DD".
// Unparseable input yields the empty string.
func NormalizeDate(raw string) string {
	d := strings.TrimSpace(raw)
	if d == "" {
		return ""
	}
	if isoDatePattern.MatchString(d) {
		return d
	}

	parsed, err := dateparse.ParseAny(d)
	if err != nil {
		return ""
	}
	return parsed.Format("2006-01-02")
}
