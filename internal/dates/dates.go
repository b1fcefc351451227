// Package dates parses due-date shorthand into ISO dates.
package dates

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const isoDate = "2006-01-02"

var relativePattern = regexp.MustCompile(`^([+-])(\d+)([dw])$`)

// ParseDueDate converts shorthand like "tomorrow", "+3d", "fri" or an
// ISO date into a YYYY-MM-DD string. Returns false when the input is
// not recognised.
//
// Supported: today, tomorrow, yesterday, weekday names (next
// occurrence), next-week, next-month, eow, eom, +Nd, -Nd, +Nw, and the
// ISO, MM/DD/YYYY and MM-DD-YYYY formats.
func ParseDueDate(input string) (string, bool) {
	return parseDueDateAt(input, time.Now())
}

func parseDueDateAt(input string, now time.Time) (string, bool) {
	in := strings.ToLower(strings.TrimSpace(input))
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch in {
	case "today":
		return format(today), true
	case "tomorrow", "tom":
		return format(today.AddDate(0, 0, 1)), true
	case "yesterday":
		return format(today.AddDate(0, 0, -1)), true
	case "next-week", "nextweek":
		return format(today.AddDate(0, 0, 7)), true
	case "next-month", "nextmonth":
		return format(today.AddDate(0, 1, 0)), true
	case "eow", "end-of-week":
		return format(endOfWeek(today)), true
	case "eom", "end-of-month":
		return format(endOfMonth(today)), true
	}

	if wd, ok := weekdayByName(in); ok {
		return format(nextWeekday(today, wd)), true
	}

	if m := relativePattern.FindStringSubmatch(in); m != nil {
		n, err := strconv.Atoi(m[2])
		if err == nil {
			if m[3] == "w" {
				n *= 7
			}
			if m[1] == "-" {
				n = -n
			}
			return format(today.AddDate(0, 0, n)), true
		}
	}

	for _, layout := range []string{isoDate, "01/02/2006", "01-02-2006"} {
		if d, err := time.Parse(layout, in); err == nil {
			return format(d), true
		}
	}

	return "", false
}

func weekdayByName(name string) (time.Weekday, bool) {
	switch name {
	case "monday", "mon":
		return time.Monday, true
	case "tuesday", "tue":
		return time.Tuesday, true
	case "wednesday", "wed":
		return time.Wednesday, true
	case "thursday", "thu":
		return time.Thursday, true
	case "friday", "fri":
		return time.Friday, true
	case "saturday", "sat":
		return time.Saturday, true
	case "sunday", "sun":
		return time.Sunday, true
	}
	return 0, false
}

// nextWeekday returns the next occurrence of wd strictly after today.
func nextWeekday(today time.Time, wd time.Weekday) time.Time {
	days := (int(wd) - int(today.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}
	return today.AddDate(0, 0, days)
}

// endOfWeek returns the upcoming Sunday (today if already Sunday).
func endOfWeek(today time.Time) time.Time {
	days := (int(time.Sunday) - int(today.Weekday()) + 7) % 7
	return today.AddDate(0, 0, days)
}

func endOfMonth(today time.Time) time.Time {
	firstOfNext := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location()).AddDate(0, 1, 0)
	return firstOfNext.AddDate(0, 0, -1)
}

func format(d time.Time) string {
	return d.Format(isoDate)
}
