// Package schedule derives an agent's effective weekly capacity from a
// working-hours description and a set of non-working dates.
package schedule

import (
	"strconv"
	"strings"
	"time"
)

// DefaultDailyHours is used when the schedule description is absent or malformed.
const DefaultDailyHours = 8

const dateLayout = "2006-01-02"

// WeeklyCapacity returns the hours the agent can work during the week
// containing ref. The schedule description has the form "HH:MM - HH:MM";
// daily hours are the whole-hour difference between end and start. A missing
// or unparseable description, or a non-positive duration, falls back to
// DefaultDailyHours rather than failing. Weekdays (Mon-Fri) whose calendar
// date appears in nonWorkingDays contribute nothing.
func WeeklyCapacity(scheduleDesc string, nonWorkingDays []string, ref time.Time) float64 {
	daily := dailyHours(scheduleDesc)

	skip := make(map[string]struct{}, len(nonWorkingDays))
	for _, d := range nonWorkingDays {
		skip[d] = struct{}{}
	}

	start := WeekStart(ref)
	working := 0
	for i := 0; i < 5; i++ {
		day := start.AddDate(0, 0, i).Format(dateLayout)
		if _, off := skip[day]; !off {
			working++
		}
	}
	return float64(daily * working)
}

// WeekStart returns the Monday of the week containing ref, truncated to
// midnight. A Sunday reference belongs to the week that started six days
// earlier.
func WeekStart(ref time.Time) time.Time {
	day := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, ref.Location())
	wd := int(day.Weekday())
	if wd == 0 {
		return day.AddDate(0, 0, -6)
	}
	return day.AddDate(0, 0, -(wd - 1))
}

// dailyHours parses "HH:MM - HH:MM" at whole-hour granularity. Minutes are
// deliberately ignored to match the stored schedule format.
func dailyHours(desc string) int {
	if !strings.Contains(desc, " - ") {
		return DefaultDailyHours
	}
	parts := strings.SplitN(desc, " - ", 2)
	startHour, err1 := hourOf(parts[0])
	endHour, err2 := hourOf(parts[1])
	if err1 != nil || err2 != nil {
		return DefaultDailyHours
	}
	if d := endHour - startHour; d > 0 {
		return d
	}
	return DefaultDailyHours
}

func hourOf(clock string) (int, error) {
	h := strings.TrimSpace(strings.SplitN(clock, ":", 2)[0])
	return strconv.Atoi(h)
}
