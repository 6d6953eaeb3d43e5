package feeding

import (
	"strconv"
	"time"
)

// ShouldAutoFeed is true once interval has elapsed since the last feeding. Reaching the interval exactly counts
func ShouldAutoFeed(now, lastFeeding time.Time, interval time.Duration) bool {
	return now.Sub(lastFeeding) >= interval
}

// SecondsUntilNextFeed returns the whole seconds left before ShouldAutoFeed becomes true, never less than 0
func SecondsUntilNextFeed(now, lastFeeding time.Time, interval time.Duration) int {
	remaining := interval - now.Sub(lastFeeding)
	if remaining <= 0 {
		return 0
	}
	return int(remaining / time.Second)
}

// FormatCountdown formats seconds as HH:MM:SS. Negative values are shown as 00:00:00
func FormatCountdown(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}

	minutes, sec := seconds/60, seconds%60
	hours, minutes := minutes/60, minutes%60

	return pad2(hours) + ":" + pad2(minutes) + ":" + pad2(sec)
}

func pad2(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
