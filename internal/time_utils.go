package internal

import (
	"fmt"
	"time"
)

// DisplayTimeFormat is the standard time format used across the application
const DisplayTimeFormat = "2006-01-02 15:04:05"

// FormatLocal formats t in the local zone for display.
func FormatLocal(t time.Time) string {
	return t.Local().Format(DisplayTimeFormat)
}

// FormatRemaining renders the time left until expiry as "35h59m", or
// "expired" once it has passed.
func FormatRemaining(expiration, now time.Time) string {
	remaining := expiration.Sub(now).Round(time.Minute)
	if remaining <= 0 {
		return "expired"
	}
	hours := int(remaining.Hours())
	minutes := int(remaining.Minutes()) % 60
	if hours > 0 {
		return fmt.Sprintf("%dh%dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}
