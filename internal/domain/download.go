package domain

import (
	"fmt"
	"time"
)

// MaxRecentDownloads bounds the recent downloads log.
const MaxRecentDownloads = 5

// RecentDownload is appended once when a job finishes.
type RecentDownload struct {
	Label       string
	CompletedAt time.Time
	DownloadURL string
	JobID       string
}

// FormatRelativeTime renders how long ago t was, relative to now.
func FormatRelativeTime(t, now time.Time) string {
	seconds := int(now.Sub(t) / time.Second)
	if seconds < 60 {
		return "Just now"
	}
	minutes := seconds / 60
	if minutes < 60 {
		return fmt.Sprintf("%dm ago", minutes)
	}
	hours := minutes / 60
	if hours < 24 {
		return fmt.Sprintf("%dh ago", hours)
	}
	return fmt.Sprintf("%dd ago", hours/24)
}
