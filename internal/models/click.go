package models

import "time"

// Device types recorded with click events.
const (
	DeviceDesktop = "desktop"
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceBot     = "bot"
	DeviceUnknown = "unknown"
)

// ClickEvent captures one successful resolution of a short code. Events are
// recorded fire-and-forget and written to the store in batches.
type ClickEvent struct {
	ShortCode string
	ClickedAt time.Time
	// IPHash is the SHA-256 hex digest of the requester IP. The raw address
	// is never stored.
	IPHash     string
	UserAgent  string
	Referrer   string
	DeviceType string
	IsBot      bool
}

// ClickBucket is one day of aggregated clicks for a short code.
type ClickBucket struct {
	Day       time.Time
	Clicks    int64
	BotClicks int64
}

// StatsSummary holds service-wide counters and the most clicked links.
type StatsSummary struct {
	TotalURLs   int64
	ActiveURLs  int64
	TotalClicks int64
	TopURLs     []*URL
}
