// Package clickstream moves click events from the resolver to the store
// without ever blocking a redirect. Events travel either through an
// in-process dispatcher or through an AMQP queue drained by a separate
// worker; both paths batch writes.
package clickstream

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/shorturl-app/shorturl/internal/models"
)

var botMarkers = []string{
	"bot", "crawler", "spider", "crawling", "curl", "wget",
	"python-requests", "go-http-client", "headless",
}

// NewEvent builds a click event from request metadata. The requester IP is
// hashed immediately; the raw address never leaves this function.
func NewEvent(shortCode, ip, userAgent, referrer string, at time.Time) models.ClickEvent {
	deviceType, isBot := classifyUserAgent(userAgent)

	return models.ClickEvent{
		ShortCode:  shortCode,
		ClickedAt:  at,
		IPHash:     hashIP(ip),
		UserAgent:  userAgent,
		Referrer:   referrer,
		DeviceType: deviceType,
		IsBot:      isBot,
	}
}

func hashIP(ip string) string {
	if ip == "" {
		return ""
	}

	sum := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(sum[:])
}

// classifyUserAgent buckets a user agent into a coarse device type. Bots are
// checked first since crawler agents often claim a device as well.
func classifyUserAgent(userAgent string) (string, bool) {
	if userAgent == "" {
		return models.DeviceUnknown, false
	}

	ua := strings.ToLower(userAgent)

	for _, marker := range botMarkers {
		if strings.Contains(ua, marker) {
			return models.DeviceBot, true
		}
	}

	switch {
	case strings.Contains(ua, "ipad"), strings.Contains(ua, "tablet"), strings.Contains(ua, "kindle"):
		return models.DeviceTablet, false
	case strings.Contains(ua, "mobi"), strings.Contains(ua, "iphone"), strings.Contains(ua, "android"):
		return models.DeviceMobile, false
	}

	return models.DeviceDesktop, false
}
