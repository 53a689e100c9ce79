// Package device turns a raw User-Agent header into the short device label
// stored on filing audit events.
package device

import (
	"strings"

	"github.com/mssola/useragent"
)

const unknownDevice = "Unknown Device"

// ParseUserAgent returns "<browser> on <os>", e.g. "Chrome on Mac OS X".
// Phones and tablets are named by platform ("Safari on iPhone"), and
// crawlers or scripted clients are labelled as automated.
func ParseUserAgent(userAgent string) string {
	userAgent = strings.TrimSpace(userAgent)
	if userAgent == "" {
		return unknownDevice
	}

	ua := useragent.New(userAgent)
	browser, _ := ua.Browser()
	if ua.Bot() {
		if browser == "" {
			browser = "bot"
		}
		return "Automated client (" + browser + ")"
	}
	if browser == "" {
		browser = "Unknown Browser"
	}

	platform := ua.OSInfo().Name
	if ua.Mobile() && ua.Platform() != "" {
		platform = ua.Platform()
	}
	if platform == "" {
		platform = "Unknown OS"
	}
	return browser + " on " + platform
}
