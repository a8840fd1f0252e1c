package api

import (
	"strings"

	"github.com/mileusna/useragent"
)

// DeviceLabel turns a User-Agent string into a short human-readable label,
// shown at startup and on the debug health page so it is obvious which
// client identity the backend sees.
//
// Returns a string like "Chrome 120.0.0.0 · Windows 10 · Desktop" or
// "Unknown Device" when the User-Agent is empty.
//
// Example:
//
//	label := api.DeviceLabel(cfg.Backend.UserAgent)
func DeviceLabel(userAgent string) string {
	if userAgent == "" {
		return "Unknown Device"
	}

	ua := useragent.Parse(userAgent)

	var parts []string

	if ua.Name != "" {
		browser := ua.Name
		if ua.Version != "" {
			browser += " " + ua.Version
		}
		parts = append(parts, browser)
	}

	if ua.OS != "" {
		os := ua.OS
		if ua.OSVersion != "" {
			os += " " + ua.OSVersion
		}
		parts = append(parts, os)
	}

	switch {
	case ua.Mobile:
		parts = append(parts, "Mobile")
	case ua.Tablet:
		parts = append(parts, "Tablet")
	case ua.Desktop:
		parts = append(parts, "Desktop")
	case ua.Bot:
		parts = append(parts, "Bot")
	}

	if len(parts) == 0 {
		if len(userAgent) > 100 {
			return userAgent[:100] + "..."
		}
		return userAgent
	}

	return strings.Join(parts, " · ")
}
