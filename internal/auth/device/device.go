// Package device turns a User-Agent header into the label shown next to a session.
package device

import (
	"strings"
	"unicode/utf8"

	"github.com/mssola/useragent"
)

const (
	unknownDevice = "Unknown Device"

	// maxDisplayNameLength bounds what gets stored with a session.
	maxDisplayNameLength = 64
)

// DisplayName returns "Browser on OS", for example "Chrome on macOS" or
// "Safari on iPhone". Mobile agents report the platform instead of the OS.
func DisplayName(userAgentString string) string {
	userAgentString = strings.TrimSpace(userAgentString)
	if userAgentString == "" {
		return unknownDevice
	}

	ua := useragent.New(userAgentString)
	if ua.Bot() {
		return truncate("Bot " + strings.TrimSpace(botName(ua)))
	}

	browser, _ := ua.Browser()
	os := ua.OS()

	if ua.Mobile() {
		if platform := ua.Platform(); platform != "" {
			return truncate(strings.TrimSpace(browser + " on " + platform))
		}
	}

	if browser == "" {
		browser = "Unknown Browser"
	}
	if os == "" {
		os = "Unknown OS"
	}
	return truncate(strings.TrimSpace(browser + " on " + os))
}

func botName(ua *useragent.UserAgent) string {
	name, _ := ua.Browser()
	return name
}

func truncate(s string) string {
	if utf8.RuneCountInString(s) <= maxDisplayNameLength {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxDisplayNameLength])
}
