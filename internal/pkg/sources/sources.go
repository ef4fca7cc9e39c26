// Package sources turns the free-form traffic source and referrer that
// clients send into stable attribution labels.
package sources

import (
	"net/url"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Direct is the attribution used when a session carries no usable source.
const Direct = "Direct"

// Referrer hostnames mapped to platform names.
var knownHosts = map[string]string{
	// Social
	"instagram.com":   "Instagram",
	"l.instagram.com": "Instagram",
	"facebook.com":    "Facebook",
	"fb.com":          "Facebook",
	"l.facebook.com":  "Facebook",
	"lm.facebook.com": "Facebook",
	"tiktok.com":      "TikTok",
	"x.com":           "X/Twitter",
	"twitter.com":     "X/Twitter",
	"t.co":            "X/Twitter",
	"linkedin.com":    "LinkedIn",
	"lnkd.in":         "LinkedIn",
	"pinterest.com":   "Pinterest",
	"pin.it":          "Pinterest",
	"reddit.com":      "Reddit",
	"threads.net":     "Threads",
	"bsky.app":        "Bluesky",
	"youtube.com":     "YouTube",
	"youtu.be":        "YouTube",
	"snapchat.com":    "Snapchat",

	// Messaging
	"whatsapp.com": "WhatsApp",
	"wa.me":        "WhatsApp",
	"t.me":         "Telegram",
	"telegram.org": "Telegram",
	"discord.com":  "Discord",
	"slack.com":    "Slack",

	// Search
	"google.com":     "Google",
	"bing.com":       "Bing",
	"duckduckgo.com": "DuckDuckGo",

	// Email
	"mail.google.com":  "Gmail",
	"outlook.live.com": "Outlook",

	// Shorteners
	"bit.ly":    "Bitly",
	"linktr.ee": "Linktree",
}

// Source values clients commonly send, lowercased.
var aliases = map[string]string{
	"direct":     Direct,
	"none":       Direct,
	"(direct)":   Direct,
	"ig":         "Instagram",
	"insta":      "Instagram",
	"instagram":  "Instagram",
	"fb":         "Facebook",
	"facebook":   "Facebook",
	"meta":       "Facebook",
	"tt":         "TikTok",
	"tiktok":     "TikTok",
	"twitter":    "X/Twitter",
	"x":          "X/Twitter",
	"li":         "LinkedIn",
	"linkedin":   "LinkedIn",
	"yt":         "YouTube",
	"youtube":    "YouTube",
	"wa":         "WhatsApp",
	"whatsapp":   "WhatsApp",
	"email":      "Email",
	"newsletter": "Email",
	"qr":         "QR Code",
	"qrcode":     "QR Code",
	"linktree":   "Linktree",
	"sms":        "SMS",
}

var titleCaser = cases.Title(language.Und)

// Normalize returns the attribution label for a session. An explicit source
// wins; without one, a known referrer platform is used; otherwise Direct.
func Normalize(source, referrer string) string {
	if label := normalizeSource(source); label != "" {
		return label
	}
	if name, ok := platformForReferrer(referrer); ok {
		return name
	}
	return Direct
}

func normalizeSource(source string) string {
	s := strings.TrimSpace(source)
	if s == "" {
		return ""
	}
	key := strings.ToLower(s)
	if label, ok := aliases[key]; ok {
		return label
	}
	if name, ok := knownHosts[strings.TrimPrefix(key, "www.")]; ok {
		return name
	}
	return titleCaser.String(strings.ReplaceAll(key, "_", " "))
}

// platformForReferrer maps a referrer URL or bare hostname to a platform name.
func platformForReferrer(referrer string) (string, bool) {
	host := hostOf(referrer)
	if host == "" {
		return "", false
	}

	// Walk up the labels so m.facebook.com resolves through facebook.com.
	for h := host; strings.Contains(h, "."); h = h[strings.Index(h, ".")+1:] {
		if name, ok := knownHosts[h]; ok {
			return name, true
		}
	}
	return "", false
}

func hostOf(referrer string) string {
	r := strings.ToLower(strings.TrimSpace(referrer))
	if r == "" {
		return ""
	}
	if !strings.Contains(r, "://") {
		r = "https://" + r
	}
	u, err := url.Parse(r)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}
