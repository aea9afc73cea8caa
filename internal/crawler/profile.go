package crawler

import (
	"fmt"
	"net/http"
	"strings"
)

// Profile selects the request headers sent to the session site.
type Profile string

const (
	// ProfileBrowser sends browser-like headers.
	ProfileBrowser Profile = "browser"
	// ProfileSimple sends a curl-like user agent only. Some CDNs reject
	// browser user agents that lack the rest of a browser's fingerprint.
	ProfileSimple Profile = "simple"
)

// ParseProfile converts a config value into a profile.
func ParseProfile(value string) (Profile, error) {
	switch Profile(strings.ToLower(strings.TrimSpace(value))) {
	case ProfileBrowser, "":
		return ProfileBrowser, nil
	case ProfileSimple:
		return ProfileSimple, nil
	default:
		return "", fmt.Errorf("unknown client profile %q", value)
	}
}

func (p Profile) apply(req *http.Request) {
	switch p {
	case ProfileSimple:
		req.Header.Set("User-Agent", "curl/8.7.1")
		req.Header.Set("Accept", "*/*")
	default:
		req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 14_5) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Safari/605.1.15")
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")
		req.Header.Set("Upgrade-Insecure-Requests", "1")
	}
}
