package urlutil

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
)

// Normalize canonicalizes a URL for visited-set membership and record
// deduplication: lowercased scheme and host, default ports and fragment
// stripped, tracking parameters removed, no trailing slash on paths.
func Normalize(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	switch {
	case u.Scheme == "http" && strings.HasSuffix(u.Host, ":80"):
		u.Host = strings.TrimSuffix(u.Host, ":80")
	case u.Scheme == "https" && strings.HasSuffix(u.Host, ":443"):
		u.Host = strings.TrimSuffix(u.Host, ":443")
	}

	if u.RawQuery != "" {
		q := u.Query()
		for key := range q {
			if strings.HasPrefix(strings.ToLower(key), "utm_") || key == "fbclid" || key == "gclid" {
				q.Del(key)
			}
		}
		u.RawQuery = q.Encode()
	}

	if u.Path != "/" {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}
	return u.String(), nil
}

// ToAbsolute resolves a possibly relative href against a base URL.
func ToAbsolute(base *url.URL, href string) (string, error) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).String(), nil
}

// SameHost reports whether two URLs share a hostname, treating a
// leading "www." as insignificant.
func SameHost(a, b string) bool {
	return Host(a) != "" && Host(a) == Host(b)
}

// Host extracts the normalized hostname of a URL, without "www.".
func Host(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// IsWebURL reports whether raw parses as an http(s) URL with a host.
func IsWebURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Hash creates a SHA256 hash of a URL string, used for consistent,
// safe store keys.
func Hash(rawURL string) string {
	h := sha256.New()
	h.Write([]byte(rawURL))
	return hex.EncodeToString(h.Sum(nil))
}
