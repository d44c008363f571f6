package services

import (
	"net/url"
	"strings"
)

// routeSegments are path segments that belong to the application's routes
// rather than to an embedded token.
var routeSegments = map[string]struct{}{
	"api":            {},
	"auth":           {},
	"verify":         {},
	"verify-email":   {},
	"reset-password": {},
	"forgot":         {},
}

// tokenFromVerificationLink extracts the redemption token from an emailed
// verification link. The token travels as the final path segment
// (/verify-email/<token>) or, failing that, as the token query parameter.
// The path segment takes precedence.
func tokenFromVerificationLink(link string) string {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return ""
	}

	if seg := lastPathSegment(u.Path); seg != "" {
		if _, isRoute := routeSegments[seg]; !isRoute {
			return seg
		}
	}

	return u.Query().Get("token")
}

// tokenFromResetLink extracts the reset token from a password-reset link,
// where it travels as the token query parameter.
func tokenFromResetLink(link string) string {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return ""
	}
	return u.Query().Get("token")
}

func lastPathSegment(path string) string {
	path = strings.Trim(path, "/")
	if path == "" {
		return ""
	}
	segments := strings.Split(path, "/")
	return segments[len(segments)-1]
}
