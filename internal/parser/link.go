package parser

import "net/url"

// MakeLink resolves a possibly-relative link against a base URL.
// Absolute links pass through untouched; anything else is appended to
// the base as-is.
func MakeLink(baseURL, link string) string {
	if u, err := url.Parse(link); err == nil && u.IsAbs() {
		return link
	}
	return baseURL + link
}
