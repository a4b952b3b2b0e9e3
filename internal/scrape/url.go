package scrape

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// locationSlug matches URL-path-safe location values such as "new-york-ny".
var locationSlug = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// BuildSearchURL derives the listing URL for a request. It is a pure function
// of its inputs: keyword becomes the q parameter, the posted window becomes
// day_range, and a slug-shaped location is appended as a path segment rather
// than a query parameter.
func BuildSearchURL(baseURL string, req SearchRequest) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}

	loc := strings.TrimSpace(strings.ToLower(req.Location))
	if loc != "" && locationSlug.MatchString(loc) {
		u.Path = strings.TrimSuffix(u.Path, "/") + "/" + loc
		loc = ""
	}

	q := u.Query()
	q.Set("q", strings.TrimSpace(req.Keyword))
	if days, ok := req.PostedWithin.DayRange(); ok {
		q.Set("day_range", strconv.Itoa(days))
	}
	if loc != "" {
		q.Set("location", strings.TrimSpace(req.Location))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// CanonicalDetailURL resolves href against base and strips the query and
// fragment. Boards attach per-impression tracking parameters to card links,
// which would defeat seen-set deduplication if kept.
func CanonicalDetailURL(base, href string) (string, error) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", fmt.Errorf("parse href: %w", err)
	}
	var resolved *url.URL
	if ref.IsAbs() {
		resolved = ref
	} else {
		b, err := url.Parse(base)
		if err != nil {
			return "", fmt.Errorf("parse base: %w", err)
		}
		resolved = b.ResolveReference(ref)
	}
	resolved.Scheme = strings.ToLower(resolved.Scheme)
	resolved.Host = strings.ToLower(resolved.Host)
	resolved.RawQuery = ""
	resolved.Fragment = ""
	return resolved.String(), nil
}
