// Package urls converts between catalog slugs and public document URLs.
package urls

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

const (
	slugPlaceholder     = "{slug}"
	categoryPlaceholder = "{category}"
)

// Builder builds public URLs from a pattern containing a {slug} placeholder
// and, optionally, a {category} placeholder, and derives slugs back from
// URLs matching the same pattern.
type Builder struct {
	pattern string
	matcher *regexp.Regexp
}

// NewBuilder compiles a Builder for the given pattern, e.g. "/blog/{slug}"
// or "/blogs/{category}/{slug}".
func NewBuilder(pattern string) (*Builder, error) {
	if !strings.Contains(pattern, slugPlaceholder) {
		return nil, fmt.Errorf("urls: pattern %q has no %s placeholder", pattern, slugPlaceholder)
	}
	quoted := regexp.QuoteMeta(pattern)
	quoted = strings.ReplaceAll(quoted, regexp.QuoteMeta(categoryPlaceholder), `[^/]+`)
	quoted = strings.ReplaceAll(quoted, regexp.QuoteMeta(slugPlaceholder), `([^/]+)`)
	matcher, err := regexp.Compile("^" + quoted + "$")
	if err != nil {
		return nil, fmt.Errorf("urls: compile matcher for %q: %w", pattern, err)
	}
	return &Builder{pattern: pattern, matcher: matcher}, nil
}

// Build returns the public URL for slug. When the pattern requires a
// category but none is given, the category segment and its trailing
// separator are dropped rather than left as a literal placeholder.
func (b *Builder) Build(slug, categorySlug string) string {
	u := strings.ReplaceAll(b.pattern, slugPlaceholder, slug)
	if strings.Contains(u, categoryPlaceholder) {
		if categorySlug != "" {
			u = strings.ReplaceAll(u, categoryPlaceholder, categorySlug)
		} else {
			u = strings.ReplaceAll(u, categoryPlaceholder+"/", "")
			u = strings.ReplaceAll(u, categoryPlaceholder, "")
		}
	}
	return u
}

// SlugFrom extracts the document slug from an internal URL. URLs that do
// not match the pattern fall back to the final path segment.
func (b *Builder) SlugFrom(rawURL string) string {
	if m := b.matcher.FindStringSubmatch(rawURL); m != nil {
		return m[1]
	}
	trimmed := strings.Trim(rawURL, "/")
	if trimmed == "" {
		return ""
	}
	parts := strings.Split(trimmed, "/")
	return parts[len(parts)-1]
}

// IsInternal reports whether rawURL is a catalog-internal path: a
// root-relative URL starting with a single slash.
func IsInternal(rawURL string) bool {
	return strings.HasPrefix(rawURL, "/") && !strings.HasPrefix(rawURL, "//")
}

// Domain extracts the lowercased host of an external URL, stripping a
// leading "www.". It returns "" when no host can be parsed.
func Domain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Host)
	host = strings.TrimPrefix(host, "www.")
	return host
}
