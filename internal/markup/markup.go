// Package markup scans and rewrites inline anchor markup in block text.
// It assumes anchor elements do not nest, which holds for all content the
// engine produces or accepts.
package markup

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// anchorRe matches an anchor element: open tag with an href attribute,
	// inner text, close tag. Group 1 is the href, group 2 the inner markup.
	anchorRe = regexp.MustCompile(`(?is)<a\s+[^>]*?href=["']([^"']+)["'][^>]*>(.*?)</a>`)

	// internalRe matches only anchors whose href is a root-relative path.
	// Group 2 captures the inner text so stripping can preserve it.
	internalRe = regexp.MustCompile(`(?i)<a\s+[^>]*?href="(/[^"]*)"[^>]*>([^<]*)</a>`)

	newTabRe   = regexp.MustCompile(`(?i)target=["']_blank["']`)
	nofollowRe = regexp.MustCompile(`(?i)rel=["'][^"']*nofollow[^"']*["']`)
	tagRe      = regexp.MustCompile(`<[^>]+>`)
)

// Anchor is one anchor element discovered in block text.
type Anchor struct {
	Href        string
	Inner       string
	OpensNewTab bool
	Nofollow    bool
}

// Anchors returns every anchor element in text, in order of appearance.
// Inner markup is stripped to plain text.
func Anchors(text string) []Anchor {
	matches := anchorRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make([]Anchor, 0, len(matches))
	for _, m := range matches {
		out = append(out, Anchor{
			Href:        m[1],
			Inner:       StripTags(m[2]),
			OpensNewTab: newTabRe.MatchString(m[0]),
			Nofollow:    nofollowRe.MatchString(m[0]),
		})
	}
	return out
}

// AlreadyLinked reports whether phrase occurs in text immediately wrapped
// as an anchor's inner text, compared case-insensitively.
func AlreadyLinked(text, phrase string) bool {
	needle := ">" + strings.ToLower(phrase) + "</a>"
	return strings.Contains(strings.ToLower(text), needle)
}

// WrapFirst finds the first case-insensitive occurrence of phrase in text
// and wraps it in an anchor to url, preserving the original casing of the
// matched span. It returns the rewritten text and the matched substring,
// or (text, "") when the phrase is absent or already linked.
func WrapFirst(text, phrase, url string) (string, string) {
	if phrase == "" {
		return text, ""
	}
	if AlreadyLinked(text, phrase) {
		return text, ""
	}
	start, end := FoldIndex(text, phrase)
	if start < 0 {
		return text, ""
	}
	matched := text[start:end]
	linked := fmt.Sprintf(`<a href="%s">%s</a>`, url, matched)
	return text[:start] + linked + text[end:], matched
}

// FoldIndex returns the byte span [start, end) of the first occurrence of
// substr in s under Unicode simple case folding, or (-1, -1) when absent.
// Unlike indexing into a lowercased copy, the offsets always land on rune
// boundaries of s, even for runes whose case mapping changes byte length.
func FoldIndex(s, substr string) (int, int) {
	if substr == "" {
		return 0, 0
	}
	for i := 0; i < len(s); {
		if n, ok := foldPrefix(s[i:], substr); ok {
			return i, i + n
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return -1, -1
}

// foldPrefix reports whether s begins with substr under simple case
// folding, returning the byte length of the matched prefix of s.
func foldPrefix(s, substr string) (int, bool) {
	n := 0
	for _, pr := range substr {
		sr, size := utf8.DecodeRuneInString(s[n:])
		if size == 0 || !foldEq(sr, pr) {
			return 0, false
		}
		n += size
	}
	return n, true
}

func foldEq(a, b rune) bool {
	if a == b {
		return true
	}
	for r := unicode.SimpleFold(a); r != a; r = unicode.SimpleFold(r) {
		if r == b {
			return true
		}
	}
	return false
}

// StripInternal removes internal-link anchors from text, replacing each
// with its inner text, and returns the cleaned text with the count removed.
// External anchors are left untouched.
func StripInternal(text string) (string, int) {
	count := len(internalRe.FindAllString(text, -1))
	if count == 0 {
		return text, 0
	}
	return internalRe.ReplaceAllString(text, "$2"), count
}

// StripTags removes all markup tags from s.
func StripTags(s string) string {
	return strings.TrimSpace(tagRe.ReplaceAllString(s, ""))
}
