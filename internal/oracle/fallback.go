package oracle

import (
	"regexp"
	"strings"
)

// stopWords are filler words removed before deriving anchor patterns from
// a title.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "how": {}, "to": {}, "what": {}, "is": {},
	"are": {}, "was": {}, "were": {}, "for": {}, "of": {}, "in": {}, "on": {},
	"at": {}, "by": {}, "with": {}, "your": {}, "my": {}, "our": {},
	"this": {}, "that": {}, "these": {}, "those": {}, "and": {}, "or": {},
	"but": {}, "so": {}, "complete": {}, "guide": {}, "ultimate": {},
	"best": {}, "top": {}, "tips": {}, "tricks": {}, "beginners": {},
	"beginner": {}, "advanced": {}, "simple": {}, "easy": {}, "quick": {},
}

var nonWordRe = regexp.MustCompile(`[^a-z0-9\s]+`)

const maxPatterns = 5

// FallbackPatterns derives anchor phrase patterns from a title without any
// semantic model: stop words are removed, then the leading phrase, bigrams
// of the remaining core words, and long single words are taken, capped at
// five patterns. Used whenever the remote oracle is unavailable.
func FallbackPatterns(title string) []string {
	clean := nonWordRe.ReplaceAllString(strings.ToLower(title), " ")

	var core []string
	for _, w := range strings.Fields(clean) {
		if _, stop := stopWords[w]; stop || len(w) <= 2 {
			continue
		}
		core = append(core, w)
	}

	var patterns []string
	seen := make(map[string]struct{})
	add := func(p string) {
		if len(patterns) >= maxPatterns {
			return
		}
		if _, dup := seen[p]; dup {
			return
		}
		seen[p] = struct{}{}
		patterns = append(patterns, p)
	}

	// Leading phrase of up to three core words.
	if len(core) >= 2 {
		n := 3
		if len(core) < n {
			n = len(core)
		}
		if phrase := strings.Join(core[:n], " "); len(phrase) > 5 {
			add(phrase)
		}
	}

	// Core-word bigrams.
	for i := 0; i+1 < len(core); i++ {
		if bigram := core[i] + " " + core[i+1]; len(bigram) > 5 {
			add(bigram)
		}
	}

	// Long single words.
	for _, w := range core {
		if len(w) > 4 {
			add(w)
		}
	}

	return patterns
}
