package markup

import (
	"strings"
	"testing"
)

func TestAnchors(t *testing.T) {
	text := `See <a href="/blog/grip">the grip guide</a> and ` +
		`<a href="https://example.com/x" target="_blank" rel="noopener nofollow">this study</a>.`
	got := Anchors(text)
	if len(got) != 2 {
		t.Fatalf("anchors = %d, want 2", len(got))
	}
	if got[0].Href != "/blog/grip" || got[0].Inner != "the grip guide" {
		t.Errorf("first = %+v", got[0])
	}
	if got[0].OpensNewTab || got[0].Nofollow {
		t.Errorf("first should have no attributes: %+v", got[0])
	}
	if !got[1].OpensNewTab || !got[1].Nofollow {
		t.Errorf("second should be new-tab nofollow: %+v", got[1])
	}
}

func TestAnchorsStripsInnerMarkup(t *testing.T) {
	got := Anchors(`<a href="/x"><strong>bold</strong> text</a>`)
	if len(got) != 1 || got[0].Inner != "bold text" {
		t.Fatalf("got %+v", got)
	}
}

func TestWrapFirstPreservesCasing(t *testing.T) {
	text := "Mastering the Golf Grip takes practice."
	out, matched := WrapFirst(text, "golf grip", "/blog/grip")
	if matched != "Golf Grip" {
		t.Errorf("matched = %q, want %q", matched, "Golf Grip")
	}
	if !strings.Contains(out, `<a href="/blog/grip">Golf Grip</a>`) {
		t.Errorf("out = %q", out)
	}
}

func TestWrapFirstOnlyFirstOccurrence(t *testing.T) {
	text := "grip it, then grip it again"
	out, matched := WrapFirst(text, "grip", "/g")
	if matched != "grip" {
		t.Fatalf("matched = %q", matched)
	}
	if strings.Count(out, "<a ") != 1 {
		t.Errorf("wrapped more than once: %q", out)
	}
	if !strings.HasPrefix(out, `<a href="/g">grip</a> it`) {
		t.Errorf("wrong occurrence wrapped: %q", out)
	}
}

func TestWrapFirstIdempotent(t *testing.T) {
	text := `try the <a href="/blog/grip">golf grip</a> today`
	out, matched := WrapFirst(text, "Golf Grip", "/blog/grip")
	if matched != "" {
		t.Errorf("matched = %q, want no match on linked phrase", matched)
	}
	if out != text {
		t.Errorf("text changed: %q", out)
	}
}

func TestWrapFirstAbsentPhrase(t *testing.T) {
	out, matched := WrapFirst("nothing here", "golf grip", "/g")
	if matched != "" || out != "nothing here" {
		t.Errorf("got %q, %q", out, matched)
	}
}

func TestWrapFirstMultibyteCaseMapping(t *testing.T) {
	// U+0130 lowercases to two runes; indexing into a lowercased copy
	// would shift every offset after it by a byte.
	text := "İstanbul golf grip guide"
	out, matched := WrapFirst(text, "Golf Grip", "/g")
	if matched != "golf grip" {
		t.Fatalf("matched = %q, want %q", matched, "golf grip")
	}
	if out != `İstanbul <a href="/g">golf grip</a> guide` {
		t.Errorf("out = %q", out)
	}
}

func TestFoldIndex(t *testing.T) {
	start, end := FoldIndex("Mastering the Golf Grip", "golf grip")
	if start < 0 || "Mastering the Golf Grip"[start:end] != "Golf Grip" {
		t.Errorf("span = [%d, %d)", start, end)
	}

	// U+017F folds to "s" but is two bytes wide; the span must cover the
	// wide rune, not the phrase's byte length.
	text := "claſsic drills"
	start, end = FoldIndex(text, "classic")
	if start != 0 || text[start:end] != "claſsic" {
		t.Errorf("span = [%d, %d), got %q", start, end, text[start:end])
	}

	if start, end = FoldIndex("nothing", "golf"); start != -1 || end != -1 {
		t.Errorf("absent phrase: span = [%d, %d)", start, end)
	}
}

func TestAlreadyLinked(t *testing.T) {
	text := `see <a href="/g">Golf Grip</a>`
	if !AlreadyLinked(text, "golf grip") {
		t.Error("should detect linked phrase case-insensitively")
	}
	if AlreadyLinked(text, "golf") {
		t.Error("partial inner text should not count as linked")
	}
}

func TestStripInternal(t *testing.T) {
	text := `keep <a href="/blog/a">inner a</a> and ` +
		`<a href="https://example.com">external</a> and <a href="/b">inner b</a>`
	out, n := StripInternal(text)
	if n != 2 {
		t.Fatalf("removed = %d, want 2", n)
	}
	if strings.Contains(out, `href="/blog/a"`) || strings.Contains(out, `href="/b"`) {
		t.Errorf("internal anchors remain: %q", out)
	}
	if !strings.Contains(out, "inner a") || !strings.Contains(out, "inner b") {
		t.Errorf("inner text lost: %q", out)
	}
	if !strings.Contains(out, `<a href="https://example.com">external</a>`) {
		t.Errorf("external anchor touched: %q", out)
	}
}

func TestStripInternalNoLinks(t *testing.T) {
	out, n := StripInternal("plain text")
	if n != 0 || out != "plain text" {
		t.Errorf("got %q, %d", out, n)
	}
}

func TestStripTags(t *testing.T) {
	if got := StripTags("<em>hi</em> there"); got != "hi there" {
		t.Errorf("got %q", got)
	}
}
