package links_test

import (
	"strings"
	"testing"

	"github.com/jonesrussell/gocampaign/internal/links"
)

func TestInsert_LongestAnchorWins(t *testing.T) {
	doc := "Learn about SEO tools and SEO basics"
	got := links.Insert(doc, []links.Suggestion{
		{Anchor: "SEO tools", Target: "/a"},
		{Anchor: "SEO", Target: "/b"},
	})

	want := "Learn about [SEO tools](/a) and [SEO](/b) basics"
	if got != want {
		t.Errorf("Insert() = %q, want %q", got, want)
	}

	// The "SEO" inside "SEO tools" must stay unlinked.
	if strings.Count(got, "(/a)") != 1 || strings.Count(got, "(/b)") != 1 {
		t.Errorf("each target should appear exactly once: %q", got)
	}
}

func TestInsert_OnlyFirstOccurrenceLinked(t *testing.T) {
	doc := "keyword research matters. Do keyword research early."
	got := links.Insert(doc, []links.Suggestion{
		{Anchor: "keyword research", Target: "/kr"},
	})

	want := "[keyword research](/kr) matters. Do keyword research early."
	if got != want {
		t.Errorf("Insert() = %q, want %q", got, want)
	}
}

func TestInsert_SkipsExistingMarkdownLinks(t *testing.T) {
	doc := "See [SEO tools](/old) for more about SEO tools."
	got := links.Insert(doc, []links.Suggestion{
		{Anchor: "SEO tools", Target: "/new"},
	})

	want := "See [SEO tools](/old) for more about [SEO tools](/new)."
	if got != want {
		t.Errorf("Insert() = %q, want %q", got, want)
	}
}

func TestInsert_SkipsExistingHTMLAnchors(t *testing.T) {
	doc := `Read <a href="/x">SEO tools</a> today`
	got := links.Insert(doc, []links.Suggestion{
		{Anchor: "SEO tools", Target: "/y"},
	})

	if got != doc {
		t.Errorf("Insert() = %q, want unchanged %q", got, doc)
	}
}

func TestInsert_MissingAnchorIsNoOp(t *testing.T) {
	doc := "Nothing relevant here."
	got := links.Insert(doc, []links.Suggestion{
		{Anchor: "backlink strategy", Target: "/bs"},
	})

	if got != doc {
		t.Errorf("Insert() = %q, want unchanged %q", got, doc)
	}
}

func TestInsert_EmptySuggestionsSkipped(t *testing.T) {
	doc := "Some content about analytics."
	got := links.Insert(doc, []links.Suggestion{
		{Anchor: "", Target: "/a"},
		{Anchor: "analytics", Target: ""},
	})

	if got != doc {
		t.Errorf("Insert() = %q, want unchanged %q", got, doc)
	}
}

func TestInsert_RegexMetacharactersEscaped(t *testing.T) {
	doc := "Pricing (per seat) explained"
	got := links.Insert(doc, []links.Suggestion{
		{Anchor: "(per seat)", Target: "/pricing"},
	})

	want := "Pricing [(per seat)](/pricing) explained"
	if got != want {
		t.Errorf("Insert() = %q, want %q", got, want)
	}
}

func TestInsert_Deterministic(t *testing.T) {
	doc := "alpha beta gamma alpha"
	sugs := []links.Suggestion{
		{Anchor: "alpha", Target: "/1"},
		{Anchor: "gamma", Target: "/2"},
	}

	first := links.Insert(doc, sugs)
	second := links.Insert(doc, sugs)
	if first != second {
		t.Errorf("Insert() not deterministic: %q vs %q", first, second)
	}
}
