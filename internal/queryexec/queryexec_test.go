package queryexec

import (
	"testing"

	"github.com/oxhq/qdb/internal/ast"
	"github.com/oxhq/qdb/internal/catalog"
	"github.com/oxhq/qdb/internal/value"
)

func TestFullTextIndexScoreAndMatch(t *testing.T) {
	ft := NewFullTextIndex("")
	ft.Index("a", "the quick brown fox")
	ft.Index("b", "quick quick quick")
	ft.Index("c", "nothing relevant")

	matches := ft.Match("quick")
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %v", matches)
	}

	if ft.Score("b", "quick") <= ft.Score("a", "quick") {
		t.Fatalf("expected b to outscore a: a=%v b=%v", ft.Score("a", "quick"), ft.Score("b", "quick"))
	}
	if ft.Score("c", "quick") != 0 {
		t.Fatalf("expected c to score 0, got %v", ft.Score("c", "quick"))
	}
}

func TestFullTextIndexHighlightAndOffsets(t *testing.T) {
	ft := NewFullTextIndex("")
	ft.Index("a", "the quick brown fox jumps")

	got := ft.Highlight("a", "quick fox", "<b>", "</b>")
	want := "the <b>quick</b> brown <b>fox</b> jumps"
	if got != want {
		t.Fatalf("highlight mismatch: got %q want %q", got, want)
	}

	offsets := ft.Offsets("a", "quick fox")
	if len(offsets["quick"]) != 1 || offsets["quick"][0] != 1 {
		t.Fatalf("expected quick at position 1, got %v", offsets["quick"])
	}
	if len(offsets["fox"]) != 1 || offsets["fox"][0] != 3 {
		t.Fatalf("expected fox at position 3, got %v", offsets["fox"])
	}
}

func TestExecutorMatchRefRegistration(t *testing.T) {
	e := New()
	idx := &catalog.IndexDef{Name: "body_ft", Table: "article"}
	expr1 := &ast.BinaryExpr{Op: ast.OpMatches}
	expr2 := &ast.BinaryExpr{Op: ast.OpMatches}

	ref1 := e.Register(expr1, idx, "quick")
	ref2 := e.Register(expr2, idx, "fox")
	if ref1 == ref2 {
		t.Fatalf("expected distinct match refs for distinct predicates, got %v and %v", ref1, ref2)
	}

	again := e.Register(expr1, idx, "quick")
	if again != ref1 {
		t.Fatalf("expected re-registering the same predicate to return the same ref")
	}

	ft := NewFullTextIndex("")
	ft.Index("a", "quick")
	e.SetIndex(ref1, ft)

	got, query, ok := e.IndexFor(ref1)
	if !ok || got != ft || query != "quick" {
		t.Fatalf("expected IndexFor to return the registered index and query")
	}
	if _, _, ok := e.IndexFor(ref2); ok {
		t.Fatalf("expected IndexFor(ref2) to fail: no index was ever attached")
	}
}

func TestExecutorFullTextCache(t *testing.T) {
	e := New()
	if _, ok := e.CachedFullText("ns\x00db\x00article\x00body_ft"); ok {
		t.Fatalf("expected no cached index yet")
	}
	ft := NewFullTextIndex("")
	e.CacheFullText("ns\x00db\x00article\x00body_ft", ft)
	got, ok := e.CachedFullText("ns\x00db\x00article\x00body_ft")
	if !ok || got != ft {
		t.Fatalf("expected cached index to round-trip")
	}
}

func TestKnnContextTopK(t *testing.T) {
	kc := NewKnnContext(2)
	kc.Offer(value.StringKey("a"), 5.0)
	kc.Offer(value.StringKey("b"), 1.0)
	kc.Offer(value.StringKey("c"), 3.0)

	top := kc.TopK()
	if len(top) != 2 {
		t.Fatalf("expected top-2, got %d", len(top))
	}
	if top[0].DocKey.Str != "b" || top[1].DocKey.Str != "c" {
		t.Fatalf("expected b then c, got %v then %v", top[0].DocKey.Str, top[1].DocKey.Str)
	}
}
