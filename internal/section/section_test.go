package section

import (
	"strings"
	"testing"
)

const sampleBody = "# T\n\nIntro\n\n## Scaffold\n\nold text\n\n## Other\n\nkeep me"

func TestLocate_Basic(t *testing.T) {
	span, ok := Locate(sampleBody, "Scaffold")
	if !ok {
		t.Fatal("section not found")
	}
	got := sampleBody[span.Start:span.End]
	if !strings.HasPrefix(got, "## Scaffold") {
		t.Errorf("span does not start at heading: %q", got)
	}
	if strings.Contains(got, "## Other") {
		t.Errorf("span leaks into next section: %q", got)
	}
	if !strings.Contains(got, "old text") {
		t.Errorf("span misses section body: %q", got)
	}
}

func TestLocate_CaseInsensitiveAndWhitespace(t *testing.T) {
	body := "intro\n\n  ##   Name Variants  \n\n- Alpha\n- Beta\n"
	span, ok := Locate(body, "name variants")
	if !ok {
		t.Fatal("case-insensitive match failed")
	}
	if !strings.Contains(body[span.Start:span.End], "Alpha") {
		t.Errorf("span = %q", body[span.Start:span.End])
	}
}

func TestLocate_Missing(t *testing.T) {
	if _, ok := Locate(sampleBody, "Mutations"); ok {
		t.Error("expected no span for absent label")
	}
}

func TestLocate_EndsAtNextHeading(t *testing.T) {
	span, _ := Locate(sampleBody, "Scaffold")
	if sampleBody[span.End:] != "## Other\n\nkeep me" {
		t.Errorf("end = %d, remainder %q", span.End, sampleBody[span.End:])
	}
}

func TestLocate_ProseBreakHeuristic(t *testing.T) {
	// No heading follows, so the section ends at the first blank line after
	// its prose — unless that blank line introduces a list.
	body := "## Expanded Idea\n\nfirst paragraph\n\n- item one\n- item two\n\ntrailing note\n"
	span, ok := Locate(body, "Expanded Idea")
	if !ok {
		t.Fatal("section not found")
	}
	sec := body[span.Start:span.End]
	if !strings.Contains(sec, "item two") {
		t.Errorf("list should stay inside the section: %q", sec)
	}
	if strings.Contains(sec, "trailing note") {
		t.Errorf("trailing prose should fall outside the section: %q", sec)
	}
}

func TestLocate_ProseBreakIsApproximate(t *testing.T) {
	// Known-approximate boundary: a code fence after the blank line is not
	// excluded by the heuristic, so it ends the section even though a human
	// might consider it attached.
	body := "## Scaffold\n\nsome prose\n\n```\ncode\n```\n"
	span, ok := Locate(body, "Scaffold")
	if !ok {
		t.Fatal("section not found")
	}
	if strings.Contains(body[span.Start:span.End], "code") {
		t.Errorf("heuristic changed: code fence now inside section: %q", body[span.Start:span.End])
	}
}

func TestLocate_EndOfDocument(t *testing.T) {
	body := "intro\n\n## Scaffold\n\nonly content"
	span, _ := Locate(body, "Scaffold")
	if span.End != len(body) {
		t.Errorf("end = %d, want end of body %d", span.End, len(body))
	}
}

func TestMerge_ReplaceScenario(t *testing.T) {
	got := Merge(sampleBody, "Scaffold", "new text", Replace)
	want := "# T\n\nIntro\n\n## Scaffold\n\nnew text\n\n## Other\n\nkeep me"
	if got != want {
		t.Errorf("got:\n%q\nwant:\n%q", got, want)
	}
}

func TestMerge_ReplaceIsIdempotent(t *testing.T) {
	once := Merge(sampleBody, "Scaffold", "new text", Replace)
	twice := Merge(once, "Scaffold", "new text", Replace)
	if once != twice {
		t.Errorf("second replace diverged:\nonce:  %q\ntwice: %q", once, twice)
	}
}

func TestMerge_ReplaceWithOwnHeading(t *testing.T) {
	got := Merge(sampleBody, "Scaffold", "## Scaffold v2\n\nfresh", Replace)
	if !strings.Contains(got, "## Scaffold v2\n\nfresh") {
		t.Errorf("content heading not used verbatim:\n%q", got)
	}
	if strings.Contains(got, "old text") {
		t.Errorf("old section text survived:\n%q", got)
	}
}

func TestMerge_SectionIsolation(t *testing.T) {
	got := Merge(sampleBody, "Scaffold", "rewritten", Replace)
	if !strings.Contains(got, "## Other\n\nkeep me") {
		t.Errorf("unrelated section disturbed:\n%q", got)
	}
	if !strings.Contains(got, "# T\n\nIntro") {
		t.Errorf("preamble disturbed:\n%q", got)
	}
}

func TestMerge_ReplaceMissingFallsBackToAppend(t *testing.T) {
	got := Merge("existing prose", "Mutations", "## Mutations\n\n- swap vowels", Replace)
	want := "existing prose\n\n## Mutations\n\n- swap vowels"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestMerge_AppendAfter(t *testing.T) {
	got := Merge(sampleBody, "Scaffold", "addendum", AppendAfter)
	want := "# T\n\nIntro\n\n## Scaffold\n\nold text\n\naddendum\n\n## Other\n\nkeep me"
	if got != want {
		t.Errorf("got:\n%q\nwant:\n%q", got, want)
	}
}

func TestMerge_AppendAtEnd(t *testing.T) {
	got := Merge("body\n\n\n", "anything", "tail", AppendAtEnd)
	want := "body\n\ntail\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestMerge_AppendAtEndEmptyBody(t *testing.T) {
	got := Merge("", "anything", "only content", AppendAtEnd)
	if got != "only content" {
		t.Errorf("got %q", got)
	}
}

func TestMerge_NormalizesRaggedWhitespace(t *testing.T) {
	got := Merge(sampleBody, "Scaffold", "\n\n  new text \n\n\n", Replace)
	want := "# T\n\nIntro\n\n## Scaffold\n\nnew text\n\n## Other\n\nkeep me"
	if got != want {
		t.Errorf("got:\n%q\nwant:\n%q", got, want)
	}
}
