package core

import (
	"testing"

	"pkt.systems/hackterm/schema"
)

func responses(texts ...string) []schema.TranscriptLine {
	lines := make([]schema.TranscriptLine, 0, len(texts))
	for _, text := range texts {
		lines = append(lines, schema.TranscriptLine{Kind: schema.LineResponse, Text: text})
	}
	return lines
}

func TestTranscriptScrollAnchorsOnAppend(t *testing.T) {
	tr := &transcript{maxLines: 100}
	tr.Append(responses("one", "two", "three", "four", "five")...)
	tr.Scroll(2, 3) // scroll up two lines with viewport size 3
	if tr.scrollOffset != 2 {
		t.Fatalf("expected scroll offset 2, got %d", tr.scrollOffset)
	}
	tr.Append(responses("six", "seven")...)
	if tr.scrollOffset != 4 {
		t.Fatalf("expected scroll offset 4 after append, got %d", tr.scrollOffset)
	}
	view := tr.Snapshot(3)
	if view.AtBottom {
		t.Fatalf("expected not at bottom after scroll")
	}
	if len(view.Lines) != 3 || view.Lines[0].Text != "one" {
		t.Fatalf("unexpected view: %+v", view.Lines)
	}
}

func TestTranscriptRespectsMaxLines(t *testing.T) {
	tr := &transcript{maxLines: 3}
	tr.Append(responses("one", "two", "three", "four", "five")...)
	view := tr.Snapshot(10)
	if view.TotalLines != 3 {
		t.Fatalf("expected total lines 3, got %d", view.TotalLines)
	}
	if view.Lines[0].Text != "three" || view.Lines[2].Text != "five" {
		t.Fatalf("unexpected lines: %+v", view.Lines)
	}
}

func TestTranscriptUnboundedByDefault(t *testing.T) {
	tr := newTranscript(0, nil)
	for i := 0; i < 20000; i++ {
		tr.Append(responses("x")...)
	}
	if tr.Len() != 20000 {
		t.Fatalf("expected 20000 lines, got %d", tr.Len())
	}
}

func TestTranscriptClear(t *testing.T) {
	tr := newTranscript(0, responses("one", "two", "three"))
	tr.Scroll(1, 2)
	tr.Clear()
	view := tr.Snapshot(0)
	if view.TotalLines != 0 || len(view.Lines) != 0 || !view.AtBottom {
		t.Fatalf("expected empty view at bottom, got %+v", view)
	}
}

func TestTranscriptScrollClampsToBounds(t *testing.T) {
	tr := newTranscript(0, responses("one", "two", "three", "four"))
	tr.Scroll(100, 2)
	if tr.scrollOffset != 2 {
		t.Fatalf("expected scroll offset 2, got %d", tr.scrollOffset)
	}
	tr.Scroll(-100, 2)
	if tr.scrollOffset != 0 {
		t.Fatalf("expected scroll offset 0, got %d", tr.scrollOffset)
	}
}

func TestTranscriptSnapshotClampsOffset(t *testing.T) {
	tr := newTranscript(0, responses("one", "two", "three", "four"))
	tr.scrollOffset = 10
	view := tr.Snapshot(3)
	if view.ScrollOffset != 1 {
		t.Fatalf("expected scroll offset 1, got %d", view.ScrollOffset)
	}
	if view.Lines[0].Text != "one" {
		t.Fatalf("unexpected first line %q", view.Lines[0].Text)
	}
}

func TestTranscriptRevisionTracksContentChanges(t *testing.T) {
	tr := newTranscript(0, responses("welcome"))
	if tr.Revision() != 1 {
		t.Fatalf("expected revision 1 after welcome, got %d", tr.Revision())
	}
	tr.Append()
	tr.Scroll(1, 1)
	if tr.Revision() != 1 {
		t.Fatalf("empty append and scroll must not change revision, got %d", tr.Revision())
	}
	tr.Append(responses("a", "b")...)
	tr.Clear()
	if view := tr.Snapshot(0); view.Revision != 3 {
		t.Fatalf("expected snapshot revision 3, got %d", view.Revision)
	}
}
