package core

import "pkt.systems/hackterm/schema"

// transcriptView is a snapshot of a transcript's visible state.
type transcriptView struct {
	Lines        []schema.TranscriptLine
	TotalLines   int
	ScrollOffset int
	AtBottom     bool
	Revision     uint64
}

// transcript stores session lines and scroll state.
// scrollOffset is the number of lines from the bottom; 0 means at bottom.
// maxLines of zero keeps every line. revision counts content changes.
type transcript struct {
	lines        []schema.TranscriptLine
	scrollOffset int
	maxLines     int
	revision     uint64
}

func newTranscript(maxLines int, initial []schema.TranscriptLine) *transcript {
	t := &transcript{maxLines: maxLines}
	t.Append(initial...)
	return t
}

// Append adds lines. If the view is scrolled up, the scroll offset grows to
// keep the view anchored.
func (t *transcript) Append(lines ...schema.TranscriptLine) {
	if len(lines) == 0 {
		return
	}
	t.lines = append(t.lines, lines...)
	t.revision++
	if t.scrollOffset > 0 {
		t.scrollOffset += len(lines)
	}
	if t.maxLines > 0 && len(t.lines) > t.maxLines {
		trim := len(t.lines) - t.maxLines
		t.lines = append([]schema.TranscriptLine(nil), t.lines[trim:]...)
		if t.scrollOffset > len(t.lines) {
			t.scrollOffset = len(t.lines)
		}
	}
}

// Clear drops every line.
func (t *transcript) Clear() {
	t.lines = nil
	t.scrollOffset = 0
	t.revision++
}

// Revision reports the content revision. It grows on every Append that adds
// lines and on every Clear.
func (t *transcript) Revision() uint64 {
	return t.revision
}

// Len reports the number of stored lines.
func (t *transcript) Len() int {
	return len(t.lines)
}

// ResetScroll returns the view to the bottom.
func (t *transcript) ResetScroll() {
	t.scrollOffset = 0
}

// Scroll adjusts the scroll offset by delta. Positive delta scrolls up (older
// lines), negative delta scrolls down. Limit is the viewport height.
func (t *transcript) Scroll(delta, limit int) {
	t.scrollOffset = clampScroll(t.scrollOffset+delta, len(t.lines), limit)
}

// Snapshot returns a view for the given viewport limit. A limit of zero
// returns every line.
func (t *transcript) Snapshot(limit int) transcriptView {
	total := len(t.lines)
	if limit <= 0 || limit > total {
		limit = total
	}

	maxScroll := maxScroll(total, limit)
	if t.scrollOffset > maxScroll {
		t.scrollOffset = maxScroll
	}

	end := total - t.scrollOffset
	if end < 0 {
		end = 0
	}
	start := end - limit
	if start < 0 {
		start = 0
	}

	lines := make([]schema.TranscriptLine, end-start)
	copy(lines, t.lines[start:end])

	return transcriptView{
		Lines:        lines,
		TotalLines:   total,
		ScrollOffset: t.scrollOffset,
		AtBottom:     t.scrollOffset == 0,
		Revision:     t.revision,
	}
}

func maxScroll(total, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	if total <= limit {
		return 0
	}
	return total - limit
}

func clampScroll(offset, total, limit int) int {
	max := maxScroll(total, limit)
	if offset < 0 {
		return 0
	}
	if offset > max {
		return max
	}
	return offset
}
