package core

// history records every submitted input, duplicates included, and tracks
// the recall cursor. cursor is -1 when not browsing and otherwise counts
// back from the newest entry.
type history struct {
	entries []string
	max     int
	cursor  int
}

func newHistory(max int) *history {
	return &history{max: max, cursor: -1}
}

// Append records raw input and stops browsing.
func (h *history) Append(entry string) {
	h.entries = append(h.entries, entry)
	if h.max > 0 && len(h.entries) > h.max {
		h.entries = append([]string(nil), h.entries[len(h.entries)-h.max:]...)
	}
	h.cursor = -1
}

// Previous moves toward older entries, saturating at the oldest.
func (h *history) Previous() (string, bool) {
	if len(h.entries) == 0 {
		return "", false
	}
	if h.cursor < len(h.entries)-1 {
		h.cursor++
	}
	return h.at(h.cursor), true
}

// Next moves toward newer entries. Stepping past the newest entry stops
// browsing and yields an empty buffer.
func (h *history) Next() (string, bool) {
	switch {
	case h.cursor < 0:
		return "", false
	case h.cursor == 0:
		h.cursor = -1
		return "", true
	default:
		h.cursor--
		return h.at(h.cursor), true
	}
}

func (h *history) at(cursor int) string {
	return h.entries[len(h.entries)-1-cursor]
}

// Cursor reports the recall cursor.
func (h *history) Cursor() int {
	return h.cursor
}

// Len reports the number of entries.
func (h *history) Len() int {
	return len(h.entries)
}

// Entries returns a copy of the entries, oldest first.
func (h *history) Entries() []string {
	return append([]string(nil), h.entries...)
}
