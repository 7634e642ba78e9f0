package sshserver

// inputLine is the text after the prompt with a rune cursor.
type inputLine struct {
	text []rune
	pos  int
}

func (l *inputLine) String() string { return string(l.text) }

func (l *inputLine) Len() int { return len(l.text) }

func (l *inputLine) Reset() {
	l.text = nil
	l.pos = 0
}

// Set replaces the text and puts the cursor at the end, as recall does.
func (l *inputLine) Set(value string) {
	l.text = []rune(value)
	l.pos = len(l.text)
}

func (l *inputLine) Insert(r rune) {
	l.pos = min(max(l.pos, 0), len(l.text))
	l.text = append(l.text, 0)
	copy(l.text[l.pos+1:], l.text[l.pos:])
	l.text[l.pos] = r
	l.pos++
}

func (l *inputLine) Left()  { l.pos = max(l.pos-1, 0) }
func (l *inputLine) Right() { l.pos = min(l.pos+1, len(l.text)) }
func (l *inputLine) Home()  { l.pos = 0 }
func (l *inputLine) End()   { l.pos = len(l.text) }

func (l *inputLine) WordLeft()  { l.pos = l.wordStart(l.pos) }
func (l *inputLine) WordRight() { l.pos = l.wordEnd(l.pos) }

func (l *inputLine) EraseBack() bool     { return l.erase(l.pos-1, l.pos) }
func (l *inputLine) EraseForward() bool  { return l.erase(l.pos, l.pos+1) }
func (l *inputLine) EraseWordBack() bool { return l.erase(l.wordStart(l.pos), l.pos) }
func (l *inputLine) EraseToHome() bool   { return l.erase(0, l.pos) }
func (l *inputLine) EraseToEnd() bool    { return l.erase(l.pos, len(l.text)) }

// erase removes text[from:to] and leaves the cursor at from. It reports
// whether anything was removed.
func (l *inputLine) erase(from, to int) bool {
	if from < 0 || to > len(l.text) || from >= to {
		return false
	}
	l.text = append(l.text[:from], l.text[to:]...)
	l.pos = from
	return true
}

func (l *inputLine) wordStart(i int) int {
	for i > 0 && isBlank(l.text[i-1]) {
		i--
	}
	for i > 0 && !isBlank(l.text[i-1]) {
		i--
	}
	return i
}

func (l *inputLine) wordEnd(i int) int {
	for i < len(l.text) && isBlank(l.text[i]) {
		i++
	}
	for i < len(l.text) && !isBlank(l.text[i]) {
		i++
	}
	return i
}

// column is the cell width of the text before the cursor.
func (l *inputLine) column() int {
	return widthCond.StringWidth(string(l.text[:min(l.pos, len(l.text))]))
}

func isBlank(r rune) bool {
	return r == ' ' || r == '\t'
}
