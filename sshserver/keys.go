package sshserver

import (
	"bufio"
	"io"
	"unicode"
	"unicode/utf8"
)

type keyKind int

const (
	keyRune keyKind = iota
	keyEnter
	keyUp
	keyDown
	keyLeft
	keyRight
	keyHome
	keyEnd
	keyPageUp
	keyPageDown
	keyBackspace
	keyDelete
	keyCtrlA
	keyCtrlC
	keyCtrlD
	keyCtrlE
	keyCtrlK
	keyCtrlL
	keyCtrlU
	keyCtrlW
	keyAltB
	keyAltF
	keyHint
)

type key struct {
	kind keyKind
	r    rune
	// hint is the zero-based hint index for keyHint.
	hint int
}

var controlKeys = map[byte]keyKind{
	'\n': keyEnter,
	0x7f: keyBackspace,
	0x08: keyBackspace,
	0x01: keyCtrlA,
	0x03: keyCtrlC,
	0x04: keyCtrlD,
	0x05: keyCtrlE,
	0x0b: keyCtrlK,
	0x0c: keyCtrlL,
	0x15: keyCtrlU,
	0x17: keyCtrlW,
}

// csiKeys maps the bytes after ESC [ to a key.
var csiKeys = map[string]keyKind{
	"A":  keyUp,
	"B":  keyDown,
	"C":  keyRight,
	"D":  keyLeft,
	"H":  keyHome,
	"1~": keyHome,
	"7~": keyHome,
	"F":  keyEnd,
	"4~": keyEnd,
	"8~": keyEnd,
	"3~": keyDelete,
	"5~": keyPageUp,
	"6~": keyPageDown,
}

// ss3Keys maps the byte after ESC O (application cursor mode).
var ss3Keys = map[byte]keyKind{
	'A': keyUp,
	'B': keyDown,
	'C': keyRight,
	'D': keyLeft,
	'H': keyHome,
	'F': keyEnd,
}

var metaKeys = map[byte]keyKind{
	'b': keyAltB,
	'B': keyAltB,
	'f': keyAltF,
	'F': keyAltF,
}

const maxCSILen = 8

type keyDecoder struct {
	br      *bufio.Reader
	afterCR bool
}

// readKeys decodes terminal input into keys until r fails, then closes out.
func readKeys(r io.Reader, out chan<- key) {
	defer close(out)
	d := &keyDecoder{br: bufio.NewReader(r)}
	for {
		k, ok, err := d.next()
		if err != nil {
			return
		}
		if ok {
			out <- k
		}
	}
}

// next returns the next key. ok is false for input that maps to no key.
func (d *keyDecoder) next() (key, bool, error) {
	b, err := d.br.ReadByte()
	if err != nil {
		return key{}, false, err
	}
	crlf := d.afterCR && b == '\n'
	d.afterCR = b == '\r'
	switch {
	case crlf:
		return key{}, false, nil
	case b == '\r':
		return key{kind: keyEnter}, true, nil
	case b == 0x1b:
		return d.escape()
	}
	if kind, ok := controlKeys[b]; ok {
		return key{kind: kind}, true, nil
	}
	if b < 0x20 {
		return key{}, false, nil
	}
	if b < utf8.RuneSelf {
		return key{kind: keyRune, r: rune(b)}, true, nil
	}
	_ = d.br.UnreadByte()
	r, _, err := d.br.ReadRune()
	if err != nil {
		return key{}, false, err
	}
	return key{kind: keyRune, r: r}, true, nil
}

func (d *keyDecoder) escape() (key, bool, error) {
	b, err := d.br.ReadByte()
	if err != nil {
		return key{}, false, err
	}
	var kind keyKind
	var ok bool
	switch b {
	case '[':
		seq, err := d.csiSequence()
		if err != nil || seq == "" {
			return key{}, false, err
		}
		kind, ok = csiKeys[seq]
	case 'O':
		next, err := d.br.ReadByte()
		if err != nil {
			return key{}, false, err
		}
		kind, ok = ss3Keys[next]
	case '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return key{kind: keyHint, hint: int(b - '1')}, true, nil
	default:
		kind, ok = metaKeys[b]
	}
	return key{kind: kind}, ok, nil
}

// csiSequence reads up to and including the final byte of a CSI sequence.
// Overlong sequences are dropped.
func (d *keyDecoder) csiSequence() (string, error) {
	seq := make([]byte, 0, maxCSILen)
	for len(seq) <= maxCSILen {
		b, err := d.br.ReadByte()
		if err != nil {
			return "", err
		}
		seq = append(seq, b)
		if b == '~' || unicode.IsLetter(rune(b)) {
			return string(seq), nil
		}
	}
	return "", nil
}
