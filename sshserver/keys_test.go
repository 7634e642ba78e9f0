package sshserver

import (
	"strings"
	"testing"
)

func collectKeys(t *testing.T, input string) []key {
	t.Helper()
	keys := make(chan key, 32)
	go readKeys(strings.NewReader(input), keys)
	var out []key
	for k := range keys {
		out = append(out, k)
	}
	return out
}

func TestReadKeysNavigation(t *testing.T) {
	got := collectKeys(t, "\x1b[A\x1b[B\x1b[5~\x1b[6~\x1bOH\x1b[3~\x1bb")
	want := []keyKind{keyUp, keyDown, keyPageUp, keyPageDown, keyHome, keyDelete, keyAltB}
	if len(got) != len(want) {
		t.Fatalf("expected %d keys, got %d: %+v", len(want), len(got), got)
	}
	for i, kind := range want {
		if got[i].kind != kind {
			t.Fatalf("key %d: expected %v, got %v", i, kind, got[i].kind)
		}
	}
}

func TestReadKeysCRLFIsOneEnter(t *testing.T) {
	got := collectKeys(t, "ls\r\n")
	if len(got) != 3 {
		t.Fatalf("expected 3 keys, got %+v", got)
	}
	if got[2].kind != keyEnter {
		t.Fatalf("expected enter, got %v", got[2].kind)
	}
}

func TestReadKeysDropsUnknownInput(t *testing.T) {
	got := collectKeys(t, "\x1b[Z\x1b[2~\x1bq\x02a")
	if len(got) != 1 || got[0].kind != keyRune || got[0].r != 'a' {
		t.Fatalf("expected only rune a, got %+v", got)
	}
}

func TestReadKeysUTF8(t *testing.T) {
	got := collectKeys(t, "ö")
	if len(got) != 1 || got[0].kind != keyRune || got[0].r != 'ö' {
		t.Fatalf("expected rune ö, got %+v", got)
	}
}

func TestReadKeysAltDigitSelectsHint(t *testing.T) {
	got := collectKeys(t, "\x1b1\x1b4\x1b0")
	if len(got) != 2 {
		t.Fatalf("expected 2 keys, got %+v", got)
	}
	for i, want := range []int{0, 3} {
		if got[i].kind != keyHint || got[i].hint != want {
			t.Fatalf("key %d: expected hint %d, got %+v", i, want, got[i])
		}
	}
}
