package sshserver

import (
	"strings"
	"testing"

	"pkt.systems/hackterm/schema"
)

func TestRenderStatusBarFullWidth(t *testing.T) {
	theme := themeForName("phosphor")
	line := renderStatusBar(schema.DefaultStatus(), "12:00:00", 80, theme)
	if got := visibleWidth(line); got != 80 {
		t.Fatalf("expected status bar width 80, got %d", got)
	}
	plain := stripANSI(line)
	for _, want := range []string{"SECURITY: HIGH", "FIREWALL: ACTIVE", "UPTIME: 365d 12h 43m", "[12:00:00]"} {
		if !strings.Contains(plain, want) {
			t.Fatalf("expected %q in %q", want, plain)
		}
	}
	if !strings.HasSuffix(line, ansiReset) {
		t.Fatalf("expected status bar to reset styles")
	}
}

func TestRenderStatusBarDropsClockWhenNarrow(t *testing.T) {
	theme := themeForName("phosphor")
	line := renderStatusBar(schema.DefaultStatus(), "12:00:00", 30, theme)
	if got := visibleWidth(line); got != 30 {
		t.Fatalf("expected width 30, got %d", got)
	}
	if strings.Contains(stripANSI(line), "12:00:00") {
		t.Fatalf("expected clock to be dropped")
	}
}

func TestRenderScanBarProgress(t *testing.T) {
	theme := themeForName("phosphor")
	line := renderScanBar(50, 40, theme)
	plain := stripANSI(line)
	if !strings.Contains(plain, " 50%") {
		t.Fatalf("expected percentage, got %q", plain)
	}
	filled := strings.Count(plain, "█")
	empty := strings.Count(plain, "░")
	if filled == 0 || empty == 0 || filled+empty != 40-len(" SCANNING... ")-len("  50%")-1 {
		t.Fatalf("unexpected bar split %d/%d in %q", filled, empty, plain)
	}
}

func TestLineColorFollowsTone(t *testing.T) {
	theme := themeForName("phosphor")
	cases := []struct {
		line schema.TranscriptLine
		want string
	}{
		{schema.TranscriptLine{Kind: schema.LineResponse, Text: "[+] ok"}, ansiFgRGB(theme.SuccessFG)},
		{schema.TranscriptLine{Kind: schema.LineResponse, Text: "[!] bad"}, ansiFgRGB(theme.AlertFG)},
		{schema.TranscriptLine{Kind: schema.LineResponse, Text: "[*] note"}, ansiFgRGB(theme.NoticeFG)},
		{schema.TranscriptLine{Kind: schema.LineResponse, Text: "[x] plain"}, ansiFgRGB(theme.TextFG)},
		{schema.TranscriptLine{Kind: schema.LineInfo, Text: "[+] info"}, ansiFgRGB(theme.InfoFG)},
	}
	for _, tc := range cases {
		if got := lineColor(tc.line, theme); !strings.HasSuffix(got, tc.want) {
			t.Fatalf("line %q: expected color %q, got %q", tc.line.Text, tc.want, got)
		}
	}
}

func TestRenderViewportAtBottomKeepsTail(t *testing.T) {
	theme := themeForName("phosphor")
	lines := []schema.TranscriptLine{
		{Kind: schema.LineResponse, Text: strings.Repeat("a", 25)},
		{Kind: schema.LineResponse, Text: "LAST"},
	}
	got := renderViewport(lines, 10, 3, theme, true)
	if len(got) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(got))
	}
	if !strings.Contains(stripANSI(got[2]), "LAST") {
		t.Fatalf("expected tail output to end with LAST, got %q", got)
	}
}

func TestRenderViewportPadsShortTranscript(t *testing.T) {
	theme := themeForName("phosphor")
	got := renderViewport([]schema.TranscriptLine{{Kind: schema.LineCommand, Text: "$ help"}}, 20, 4, theme, false)
	if len(got) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(got))
	}
	if stripANSI(got[0]) != "$ help" || got[3] != "" {
		t.Fatalf("unexpected viewport %q", got)
	}
}

func TestRenderFooterCentered(t *testing.T) {
	theme := themeForName("amber")
	line := renderFooter("abcd", 10, theme)
	if !strings.HasPrefix(stripANSI(line), "   abcd") {
		t.Fatalf("expected centered footer, got %q", stripANSI(line))
	}
}

func TestSanitizeOutputLineDropsControls(t *testing.T) {
	if got := sanitizeOutputLine("a\x1b[2Jb\tc"); got != "a[2Jb    c" {
		t.Fatalf("unexpected sanitize result %q", got)
	}
}

func TestTrimANSIToWidthKeepsEscapes(t *testing.T) {
	in := ansiBold + "hello" + ansiReset
	got := trimANSIToWidth(in, 3)
	if stripANSI(got) != "hel" || !strings.HasPrefix(got, ansiBold) {
		t.Fatalf("unexpected trim result %q", got)
	}
}

func TestMatrixThemeIsGreen(t *testing.T) {
	base := themeForName("ice")
	m := matrixTheme(base)
	if m.TextFG != base.MatrixFG || m.AlertFG != base.AlertFG {
		t.Fatalf("unexpected matrix theme %+v", m)
	}
	if themeForName("nope").Name != schema.DefaultTheme {
		t.Fatalf("expected fallback to default theme")
	}
}

func stripANSI(text string) string {
	var b strings.Builder
	for i := 0; i < len(text); {
		if text[i] == 0x1b {
			i = skipEscape(text, i+1)
			continue
		}
		b.WriteByte(text[i])
		i++
	}
	return b.String()
}
