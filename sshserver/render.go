package sshserver

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"pkt.systems/hackterm/schema"
)

// widthCond pins cell widths to the narrow table so box drawing characters
// stay single-width regardless of the server locale.
var widthCond = &runewidth.Condition{EastAsianWidth: false}

func lineColor(line schema.TranscriptLine, theme termTheme) string {
	switch line.Kind {
	case schema.LineCommand:
		return ansiBold + ansiFgRGB(theme.CommandFG)
	case schema.LineWelcome:
		return ansiFgRGB(theme.WelcomeFG)
	case schema.LineInfo:
		return ansiFgRGB(theme.InfoFG)
	}
	switch line.Tone() {
	case schema.ToneSuccess:
		return ansiFgRGB(theme.SuccessFG)
	case schema.ToneAlert:
		return ansiFgRGB(theme.AlertFG)
	case schema.ToneNotice:
		return ansiFgRGB(theme.NoticeFG)
	default:
		return ansiFgRGB(theme.TextFG)
	}
}

// renderTranscriptLine wraps one transcript line to width and styles every
// physical row. Empty lines still occupy a row.
func renderTranscriptLine(line schema.TranscriptLine, width int, theme termTheme) []string {
	color := lineColor(line, theme)
	rows := wrapText(sanitizeOutputLine(line.Text), width)
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		if row == "" {
			out = append(out, "")
			continue
		}
		out = append(out, color+row+ansiReset)
	}
	return out
}

func renderViewport(lines []schema.TranscriptLine, width, height int, theme termTheme, atBottom bool) []string {
	if height <= 0 {
		return nil
	}
	rendered := make([]string, 0, height)
	if atBottom {
		var flattened []string
		for _, line := range lines {
			flattened = append(flattened, renderTranscriptLine(line, width, theme)...)
		}
		if len(flattened) > height {
			flattened = flattened[len(flattened)-height:]
		}
		rendered = append(rendered, flattened...)
	} else {
		for _, line := range lines {
			if len(rendered) >= height {
				break
			}
			for _, row := range renderTranscriptLine(line, width, theme) {
				if len(rendered) >= height {
					break
				}
				rendered = append(rendered, row)
			}
		}
	}
	for len(rendered) < height {
		rendered = append(rendered, "")
	}
	return rendered
}

func renderStatusBar(status schema.StatusSnapshot, clock string, width int, theme termTheme) string {
	dot := ansiFgRGB(theme.AlertFG) + "●"
	if status.SecurityLevel == schema.DefaultSecurityLevel {
		dot = ansiFgRGB(theme.SecurityFG) + "●"
	}
	left := " " + dot + " " +
		ansiFgRGB(theme.SecurityFG) + "SECURITY: " + status.SecurityLevel + "  " +
		ansiFgRGB(theme.FirewallFG) + "FIREWALL: " + status.FirewallStatus + "  " +
		ansiFgRGB(theme.UptimeFG) + "UPTIME: " + status.Uptime
	right := ansiFgRGB(theme.ClockFG) + "[" + clock + "] "
	return fillRow(left, right, width, ansiBgRGB(theme.StatusBG))
}

func renderScanBar(progress float64, width int, theme termTheme) string {
	label := " SCANNING... "
	pct := fmt.Sprintf(" %3d%%", int(math.Round(progress)))
	barWidth := width - widthCond.StringWidth(label) - widthCond.StringWidth(pct) - 1
	if barWidth < 1 {
		return trimANSIToWidth(ansiFgRGB(theme.ScanFG)+label+pct+ansiReset, width)
	}
	filled := int(math.Round(progress / 100 * float64(barWidth)))
	if filled > barWidth {
		filled = barWidth
	}
	if filled < 0 {
		filled = 0
	}
	return ansiFgRGB(theme.TitleFG) + label +
		ansiFgRGB(theme.ScanFG) + strings.Repeat("█", filled) +
		ansiFgRGB(theme.ScanTrack) + strings.Repeat("░", barWidth-filled) +
		ansiFgRGB(theme.TitleFG) + pct + ansiReset
}

func renderTitle(title string, width int, theme termTheme) string {
	return trimANSIToWidth(ansiBold+ansiFgRGB(theme.TitleFG)+" >_ "+title+ansiReset, width)
}

func renderTagline(tagline string, width int, theme termTheme) string {
	return trimANSIToWidth(ansiFgRGB(theme.TaglineFG)+" "+tagline+ansiReset, width)
}

func renderHints(hints []string, width int, theme termTheme) string {
	if len(hints) == 0 {
		return ""
	}
	parts := make([]string, 0, len(hints))
	for i, hint := range hints {
		parts = append(parts, hintLabel(i, hint))
	}
	return trimANSIToWidth(ansiDim+ansiFgRGB(theme.HintFG)+" "+strings.Join(parts, " ")+ansiReset, width)
}

// hintLabel renders hint i with its Alt-digit shortcut. Only the first nine
// hints have one.
func hintLabel(i int, hint string) string {
	if i < 9 {
		return fmt.Sprintf("[M-%d $ %s]", i+1, hint)
	}
	return "[$ " + hint + "]"
}

func renderFooter(text string, width int, theme termTheme) string {
	w := widthCond.StringWidth(text)
	pad := 0
	if w < width {
		pad = (width - w) / 2
	}
	return trimANSIToWidth(strings.Repeat(" ", pad)+ansiFgRGB(theme.FooterFG)+text+ansiReset, width)
}

// fillRow places left and right on one row of exactly width cells.
func fillRow(left, right string, width int, bg string) string {
	lw := visibleWidth(left)
	rw := visibleWidth(right)
	if lw+rw > width {
		right = ""
		rw = 0
	}
	if lw > width {
		left = trimANSIToWidth(left, width)
		lw = visibleWidth(left)
	}
	gap := width - lw - rw
	return bg + left + strings.Repeat(" ", gap) + right + ansiReset
}

// wrapText breaks text into rows no wider than width cells.
func wrapText(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}
	if text == "" {
		return []string{""}
	}
	var rows []string
	var b strings.Builder
	col := 0
	for _, r := range text {
		w := widthCond.RuneWidth(r)
		if col+w > width && col > 0 {
			rows = append(rows, b.String())
			b.Reset()
			col = 0
		}
		b.WriteRune(r)
		col += w
	}
	rows = append(rows, b.String())
	return rows
}

// sanitizeOutputLine drops control characters that would move the cursor.
func sanitizeOutputLine(text string) string {
	if !strings.ContainsFunc(text, isControl) {
		return text
	}
	var b strings.Builder
	for _, r := range text {
		switch {
		case r == '\t':
			b.WriteString("    ")
		case isControl(r):
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isControl(r rune) bool {
	return r < 0x20 || r == 0x7f || (r >= 0x80 && r < 0xa0)
}

func skipEscape(text string, i int) int {
	if i >= len(text) {
		return i
	}
	if text[i] == '[' {
		i++
		for i < len(text) {
			b := text[i]
			i++
			if b >= 0x40 && b <= 0x7e {
				return i
			}
		}
		return i
	}
	return i + 1
}

func visibleWidth(text string) int {
	width := 0
	for i := 0; i < len(text); {
		if text[i] == 0x1b {
			i = skipEscape(text, i+1)
			continue
		}
		r, size := utf8.DecodeRuneInString(text[i:])
		if size == 0 {
			break
		}
		i += size
		width += widthCond.RuneWidth(r)
	}
	return width
}

func trimANSIToWidth(text string, width int) string {
	if width <= 0 {
		return ""
	}
	var b strings.Builder
	visible := 0
	for i := 0; i < len(text); {
		if text[i] == 0x1b {
			start := i
			i = skipEscape(text, i+1)
			b.WriteString(text[start:i])
			continue
		}
		r, size := utf8.DecodeRuneInString(text[i:])
		if size == 0 {
			break
		}
		w := widthCond.RuneWidth(r)
		if visible+w > width {
			break
		}
		b.WriteRune(r)
		i += size
		visible += w
	}
	return b.String()
}
