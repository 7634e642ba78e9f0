package sshserver

import (
	"strconv"

	"pkt.systems/hackterm/schema"
)

type rgb struct {
	r int
	g int
	b int
}

type termTheme struct {
	Name       schema.ThemeName
	StatusBG   rgb
	SecurityFG rgb
	FirewallFG rgb
	UptimeFG   rgb
	ClockFG    rgb
	TitleFG    rgb
	TaglineFG  rgb
	CommandFG  rgb
	WelcomeFG  rgb
	InfoFG     rgb
	TextFG     rgb
	SuccessFG  rgb
	AlertFG    rgb
	NoticeFG   rgb
	PromptFG   rgb
	InputFG    rgb
	HintFG     rgb
	FooterFG   rgb
	ScanFG     rgb
	ScanTrack  rgb
	MatrixFG   rgb
}

const (
	ansiReset = "\x1b[0m"
	ansiBold  = "\x1b[1m"
	ansiDim   = "\x1b[2m"
)

var termThemes = map[schema.ThemeName]termTheme{
	"phosphor": {
		Name:       "phosphor",
		StatusBG:   rgb{r: 2, g: 6, b: 23},
		SecurityFG: rgb{r: 74, g: 222, b: 128},
		FirewallFG: rgb{r: 34, g: 211, b: 238},
		UptimeFG:   rgb{r: 192, g: 132, b: 252},
		ClockFG:    rgb{r: 156, g: 163, b: 175},
		TitleFG:    rgb{r: 34, g: 211, b: 238},
		TaglineFG:  rgb{r: 156, g: 163, b: 175},
		CommandFG:  rgb{r: 34, g: 211, b: 238},
		WelcomeFG:  rgb{r: 74, g: 222, b: 128},
		InfoFG:     rgb{r: 250, g: 204, b: 21},
		TextFG:     rgb{r: 209, g: 213, b: 219},
		SuccessFG:  rgb{r: 74, g: 222, b: 128},
		AlertFG:    rgb{r: 248, g: 113, b: 113},
		NoticeFG:   rgb{r: 96, g: 165, b: 250},
		PromptFG:   rgb{r: 34, g: 211, b: 238},
		InputFG:    rgb{r: 103, g: 232, b: 249},
		HintFG:     rgb{r: 103, g: 232, b: 249},
		FooterFG:   rgb{r: 107, g: 114, b: 128},
		ScanFG:     rgb{r: 34, g: 197, b: 94},
		ScanTrack:  rgb{r: 30, g: 41, b: 59},
		MatrixFG:   rgb{r: 34, g: 197, b: 94},
	},
	"amber": {
		Name:       "amber",
		StatusBG:   rgb{r: 28, g: 18, b: 4},
		SecurityFG: rgb{r: 251, g: 146, b: 60},
		FirewallFG: rgb{r: 251, g: 191, b: 36},
		UptimeFG:   rgb{r: 253, g: 186, b: 116},
		ClockFG:    rgb{r: 168, g: 132, b: 84},
		TitleFG:    rgb{r: 251, g: 191, b: 36},
		TaglineFG:  rgb{r: 168, g: 132, b: 84},
		CommandFG:  rgb{r: 251, g: 191, b: 36},
		WelcomeFG:  rgb{r: 251, g: 146, b: 60},
		InfoFG:     rgb{r: 254, g: 240, b: 138},
		TextFG:     rgb{r: 231, g: 210, b: 170},
		SuccessFG:  rgb{r: 190, g: 242, b: 100},
		AlertFG:    rgb{r: 248, g: 113, b: 113},
		NoticeFG:   rgb{r: 253, g: 224, b: 71},
		PromptFG:   rgb{r: 251, g: 191, b: 36},
		InputFG:    rgb{r: 252, g: 211, b: 77},
		HintFG:     rgb{r: 252, g: 211, b: 77},
		FooterFG:   rgb{r: 120, g: 98, b: 64},
		ScanFG:     rgb{r: 251, g: 146, b: 60},
		ScanTrack:  rgb{r: 56, g: 40, b: 16},
		MatrixFG:   rgb{r: 34, g: 197, b: 94},
	},
	"ice": {
		Name:       "ice",
		StatusBG:   rgb{r: 8, g: 20, b: 38},
		SecurityFG: rgb{r: 165, g: 243, b: 252},
		FirewallFG: rgb{r: 147, g: 197, b: 253},
		UptimeFG:   rgb{r: 196, g: 181, b: 253},
		ClockFG:    rgb{r: 148, g: 163, b: 184},
		TitleFG:    rgb{r: 147, g: 197, b: 253},
		TaglineFG:  rgb{r: 148, g: 163, b: 184},
		CommandFG:  rgb{r: 147, g: 197, b: 253},
		WelcomeFG:  rgb{r: 165, g: 243, b: 252},
		InfoFG:     rgb{r: 224, g: 231, b: 255},
		TextFG:     rgb{r: 226, g: 232, b: 240},
		SuccessFG:  rgb{r: 134, g: 239, b: 172},
		AlertFG:    rgb{r: 253, g: 164, b: 175},
		NoticeFG:   rgb{r: 125, g: 211, b: 252},
		PromptFG:   rgb{r: 147, g: 197, b: 253},
		InputFG:    rgb{r: 191, g: 219, b: 254},
		HintFG:     rgb{r: 191, g: 219, b: 254},
		FooterFG:   rgb{r: 100, g: 116, b: 139},
		ScanFG:     rgb{r: 125, g: 211, b: 252},
		ScanTrack:  rgb{r: 30, g: 41, b: 59},
		MatrixFG:   rgb{r: 34, g: 197, b: 94},
	},
}

// matrixTheme paints everything green on black while matrix mode is on.
func matrixTheme(base termTheme) termTheme {
	green := base.MatrixFG
	dim := rgb{r: green.r / 2, g: green.g / 2, b: green.b / 2}
	out := base
	out.StatusBG = rgb{}
	out.SecurityFG, out.FirewallFG, out.UptimeFG = green, green, green
	out.TitleFG, out.CommandFG, out.WelcomeFG = green, green, green
	out.InfoFG, out.TextFG, out.SuccessFG = green, green, green
	out.NoticeFG, out.PromptFG, out.InputFG = green, green, green
	out.HintFG, out.ScanFG = green, green
	out.ClockFG, out.TaglineFG, out.FooterFG = dim, dim, dim
	return out
}

func themeForName(name schema.ThemeName) termTheme {
	if name == "" {
		name = schema.DefaultTheme
	}
	if theme, ok := termThemes[name]; ok {
		return theme
	}
	return termThemes[schema.DefaultTheme]
}

func ansiFgRGB(c rgb) string {
	return "\x1b[38;2;" + strconv.Itoa(c.r) + ";" + strconv.Itoa(c.g) + ";" + strconv.Itoa(c.b) + "m"
}

func ansiBgRGB(c rgb) string {
	return "\x1b[48;2;" + strconv.Itoa(c.r) + ";" + strconv.Itoa(c.g) + ";" + strconv.Itoa(c.b) + "m"
}
