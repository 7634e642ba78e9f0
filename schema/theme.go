package schema

import "strings"

// DefaultTheme is the default terminal theme name.
const DefaultTheme ThemeName = "phosphor"

var themeNames = []ThemeName{
	"phosphor",
	"amber",
	"ice",
}

// AvailableThemes returns the supported theme names.
func AvailableThemes() []ThemeName {
	out := make([]ThemeName, len(themeNames))
	copy(out, themeNames)
	return out
}

// NormalizeThemeName returns a canonical theme name if supported.
func NormalizeThemeName(name string) (ThemeName, bool) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	normalized = strings.ReplaceAll(normalized, "_", "-")
	switch normalized {
	case "", "phosphor", "green":
		return "phosphor", true
	case "amber", "retro":
		return "amber", true
	case "ice", "blue":
		return "ice", true
	default:
		return "", false
	}
}
