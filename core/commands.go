package core

import (
	"strings"

	"pkt.systems/hackterm/schema"
)

// Effect is the state change a command asks the session to apply.
type Effect uint8

const (
	// EffectNone means the command only produces lines.
	EffectNone Effect = iota
	// EffectClear empties the transcript.
	EffectClear
	// EffectExploit raises the busy flag for the exploit duration.
	EffectExploit
	// EffectScan starts the scan progress timer.
	EffectScan
	// EffectMatrix turns on matrix mode for the matrix duration.
	EffectMatrix
	// EffectExit asks the host to close the terminal.
	EffectExit
)

func (e Effect) String() string {
	switch e {
	case EffectClear:
		return "clear"
	case EffectExploit:
		return "exploit"
	case EffectScan:
		return "scan"
	case EffectMatrix:
		return "matrix"
	case EffectExit:
		return "exit"
	default:
		return "none"
	}
}

type commandEntry struct {
	id     schema.CommandID
	effect Effect
}

var registry = map[string]commandEntry{
	"help":      {id: schema.CommandHelp},
	"whoami":    {id: schema.CommandWhoami},
	"portfolio": {id: schema.CommandPortfolio},
	"skills":    {id: schema.CommandSkills},
	"ctf":       {id: schema.CommandCTF},
	"hack-game": {id: schema.CommandHackGame, effect: EffectExploit},
	"scan":      {id: schema.CommandScan, effect: EffectScan},
	"matrix":    {id: schema.CommandMatrix, effect: EffectMatrix},
	"recognize": {id: schema.CommandRecognize},
	"fsociety":  {id: schema.CommandFsociety},
	"contact":   {id: schema.CommandContact},
	"clear":     {id: schema.CommandClear, effect: EffectClear},
	"exit":      {id: schema.CommandExit, effect: EffectExit},
}

// NormalizeCommand returns the lookup key for raw input.
func NormalizeCommand(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// ResolveCommand maps raw input to a command. Matching is exact after
// normalization; there are no arguments, prefixes or aliases.
func ResolveCommand(raw string) (schema.CommandID, bool) {
	entry, ok := registry[NormalizeCommand(raw)]
	if !ok {
		return schema.CommandUnknown, false
	}
	return entry.id, true
}
