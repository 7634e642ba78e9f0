package schema

import (
	"encoding/json"
	"strings"
)

// SessionID identifies a terminal session.
type SessionID string

// ThemeName identifies a UI theme.
type ThemeName string

// LineKind classifies a transcript line.
type LineKind string

const (
	// LineCommand is the echo of a submitted input.
	LineCommand LineKind = "command"
	// LineWelcome is banner output shown at session start.
	LineWelcome LineKind = "welcome"
	// LineInfo is informational output shown at session start.
	LineInfo LineKind = "info"
	// LineResponse is command output.
	LineResponse LineKind = "response"
)

// LineTone is the display accent of a response line.
type LineTone string

const (
	TonePlain   LineTone = "plain"
	ToneSuccess LineTone = "success"
	ToneAlert   LineTone = "alert"
	ToneNotice  LineTone = "notice"
)

// TranscriptLine is one immutable line in a session transcript.
type TranscriptLine struct {
	Kind LineKind `json:"kind"`
	Text string   `json:"text"`
}

// MarshalJSON adds the derived tone so clients do not re-parse markers.
func (l TranscriptLine) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind LineKind `json:"kind"`
		Text string   `json:"text"`
		Tone LineTone `json:"tone"`
	}{Kind: l.Kind, Text: l.Text, Tone: l.Tone()})
}

// Tone derives the accent from the response marker prefix.
func (l TranscriptLine) Tone() LineTone {
	if l.Kind != LineResponse {
		return TonePlain
	}
	switch {
	case strings.HasPrefix(l.Text, "[+]"):
		return ToneSuccess
	case strings.HasPrefix(l.Text, "[!]"):
		return ToneAlert
	case strings.HasPrefix(l.Text, "[*]"):
		return ToneNotice
	default:
		return TonePlain
	}
}

// CommandID enumerates the commands the terminal understands.
type CommandID uint8

const (
	CommandUnknown CommandID = iota
	CommandHelp
	CommandWhoami
	CommandPortfolio
	CommandSkills
	CommandCTF
	CommandHackGame
	CommandScan
	CommandMatrix
	CommandRecognize
	CommandFsociety
	CommandContact
	CommandClear
	CommandExit
)

var commandNames = [...]string{
	CommandUnknown:   "",
	CommandHelp:      "help",
	CommandWhoami:    "whoami",
	CommandPortfolio: "portfolio",
	CommandSkills:    "skills",
	CommandCTF:       "ctf",
	CommandHackGame:  "hack-game",
	CommandScan:      "scan",
	CommandMatrix:    "matrix",
	CommandRecognize: "recognize",
	CommandFsociety:  "fsociety",
	CommandContact:   "contact",
	CommandClear:     "clear",
	CommandExit:      "exit",
}

// String returns the registry name of the command, or "unknown".
func (c CommandID) String() string {
	if int(c) >= len(commandNames) || c == CommandUnknown {
		return "unknown"
	}
	return commandNames[c]
}

// Commands returns every known command in help order.
func Commands() []CommandID {
	out := make([]CommandID, 0, len(commandNames)-1)
	for id := CommandHelp; int(id) < len(commandNames); id++ {
		out = append(out, id)
	}
	return out
}

// RecallDirection selects which way history recall moves.
type RecallDirection string

const (
	// RecallPrevious moves toward older entries.
	RecallPrevious RecallDirection = "previous"
	// RecallNext moves toward newer entries.
	RecallNext RecallDirection = "next"
)

// ScanPolicy controls what a scan does while another scan is running.
type ScanPolicy string

const (
	// ScanPolicyRestart cancels the running scan and starts over from zero.
	ScanPolicyRestart ScanPolicy = "restart"
	// ScanPolicyIgnore lets the running scan continue.
	ScanPolicyIgnore ScanPolicy = "ignore"
)
