package schema

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestNormalizeSessionID(t *testing.T) {
	cases := []struct {
		name  string
		id    SessionID
		valid bool
	}{
		{"uuid", "0f8fad5b-d9cb-469f-a165-70867728950e", true},
		{"short", "abc", true},
		{"empty", "", false},
		{"leading-space", " abc", false},
		{"inner-space", "a bc", false},
		{"control", "abc\n", false},
		{"unicode", "åbc", false},
	}
	for _, tc := range cases {
		_, err := NormalizeSessionID(tc.id)
		if tc.valid && err != nil {
			t.Fatalf("case %q expected valid, got error: %v", tc.name, err)
		}
		if !tc.valid && !errors.Is(err, ErrInvalidSession) {
			t.Fatalf("case %q expected ErrInvalidSession, got %v", tc.name, err)
		}
	}
}

func TestNormalizeRecallDirection(t *testing.T) {
	cases := map[string]RecallDirection{
		"previous": RecallPrevious,
		" Up ":     RecallPrevious,
		"prev":     RecallPrevious,
		"next":     RecallNext,
		"DOWN":     RecallNext,
	}
	for input, want := range cases {
		got, err := NormalizeRecallDirection(input)
		if err != nil {
			t.Fatalf("direction %q: %v", input, err)
		}
		if got != want {
			t.Fatalf("direction %q: expected %q, got %q", input, want, got)
		}
	}
	if _, err := NormalizeRecallDirection("sideways"); !errors.Is(err, ErrInvalidRecall) {
		t.Fatalf("expected ErrInvalidRecall, got %v", err)
	}
}

func TestNormalizeServiceConfigDefaults(t *testing.T) {
	cfg, err := NormalizeServiceConfig(ServiceConfig{})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.ExploitDuration != DefaultExploitDuration || cfg.MatrixDuration != DefaultMatrixDuration {
		t.Fatalf("unexpected durations: %+v", cfg)
	}
	if cfg.ScanInterval != DefaultScanInterval || cfg.ScanCeiling != DefaultScanCeiling || cfg.ScanMaxStep != DefaultScanMaxStep {
		t.Fatalf("unexpected scan settings: %+v", cfg)
	}
	if cfg.ScanPolicy != ScanPolicyRestart {
		t.Fatalf("expected restart policy, got %q", cfg.ScanPolicy)
	}
	if _, err := NormalizeServiceConfig(ServiceConfig{ScanPolicy: "queue"}); !errors.Is(err, ErrInvalidScanPolicy) {
		t.Fatalf("expected ErrInvalidScanPolicy, got %v", err)
	}
	if _, err := NormalizeServiceConfig(ServiceConfig{MaxSessions: -1}); err == nil {
		t.Fatalf("expected error for negative limit")
	}
}

func TestTranscriptLineTone(t *testing.T) {
	cases := []struct {
		line TranscriptLine
		want LineTone
	}{
		{TranscriptLine{Kind: LineResponse, Text: "[+] ok"}, ToneSuccess},
		{TranscriptLine{Kind: LineResponse, Text: "[!] warn"}, ToneAlert},
		{TranscriptLine{Kind: LineResponse, Text: "[*] working"}, ToneNotice},
		{TranscriptLine{Kind: LineResponse, Text: "  [+] indented"}, TonePlain},
		{TranscriptLine{Kind: LineCommand, Text: "[+] echo"}, TonePlain},
	}
	for _, tc := range cases {
		if got := tc.line.Tone(); got != tc.want {
			t.Fatalf("line %q: expected %q, got %q", tc.line.Text, tc.want, got)
		}
	}
}

func TestTranscriptLineJSONCarriesTone(t *testing.T) {
	data, err := json.Marshal(TranscriptLine{Kind: LineResponse, Text: "[!] Exploit found"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"kind":"response","text":"[!] Exploit found","tone":"alert"}`
	if string(data) != want {
		t.Fatalf("expected %s, got %s", want, data)
	}
	var back TranscriptLine
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Kind != LineResponse || back.Text != "[!] Exploit found" {
		t.Fatalf("unexpected line %+v", back)
	}
}

func TestCommandIDString(t *testing.T) {
	if CommandHackGame.String() != "hack-game" {
		t.Fatalf("unexpected name %q", CommandHackGame.String())
	}
	if CommandUnknown.String() != "unknown" || CommandID(200).String() != "unknown" {
		t.Fatalf("expected unknown names")
	}
	if got := len(Commands()); got != 13 {
		t.Fatalf("expected 13 commands, got %d", got)
	}
}
