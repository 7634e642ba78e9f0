package integration_test

import (
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestSSHMatrixModeExpires(t *testing.T) {
	requireLong(t)
	ts := newTestServer(t)
	term := ts.dialSSH(t, "neo")

	term.waitFor(t, "SECURE_TERMINAL_v2.0", 5*time.Second)
	term.send(t, "matrix\r")
	term.waitFor(t, "[MATRIX MODE ACTIVE] There is no spoon.", 5*time.Second)

	mark := len(term.output())
	term.waitForAfter(t, mark, "Stay paranoid, stay safe.", 5*time.Second)
}

func TestSSHRecallAndExit(t *testing.T) {
	requireLong(t)
	ts := newTestServer(t)
	term := ts.dialSSH(t, "trinity")
	term.waitFor(t, "SECURE_TERMINAL_v2.0", 5*time.Second)

	term.send(t, "ctf\r")
	term.waitFor(t, "exploit-test", 5*time.Second)
	term.send(t, "clear\r")
	time.Sleep(300 * time.Millisecond)
	mark := len(term.output())
	// Two steps back past "clear" lands on "ctf".
	term.send(t, "\x1b[A\x1b[A\r")
	term.waitForAfter(t, mark, "exploit-test", 5*time.Second)

	term.send(t, "exit\r")
	term.waitFor(t, "Goodbye, friend.", 5*time.Second)
	done := make(chan error, 1)
	go func() { done <- term.session.Wait() }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("ssh session ended with %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("ssh session did not close after exit")
	}
}

func TestSSHAndHTTPSessionsCoexist(t *testing.T) {
	requireLong(t)
	ts := newTestServer(t)
	term := ts.dialSSH(t, "morpheus")
	term.waitFor(t, "SECURE_TERMINAL_v2.0", 5*time.Second)
	client := ts.newClient(t)

	readJSON(t, writeJSON(t, client, ts.baseURL+"/api/submit", map[string]string{"input": "portfolio"}), &map[string]any{})
	term.send(t, "ctf\r")
	term.waitFor(t, "$ ctf", 5*time.Second)
	if strings.Contains(term.output(), "Advanced Vulnerability Scanner") {
		t.Fatal("http command leaked into the ssh terminal")
	}

	history := struct{ Entries []string }{}
	resp, err := client.Get(ts.baseURL + "/api/history")
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	readJSON(t, resp, &history)
	if len(history.Entries) != 1 || history.Entries[0] != "portfolio" {
		t.Fatalf("unexpected http history %v", history.Entries)
	}
}
