package sshserver

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/crypto/ssh"
)

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func startTestServer(t *testing.T) (string, *terminalEnv) {
	t.Helper()
	env := newTerminalEnv(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	srv := &Server{
		Config:   Config{HostKeyPath: "/host_ed25519", ExitGrace: 10 * time.Millisecond},
		Listener: ln,
		Service:  env.service,
		EventBus: env.bus,
		Fs:       afero.NewMemMapFs(),
	}
	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Errorf("ssh server did not stop")
		}
	})
	return ln.Addr().String(), env
}

func dialTestServer(t *testing.T, addr string) *ssh.Client {
	t.Helper()
	client, err := ssh.Dial("tcp", addr, &ssh.ClientConfig{
		User:            "neo",
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         5 * time.Second,
	})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func waitForOutput(t *testing.T, out *lockedBuffer, want string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(out.String(), want) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %q", want)
}

func TestServerInteractiveSession(t *testing.T) {
	addr, env := startTestServer(t)
	client := dialTestServer(t, addr)

	session, err := client.NewSession()
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	defer session.Close()
	if err := session.RequestPty("xterm-256color", 30, 100, ssh.TerminalModes{}); err != nil {
		t.Fatalf("request pty: %v", err)
	}
	stdin, err := session.StdinPipe()
	if err != nil {
		t.Fatalf("stdin: %v", err)
	}
	out := &lockedBuffer{}
	session.Stdout = out
	if err := session.Shell(); err != nil {
		t.Fatalf("shell: %v", err)
	}

	waitForOutput(t, out, "SECURE_TERMINAL_v2.0")
	if _, err := io.WriteString(stdin, "whoami\r"); err != nil {
		t.Fatalf("write: %v", err)
	}
	waitForOutput(t, out, "Identity Information")
	if _, err := io.WriteString(stdin, "exit\r"); err != nil {
		t.Fatalf("write: %v", err)
	}
	waitForOutput(t, out, "Goodbye, friend.")

	waitErr := make(chan error, 1)
	go func() { waitErr <- session.Wait() }()
	select {
	case err := <-waitErr:
		if err != nil {
			t.Fatalf("expected clean exit, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for exit")
	}
	if open := env.service.CloseAll(context.Background()); open != 0 {
		t.Fatalf("expected no open sessions, got %d", open)
	}
}

func TestServerRequiresPty(t *testing.T) {
	addr, _ := startTestServer(t)
	client := dialTestServer(t, addr)

	session, err := client.NewSession()
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	defer session.Close()
	output, err := session.CombinedOutput("")
	var exitErr *ssh.ExitError
	if !errors.As(err, &exitErr) || exitErr.ExitStatus() != 1 {
		t.Fatalf("expected exit status 1, got %v", err)
	}
	if !strings.Contains(string(output), "pty required") {
		t.Fatalf("expected pty required message, got %q", output)
	}
}
