package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/crypto/ssh"

	"pkt.systems/hackterm"
	"pkt.systems/hackterm/core"
	"pkt.systems/hackterm/httpapi"
	"pkt.systems/hackterm/schema"
	"pkt.systems/hackterm/sshserver"
)

type testServer struct {
	srv     hackterm.Server
	baseURL string
	sshAddr string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	httpLn, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen http: %v", err)
	}
	sshLn, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen ssh: %v", err)
	}
	cfg := hackterm.ServerConfig{
		Service: schema.ServiceConfig{
			ScanInterval:   20 * time.Millisecond,
			MatrixDuration: time.Second,
		},
		HTTP: httpapi.Config{RateLimit: 1000, RateBurst: 1000},
		SSH:  sshserver.Config{HostKeyPath: "/hackterm/ssh_host_key", ExitGrace: 10 * time.Millisecond},
	}
	srv, err := hackterm.New(cfg, hackterm.ServerDeps{
		ServiceDeps:  core.ServiceDeps{Rand: func() float64 { return 0.99 }},
		HTTPListener: httpLn,
		SSHListener:  sshLn,
		Fs:           afero.NewMemMapFs(),
	}, hackterm.WithHTTP(), hackterm.WithSSH())
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("start server: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Stop(ctx); err != nil {
			t.Logf("stop server: %v", err)
		}
	})
	ts := &testServer{
		srv:     srv,
		baseURL: "http://" + httpLn.Addr().String(),
		sshAddr: sshLn.Addr().String(),
	}
	ts.waitHealthy(t)
	return ts
}

func (ts *testServer) waitHealthy(t *testing.T) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		resp, err := http.Get(ts.baseURL + "/healthz")
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		if time.Now().After(deadline) {
			t.Fatalf("server never became healthy: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

// newClient returns a cookie-carrying client with an open session.
func (ts *testServer) newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	client := &http.Client{Jar: jar, Timeout: 10 * time.Second}
	resp, err := client.Get(ts.baseURL + "/api/session")
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	readJSON(t, resp, &map[string]any{})
	return client
}

func writeJSON(t *testing.T, client *http.Client, url string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	return resp
}

func readJSON(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.StatusCode, string(data))
	}
	if err := json.Unmarshal(data, out); err != nil {
		t.Fatalf("decode %s: %v", string(data), err)
	}
}

func requireLong(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
}

// sshTerm is an interactive SSH session with a PTY.
type sshTerm struct {
	client  *ssh.Client
	session *ssh.Session
	stdin   io.WriteCloser

	mu  sync.Mutex
	out strings.Builder
}

func (ts *testServer) dialSSH(t *testing.T, user string) *sshTerm {
	t.Helper()
	client, err := ssh.Dial("tcp", ts.sshAddr, &ssh.ClientConfig{
		User:            user,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         5 * time.Second,
	})
	if err != nil {
		t.Fatalf("ssh dial: %v", err)
	}
	session, err := client.NewSession()
	if err != nil {
		_ = client.Close()
		t.Fatalf("ssh session: %v", err)
	}
	if err := session.RequestPty("xterm-256color", 30, 100, ssh.TerminalModes{}); err != nil {
		t.Fatalf("ssh pty: %v", err)
	}
	stdin, err := session.StdinPipe()
	if err != nil {
		t.Fatalf("ssh stdin: %v", err)
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		t.Fatalf("ssh stdout: %v", err)
	}
	if err := session.Shell(); err != nil {
		t.Fatalf("ssh shell: %v", err)
	}
	term := &sshTerm{client: client, session: session, stdin: stdin}
	go func() {
		buf := make([]byte, 4096)
		for {
			n, err := stdout.Read(buf)
			if n > 0 {
				term.mu.Lock()
				term.out.Write(buf[:n])
				term.mu.Unlock()
			}
			if err != nil {
				return
			}
		}
	}()
	t.Cleanup(func() {
		_ = session.Close()
		_ = client.Close()
	})
	return term
}

func (s *sshTerm) send(t *testing.T, keys string) {
	t.Helper()
	if _, err := io.WriteString(s.stdin, keys); err != nil {
		t.Fatalf("ssh write: %v", err)
	}
}

func (s *sshTerm) output() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.out.String()
}

func (s *sshTerm) waitFor(t *testing.T, needle string, timeout time.Duration) {
	t.Helper()
	s.waitForAfter(t, 0, needle, timeout)
}

// waitForAfter waits for needle in output written after offset mark.
func (s *sshTerm) waitForAfter(t *testing.T, mark int, needle string, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if strings.Contains(s.output()[mark:], needle) {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	out := s.output()[mark:]
	if len(out) > 2000 {
		out = out[len(out)-2000:]
	}
	t.Fatalf("timeout waiting for %q in ssh output (tail=%q)", needle, out)
}
