package hackterm

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"

	"pkt.systems/hackterm/core"
	"pkt.systems/hackterm/schema"
	"pkt.systems/hackterm/sshserver"
)

type recordingSink struct {
	transcripts []schema.TranscriptEvent
	sessions    []schema.SessionEvent
}

func (r *recordingSink) OnTranscript(event schema.TranscriptEvent) {
	r.transcripts = append(r.transcripts, event)
}
func (r *recordingSink) OnStatus(schema.StatusEvent) {}
func (r *recordingSink) OnInput(schema.InputEvent)   {}
func (r *recordingSink) OnSession(event schema.SessionEvent) {
	r.sessions = append(r.sessions, event)
}

func listen(t *testing.T) net.Listener {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	return ln
}

func TestNewRequiresAFrontEnd(t *testing.T) {
	_, err := New(ServerConfig{}, ServerDeps{})
	require.Error(t, err)
}

func TestNewRejectsInvalidServiceConfig(t *testing.T) {
	_, err := New(ServerConfig{Service: schema.ServiceConfig{ScanPolicy: "sometimes"}}, ServerDeps{}, WithHTTP())
	require.Error(t, err)
}

func TestFanoutSkipsNilAndDuplicates(t *testing.T) {
	a := &recordingSink{}
	b := &recordingSink{}
	assert.Nil(t, fanout(nil, nil))
	assert.Same(t, a, fanout(nil, a, a).(*recordingSink))

	sink := fanout(a, nil, b)
	sink.OnTranscript(schema.TranscriptEvent{SessionID: "s1"})
	sink.OnSession(schema.SessionEvent{SessionID: "s1", Type: schema.SessionEventClosed})
	assert.Len(t, a.transcripts, 1)
	assert.Len(t, b.transcripts, 1)
	assert.Len(t, b.sessions, 1)
}

func TestServerStopClosesSessions(t *testing.T) {
	extra := &recordingSink{}
	srv, err := New(ServerConfig{}, ServerDeps{
		ServiceDeps:  core.ServiceDeps{EventSink: extra},
		HTTPListener: listen(t),
	}, WithHTTP())
	require.NoError(t, err)
	require.NoError(t, srv.Start(context.Background()))

	opened, err := srv.Service().OpenSession(context.Background(), schema.OpenSessionRequest{})
	require.NoError(t, err)

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Stop(stopCtx))
	require.NoError(t, srv.Wait())

	_, err = srv.Service().GetSession(context.Background(), schema.GetSessionRequest{SessionID: opened.Session.ID})
	assert.ErrorIs(t, err, schema.ErrSessionNotFound)
	require.Len(t, extra.sessions, 2)
	assert.Equal(t, schema.SessionEventClosed, extra.sessions[1].Type)
}

func TestServerStartTwiceFails(t *testing.T) {
	srv, err := New(ServerConfig{}, ServerDeps{HTTPListener: listen(t)}, WithHTTP())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, srv.Start(ctx))
	assert.Error(t, srv.Start(ctx))
	require.NoError(t, srv.Stop(context.Background()))
}

func TestServerServesHTTPAndSSH(t *testing.T) {
	httpLn := listen(t)
	sshLn := listen(t)
	srv, err := New(ServerConfig{
		SSH: sshserver.Config{HostKeyPath: "/ssh/host_key", ExitGrace: 10 * time.Millisecond},
	}, ServerDeps{
		HTTPListener: httpLn,
		SSHListener:  sshLn,
		Fs:           afero.NewMemMapFs(),
	}, WithHTTP(), WithSSH())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, srv.Start(ctx))
	t.Cleanup(func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer stopCancel()
		_ = srv.Stop(stopCtx)
	})

	base := "http://" + httpLn.Addr().String()
	client := &http.Client{Timeout: 5 * time.Second}
	var resp *http.Response
	require.Eventually(t, func() bool {
		resp, err = client.Get(base + "/healthz")
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = client.Get(base + "/api/session")
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cookies := resp.Cookies()
	require.NotEmpty(t, cookies)

	req, err := http.NewRequest(http.MethodPost, base+"/api/submit", strings.NewReader(`{"input":"whoami"}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(cookies[0])
	resp, err = client.Do(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var submit map[string]any
	require.NoError(t, json.Unmarshal(body, &submit))
	assert.Equal(t, "whoami", submit["command"])

	sshClient, err := ssh.Dial("tcp", sshLn.Addr().String(), &ssh.ClientConfig{
		User:            "guest",
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         5 * time.Second,
	})
	require.NoError(t, err)
	defer sshClient.Close()
	session, err := sshClient.NewSession()
	require.NoError(t, err)
	defer session.Close()
	require.NoError(t, session.RequestPty("xterm", 24, 80, ssh.TerminalModes{}))
	stdin, err := session.StdinPipe()
	require.NoError(t, err)
	stdout, err := session.StdoutPipe()
	require.NoError(t, err)
	require.NoError(t, session.Shell())

	output := make(chan string, 64)
	go func() {
		buf := make([]byte, 4096)
		for {
			n, err := stdout.Read(buf)
			if n > 0 {
				output <- string(buf[:n])
			}
			if err != nil {
				close(output)
				return
			}
		}
	}()
	_, err = io.WriteString(stdin, "exit\r")
	require.NoError(t, err)

	var seen strings.Builder
	deadline := time.After(5 * time.Second)
	for !strings.Contains(seen.String(), "Goodbye, friend.") {
		select {
		case chunk, ok := <-output:
			if !ok {
				t.Fatalf("ssh output closed early: %q", seen.String())
			}
			seen.WriteString(chunk)
		case <-deadline:
			t.Fatalf("timed out waiting for exit output")
		}
	}
	require.NoError(t, session.Wait())
}
