// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/xrunhq/xrun/internal/adapter"
	"github.com/xrunhq/xrun/internal/config"
	"github.com/xrunhq/xrun/internal/sshserver"

	"github.com/sony/gobreaker"
	gossh "golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

const (
	testUser     = "deploy"
	testPassword = "s3cret"
)

// startSSHServer runs an in-process server and returns a target plus a dialer
// that trusts it through a temporary known_hosts file.
func startSSHServer(t *testing.T, cfg sshserver.Config) (*sshserver.Server, adapter.SSH, *SSHDialer) {
	t.Helper()

	if cfg.Passwords == nil && cfg.AuthorizedKeys == nil {
		cfg.Passwords = map[string]string{testUser: testPassword}
	}
	srv, err := sshserver.New(cfg)
	if err != nil {
		t.Fatalf("sshserver.New() error = %v", err)
	}
	if err := srv.Start(t.Context()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() { _ = srv.Stop() })

	line, err := srv.KnownHostsLine()
	if err != nil {
		t.Fatalf("KnownHostsLine() error = %v", err)
	}
	knownHostsPath := filepath.Join(t.TempDir(), "known_hosts")
	if err := os.WriteFile(knownHostsPath, []byte(line+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	target := adapter.SSH{
		Host:     "127.0.0.1",
		Port:     srv.Port(),
		Username: testUser,
		Password: testPassword,
	}
	dialer := NewSSHDialer(WithKnownHosts(knownHostsPath), WithAgentSocket(""), WithDialTimeout(5*time.Second))
	return srv, target, dialer
}

func TestSSHEngine_Run(t *testing.T) {
	t.Parallel()

	_, target, dialer := startSSHServer(t, sshserver.Config{})
	e := NewSSHEngine(target, dialer)

	res, err := e.Run(t.Context(), Invocation{Command: "echo hello; echo oops >&2"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Stdout != "hello\n" || res.Stderr != "oops\n" || res.ExitCode != 0 {
		t.Errorf("Run() result = %+v", res)
	}
	if res.Command != "echo hello; echo oops >&2" {
		t.Errorf("Command = %q", res.Command)
	}
}

func TestSSHEngine_AliasDialsStoredAddress(t *testing.T) {
	t.Parallel()

	srv, _, dialer := startSSHServer(t, sshserver.Config{})
	store := config.NewStore(&config.Config{Hosts: map[string]config.HostConfig{
		"web.invalid": {Host: "127.0.0.1", Port: srv.Port(), Username: testUser, Password: testPassword},
	}})
	kind, err := adapter.NewResolver(store).Resolve(adapter.NameSSH, adapter.RawOptions{Host: "web.invalid"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	target := kind.(adapter.SSH)
	if want := "127.0.0.1:" + strconv.Itoa(srv.Port()); target.Address() != want {
		t.Fatalf("Address() = %q, want %q", target.Address(), want)
	}

	res, err := NewSSHEngine(target, dialer).Run(t.Context(), Invocation{Command: "echo via alias"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Stdout != "via alias\n" {
		t.Errorf("Stdout = %q", res.Stdout)
	}
}

func TestSSHEngine_ExitCode(t *testing.T) {
	t.Parallel()

	_, target, dialer := startSSHServer(t, sshserver.Config{})
	e := NewSSHEngine(target, dialer)

	res, err := e.Run(t.Context(), Invocation{Command: "echo failing >&2; exit 7"})
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("Run() error = %v, want *ExitError", err)
	}
	if exitErr.Code != 7 || res.ExitCode != 7 {
		t.Errorf("exit code = %d / %d, want 7", exitErr.Code, res.ExitCode)
	}
	if !strings.Contains(exitErr.Error(), "failing") {
		t.Errorf("Error() = %q, want stderr included", exitErr.Error())
	}
}

func TestSSHEngine_EnvAndCwd(t *testing.T) {
	t.Parallel()

	srv, target, dialer := startSSHServer(t, sshserver.Config{})
	e := NewSSHEngine(target, dialer)
	dir := t.TempDir()

	res, err := e.Run(t.Context(), Invocation{
		Command: `echo "$GREETING from $PWD"`,
		Env:     map[string]string{"GREETING": "hi there"},
		Cwd:     dir,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if want := "hi there from " + dir + "\n"; res.Stdout != want {
		t.Errorf("Stdout = %q, want %q", res.Stdout, want)
	}

	cmds := srv.Commands()
	if len(cmds) != 1 || !strings.HasPrefix(cmds[0], "cd ") {
		t.Errorf("server received %q, want a cd-prefixed script", cmds)
	}
}

func TestExecLogAttrs_OmitsEnvValues(t *testing.T) {
	t.Parallel()

	attrs := execLogAttrs("10.0.0.5:22", Invocation{
		Command: "deploy.sh",
		Env:     map[string]string{"TOKEN": "hunter2", "REGION": "eu"},
		Cwd:     "/srv",
	})
	got := fmt.Sprint(attrs...)
	for _, want := range []string{"deploy.sh", "/srv", "REGION", "TOKEN"} {
		if !strings.Contains(got, want) {
			t.Errorf("log attrs %q missing %q", got, want)
		}
	}
	for _, secret := range []string{"hunter2", "eu"} {
		if strings.Contains(got, secret) {
			t.Errorf("log attrs %q leak env value %q", got, secret)
		}
	}
}

func TestSSHEngine_Timeout(t *testing.T) {
	t.Parallel()

	_, target, dialer := startSSHServer(t, sshserver.Config{
		Exec: func(ctx context.Context, _ string, _ []string, _, _ io.Writer) int {
			<-ctx.Done()
			return 130
		},
	})

	h := NewHandle(NewSSHEngine(target, dialer)).WithTimeout(200 * time.Millisecond)
	_, err := h.Execute(t.Context(), "sleep 60")
	var timeoutErr *TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("Execute() error = %v, want *TimeoutError", err)
	}
}

func TestSSHEngine_PrivateKey(t *testing.T) {
	t.Parallel()

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	sshPub, err := gossh.NewPublicKey(pub)
	if err != nil {
		t.Fatal(err)
	}
	block, err := gossh.MarshalPrivateKeyWithPassphrase(priv, "test", []byte("pass"))
	if err != nil {
		t.Fatal(err)
	}
	keyPath := filepath.Join(t.TempDir(), "id_ed25519")
	if err := os.WriteFile(keyPath, pem.EncodeToMemory(block), 0o600); err != nil {
		t.Fatal(err)
	}

	_, target, dialer := startSSHServer(t, sshserver.Config{AuthorizedKeys: []gossh.PublicKey{sshPub}})
	target.Password = ""
	target.PrivateKey = keyPath
	target.Passphrase = "pass"

	res, err := NewSSHEngine(target, dialer).Run(t.Context(), Invocation{Command: "echo key"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Stdout != "key\n" {
		t.Errorf("Stdout = %q", res.Stdout)
	}

	target.Passphrase = "wrong"
	_, err = NewSSHEngine(target, dialer).Run(t.Context(), Invocation{Command: "echo key"})
	var connErr *ConnectError
	if !errors.As(err, &connErr) {
		t.Errorf("Run() with wrong passphrase error = %v, want *ConnectError", err)
	}
}

func TestSSHEngine_ConnectFailures(t *testing.T) {
	t.Parallel()

	_, target, dialer := startSSHServer(t, sshserver.Config{})

	t.Run("wrong password", func(t *testing.T) {
		t.Parallel()

		bad := target
		bad.Password = "nope"
		_, err := NewSSHEngine(bad, dialer).Run(t.Context(), Invocation{Command: "true"})
		var connErr *ConnectError
		if !errors.As(err, &connErr) {
			t.Fatalf("Run() error = %v, want *ConnectError", err)
		}
		if !errors.Is(err, ErrExecution) {
			t.Error("ConnectError should match ErrExecution")
		}
	})

	t.Run("unknown host key", func(t *testing.T) {
		t.Parallel()

		emptyKnownHosts := filepath.Join(t.TempDir(), "known_hosts")
		if err := os.WriteFile(emptyKnownHosts, nil, 0o600); err != nil {
			t.Fatal(err)
		}
		d := NewSSHDialer(WithKnownHosts(emptyKnownHosts), WithAgentSocket(""))
		_, err := NewSSHEngine(target, d).Run(t.Context(), Invocation{Command: "true"})
		var keyErr *knownhosts.KeyError
		if !errors.As(err, &keyErr) {
			t.Fatalf("Run() error = %v, want *knownhosts.KeyError", err)
		}
	})

	t.Run("no known_hosts file", func(t *testing.T) {
		t.Parallel()

		d := NewSSHDialer(WithKnownHosts(filepath.Join(t.TempDir(), "missing")), WithAgentSocket(""))
		_, err := NewSSHEngine(target, d).Run(t.Context(), Invocation{Command: "true"})
		if !errors.Is(err, ErrKnownHostsMissing) {
			t.Fatalf("Run() error = %v, want ErrKnownHostsMissing", err)
		}
	})

	t.Run("no auth method", func(t *testing.T) {
		t.Parallel()

		bare := target
		bare.Password = ""
		_, err := NewSSHEngine(bare, dialer).Run(t.Context(), Invocation{Command: "true"})
		if !errors.Is(err, ErrNoAuthMethod) {
			t.Fatalf("Run() error = %v, want ErrNoAuthMethod", err)
		}
	})
}

func TestSSHDialer_BreakerOpens(t *testing.T) {
	t.Parallel()

	// A port that refuses connections.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := l.Addr().(*net.TCPAddr).Port
	_ = l.Close()

	d := NewSSHDialer(WithHostKeyCallback(gossh.InsecureIgnoreHostKey()), WithAgentSocket(""), WithDialTimeout(time.Second))
	target := adapter.SSH{Host: "127.0.0.1", Port: port, Username: "u", Password: "p"}

	for i := range breakerTripAfter {
		_, err := d.Dial(t.Context(), target)
		if errors.Is(err, gobreaker.ErrOpenState) {
			t.Fatalf("breaker opened after %d failures, want %d", i, breakerTripAfter)
		}
	}

	_, err = d.Dial(t.Context(), target)
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("Dial() error = %v, want gobreaker.ErrOpenState", err)
	}
	var connErr *ConnectError
	if !errors.As(err, &connErr) || connErr.Target != "127.0.0.1:"+strconv.Itoa(port) {
		t.Errorf("Dial() error = %v, want *ConnectError for the address", err)
	}
}

func TestRemoteDockerEngine_Run(t *testing.T) {
	t.Parallel()

	srv, target, dialer := startSSHServer(t, sshserver.Config{
		Exec: func(_ context.Context, _ string, _ []string, stdout, _ io.Writer) int {
			fmt.Fprint(stdout, "from container\n")
			return 0
		},
	})

	e := NewRemoteDockerEngine(adapter.RemoteDocker{SSH: target, Container: "api"}, dialer)
	res, err := e.Run(t.Context(), Invocation{
		Command: "cat /etc/os-release",
		Cwd:     "/srv",
		Env:     map[string]string{"MODE": "prod env"},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Stdout != "from container\n" || res.Command != "cat /etc/os-release" {
		t.Errorf("Run() result = %+v", res)
	}

	want := `docker exec -w /srv -e 'MODE=prod env' api sh -c 'cat /etc/os-release'`
	cmds := srv.Commands()
	if len(cmds) != 1 || cmds[0] != want {
		t.Errorf("remote commands = %q, want [%s]", cmds, want)
	}
}
