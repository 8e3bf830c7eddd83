// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/xrunhq/xrun/internal/adapter"
	"github.com/xrunhq/xrun/pkg/types"

	"github.com/sony/gobreaker"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
)

const (
	defaultDialTimeout = 10 * time.Second

	// breakerTripAfter consecutive connect failures open the breaker for an address.
	breakerTripAfter = 5
	breakerOpenFor   = 30 * time.Second
)

var (
	// ErrNoAuthMethod is returned when no password, key, or agent is available.
	ErrNoAuthMethod = errors.New("no ssh authentication method available")
	// ErrKnownHostsMissing is returned when no known_hosts file exists to verify the server.
	ErrKnownHostsMissing = errors.New("no known_hosts file found")
)

type (
	// SSHDialer opens authenticated SSH connections. It is shared by every engine
	// a Factory creates so that per-address circuit breakers survive across attempts.
	SSHDialer struct {
		dialTimeout     time.Duration
		hostKeyCallback ssh.HostKeyCallback
		knownHosts      []string
		agentSocket     string
		homeDir         string

		mu       sync.Mutex
		breakers map[string]*gobreaker.CircuitBreaker
	}

	// SSHDialerOption configures an SSHDialer.
	SSHDialerOption func(*SSHDialer)

	// SSHEngine runs commands on a remote host through an SSH session.
	SSHEngine struct {
		target adapter.SSH
		dialer *SSHDialer
	}
)

// WithDialTimeout bounds TCP connect plus handshake.
func WithDialTimeout(d time.Duration) SSHDialerOption {
	return func(s *SSHDialer) {
		if d > 0 {
			s.dialTimeout = d
		}
	}
}

// WithHostKeyCallback replaces known_hosts verification.
func WithHostKeyCallback(cb ssh.HostKeyCallback) SSHDialerOption {
	return func(s *SSHDialer) {
		s.hostKeyCallback = cb
	}
}

// WithKnownHosts sets the known_hosts files used to verify servers.
func WithKnownHosts(paths ...string) SSHDialerOption {
	return func(s *SSHDialer) {
		s.knownHosts = paths
	}
}

// WithAgentSocket sets the ssh-agent socket; empty disables the agent.
func WithAgentSocket(path string) SSHDialerOption {
	return func(s *SSHDialer) {
		s.agentSocket = path
	}
}

// NewSSHDialer creates a dialer that verifies hosts against ~/.ssh/known_hosts
// and uses the agent from SSH_AUTH_SOCK when present.
func NewSSHDialer(opts ...SSHDialerOption) *SSHDialer {
	home, _ := os.UserHomeDir()
	d := &SSHDialer{
		dialTimeout: defaultDialTimeout,
		agentSocket: os.Getenv("SSH_AUTH_SOCK"),
		homeDir:     home,
		breakers:    make(map[string]*gobreaker.CircuitBreaker),
	}
	if home != "" {
		d.knownHosts = []string{filepath.Join(home, ".ssh", "known_hosts")}
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dial connects and authenticates to target. Failures are *ConnectError.
func (d *SSHDialer) Dial(ctx context.Context, target adapter.SSH) (*ssh.Client, error) {
	addr := target.Address()

	res, err := d.breaker(addr).Execute(func() (any, error) {
		return d.dial(ctx, target, addr)
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &ConnectError{Target: addr, Err: err}
	}
	return res.(*ssh.Client), nil
}

func (d *SSHDialer) breaker(addr string) *gobreaker.CircuitBreaker {
	d.mu.Lock()
	defer d.mu.Unlock()

	if cb, ok := d.breakers[addr]; ok {
		return cb
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        addr,
		MaxRequests: 1,
		Timeout:     breakerOpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerTripAfter
		},
		// A cancelled dial says nothing about the host.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("ssh circuit breaker state changed", "address", name, "from", from.String(), "to", to.String())
		},
	})
	d.breakers[addr] = cb
	return cb
}

func (d *SSHDialer) dial(ctx context.Context, target adapter.SSH, addr string) (*ssh.Client, error) {
	hostKeyCallback, err := d.hostKeys()
	if err != nil {
		return nil, err
	}

	auth, closeAgent, err := d.authMethods(target)
	if err != nil {
		return nil, err
	}
	defer closeAgent()

	config := &ssh.ClientConfig{
		User:            target.Username,
		Auth:            auth,
		HostKeyCallback: hostKeyCallback,
		Timeout:         d.dialTimeout,
		BannerCallback:  func(string) error { return nil },
	}

	dialCtx, cancel := context.WithTimeout(ctx, d.dialTimeout)
	defer cancel()

	var nd net.Dialer
	conn, err := nd.DialContext(dialCtx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	// The handshake has no context; bound it with a deadline and a watcher.
	deadline, _ := dialCtx.Deadline()
	_ = conn.SetDeadline(deadline)
	stop := context.AfterFunc(dialCtx, func() { _ = conn.Close() })
	c, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	stopped := stop()
	if err != nil {
		_ = conn.Close()
		if !stopped && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	_ = conn.SetDeadline(time.Time{})

	slog.Debug("ssh connected", "address", addr, "user", target.Username)
	return ssh.NewClient(c, chans, reqs), nil
}

func (d *SSHDialer) hostKeys() (ssh.HostKeyCallback, error) {
	if d.hostKeyCallback != nil {
		return d.hostKeyCallback, nil
	}

	var files []string
	for _, p := range d.knownHosts {
		if _, err := os.Stat(p); err == nil {
			files = append(files, p)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w (looked in %s)", ErrKnownHostsMissing, strings.Join(d.knownHosts, ", "))
	}
	return knownhosts.New(files...)
}

// authMethods builds the auth chain: private key, agent, then password.
// The returned func releases the agent connection.
func (d *SSHDialer) authMethods(target adapter.SSH) ([]ssh.AuthMethod, func(), error) {
	var methods []ssh.AuthMethod
	closeAgent := func() {}

	if target.PrivateKey != "" {
		signer, err := d.loadKey(target.PrivateKey, target.Passphrase)
		if err != nil {
			return nil, closeAgent, err
		}
		methods = append(methods, ssh.PublicKeys(signer))
	}

	if d.agentSocket != "" {
		conn, err := net.Dial("unix", d.agentSocket)
		if err != nil {
			slog.Debug("ssh agent unavailable", "socket", d.agentSocket, "error", err)
		} else {
			closeAgent = func() { _ = conn.Close() }
			methods = append(methods, ssh.PublicKeysCallback(agent.NewClient(conn).Signers))
		}
	}

	if target.Password != "" {
		methods = append(methods, ssh.Password(target.Password))
	}

	if len(methods) == 0 {
		return nil, closeAgent, ErrNoAuthMethod
	}
	return methods, closeAgent, nil
}

func (d *SSHDialer) loadKey(path, passphrase string) (ssh.Signer, error) {
	if rest, ok := strings.CutPrefix(path, "~/"); ok && d.homeDir != "" {
		path = filepath.Join(d.homeDir, rest)
	}

	pemBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}

	var signer ssh.Signer
	if passphrase != "" {
		signer, err = ssh.ParsePrivateKeyWithPassphrase(pemBytes, []byte(passphrase))
	} else {
		signer, err = ssh.ParsePrivateKey(pemBytes)
	}
	if err != nil {
		return nil, fmt.Errorf("parse private key %s: %w", path, err)
	}
	return signer, nil
}

// NewSSHEngine creates an engine for target. A nil dialer uses NewSSHDialer().
func NewSSHEngine(target adapter.SSH, dialer *SSHDialer) *SSHEngine {
	if dialer == nil {
		dialer = NewSSHDialer()
	}
	return &SSHEngine{target: target, dialer: dialer}
}

// Name implements Engine.
func (e *SSHEngine) Name() adapter.Name { return adapter.NameSSH }

// Run implements Engine.
func (e *SSHEngine) Run(ctx context.Context, inv Invocation) (*Result, error) {
	script, err := remoteScript(inv)
	if err != nil {
		return nil, &StartError{Program: "ssh", Err: err}
	}
	return e.runScript(ctx, inv, script)
}

// runScript sends script to the remote login shell and reports it as inv.Command.
func (e *SSHEngine) runScript(ctx context.Context, inv Invocation, script string) (*Result, error) {
	command := inv.Command
	client, err := e.dialer.Dial(ctx, e.target)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	sess, err := client.NewSession()
	if err != nil {
		return nil, &StartError{Program: "ssh session", Err: err}
	}
	defer sess.Close()

	var stdout, stderr bytes.Buffer
	sess.Stdout = &stdout
	sess.Stderr = &stderr

	slog.Debug("ssh exec", execLogAttrs(e.target.Address(), inv)...)
	if err := sess.Start(script); err != nil {
		return nil, &StartError{Program: "ssh session", Err: err}
	}

	done := make(chan error, 1)
	go func() { done <- sess.Wait() }()

	select {
	case <-ctx.Done():
		_ = sess.Signal(ssh.SIGKILL)
		_ = client.Close()
		<-done
		return nil, ctx.Err()
	case err = <-done:
	}

	if err == nil {
		return newResult(command, 0, stdout.String(), stderr.String()), nil
	}

	var exitErr *ssh.ExitError
	if errors.As(err, &exitErr) {
		res := newResult(command, types.NormalizeExitCode(exitErr.ExitStatus()), stdout.String(), stderr.String())
		return finish(res)
	}
	return nil, &StartError{Program: "ssh session", Err: err}
}

// execLogAttrs describes an invocation for debug logs. Env values are left
// out since they often carry credentials.
func execLogAttrs(address string, inv Invocation) []any {
	attrs := []any{"address", address, "command", inv.Command}
	if inv.Cwd != "" {
		attrs = append(attrs, "cwd", inv.Cwd)
	}
	if len(inv.Env) > 0 {
		attrs = append(attrs, "env_keys", slices.Sorted(maps.Keys(inv.Env)))
	}
	return attrs
}
