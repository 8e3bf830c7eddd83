// SPDX-License-Identifier: MPL-2.0

package sshserver

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"fmt"
	"net"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	gossh "golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// Server is a single-use SSH server: once stopped or failed, create a new one.
type Server struct {
	cfg     Config
	hostKey gossh.PublicKey
	state   atomic.Int32
	logger  *log.Logger

	mu       sync.Mutex
	srv      *ssh.Server
	listener net.Listener
	addr     string
	commands []string

	done chan struct{}
}

// New creates a server. It is not started; call Start to accept connections.
func New(cfg Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 5 * time.Second
	}
	if cfg.Exec == nil {
		cfg.Exec = InterpExec
	}
	if len(cfg.HostKeyPEM) == 0 {
		pemBytes, err := generateHostKey()
		if err != nil {
			return nil, err
		}
		cfg.HostKeyPEM = pemBytes
	}

	signer, err := gossh.ParsePrivateKey(cfg.HostKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("parse host key: %w", err)
	}

	s := &Server{
		cfg:     cfg,
		hostKey: signer.PublicKey(),
		logger:  log.WithPrefix("ssh-server"),
		done:    make(chan struct{}),
	}
	s.state.Store(int32(StateCreated))
	return s, nil
}

// Start binds the listener and serves in the background. It returns once the
// server accepts connections.
func (s *Server) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		s.state.Store(int32(StateFailed))
		return fmt.Errorf("context cancelled before start: %w", err)
	}
	if !s.state.CompareAndSwap(int32(StateCreated), int32(StateRunning)) {
		return fmt.Errorf("cannot start server in state %s", s.State())
	}

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		s.state.Store(int32(StateFailed))
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	opts := []ssh.Option{
		wish.WithHostKeyPEM(s.cfg.HostKeyPEM),
		wish.WithMiddleware(s.execMiddleware()),
	}
	if len(s.cfg.Passwords) > 0 {
		opts = append(opts, wish.WithPasswordAuth(s.passwordHandler))
	}
	if len(s.cfg.AuthorizedKeys) > 0 {
		opts = append(opts, wish.WithPublicKeyAuth(s.publicKeyHandler))
	}

	srv, err := wish.NewServer(opts...)
	if err != nil {
		_ = listener.Close()
		s.state.Store(int32(StateFailed))
		return fmt.Errorf("failed to create SSH server: %w", err)
	}

	s.mu.Lock()
	s.srv = srv
	s.listener = listener
	s.addr = listener.Addr().String()
	s.mu.Unlock()

	go s.serve(srv, listener)

	s.logger.Debug("SSH server started", "address", s.addr)
	return nil
}

func (s *Server) serve(srv *ssh.Server, listener net.Listener) {
	defer close(s.done)

	err := srv.Serve(listener)
	if err != nil && !errors.Is(err, ssh.ErrServerClosed) && !errors.Is(err, net.ErrClosed) {
		s.logger.Error("serve error", "error", err)
	}
}

// Stop shuts the server down. Safe to call multiple times.
func (s *Server) Stop() error {
	if !s.state.CompareAndSwap(int32(StateRunning), int32(StateStopped)) {
		s.state.CompareAndSwap(int32(StateCreated), int32(StateStopped))
		return nil
	}

	s.mu.Lock()
	srv := s.srv
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	err := srv.Shutdown(ctx)
	if err != nil {
		_ = srv.Close()
	}
	<-s.done

	if errors.Is(err, ssh.ErrServerClosed) || errors.Is(err, net.ErrClosed) {
		err = nil
	}
	s.logger.Debug("SSH server stopped")
	return err
}

// State returns the current server state.
func (s *Server) State() State {
	return State(s.state.Load())
}

// Address returns the bound host:port, or "" before Start.
func (s *Server) Address() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Port returns the bound port, or 0 before Start.
func (s *Server) Port() int {
	_, portStr, err := net.SplitHostPort(s.Address())
	if err != nil {
		return 0
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0
	}
	return port
}

// HostKey returns the server's public host key.
func (s *Server) HostKey() gossh.PublicKey {
	return s.hostKey
}

// KnownHostsLine returns a known_hosts entry that trusts this server.
func (s *Server) KnownHostsLine() (string, error) {
	addr := s.Address()
	if addr == "" {
		return "", ErrNotRunning
	}
	return knownhosts.Line([]string{knownhosts.Normalize(addr)}, s.hostKey), nil
}

// Commands returns every session command received, in arrival order.
func (s *Server) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.commands)
}

func (s *Server) record(command string) {
	s.mu.Lock()
	s.commands = append(s.commands, command)
	s.mu.Unlock()
}

func (s *Server) passwordHandler(ctx ssh.Context, password string) bool {
	want, ok := s.cfg.Passwords[ctx.User()]
	if !ok || want != password {
		s.logger.Debug("password authentication rejected", "user", ctx.User())
		return false
	}
	return true
}

func (s *Server) publicKeyHandler(_ ssh.Context, key ssh.PublicKey) bool {
	for _, k := range s.cfg.AuthorizedKeys {
		if ssh.KeysEqual(key, k) {
			return true
		}
	}
	return false
}

// execMiddleware runs the session's raw command and reports its exit status.
// A client signal or a dropped connection cancels the command.
func (s *Server) execMiddleware() wish.Middleware {
	return func(next ssh.Handler) ssh.Handler {
		return func(sess ssh.Session) {
			command := sess.RawCommand()
			if command == "" {
				wish.Fatalln(sess, "interactive sessions are not supported")
				return
			}
			s.record(command)

			ctx, cancel := context.WithCancel(sess.Context())
			defer cancel()

			signals := make(chan ssh.Signal, 1)
			sess.Signals(signals)
			go func() {
				select {
				case <-signals:
					cancel()
				case <-ctx.Done():
				}
			}()

			code := s.cfg.Exec(ctx, command, sess.Environ(), sess, sess.Stderr())
			_ = sess.Exit(code)
		}
	}
}

func generateHostKey() ([]byte, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate host key: %w", err)
	}
	block, err := gossh.MarshalPrivateKey(priv, "xrun-sshserver")
	if err != nil {
		return nil, fmt.Errorf("marshal host key: %w", err)
	}
	return pem.EncodeToMemory(block), nil
}
