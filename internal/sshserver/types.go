// SPDX-License-Identifier: MPL-2.0

package sshserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	gossh "golang.org/x/crypto/ssh"
)

const (
	// StateCreated indicates the server has been created but not started.
	StateCreated State = iota
	// StateRunning indicates the server is accepting connections.
	StateRunning
	// StateStopped indicates the server has stopped (terminal state).
	StateStopped
	// StateFailed indicates the server failed to start (terminal state).
	StateFailed
)

var (
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid SSH server config")
	// ErrNotRunning is returned by operations that need a running server.
	ErrNotRunning = errors.New("SSH server is not running")
)

type (
	// State represents the lifecycle state of the server.
	State int32

	// ExecFunc runs one session command. env holds the variables the client
	// sent with setenv requests. The returned int is the exit status.
	ExecFunc func(ctx context.Context, command string, env []string, stdout, stderr io.Writer) int

	// Config holds immutable configuration for the SSH server.
	Config struct {
		// Host is the address to bind to (default: 127.0.0.1).
		Host string
		// Port is the port to listen on (0 = auto-select).
		Port int
		// Passwords maps user names to accepted passwords.
		Passwords map[string]string
		// AuthorizedKeys are accepted for any user.
		AuthorizedKeys []gossh.PublicKey
		// HostKeyPEM is the server's private host key; a fresh ed25519 key is
		// generated when empty.
		HostKeyPEM []byte
		// Exec runs session commands (default: InterpExec).
		Exec ExecFunc
		// ShutdownTimeout bounds graceful shutdown (default: 5s).
		ShutdownTimeout time.Duration
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	InvalidConfigError struct {
		FieldErrors []error
	}
)

// String returns a human-readable representation of the server state.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Validate reports every invalid field of the Config.
func (c Config) Validate() error {
	var errs []error
	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if len(c.Passwords) == 0 && len(c.AuthorizedKeys) == 0 {
		errs = append(errs, errors.New("no passwords or authorized keys configured"))
	}
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid SSH server config: %v", errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }
