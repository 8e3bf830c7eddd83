// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"errors"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/xrunhq/xrun/internal/adapter"
	"github.com/xrunhq/xrun/internal/app/execute"

	"github.com/testcontainers/testcontainers-go"
)

// testcontainersAvailable reports whether a Docker provider can be reached.
// Provider detection can panic on hosts without a daemon.
func testcontainersAvailable() (available bool) {
	defer func() {
		if r := recover(); r != nil {
			available = false
		}
	}()

	provider, err := testcontainers.ProviderDocker.GetProvider()
	if err != nil {
		return false
	}
	defer provider.Close()
	return true
}

// startIdleContainer runs an alpine container that sleeps so exec has a target.
func startIdleContainer(t *testing.T) string {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	if _, err := exec.LookPath(dockerBinary); err != nil {
		t.Skip("skipping docker integration test: docker CLI not installed")
	}
	if !testcontainersAvailable() {
		t.Skip("skipping docker integration test: testcontainers provider not available")
	}

	ctr, err := testcontainers.Run(t.Context(), "alpine:3.20", testcontainers.WithCmd("sleep", "300"))
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(ctr); err != nil {
			t.Logf("warning: terminate container: %v", err)
		}
	})
	if err != nil {
		t.Fatalf("failed to start container: %v", err)
	}
	return ctr.GetContainerID()
}

func TestDockerEngine_Integration(t *testing.T) {
	id := startIdleContainer(t)
	target := adapter.Docker{Container: id}

	t.Run("Output", func(t *testing.T) {
		res, err := NewHandle(NewDockerEngine(target)).Execute(t.Context(), "echo hello from $(cat /etc/alpine-release | cut -d. -f1)")
		if err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		if got := strings.TrimSpace(res.Stdout); got != "hello from 3" {
			t.Errorf("stdout = %q, want %q", got, "hello from 3")
		}
	})

	t.Run("EnvAndCwd", func(t *testing.T) {
		h := NewHandle(NewDockerEngine(target)).
			WithEnv(map[string]string{"GREETING": "hi there"}).
			WithCwd("/tmp")
		res, err := h.Execute(t.Context(), `echo "$GREETING in $(pwd)"`)
		if err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		if got := strings.TrimSpace(res.Stdout); got != "hi there in /tmp" {
			t.Errorf("stdout = %q", got)
		}
	})

	t.Run("ExitCode", func(t *testing.T) {
		res, err := NewHandle(NewDockerEngine(target)).Execute(t.Context(), "echo oops >&2; exit 7")
		var exitErr *ExitError
		if !errors.As(err, &exitErr) {
			t.Fatalf("Execute() error = %v, want *ExitError", err)
		}
		if exitErr.Code != 7 || res.ExitCode != 7 || strings.TrimSpace(res.Stderr) != "oops" {
			t.Errorf("result = %+v, err = %+v", res, exitErr)
		}
	})

	t.Run("NoShell", func(t *testing.T) {
		h := NewHandle(NewDockerEngine(target)).WithShell(execute.ShellDisabled())
		res, err := h.Execute(t.Context(), "printf %s 'a b'")
		if err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		if res.Stdout != "a b" {
			t.Errorf("stdout = %q, want %q", res.Stdout, "a b")
		}
	})

	t.Run("Timeout", func(t *testing.T) {
		h := NewHandle(NewDockerEngine(target)).WithTimeout(500 * time.Millisecond)
		_, err := h.Execute(t.Context(), "sleep 30")
		var timeoutErr *TimeoutError
		if !errors.As(err, &timeoutErr) {
			t.Errorf("Execute() error = %v, want *TimeoutError", err)
		}
	})
}
