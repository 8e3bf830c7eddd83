// SPDX-License-Identifier: MPL-2.0

// Package sshserver provides a small SSH server built on the Wish library.
//
// Session commands run in-process through the mvdan.cc/sh interpreter (or a
// caller-supplied ExecFunc), so the SSH engines can be exercised end to end
// without an sshd on the machine. Authentication is restricted to the
// configured passwords and authorized keys.
package sshserver
