// SPDX-License-Identifier: MPL-2.0

// Package adapter defines where a command runs.
//
// Kind is a closed set of variants (Local, SSH, Docker, Kubernetes, RemoteDocker).
// Variants carry only what is needed to open that backend's execution channel and
// are produced by Resolver, which validates the raw CLI options once; downstream
// code never re-checks required fields.
package adapter
