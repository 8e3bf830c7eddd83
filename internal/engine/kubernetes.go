// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"context"

	"github.com/xrunhq/xrun/internal/adapter"
)

const kubectlBinary = "kubectl"

// KubernetesEngine runs commands in a pod with `kubectl exec`.
type KubernetesEngine struct {
	*BaseCLIEngine
	target adapter.Kubernetes
}

// NewKubernetesEngine creates an engine for the given pod.
func NewKubernetesEngine(target adapter.Kubernetes, opts ...BaseCLIEngineOption) *KubernetesEngine {
	if target.Namespace == "" {
		target.Namespace = adapter.DefaultNamespace
	}
	return &KubernetesEngine{
		BaseCLIEngine: NewBaseCLIEngine(kubectlBinary, opts...),
		target:        target,
	}
}

// Name implements Engine.
func (e *KubernetesEngine) Name() adapter.Name { return adapter.NameKubernetes }

// Run implements Engine.
func (e *KubernetesEngine) Run(ctx context.Context, inv Invocation) (*Result, error) {
	args, err := kubectlExecArgs(e.target, inv)
	if err != nil {
		return nil, &StartError{Program: e.Binary(), Err: err}
	}
	return e.RunCLI(ctx, inv.Command, args)
}

// kubectlExecArgs builds `exec -n ns pod [-c container] -- argv...`.
// kubectl exec has no cwd or env flags, so those are applied by a wrapping sh.
func kubectlExecArgs(target adapter.Kubernetes, inv Invocation) ([]string, error) {
	var argv []string
	if inv.Cwd != "" || len(inv.Env) > 0 {
		script, err := remoteScript(inv)
		if err != nil {
			return nil, err
		}
		argv = []string{defaultRemoteShell, "-c", script}
	} else {
		var err error
		if argv, err = commandArgv(inv); err != nil {
			return nil, err
		}
	}

	args := []string{"exec", "-n", target.Namespace, target.Pod}
	if target.Container != "" {
		args = append(args, "-c", target.Container)
	}
	args = append(args, "--")
	return append(args, argv...), nil
}
