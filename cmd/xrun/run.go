// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xrunhq/xrun/internal/adapter"
	"github.com/xrunhq/xrun/internal/app/execute"
	"github.com/xrunhq/xrun/internal/config"
	"github.com/xrunhq/xrun/internal/engine"
	"github.com/xrunhq/xrun/internal/report"
	"github.com/xrunhq/xrun/internal/runner"
	"github.com/xrunhq/xrun/internal/source"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// runFlags holds the parsed `xrun run` flags.
type runFlags struct {
	adapter      string
	host         string
	container    string
	pod          string
	namespace    string
	k8sContainer string
	env          []string
	cwd          string
	shell        string
	timeout      string
	retry        int
	file         string
	template     string
	data         string
	dataFile     string
	parallel     int
	quiet        bool
	dryRun       bool
	output       string

	format report.Format
}

func newRunCommand(app *App, root *rootOptions) *cobra.Command {
	f := &runFlags{}
	defaults := config.DefaultConfig().Defaults

	runCmd := &cobra.Command{
		Use:     "run [command...]",
		Aliases: []string{"exec"},
		Short:   "Run a command against the selected adapter",
		Long: `Run a command against the selected adapter.

The command comes from exactly one source, by precedence:
  1. --file      one command per line; blank lines and # comments are skipped
  2. --template  a Handlebars template rendered with --data or --data-file
  3. arguments   joined with single spaces

Flags left at their defaults fall back to the defaults block of the config file.`,
		Example: `  xrun run -- ls -la
  xrun run -a ssh --host web1 --cwd /srv/app "git pull"
  xrun run -a kubernetes --pod api-0 -n prod --timeout 1m "cat /etc/hostname"
  xrun run -f commands.txt -p 4 -o json
  xrun run -t "deploy {{service}}" --data-file vars.toml --dry-run`,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			store, err := root.loadStore(cmd.Context(), app)
			if err != nil {
				return err
			}
			applyConfigDefaults(cmd.Flags(), f, store.Config().Defaults)
			return f.validate()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("adapter") {
				f.adapter = ""
			}
			if !cmd.Flags().Changed("shell") {
				f.shell = ""
			}
			return app.run(cmd.Context(), root, f, args)
		},
	}

	fs := runCmd.Flags()
	fs.StringVarP(&f.adapter, "adapter", "a", string(defaults.Adapter), "execution adapter: local, ssh, docker, kubernetes, remote-docker")
	fs.StringVar(&f.host, "host", "", "SSH host or configured host alias (ssh, remote-docker)")
	fs.StringVar(&f.container, "container", "", "container name or ID (docker, remote-docker)")
	fs.StringVar(&f.pod, "pod", "", "pod name (kubernetes)")
	fs.StringVarP(&f.namespace, "namespace", "n", adapter.DefaultNamespace, "namespace (kubernetes)")
	fs.StringVar(&f.k8sContainer, "k8s-container", "", "container inside the pod (kubernetes)")
	fs.StringArrayVarP(&f.env, "env", "e", nil, "environment variable KEY=VALUE (repeatable)")
	fs.StringVar(&f.cwd, "cwd", "", "working directory for the command")
	fs.StringVar(&f.shell, "shell", "", "run through a shell: true, false, builtin, or a shell path")
	fs.Lookup("shell").NoOptDefVal = "true"
	fs.StringVar(&f.timeout, "timeout", defaults.Timeout, "per-attempt timeout (30s, 5m, or milliseconds)")
	fs.IntVar(&f.retry, "retry", defaults.Retry, "retries after the first attempt")
	fs.StringVarP(&f.file, "file", "f", "", "file with one command per line")
	fs.StringVarP(&f.template, "template", "t", "", "Handlebars command template")
	fs.StringVarP(&f.data, "data", "d", "", "JSON data for --template")
	fs.StringVar(&f.dataFile, "data-file", "", "JSON, YAML or TOML file with data for --template")
	fs.IntVarP(&f.parallel, "parallel", "p", defaults.Parallel, "commands run at once in --file mode")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "suppress command output")
	fs.BoolVar(&f.dryRun, "dry-run", false, "print what would run without running it")
	fs.StringVarP(&f.output, "output", "o", string(defaults.Output), "output format: text, json, yaml")

	runCmd.MarkFlagsMutuallyExclusive("data", "data-file")

	return runCmd
}

// applyConfigDefaults replaces flags the user did not set with configured defaults.
func applyConfigDefaults(fs *pflag.FlagSet, f *runFlags, d config.Defaults) {
	if !fs.Changed("timeout") && d.Timeout != "" {
		f.timeout = d.Timeout
	}
	if !fs.Changed("retry") {
		f.retry = d.Retry
	}
	if !fs.Changed("parallel") && d.Parallel > 0 {
		f.parallel = d.Parallel
	}
	if !fs.Changed("output") && d.Output != "" {
		f.output = string(d.Output)
	}
}

func (f *runFlags) validate() error {
	if f.retry < 0 {
		return fmt.Errorf("--retry must be >= 0, got %d", f.retry)
	}
	if f.parallel < 1 {
		return fmt.Errorf("--parallel must be >= 1, got %d", f.parallel)
	}
	format, err := report.ParseFormat(f.output)
	if err != nil {
		return err
	}
	f.format = format
	return nil
}

// run builds the execution context, resolves the command source, and dispatches
// to the single-command or batch path.
func (a *App) run(ctx context.Context, root *rootOptions, f *runFlags, args []string) error {
	store, err := root.loadStore(ctx, a)
	if err != nil {
		return err
	}

	execCtx, err := execute.BuildExecutionContext(execute.BuildOptions{
		Adapter: f.adapter,
		Options: adapter.RawOptions{
			Host:         f.host,
			Container:    f.container,
			Pod:          f.pod,
			Namespace:    f.namespace,
			K8sContainer: f.k8sContainer,
		},
		EnvTokens: f.env,
		Cwd:       f.cwd,
		Shell:     execute.ParseShellMode(f.shell),
		Timeout:   f.timeout,
		Store:     store,
		Resolver:  adapter.NewResolver(store),
	})
	if err != nil {
		return err
	}

	src, err := source.Resolve(ctx, source.Request{
		File:     f.file,
		Template: f.template,
		Data:     f.data,
		DataFile: f.dataFile,
		Args:     args,
	})
	if err != nil {
		return err
	}

	var execOpts []runner.ExecutorOption
	execOpts = append(execOpts, runner.WithDryRunOutput(a.stdout))
	if a.Timer != nil {
		execOpts = append(execOpts, runner.WithTimer(a.Timer))
	}
	executor := runner.NewExecutor(a.Factory, execOpts...)
	reporter := report.New(a.stdout, a.stderr)

	opts := runner.Options{
		Retry:   f.retry,
		DryRun:  f.dryRun,
		Quiet:   f.quiet,
		Verbose: root.verbose,
	}

	if src.Kind == source.KindFile {
		return a.runBatch(ctx, executor, reporter, src.Commands, execCtx, opts, f, root.verbose)
	}

	res, err := executor.Run(ctx, src.Commands[0], execCtx, opts)
	if err != nil {
		return commandError(err)
	}
	return reporter.Report(res, report.Options{Format: f.format, Quiet: opts.Quiet, Verbose: opts.Verbose})
}

func (a *App) runBatch(ctx context.Context, executor *runner.Executor, reporter *report.Reporter, commands []string, execCtx *execute.ExecutionContext, opts runner.Options, f *runFlags, verbose bool) error {
	if len(commands) == 0 {
		return nil
	}

	batch := runner.NewBatchRunner(executor,
		runner.WithResultFunc(func(res *engine.Result, o runner.Options) error {
			return reporter.Report(res, report.Options{Format: f.format, Quiet: o.Quiet, Verbose: o.Verbose})
		}),
		runner.WithProgress(func(completed, total int) {
			if verbose && f.parallel > 1 {
				fmt.Fprintln(a.stderr, SubtitleStyle.Render(fmt.Sprintf("[%d/%d] commands settled", completed, total)))
			}
		}),
	)

	summary, err := batch.RunAll(ctx, commands, execCtx, opts, f.parallel)
	if f.parallel <= 1 {
		return commandError(err)
	}

	slog.Debug("batch finished", "run", execCtx.RunID(), "total", summary.Total, "succeeded", summary.Succeeded)
	if opts.DryRun {
		return nil
	}
	summaryReporter := report.New(a.stdout, a.stderr, report.WithHeaderStyle(summaryHeader(summary.Failed())))
	return summaryReporter.ReportSummary(summary, verbose)
}
