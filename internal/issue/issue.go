// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Id int

const (
	ConfigLoadFailedId Id = iota + 1
	UnknownAdapterId
	MissingAdapterOptionId
	InvalidTimeoutId
	CommandFileNotFoundId
	InvalidTemplateDataId
	TemplateRenderFailedId
	NoCommandSpecifiedId
	CommandFailedId
	CommandTimedOutId
	ConnectFailedId
	BackendToolNotFoundId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // project docs for this issue
	extLinks []HttpLink  // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n## See also:\n"
		for _, link := range i.docLinks {
			extraMd += "- <" + string(link) + ">\n"
		}
		for _, link := range i.extLinks {
			extraMd += "- <" + string(link) + ">\n"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load the configuration!

xrun reads its configuration from the first file found:
1. The path given with ` + "`--config`" + `
2. ` + "`$XDG_CONFIG_HOME/xrun/config.cue`" + ` (or the platform equivalent)
3. ` + "`./config.cue`" + `

## Things you can try:
- Inspect the effective configuration:
~~~
$ xrun config show
~~~
- Check ` + "`XRUN_*`" + ` environment variables; they override file values
- Recreate a default file:
~~~
$ xrun config init
~~~`,
	}

	unknownAdapterIssue = &Issue{
		id: UnknownAdapterId,
		mdMsg: `
# Unknown adapter!

The adapter selects where the command runs. Valid adapters are:
` + "`local`, `ssh`, `docker`, `kubernetes`, `remote-docker`" + `.

## Things you can try:
- Pass one of the adapters above with ` + "`--adapter`" + `
- Fix ` + "`defaults.adapter`" + ` in your config file`,
	}

	missingAdapterOptionIssue = &Issue{
		id: MissingAdapterOptionId,
		mdMsg: `
# A required adapter option is missing!

| Adapter         | Required flags                 |
|-----------------|--------------------------------|
| ssh             | --host                         |
| docker          | --container                    |
| kubernetes      | --pod (namespace: "default")   |
| remote-docker   | --host, --container            |

## Example:
~~~
$ xrun run --adapter ssh --host web "uptime"
~~~

Host aliases from the ` + "`hosts`" + ` block of your config can be used as ` + "`--host`" + ` values.`,
	}

	invalidTimeoutIssue = &Issue{
		id: InvalidTimeoutId,
		mdMsg: `
# Invalid timeout!

Timeouts are durations such as ` + "`30s`, `5m` or `1h30m`" + `.
A bare number is read as milliseconds.`,
	}

	commandFileNotFoundIssue = &Issue{
		id: CommandFileNotFoundId,
		mdMsg: `
# Command file not found!

The file passed with ` + "`--file`" + ` does not exist or cannot be read.

## Command file format:
~~~
# one command per line; blank lines and comments are skipped
uname -a
df -h
~~~`,
	}

	invalidTemplateDataIssue = &Issue{
		id: InvalidTemplateDataId,
		mdMsg: `
# Invalid template data!

` + "`--data`" + ` must be a JSON object.

## Example:
~~~
$ xrun run -t "echo Hello {{name}}" -d '{"name":"World"}'
~~~`,
	}

	templateRenderFailedIssue = &Issue{
		id: TemplateRenderFailedId,
		mdMsg: `
# Failed to render the command template!

Templates use Handlebars syntax: ` + "`{{name}}`, `{{#if cond}}...{{/if}}`, `{{#each items}}{{this}} {{/each}}`" + `.

## Things you can try:
- Check that every block helper is closed
- Check that the keys used in the template exist in ` + "`--data`",
		extLinks: []HttpLink{"https://handlebarsjs.com/guide/"},
	}

	noCommandSpecifiedIssue = &Issue{
		id: NoCommandSpecifiedId,
		mdMsg: `
# No command specified!

Give the command in exactly one way:
- positional arguments: ` + "`xrun run ls -la`" + `
- a command file: ` + "`xrun run --file cmds.txt`" + `
- a template: ` + "`xrun run --template \"echo {{x}}\" --data '{\"x\":1}'`",
	}

	commandFailedIssue = &Issue{
		id: CommandFailedId,
		mdMsg: `
# The command failed!

The command ran but exited with a non-zero status.

## Things you can try:
- Re-run with ` + "`--verbose`" + ` to see stderr
- Retry flaky commands with ` + "`--retry N`" + `
- Preview what would run with ` + "`--dry-run`",
	}

	commandTimedOutIssue = &Issue{
		id: CommandTimedOutId,
		mdMsg: `
# The command timed out!

Each attempt is bounded by ` + "`--timeout`" + ` (default ` + "`30s`" + `).

## Things you can try:
- Raise the limit: ` + "`--timeout 5m`" + `
- Set ` + "`defaults.timeout`" + ` in your config file`,
	}

	connectFailedIssue = &Issue{
		id: ConnectFailedId,
		mdMsg: `
# Failed to connect to the remote host!

## Things you can try:
- Check that the host is reachable: ` + "`ssh user@host true`" + `
- Make sure your key is loaded in ` + "`ssh-agent`" + ` or set ` + "`private_key`" + ` for the host
- Make sure the host key is present in ` + "`~/.ssh/known_hosts`",
	}

	backendToolNotFoundIssue = &Issue{
		id: BackendToolNotFoundId,
		mdMsg: `
# Backend tool not found!

The ` + "`docker`" + ` and ` + "`kubernetes`" + ` adapters drive the ` + "`docker`" + ` and ` + "`kubectl`" + ` CLIs.

## Things you can try:
- Install the missing CLI and make sure it is on your PATH
- For ` + "`remote-docker`" + `, make sure ` + "`docker`" + ` is installed on the SSH host`,
		extLinks: []HttpLink{
			"https://docs.docker.com/get-docker/",
			"https://kubernetes.io/docs/tasks/tools/",
		},
	}

	issues = map[Id]*Issue{
		configLoadFailedIssue.Id():     configLoadFailedIssue,
		unknownAdapterIssue.Id():       unknownAdapterIssue,
		missingAdapterOptionIssue.Id(): missingAdapterOptionIssue,
		invalidTimeoutIssue.Id():       invalidTimeoutIssue,
		commandFileNotFoundIssue.Id():  commandFileNotFoundIssue,
		invalidTemplateDataIssue.Id():  invalidTemplateDataIssue,
		templateRenderFailedIssue.Id(): templateRenderFailedIssue,
		noCommandSpecifiedIssue.Id():   noCommandSpecifiedIssue,
		commandFailedIssue.Id():        commandFailedIssue,
		commandTimedOutIssue.Id():      commandTimedOutIssue,
		connectFailedIssue.Id():        connectFailedIssue,
		backendToolNotFoundIssue.Id():  backendToolNotFoundIssue,
	}
)

func Values() []*Issue {
	return maps.Values(issues)
}

func Get(id Id) *Issue {
	return issues[id]
}
