// SPDX-License-Identifier: MPL-2.0

package source

import (
	"context"
	"fmt"
	"strings"
)

const (
	// KindLiteral is the positional-argument source.
	KindLiteral Kind = "literal"
	// KindFile is the --file source.
	KindFile Kind = "file"
	// KindTemplate is the --template source.
	KindTemplate Kind = "template"
)

type (
	// Kind names the source that produced the commands.
	Kind string

	// Request holds the source-related CLI input.
	Request struct {
		File     string
		Template string
		Data     string
		// DataFile is read instead of Data when set.
		DataFile string
		Args     []string
	}

	// Source is the resolved command list.
	Source struct {
		Kind Kind
		// Commands is never nil; a file source may yield zero commands.
		Commands []string
	}
)

// Resolve picks exactly one source with precedence file > template > args.
func Resolve(ctx context.Context, req Request) (Source, error) {
	select {
	case <-ctx.Done():
		return Source{}, fmt.Errorf("resolve command source: %w", ctx.Err())
	default:
	}

	switch {
	case req.File != "":
		commands, err := ReadCommandFile(req.File)
		if err != nil {
			return Source{}, err
		}
		return Source{Kind: KindFile, Commands: commands}, nil

	case req.Template != "":
		command, err := renderRequest(req)
		if err != nil {
			return Source{}, err
		}
		return Source{Kind: KindTemplate, Commands: []string{command}}, nil

	case len(req.Args) > 0:
		command := JoinArgs(req.Args)
		if strings.TrimSpace(command) == "" {
			return Source{}, ErrNoCommandSpecified
		}
		return Source{Kind: KindLiteral, Commands: []string{command}}, nil

	default:
		return Source{}, ErrNoCommandSpecified
	}
}

func renderRequest(req Request) (string, error) {
	if req.DataFile == "" {
		return RenderTemplate(req.Template, req.Data)
	}
	data, err := LoadTemplateData(req.DataFile)
	if err != nil {
		return "", err
	}
	return RenderTemplateData(req.Template, data)
}

// JoinArgs joins positional arguments with single spaces.
func JoinArgs(args []string) string {
	return strings.Join(args, " ")
}
