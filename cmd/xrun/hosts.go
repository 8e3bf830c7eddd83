// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

// newHostsCommand creates `xrun hosts`, which lists the configured SSH aliases.
func newHostsCommand(app *App, root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "hosts",
		Short: "List SSH host aliases from the configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.listHosts(cmd.Context(), root)
		},
	}
}

func (a *App) listHosts(ctx context.Context, root *rootOptions) error {
	store, err := root.loadStore(ctx, a)
	if err != nil {
		return err
	}

	names := store.HostNames()
	if len(names) == 0 {
		fmt.Fprintln(a.stdout, SubtitleStyle.Render("No hosts configured. Add a hosts block to the config file."))
		return nil
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(SubtitleStyle).
		Headers("NAME", "USER", "HOST", "PORT").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return TitleStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	for _, name := range names {
		h, _ := store.GetHostConfig(name)
		host := h.Host
		if host == "" {
			host = name
		}
		port := "22"
		if h.Port != 0 {
			port = strconv.Itoa(h.Port)
		}
		user := h.Username
		if user == "" {
			user = "-"
		}
		t.Row(name, user, host, port)
	}
	_, err = fmt.Fprintln(a.stdout, t.String())
	return err
}
