// SPDX-License-Identifier: MPL-2.0

package source

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
)

// ReadCommandFile reads a newline-delimited command file. A file with no
// commands is not an error: an empty list is returned and logged.
func ReadCommandFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &FileNotFoundError{Path: path}
		}
		return nil, fmt.Errorf("read command file %s: %w", path, err)
	}

	commands := ParseCommands(string(data))
	if len(commands) == 0 {
		slog.Info("no commands found in file", "path", path)
	}
	return commands, nil
}

// ParseCommands splits text on newlines, trims each line, and drops blank
// lines and lines starting with '#'. Order is preserved.
func ParseCommands(text string) []string {
	commands := []string{}
	for line := range strings.SplitSeq(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		commands = append(commands, line)
	}
	return commands
}
