// SPDX-License-Identifier: MPL-2.0

package source

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const maxDataFileSize = 4 << 20

// LoadTemplateData reads template data from path. The format follows the
// extension: .json, .yaml/.yml or .toml. An empty document yields an empty object.
func LoadTemplateData(path string) (any, error) {
	data, err := readLimited(path, maxDataFileSize)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &FileNotFoundError{Path: path}
		}
		return nil, fmt.Errorf("read data file %s: %w", path, err)
	}
	if len(data) > maxDataFileSize {
		return nil, &InvalidTemplateDataError{Err: fmt.Errorf("%s: file exceeds %d bytes", path, maxDataFileSize)}
	}

	var v any
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		if strings.TrimSpace(string(data)) != "" {
			err = json.Unmarshal(data, &v)
		}
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &v)
	case ".toml":
		var m map[string]any
		if err = toml.Unmarshal(data, &m); err == nil && m != nil {
			v = m
		}
	default:
		return nil, &InvalidTemplateDataError{Err: fmt.Errorf("%s: unsupported data file extension %q (use .json, .yaml, .yml or .toml)", path, ext)}
	}
	if err != nil {
		return nil, &InvalidTemplateDataError{Err: fmt.Errorf("%s: %w", path, err)}
	}

	if v == nil {
		return map[string]any{}, nil
	}
	return v, nil
}

// readLimited reads at most limit+1 bytes so oversized files are detected
// without loading them whole.
func readLimited(path string, limit int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	return io.ReadAll(io.LimitReader(f, limit+1))
}
