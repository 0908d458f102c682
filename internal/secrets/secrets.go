// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets reads site credentials from a directory of plain files,
// one secret per file: the filename is the key, the trimmed contents are
// the value. The harvester looks for kb-username and kb-password; other
// files are loaded too so the directory can carry operator-specific keys.
package secrets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Load reads every regular file in dir into a key/value map. A missing
// directory yields an empty map, not an error, so a fresh checkout runs
// without a .secrets directory. Dotfiles and subdirectories are ignored,
// and files that cannot be read are skipped with a warning on stderr.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		value, err := readSecret(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}
		if value != "" {
			secrets[name] = value
		}
	}
	return secrets, nil
}

// readSecret returns the file's contents with surrounding whitespace
// stripped, so trailing newlines from editors don't end up in passwords.
func readSecret(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
