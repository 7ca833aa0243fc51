// Package pathutil expands paths typed by users or written in config files.
package pathutil

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
)

// Expand resolves $VAR references and a leading "~". Blank input stays blank.
func Expand(path string) (string, error) {
	expanded := os.ExpandEnv(strings.TrimSpace(path))
	if expanded == "" {
		return "", nil
	}

	rest, ok := cutHome(expanded)
	if !ok {
		return filepath.Clean(expanded), nil
	}
	home, err := HomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, rest), nil
}

// HomeDir returns the current user's home directory. A HOME that itself
// starts with "~" is ignored in favour of the account database.
func HomeDir() (string, error) {
	candidates := []func() string{
		func() string { h, _ := os.UserHomeDir(); return h },
		func() string {
			if u, err := user.Current(); err == nil {
				return u.HomeDir
			}
			return ""
		},
	}
	for _, candidate := range candidates {
		if home := strings.TrimSpace(candidate()); home != "" {
			if _, unresolved := cutHome(home); !unresolved {
				return home, nil
			}
		}
	}
	return "", fmt.Errorf("no usable home directory (HOME=%q)", os.Getenv("HOME"))
}

func cutHome(path string) (string, bool) {
	if path == "~" {
		return "", true
	}
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		return rest, true
	}
	return "", false
}
