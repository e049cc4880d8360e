package config

import (
	"os"
	"path/filepath"
	"strings"
)

const defaultLogSubdir = "logs"

// resolveRuntimePath anchors raw at base when it is relative. An empty raw
// falls back to fallback under base; an empty base means the working directory.
func resolveRuntimePath(base, raw, fallback string) string {
	target := strings.TrimSpace(raw)
	if target == "" {
		target = fallback
	}
	if filepath.IsAbs(target) {
		return filepath.Clean(target)
	}
	if base == "" {
		if wd, err := os.Getwd(); err == nil {
			base = wd
		} else {
			base = "."
		}
	}
	return filepath.Clean(filepath.Join(base, target))
}

func configDir(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return ""
	}
	return filepath.Dir(abs)
}
