// Copyright 2025 Brian Wang <wangbuke@gmail.com>
// SPDX-License-Identifier: Apache-2.0

package vueplugin

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/spf13/afero"
)

// pathAlias is one tsconfig compilerOptions.paths entry.
// A trailing '*' in the pattern captures the rest of the specifier.
type pathAlias struct {
	prefix   string
	wildcard bool
	target   string
}

// pathAliases are ordered longest prefix first so that "@/components/*"
// wins over "@/*" regardless of map order in the tsconfig.
type pathAliases []pathAlias

type tsconfigPaths struct {
	CompilerOptions struct {
		BaseURL string              `json:"baseUrl"`
		Paths   map[string][]string `json:"paths"`
	} `json:"compilerOptions"`
}

// loadPathAliases reads path aliases from TsconfigRaw or the Tsconfig file.
func loadPathAliases(fs afero.Fs, buildOptions *api.BuildOptions) (pathAliases, error) {
	var cfg tsconfigPaths
	var baseDir string

	switch {
	case buildOptions.TsconfigRaw != "":
		if err := json.Unmarshal([]byte(buildOptions.TsconfigRaw), &cfg); err != nil {
			return nil, err
		}
		baseDir = buildOptions.AbsWorkingDir
		if baseDir == "" {
			exePath, _ := os.Executable()
			baseDir, _ = filepath.Abs(filepath.Dir(exePath))
		}
	case buildOptions.Tsconfig != "":
		data, err := afero.ReadFile(fs, buildOptions.Tsconfig)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
		baseDir, _ = filepath.Abs(filepath.Dir(buildOptions.Tsconfig))
	default:
		return nil, nil
	}

	if cfg.CompilerOptions.BaseURL != "" {
		baseDir = filepath.Join(baseDir, cfg.CompilerOptions.BaseURL)
	}

	aliases := make(pathAliases, 0, len(cfg.CompilerOptions.Paths))
	for pattern, targets := range cfg.CompilerOptions.Paths {
		if len(targets) == 0 || pattern == "" {
			continue
		}
		alias := pathAlias{prefix: pattern, target: filepath.Join(baseDir, targets[0])}
		if strings.HasSuffix(pattern, "*") {
			alias.wildcard = true
			alias.prefix = strings.TrimSuffix(pattern, "*")
			alias.target = filepath.Join(baseDir, strings.TrimSuffix(targets[0], "*"))
			if strings.HasSuffix(targets[0], "/*") {
				alias.target += "/"
			}
		}
		aliases = append(aliases, alias)
	}

	sort.Slice(aliases, func(i, j int) bool {
		return len(aliases[i].prefix) > len(aliases[j].prefix)
	})
	return aliases, nil
}

// apply rewrites path with the first matching alias.
func (a pathAliases) apply(path string) (string, bool) {
	for _, alias := range a {
		if alias.wildcard {
			if rest, ok := strings.CutPrefix(path, alias.prefix); ok {
				return alias.target + rest, true
			}
			continue
		}
		if path == alias.prefix {
			return alias.target, true
		}
	}
	return path, false
}
