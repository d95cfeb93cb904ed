// Copyright 2025 Brian Wang <wangbuke@gmail.com>
// SPDX-License-Identifier: Apache-2.0

package vueplugin

import (
	"github.com/evanw/esbuild/pkg/api"
)

// BuildConfig describes the single bundle pass of a project.
type BuildConfig struct {
	EntryPoint    string // Defaults to "main.ts"
	Outdir        string // Defaults to "out"
	Minify        bool
	Sourcemap     bool
	Tsconfig      string
	AbsWorkingDir string
	Write         bool
	LogLevel      api.LogLevel
}

// DefaultBuildConfig returns the configuration of a plain project build:
// main.ts bundled into out/, unminified, written to disk.
func DefaultBuildConfig() BuildConfig {
	return BuildConfig{
		EntryPoint: "main.ts",
		Outdir:     "out",
		Write:      true,
		LogLevel:   api.LogLevelInfo,
	}
}

// Options converts the config into esbuild build options.
func (c BuildConfig) Options(plugins ...api.Plugin) api.BuildOptions {
	entry := c.EntryPoint
	if entry == "" {
		entry = "main.ts"
	}
	outdir := c.Outdir
	if outdir == "" {
		outdir = "out"
	}

	opts := api.BuildOptions{
		EntryPoints:       []string{entry},
		Bundle:            true,
		Outdir:            outdir,
		Plugins:           plugins,
		Write:             c.Write,
		LogLevel:          c.LogLevel,
		Tsconfig:          c.Tsconfig,
		AbsWorkingDir:     c.AbsWorkingDir,
		MinifyWhitespace:  c.Minify,
		MinifyIdentifiers: c.Minify,
		MinifySyntax:      c.Minify,
	}
	if c.Sourcemap {
		opts.Sourcemap = api.SourceMapLinked
	}
	return opts
}

// Build runs one esbuild pass with the given plugins.
// Any error reported by esbuild, including hook failures, yields a *BuildError.
func Build(cfg BuildConfig, plugins ...api.Plugin) (api.BuildResult, error) {
	result := api.Build(cfg.Options(plugins...))
	if len(result.Errors) > 0 {
		return result, &BuildError{Messages: result.Errors}
	}
	return result, nil
}
