// Copyright 2025 Brian Wang <wangbuke@gmail.com>
// SPDX-License-Identifier: Apache-2.0

package vueplugin

import (
	"fmt"
	"path/filepath"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/spf13/afero"
)

const sassNamespace = "sass-loader"

// sassLookup marks the nested resolve of a bare Sass specifier.
type sassLookup struct{}

// setupSassHandler compiles standalone .scss/.sass imports through the
// compiler bridge. Sass inside a component's style block goes through
// CompileStyles instead.
func setupSassHandler(opts *Options, build *api.PluginBuild) {
	build.OnResolve(api.OnResolveOptions{Filter: `\.s[ac]ss$`}, func(args api.OnResolveArgs) (api.OnResolveResult, error) {
		if _, nested := args.PluginData.(sassLookup); nested {
			return api.OnResolveResult{}, nil
		}

		aliases, err := loadPathAliases(opts.fs, build.InitialOptions)
		if err != nil {
			opts.logger.Error("Failed to parse tsconfig path aliases", "error", err)
			return api.OnResolveResult{}, err
		}

		path, aliased := aliases.apply(args.Path)
		switch {
		case !aliased && !isPathSpecifier(path):
			// Package imports such as "pkg/theme.scss" go through node_modules.
			resolved := build.Resolve(path, api.ResolveOptions{
				Importer:   args.Importer,
				ResolveDir: args.ResolveDir,
				Kind:       args.Kind,
				PluginData: sassLookup{},
			})
			if len(resolved.Errors) > 0 {
				return api.OnResolveResult{Errors: resolved.Errors}, nil
			}
			path = resolved.Path
		case !filepath.IsAbs(path):
			path = filepath.Join(args.ResolveDir, path)
		}

		return api.OnResolveResult{
			Path:      filepath.Clean(path),
			Namespace: sassNamespace,
		}, nil
	})

	build.OnLoad(api.OnLoadOptions{Filter: `\.s[ac]ss$`, Namespace: sassNamespace}, func(args api.OnLoadArgs) (api.OnLoadResult, error) {
		source, err := readSassSource(args, opts, build)
		if err != nil {
			opts.logger.Error("Failed to read Sass file", "error", err, "file", args.Path)
			return sassFailure(args.Path, err), nil
		}

		css, err := opts.compiler.CompileSass(SassOptions{
			Data:     source,
			Location: filepath.Dir(args.Path),
		})
		if err != nil {
			opts.logger.Error("Failed to compile Sass", "error", err, "file", args.Path)
			return sassFailure(args.Path, err), nil
		}

		return api.OnLoadResult{
			Contents:   &css,
			Loader:     api.LoaderCSS,
			ResolveDir: filepath.Dir(args.Path),
		}, nil
	})
}

// readSassSource asks the Sass load processors for content first and falls
// back to the file itself.
func readSassSource(args api.OnLoadArgs, opts *Options, build *api.PluginBuild) (string, error) {
	for _, processor := range opts.onSassLoadProcessors {
		content, err := processor(args, build.InitialOptions)
		if err != nil {
			return "", fmt.Errorf("sass processor failed: %w", err)
		}
		if content != "" {
			return content, nil
		}
	}

	data, err := afero.ReadFile(opts.fs, args.Path)
	if err != nil {
		return "", fmt.Errorf("failed to read sass file: %w", err)
	}
	return string(data), nil
}

func sassFailure(path string, err error) api.OnLoadResult {
	return api.OnLoadResult{
		Errors: []api.Message{{
			Text:     err.Error(),
			Location: &api.Location{File: path},
		}},
	}
}
