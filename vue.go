// Copyright 2025 Brian Wang <wangbuke@gmail.com>
// SPDX-License-Identifier: Apache-2.0

package vueplugin

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/spf13/afero"
)

// setupVueHandler registers the resolve and load hooks for .vue files.
func setupVueHandler(opts *Options, build *api.PluginBuild) {
	registerStyleResolveHandler(build)
	registerVueResolveHandler(opts, build)

	// Each load rule is pinned to its own namespace so that a style request
	// can never be served by the script rule and vice versa.
	loader := newVueLoader(opts, build)
	build.OnLoad(api.OnLoadOptions{Filter: `\.vue$`, Namespace: styleNamespace}, loader.load)
	build.OnLoad(api.OnLoadOptions{Filter: `\.vue$`, Namespace: fileNamespace}, loader.load)
}

// registerStyleResolveHandler maps "<file>.vue?css" onto the style namespace.
func registerStyleResolveHandler(build *api.PluginBuild) {
	build.OnResolve(api.OnResolveOptions{Filter: `\?css$`}, func(args api.OnResolveArgs) (api.OnResolveResult, error) {
		req, ok := parseStyleImport(args.Path)
		if !ok {
			return api.OnResolveResult{}, nil
		}
		return api.OnResolveResult{
			Path:      req.path,
			Namespace: req.namespace(),
		}, nil
	})
}

// registerVueResolveHandler resolves relative, absolute and aliased .vue imports.
// Bare package specifiers are left to esbuild.
func registerVueResolveHandler(opts *Options, build *api.PluginBuild) {
	build.OnResolve(api.OnResolveOptions{Filter: `\.vue$`}, func(args api.OnResolveArgs) (api.OnResolveResult, error) {
		aliases, err := loadPathAliases(opts.fs, build.InitialOptions)
		if err != nil {
			opts.logger.Error("Failed to parse tsconfig path aliases", "error", err)
			return api.OnResolveResult{}, err
		}
		path, aliased := aliases.apply(args.Path)
		args.Path = path

		for _, processor := range opts.onVueResolveProcessors {
			result, err := processor(&args, build.InitialOptions)
			if err != nil {
				return api.OnResolveResult{}, err
			}
			if result != nil {
				return *result, nil
			}
		}

		if !aliased && !isPathSpecifier(args.Path) {
			return api.OnResolveResult{}, nil
		}

		if !filepath.IsAbs(args.Path) {
			args.Path = filepath.Join(args.ResolveDir, args.Path)
		}

		return api.OnResolveResult{
			Path:      filepath.Clean(args.Path),
			Namespace: fileNamespace,
		}, nil
	})
}

func isPathSpecifier(path string) bool {
	return filepath.IsAbs(path) || strings.HasPrefix(path, "./") || strings.HasPrefix(path, "../") || strings.HasPrefix(path, "/")
}

// vueLoader serves both kinds of component requests.
type vueLoader struct {
	opts  *Options
	build *api.PluginBuild
}

func newVueLoader(opts *Options, build *api.PluginBuild) *vueLoader {
	return &vueLoader{opts: opts, build: build}
}

func (l *vueLoader) load(args api.OnLoadArgs) (api.OnLoadResult, error) {
	req := requestFromLoad(args)

	source, err := readVueSource(args, l.opts, l.build)
	if err != nil {
		l.opts.logger.Error("Failed to read Vue file", "error", err, "file", args.Path)
		return api.OnLoadResult{}, err
	}

	var result api.OnLoadResult
	switch req.kind {
	case styleLoad:
		result, err = l.loadStyle(req, source)
	default:
		result, err = l.loadScript(req, source)
	}
	if err != nil {
		l.opts.logger.Error("Failed to compile Vue SFC", "error", err, "file", args.Path, "request", req.kind)
		// esbuild drops result.Errors when an error is returned too.
		return l.failure(args.Path, err), nil
	}

	result.ResolveDir = filepath.Dir(req.path)
	return result, nil
}

// loadScript returns the component module, preceded by the import of its
// stylesheet so the style request follows.
func (l *vueLoader) loadScript(req loadRequest, source string) (api.OnLoadResult, error) {
	out, err := CompileScript(l.opts.compiler, source, req.path, l.opts.compileOptions(l.build.InitialOptions)...)
	if err != nil {
		return api.OnLoadResult{}, err
	}

	styleReq := loadRequest{kind: styleLoad, path: req.path}
	contents := fmt.Sprintf("import %q;\n%s", styleReq.importPath(), out.Text)

	if l.build.InitialOptions.Sourcemap != api.SourceMapNone && out.Map != nil {
		mapJSON, err := json.Marshal(out.Map)
		if err != nil {
			return api.OnLoadResult{}, err
		}
		contents += "\n//# sourceMappingURL=data:application/json;charset=utf-8;base64," + base64.StdEncoding.EncodeToString(mapJSON)
	}

	return api.OnLoadResult{
		Contents: &contents,
		Loader:   api.LoaderTS,
		Warnings: textMessages(out.Warnings, req.path),
	}, nil
}

func (l *vueLoader) loadStyle(req loadRequest, source string) (api.OnLoadResult, error) {
	out, err := CompileStyles(l.opts.compiler, source, req.path, l.opts.compileOptions(l.build.InitialOptions)...)
	if err != nil {
		return api.OnLoadResult{}, err
	}
	return api.OnLoadResult{
		Contents: &out.Text,
		Loader:   api.LoaderCSS,
		Warnings: textMessages(out.Warnings, req.path),
	}, nil
}

// failure builds the esbuild messages describing err.
func (l *vueLoader) failure(path string, err error) api.OnLoadResult {
	var compileErr *CompileError
	if errors.As(err, &compileErr) {
		return api.OnLoadResult{Errors: compileErr.Messages()}
	}
	return api.OnLoadResult{
		Errors: []api.Message{{
			Text:     fmt.Sprintf("Vue SFC compilation failed: %v", err),
			Location: &api.Location{File: path},
		}},
	}
}

// readVueSource reads the component and runs the load processor chain.
func readVueSource(args api.OnLoadArgs, opts *Options, build *api.PluginBuild) (string, error) {
	data, err := afero.ReadFile(opts.fs, args.Path)
	if err != nil {
		return "", err
	}

	source := string(data)
	for _, processor := range opts.onVueLoadProcessors {
		source, err = processor(source, args, build.InitialOptions)
		if err != nil {
			return "", err
		}
	}
	return source, nil
}

func textMessages(texts []string, file string) []api.Message {
	if len(texts) == 0 {
		return nil
	}
	msgs := make([]api.Message, len(texts))
	for i, t := range texts {
		msgs[i] = api.Message{Text: t, Location: &api.Location{File: file}}
	}
	return msgs
}
