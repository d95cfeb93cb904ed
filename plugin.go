// Copyright 2025 Brian Wang <wangbuke@gmail.com>
// SPDX-License-Identifier: Apache-2.0

package vueplugin

import (
	"github.com/evanw/esbuild/pkg/api"
)

// NewPlugin creates an esbuild plugin loading Vue single-file components
// with scoped styles.
//
// A .vue file is served twice: once as a TypeScript module carrying the
// compiled script and template, once as the stylesheet of its first style
// block, imported by the module through a "?css" specifier. Both halves
// share the scope id derived from the file path.
//
// Example usage:
//
//	plugin := NewPlugin(
//	  WithJsExecutor(jsExec),
//	  WithTemplateCompilerOptions(map[string]any{"whitespace": "condense"}),
//	)
//
// Panics if no compiler is configured.
func NewPlugin(optsFunc ...OptionFunc) api.Plugin {
	opts := newOptions()
	for _, fn := range optsFunc {
		fn(opts)
	}

	if opts.compiler == nil {
		panic("compiler is required, please set it using WithCompiler() or WithJsExecutor()")
	}

	return api.Plugin{
		Name: opts.name,
		Setup: func(build api.PluginBuild) {
			normalizeEsbuildOptions(build.InitialOptions)

			build.OnStart(func() (api.OnStartResult, error) {
				for _, processor := range opts.onStartProcessors {
					if err := processor(build.InitialOptions); err != nil {
						opts.logger.Error("Start processor failed", "error", err)
						return api.OnStartResult{}, err
					}
				}
				return api.OnStartResult{}, nil
			})

			setupVueHandler(opts, &build)
			setupSassHandler(opts, &build)
			setupHtmlHandler(opts, &build)

			build.OnEnd(func(result *api.BuildResult) (api.OnEndResult, error) {
				// Post-processing only makes sense for a successful build.
				if len(result.Errors) > 0 {
					return api.OnEndResult{}, nil
				}
				for _, processor := range opts.onEndProcessors {
					if err := processor(result, build.InitialOptions); err != nil {
						opts.logger.Error("End processor failed", "error", err)
						return api.OnEndResult{}, err
					}
				}
				return api.OnEndResult{}, nil
			})

			build.OnDispose(func() {
				for _, processor := range opts.onDisposeProcessors {
					processor(build.InitialOptions)
				}
			})
		},
	}
}
