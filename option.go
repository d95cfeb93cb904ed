// Copyright 2025 Brian Wang <wangbuke@gmail.com>
// SPDX-License-Identifier: Apache-2.0

package vueplugin

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	jsexecutor "github.com/buke/js-executor"
	"github.com/evanw/esbuild/pkg/api"
	"github.com/spf13/afero"
	"golang.org/x/net/html"
)

// OnStartProcessor runs before the build starts.
// Returning an error aborts the build.
type OnStartProcessor func(buildOptions *api.BuildOptions) error

// OnVueResolveProcessor customizes the resolution of .vue imports.
// A non-nil result is used as is; nil falls through to the default resolution.
type OnVueResolveProcessor func(args *api.OnResolveArgs, buildOptions *api.BuildOptions) (*api.OnResolveResult, error)

// OnVueLoadProcessor transforms the raw component source before it is compiled.
// It runs for both the script and the style request of a file, so it must be
// deterministic or the two halves of a component will disagree.
type OnVueLoadProcessor func(content string, args api.OnLoadArgs, buildOptions *api.BuildOptions) (string, error)

// OnSassLoadProcessor may supply the content of a Sass file.
// Returning an empty string falls back to reading the file.
type OnSassLoadProcessor func(args api.OnLoadArgs, buildOptions *api.BuildOptions) (content string, err error)

// OnEndProcessor runs after the build ends.
type OnEndProcessor func(result *api.BuildResult, buildOptions *api.BuildOptions) error

// OnDisposeProcessor releases resources once the build is disposed.
type OnDisposeProcessor func(buildOptions *api.BuildOptions)

// IndexHtmlProcessor edits the parsed index.html after the build.
type IndexHtmlProcessor func(doc *html.Node, result *api.BuildResult, opts *Options, build *api.PluginBuild) error

// IndexHtmlOptions configures index.html rewriting.
type IndexHtmlOptions struct {
	SourceFile          string               // Source HTML file path
	OutFile             string               // Output HTML file path
	RemoveTagXPaths     []string             // XPath expressions of nodes to remove
	IndexHtmlProcessors []IndexHtmlProcessor // Custom processors, a default injector is used when empty
}

// Options holds the plugin configuration and processor chains.
type Options struct {
	name                     string
	templateCompilerOptions  map[string]any
	stylePreprocessorOptions map[string]any
	indexHtmlOptions         IndexHtmlOptions

	onStartProcessors      []OnStartProcessor
	onVueResolveProcessors []OnVueResolveProcessor
	onVueLoadProcessors    []OnVueLoadProcessor
	onSassLoadProcessors   []OnSassLoadProcessor
	onEndProcessors        []OnEndProcessor
	onDisposeProcessors    []OnDisposeProcessor

	compiler Compiler
	scopeID  ScopeIDFunc
	fs       afero.Fs
	logger   *slog.Logger
}

// OptionFunc configures the plugin.
type OptionFunc func(*Options)

func newOptions() *Options {
	return &Options{
		name:                     "vue-scoped",
		templateCompilerOptions:  make(map[string]any),
		stylePreprocessorOptions: make(map[string]any),
		scopeID:                  DeriveID,
		fs:                       afero.NewOsFs(),
		logger:                   slog.Default(),
	}
}

// WithName sets the plugin name shown in esbuild messages.
func WithName(name string) OptionFunc {
	return func(opts *Options) {
		opts.name = name
	}
}

// WithCompiler sets the SFC compiler used by the plugin.
func WithCompiler(compiler Compiler) OptionFunc {
	return func(opts *Options) {
		opts.compiler = compiler
	}
}

// WithJsExecutor uses a js-executor pool running the compiler bridge.
// It is shorthand for WithCompiler(NewServiceCompiler(ExecutorCaller(jsExecutor))).
func WithJsExecutor(jsExecutor *jsexecutor.JsExecutor) OptionFunc {
	return func(opts *Options) {
		if jsExecutor == nil {
			opts.compiler = nil
			return
		}
		opts.compiler = NewServiceCompiler(ExecutorCaller(jsExecutor))
	}
}

// WithScopeIDFunc replaces DeriveID for scope id derivation.
func WithScopeIDFunc(fn ScopeIDFunc) OptionFunc {
	return func(opts *Options) {
		if fn != nil {
			opts.scopeID = fn
		}
	}
}

// WithFs sets the filesystem component and Sass sources are read from.
func WithFs(fs afero.Fs) OptionFunc {
	return func(opts *Options) {
		if fs != nil {
			opts.fs = fs
		}
	}
}

// WithTemplateCompilerOptions sets compilerOptions passed to the template compiler,
// e.g. {"whitespace": "preserve"}.
func WithTemplateCompilerOptions(templateCompilerOptions map[string]any) OptionFunc {
	return func(opts *Options) {
		opts.templateCompilerOptions = templateCompilerOptions
	}
}

// WithStylePreprocessorOptions sets options passed to style preprocessors.
func WithStylePreprocessorOptions(stylePreprocessorOptions map[string]any) OptionFunc {
	return func(opts *Options) {
		opts.stylePreprocessorOptions = stylePreprocessorOptions
	}
}

// WithIndexHtmlOptions enables index.html rewriting.
func WithIndexHtmlOptions(indexHtmlOptions IndexHtmlOptions) OptionFunc {
	return func(opts *Options) {
		opts.indexHtmlOptions = indexHtmlOptions
	}
}

func WithOnStartProcessor(processor OnStartProcessor) OptionFunc {
	return func(opts *Options) {
		opts.onStartProcessors = append(opts.onStartProcessors, processor)
	}
}

func WithOnVueResolveProcessor(processor OnVueResolveProcessor) OptionFunc {
	return func(opts *Options) {
		opts.onVueResolveProcessors = append(opts.onVueResolveProcessors, processor)
	}
}

func WithOnVueLoadProcessor(processor OnVueLoadProcessor) OptionFunc {
	return func(opts *Options) {
		opts.onVueLoadProcessors = append(opts.onVueLoadProcessors, processor)
	}
}

func WithOnSassLoadProcessor(processor OnSassLoadProcessor) OptionFunc {
	return func(opts *Options) {
		opts.onSassLoadProcessors = append(opts.onSassLoadProcessors, processor)
	}
}

func WithOnEndProcessor(processor OnEndProcessor) OptionFunc {
	return func(opts *Options) {
		opts.onEndProcessors = append(opts.onEndProcessors, processor)
	}
}

func WithOnDisposeProcessor(processor OnDisposeProcessor) OptionFunc {
	return func(opts *Options) {
		opts.onDisposeProcessors = append(opts.onDisposeProcessors, processor)
	}
}

// WithLogger sets the logger, slog.Default() if not specified.
func WithLogger(logger *slog.Logger) OptionFunc {
	return func(opts *Options) {
		opts.logger = logger
	}
}

// compileOptions turns the plugin options into adapter options for one build.
func (o *Options) compileOptions(buildOptions *api.BuildOptions) []CompileOption {
	isProd := true
	if v, ok := parseImportMetaEnv(buildOptions.Define, "PROD"); ok {
		if b, ok := v.(bool); ok {
			isProd = b
		}
	}
	return []CompileOption{
		WithCompileScopeID(o.scopeID),
		WithCompileLogger(o.logger),
		WithProduction(isProd),
		WithSourceMap(buildOptions.Sourcemap != api.SourceMapNone),
		WithTemplateOptions(o.templateCompilerOptions),
		WithPreprocessOptions(o.stylePreprocessorOptions),
	}
}

// parseImportMetaEnv looks key up in esbuild defines, either as
// "import.meta.env.KEY" or inside a JSON "import.meta.env" object.
func parseImportMetaEnv(defineMap map[string]string, key string) (any, bool) {
	if v, ok := defineMap["import.meta.env."+key]; ok {
		var value any
		json.Unmarshal([]byte(v), &value)
		return value, true
	}

	if v, ok := defineMap["import.meta.env"]; ok {
		var env map[string]any
		if json.Unmarshal([]byte(v), &env) == nil {
			if value, ok := env[key]; ok {
				return value, true
			}
		}
	}

	return nil, false
}

// normalizeEsbuildOptions fills in the defines Vue expects and enables the metafile.
func normalizeEsbuildOptions(initialOptions *api.BuildOptions) {
	if initialOptions.Define == nil {
		initialOptions.Define = make(map[string]string)
	}

	if _, ok := initialOptions.Define["import.meta.env"]; !ok {
		initialOptions.Define["import.meta.env"] = "{}"
	}

	envDefaults := [][2]string{
		{"MODE", "'production'"},
		{"PROD", "true"},
		{"DEV", "false"},
		{"SSR", "false"},
		{"BASE_URL", "'/'"},
	}
	for _, kv := range envDefaults {
		if _, exists := parseImportMetaEnv(initialOptions.Define, kv[0]); !exists {
			initialOptions.Define["import.meta.env."+kv[0]] = kv[1]
		}
	}

	flags := map[string]bool{
		"__VUE_OPTIONS_API__":                     true,
		"__VUE_PROD_DEVTOOLS__":                   false,
		"__VUE_PROD_HYDRATION_MISMATCH_DETAILS__": false,
	}
	for name, value := range flags {
		if _, ok := initialOptions.Define[name]; !ok {
			initialOptions.Define[name] = fmt.Sprintf("%t", value)
		}
	}

	initialOptions.Metafile = true
}

// SimpleCopy returns an OnEndProcessor copying srcFile -> outFile pairs on fs.
func SimpleCopy(fs afero.Fs, fileMap map[string]string) OnEndProcessor {
	return func(result *api.BuildResult, initialOptions *api.BuildOptions) error {
		for srcFile, outFile := range fileMap {
			if err := copyFile(fs, srcFile, outFile); err != nil {
				return err
			}
		}
		return nil
	}
}

func copyFile(fs afero.Fs, srcFile, outFile string) error {
	src, err := fs.Open(srcFile)
	if err != nil {
		return fmt.Errorf("failed to open source file %s: %w", srcFile, err)
	}
	defer src.Close()

	if err := fs.MkdirAll(filepath.Dir(outFile), 0755); err != nil {
		return fmt.Errorf("failed to create output dir for %s: %w", outFile, err)
	}

	dst, err := fs.Create(outFile)
	if err != nil {
		return fmt.Errorf("failed to create output file %s: %w", outFile, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("failed to copy from %s to %s: %w", srcFile, outFile, err)
	}
	return nil
}
