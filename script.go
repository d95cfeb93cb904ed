// Copyright 2025 Brian Wang <wangbuke@gmail.com>
// SPDX-License-Identifier: Apache-2.0

package vueplugin

import (
	"fmt"
	"log/slog"
	"strings"
)

// scopeIDMarker opens the options object of the component definition emitted
// by compileScript. The scope id is spliced in right after it.
// If the compiler stops emitting this literal the splice silently no-ops.
const scopeIDMarker = "defineComponent({"

// ScriptOutput is the compiled script of a component with its scope id applied.
type ScriptOutput struct {
	Text     string
	ScopeID  string
	Lang     string
	Map      any
	Warnings []string
}

// compileConfig carries the per-build settings shared by both adapters.
type compileConfig struct {
	scopeID                 ScopeIDFunc
	isProd                  bool
	sourceMap               bool
	templateCompilerOptions map[string]any
	stylePreprocessOptions  map[string]any
	logger                  *slog.Logger
}

// CompileOption tunes CompileScript and CompileStyles.
type CompileOption func(*compileConfig)

// WithCompileScopeID overrides the scope id derivation, DeriveID by default.
func WithCompileScopeID(fn ScopeIDFunc) CompileOption {
	return func(c *compileConfig) {
		if fn != nil {
			c.scopeID = fn
		}
	}
}

// WithCompileLogger sets the logger receiving parse diagnostics.
func WithCompileLogger(logger *slog.Logger) CompileOption {
	return func(c *compileConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithProduction marks the build as a production build.
func WithProduction(isProd bool) CompileOption {
	return func(c *compileConfig) { c.isProd = isProd }
}

// WithSourceMap asks the compiler for a source map of the script.
func WithSourceMap(enabled bool) CompileOption {
	return func(c *compileConfig) { c.sourceMap = enabled }
}

// WithTemplateOptions forwards options to the template compiler.
func WithTemplateOptions(options map[string]any) CompileOption {
	return func(c *compileConfig) { c.templateCompilerOptions = options }
}

// WithPreprocessOptions forwards options to the style preprocessor.
func WithPreprocessOptions(options map[string]any) CompileOption {
	return func(c *compileConfig) { c.stylePreprocessOptions = options }
}

func newCompileConfig(opts []CompileOption) *compileConfig {
	cfg := &compileConfig{
		scopeID: DeriveID,
		isProd:  true,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// parseChecked parses source and turns diagnostics into a CompileError.
// Every diagnostic is logged before the error is returned.
func parseChecked(c Compiler, source, filename string, logger *slog.Logger) (*Descriptor, error) {
	d, err := c.Parse(source, filename)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}
	if len(d.Errors) > 0 {
		for _, diag := range d.Errors {
			logger.Error("Vue SFC parse diagnostic", "file", filename, "message", diag.Message, "line", diag.Line, "column", diag.Column)
		}
		return nil, &CompileError{Filename: filename, Diagnostics: d.Errors}
	}
	return d, nil
}

// CompileScript compiles the script and template of a component and injects
// the __scopeId property into its definition.
func CompileScript(c Compiler, source, filename string, opts ...CompileOption) (*ScriptOutput, error) {
	cfg := newCompileConfig(opts)

	d, err := parseChecked(c, source, filename, cfg.logger)
	if err != nil {
		return nil, err
	}

	id := cfg.scopeID(filename)

	res, err := c.CompileScript(d, ScriptOptions{
		ID:                      id,
		InlineTemplate:          true,
		IsProd:                  cfg.isProd,
		SourceMap:               cfg.sourceMap,
		TemplateCompilerOptions: cfg.templateCompilerOptions,
	})
	if err != nil {
		return nil, fmt.Errorf("compile script %s: %w", filename, err)
	}

	return &ScriptOutput{
		Text:     injectScopeID(res.Content, id),
		ScopeID:  id,
		Lang:     res.Lang,
		Map:      res.Map,
		Warnings: res.Warnings,
	}, nil
}

// injectScopeID inserts `__scopeId: "data-v-<id>"` as the first property of
// the first component definition in code. Code without a definition is
// returned unchanged.
func injectScopeID(code, id string) string {
	i := strings.Index(code, scopeIDMarker)
	if i < 0 {
		return code
	}
	at := i + len(scopeIDMarker)
	return code[:at] + fmt.Sprintf("\n__scopeId: %q,", ScopeAttr(id)) + code[at:]
}
