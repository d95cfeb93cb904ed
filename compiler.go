// Copyright 2025 Brian Wang <wangbuke@gmail.com>
// SPDX-License-Identifier: Apache-2.0

package vueplugin

import (
	"fmt"

	jsexecutor "github.com/buke/js-executor"
	"github.com/rs/xid"
)

// Service paths exposed by the compiler bridge running inside the JS engine.
const (
	ServiceParse         = "sfc.vue.parse"
	ServiceCompileScript = "sfc.vue.compileScript"
	ServiceCompileStyle  = "sfc.vue.compileStyle"
	ServiceRenderSass    = "sfc.sass.renderSync"
)

// Compiler is the boundary to the Vue SFC compiler.
// Implementations must be safe for concurrent use.
type Compiler interface {
	Parse(source, filename string) (*Descriptor, error)
	CompileScript(d *Descriptor, opts ScriptOptions) (*ScriptResult, error)
	CompileStyle(opts StyleOptions) (*StyleResult, error)
	CompileSass(opts SassOptions) (string, error)
}

// ScriptOptions are forwarded to compileScript.
type ScriptOptions struct {
	ID                      string
	InlineTemplate          bool
	IsProd                  bool
	SourceMap               bool
	TemplateCompilerOptions map[string]any
}

// ScriptResult is the generated module of a component.
type ScriptResult struct {
	Content  string
	Lang     string // "ts" when the component script is TypeScript
	Map      any    // Source map object, nil unless requested
	Warnings []string
}

// StyleOptions are forwarded to compileStyle.
// Scoped is nil when the component has no style block.
type StyleOptions struct {
	Source            string
	ID                string
	Filename          string
	Scoped            *bool
	PreprocessLang    string
	PreprocessOptions map[string]any
}

// StyleResult is the generated stylesheet.
type StyleResult struct {
	Code   string
	Errors []string
}

// SassOptions configure standalone Sass compilation.
type SassOptions struct {
	Data      string
	Location  string // Directory used to resolve @import
	SourceMap bool
	Style     string
}

// ServiceCaller invokes a named function of the compiler bridge.
type ServiceCaller interface {
	Call(service string, args ...any) (any, error)
}

// CallerFunc adapts a plain function to ServiceCaller.
type CallerFunc func(service string, args ...any) (any, error)

func (f CallerFunc) Call(service string, args ...any) (any, error) { return f(service, args...) }

type executorCaller struct {
	exec *jsexecutor.JsExecutor
}

// ExecutorCaller routes service calls through a js-executor pool.
func ExecutorCaller(exec *jsexecutor.JsExecutor) ServiceCaller {
	return &executorCaller{exec: exec}
}

func (c *executorCaller) Call(service string, args ...any) (any, error) {
	resp, err := c.exec.Execute(&jsexecutor.JsRequest{
		Id:      xid.New().String(),
		Service: service,
		Args:    args,
	})
	if err != nil {
		return nil, err
	}
	return resp.Result, nil
}

type serviceCompiler struct {
	caller ServiceCaller
}

// NewServiceCompiler builds a Compiler on top of the bridge services.
func NewServiceCompiler(caller ServiceCaller) Compiler {
	return &serviceCompiler{caller: caller}
}

func (c *serviceCompiler) call(service string, args ...any) (map[string]any, error) {
	raw, err := c.caller.Call(service, args...)
	if err != nil {
		return nil, &ServiceError{Service: service, Err: err}
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, &ServiceError{Service: service, Err: fmt.Errorf("%w: got %T", ErrInvalidResult, raw)}
	}
	return m, nil
}

func (c *serviceCompiler) Parse(source, filename string) (*Descriptor, error) {
	raw, err := c.caller.Call(ServiceParse, source, map[string]any{"filename": filename})
	if err != nil {
		return nil, &ServiceError{Service: ServiceParse, Err: err}
	}
	return decodeDescriptor(source, filename, raw)
}

// CompileScript sends the descriptor's source rather than the descriptor itself;
// the bridge parses it again on its side since live compiler objects cannot
// leave the engine.
func (c *serviceCompiler) CompileScript(d *Descriptor, opts ScriptOptions) (*ScriptResult, error) {
	templateOptions := map[string]any{}
	if len(opts.TemplateCompilerOptions) > 0 {
		templateOptions["compilerOptions"] = opts.TemplateCompilerOptions
	}

	m, err := c.call(ServiceCompileScript, d.Source, map[string]any{
		"filename":        d.Filename,
		"id":              opts.ID,
		"inlineTemplate":  opts.InlineTemplate,
		"isProd":          opts.IsProd,
		"sourceMap":       opts.SourceMap,
		"templateOptions": templateOptions,
	})
	if err != nil {
		return nil, err
	}

	content, ok := m["content"].(string)
	if !ok {
		return nil, &ServiceError{Service: ServiceCompileScript, Err: fmt.Errorf("%w: missing content", ErrInvalidResult)}
	}

	return &ScriptResult{
		Content:  content,
		Lang:     stringField(m, "lang"),
		Map:      m["map"],
		Warnings: stringSlice(m["warnings"]),
	}, nil
}

func (c *serviceCompiler) CompileStyle(opts StyleOptions) (*StyleResult, error) {
	req := map[string]any{
		"source":   opts.Source,
		"id":       opts.ID,
		"filename": opts.Filename,
	}
	if opts.Scoped != nil {
		req["scoped"] = *opts.Scoped
	}
	if opts.PreprocessLang != "" {
		req["preprocessLang"] = opts.PreprocessLang
		req["preprocessOptions"] = opts.PreprocessOptions
	}

	m, err := c.call(ServiceCompileStyle, req)
	if err != nil {
		return nil, err
	}

	code, ok := m["code"].(string)
	if !ok {
		return nil, &ServiceError{Service: ServiceCompileStyle, Err: fmt.Errorf("%w: missing code", ErrInvalidResult)}
	}

	return &StyleResult{Code: code, Errors: stringSlice(m["errors"])}, nil
}

func (c *serviceCompiler) CompileSass(opts SassOptions) (string, error) {
	style := opts.Style
	if style == "" {
		style = "expanded"
	}

	m, err := c.call(ServiceRenderSass, map[string]any{
		"data":         opts.Data,
		"sasslocation": opts.Location,
		"sourceMap":    opts.SourceMap,
		"style":        style,
	})
	if err != nil {
		return "", err
	}

	css, ok := m["css"].(string)
	if !ok {
		return "", &ServiceError{Service: ServiceRenderSass, Err: fmt.Errorf("%w: missing css", ErrInvalidResult)}
	}
	return css, nil
}
