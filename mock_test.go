// Copyright 2025 Brian Wang <wangbuke@gmail.com>
// SPDX-License-Identifier: Apache-2.0

package vueplugin

import (
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	jsexecutor "github.com/buke/js-executor"
)

var (
	mockTemplateRe = regexp.MustCompile(`(?s)<template>(.*?)</template>`)
	mockScriptRe   = regexp.MustCompile(`(?s)<script( setup)?(?: lang="(\w+)")?>(.*?)</script>`)
	mockStyleRe    = regexp.MustCompile(`(?s)<style( scoped)?(?: lang="(\w+)")?>(.*?)</style>`)
	mockSelectorRe = regexp.MustCompile(`\s*\{`)
)

// MockEngineConfig defines the behaviour of a mock engine
type MockEngineConfig struct {
	// Error returned by every Execute call
	ExecuteError error
	// Errors returned for specific services
	ServiceErrors map[string]error
	// Return a string instead of a map for every service
	InvalidResult bool
	// Diagnostics reported by sfc.vue.parse, either strings or maps
	Diagnostics []any
	// Replaces the generated script content when non-empty
	ScriptContent string
	// Script language reported by compileScript
	ScriptLang string
	// Script warnings reported by compileScript
	ScriptWarnings []any
	// Script source map reported by compileScript
	ScriptMap any
	// Problems reported by compileStyle
	StyleErrors []any
	// CSS returned by sfc.sass.renderSync
	SassCSS string
	// Records every request when set
	Recorder *MockRecorder
}

// MockRecorder collects the requests seen by mock engines
type MockRecorder struct {
	mu       sync.Mutex
	requests []*jsexecutor.JsRequest
}

func (r *MockRecorder) record(req *jsexecutor.JsRequest) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req)
}

// Requests returns the recorded requests for service
func (r *MockRecorder) Requests(service string) []*jsexecutor.JsRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*jsexecutor.JsRequest
	for _, req := range r.requests {
		if req.Service == service {
			out = append(out, req)
		}
	}
	return out
}

// MockEngine answers the sfc.* services with canned compiler output
type MockEngine struct {
	config *MockEngineConfig
}

func (e *MockEngine) Init(scripts []*jsexecutor.InitScript) error   { return nil }
func (e *MockEngine) Reload(scripts []*jsexecutor.InitScript) error { return nil }
func (e *MockEngine) Close() error                                  { return nil }

func (e *MockEngine) Execute(req *jsexecutor.JsRequest) (*jsexecutor.JsResponse, error) {
	if e.config.Recorder != nil {
		e.config.Recorder.record(req)
	}
	if e.config.ExecuteError != nil {
		return nil, e.config.ExecuteError
	}
	if err, ok := e.config.ServiceErrors[req.Service]; ok {
		return nil, err
	}
	if e.config.InvalidResult {
		return &jsexecutor.JsResponse{Id: req.Id, Result: "This is not a map[string]interface{}"}, nil
	}

	result, err := mockService(e.config, req.Service, req.Args)
	if err != nil {
		return nil, err
	}
	return &jsexecutor.JsResponse{Id: req.Id, Result: result}, nil
}

// mockService emulates the bridge services
func mockService(config *MockEngineConfig, service string, args []interface{}) (map[string]interface{}, error) {
	switch service {
	case ServiceParse:
		return mockParse(config, args[0].(string)), nil
	case ServiceCompileScript:
		options := args[1].(map[string]interface{})
		return mockCompileScript(config, args[0].(string), options["id"].(string)), nil
	case ServiceCompileStyle:
		return mockCompileStyle(config, args[0].(map[string]interface{})), nil
	case ServiceRenderSass:
		css := config.SassCSS
		if css == "" {
			css = ".mock-sass { color: red; }"
		}
		return map[string]interface{}{"css": css, "map": ""}, nil
	}
	return nil, fmt.Errorf("unknown service %s", service)
}

func mockParse(config *MockEngineConfig, source string) map[string]interface{} {
	result := map[string]interface{}{
		"script":      nil,
		"scriptSetup": nil,
		"template":    nil,
		"styles":      []interface{}{},
		"errors":      append([]interface{}{}, config.Diagnostics...),
	}

	if m := mockTemplateRe.FindStringSubmatch(source); m != nil {
		result["template"] = map[string]interface{}{"content": m[1], "lang": ""}
	}
	for _, m := range mockScriptRe.FindAllStringSubmatch(source, -1) {
		key := "script"
		if m[1] != "" {
			key = "scriptSetup"
		}
		result[key] = map[string]interface{}{"content": m[3], "lang": m[2], "setup": m[1] != ""}
	}
	styles := []interface{}{}
	for _, m := range mockStyleRe.FindAllStringSubmatch(source, -1) {
		styles = append(styles, map[string]interface{}{
			"content": m[3],
			"lang":    m[2],
			"scoped":  m[1] != "",
			"module":  false,
		})
	}
	result["styles"] = styles
	return result
}

func mockCompileScript(config *MockEngineConfig, source, id string) map[string]interface{} {
	content := config.ScriptContent
	if content == "" {
		render := "null"
		if m := mockTemplateRe.FindStringSubmatch(source); m != nil {
			render = fmt.Sprintf("() => %q", strings.TrimSpace(m[1]))
		}
		content = fmt.Sprintf("const _defineComponent = (o) => o;\nexport default /*#__PURE__*/_defineComponent({\n  __name: %q,\n  render: %s\n})", "mock-"+id, render)
	}

	result := map[string]interface{}{
		"content": content,
		"lang":    config.ScriptLang,
	}
	if config.ScriptWarnings != nil {
		result["warnings"] = config.ScriptWarnings
	}
	if config.ScriptMap != nil {
		result["map"] = config.ScriptMap
	}
	return result
}

func mockCompileStyle(config *MockEngineConfig, options map[string]interface{}) map[string]interface{} {
	code, _ := options["source"].(string)
	if scoped, _ := options["scoped"].(bool); scoped {
		code = mockSelectorRe.ReplaceAllString(code, fmt.Sprintf("[data-v-%s] {", options["id"]))
	}
	result := map[string]interface{}{"code": code}
	if config.StyleErrors != nil {
		result["errors"] = config.StyleErrors
	}
	return result
}

// NewMockEngineFactory creates a factory that returns MockEngine with given config
func NewMockEngineFactory(config *MockEngineConfig) jsexecutor.JsEngineFactory {
	return func() (jsexecutor.JsEngine, error) {
		return &MockEngine{config: config}, nil
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newMockCaller serves the mock services without an executor
func newMockCaller(config *MockEngineConfig) ServiceCaller {
	return CallerFunc(func(service string, args ...any) (any, error) {
		if err, ok := config.ServiceErrors[service]; ok {
			return nil, err
		}
		if config.InvalidResult {
			return "not a map", nil
		}
		return mockService(config, service, args)
	})
}

// newMockCompiler returns a Compiler backed by the mock services
func newMockCompiler(config *MockEngineConfig) Compiler {
	return NewServiceCompiler(newMockCaller(config))
}

// captureCompiler remembers the options of the last compile calls
type captureCompiler struct {
	Compiler
	parses int
	script *ScriptOptions
	style  *StyleOptions
}

func (c *captureCompiler) Parse(source, filename string) (*Descriptor, error) {
	c.parses++
	return c.Compiler.Parse(source, filename)
}

func (c *captureCompiler) CompileScript(d *Descriptor, opts ScriptOptions) (*ScriptResult, error) {
	c.script = &opts
	return c.Compiler.CompileScript(d, opts)
}

func (c *captureCompiler) CompileStyle(opts StyleOptions) (*StyleResult, error) {
	c.style = &opts
	return c.Compiler.CompileStyle(opts)
}
