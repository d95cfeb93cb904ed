// Copyright 2025 Brian Wang <wangbuke@gmail.com>
// SPDX-License-Identifier: Apache-2.0

package qjscompiler

import (
	"os"
	"strings"
	"testing"

	jsexecutor "github.com/buke/js-executor"
	vueplugin "github.com/sfcbuild/esbuild-plugin-vue-scoped"
	"github.com/sfcbuild/esbuild-plugin-vue-scoped/engines/bridge"
)

func readFakeBundle(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile("../bridge/testdata/fake-compiler-sfc.js")
	if err != nil {
		t.Fatalf("Failed to read fake compiler bundle: %v", err)
	}
	return string(data)
}

// TestLoadScript tests that a script is evaluated in the engine context
func TestLoadScript(t *testing.T) {
	engine := newTestEngine(t)

	if err := loadScript("globalThis.answer = 40 + 2;", "answer.js")(engine); err != nil {
		t.Fatalf("loadScript failed: %v", err)
	}

	result := engine.Ctx.Eval("String(answer)")
	defer result.Free()
	if result.String() != "42" {
		t.Errorf("Expected 42, got %s", result.String())
	}
}

// TestLoadScriptErrors tests syntax and runtime failures
func TestLoadScriptErrors(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		fileName string
	}{
		{"syntax_error", "function {", "syntax.js"},
		{"runtime_error", `throw new Error("boom")`, "runtime.js"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			engine := newTestEngine(t)
			err := loadScript(test.source, test.fileName)(engine)
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !strings.Contains(err.Error(), test.fileName) {
				t.Errorf("Expected error to name %s, got: %v", test.fileName, err)
			}
		})
	}
}

// TestProgramForCaches tests that programs are shared by source and file name
func TestProgramForCaches(t *testing.T) {
	a := programFor("1 + 1", "a.js")
	b := programFor("1 + 1", "a.js")
	c := programFor("1 + 1", "c.js")

	if a != b {
		t.Error("Expected the same program for identical source and name")
	}
	if a == c {
		t.Error("Expected different programs for different file names")
	}
}

// TestBridgeRequiresCompiler tests that the bridge refuses to load without the compiler bundle
func TestBridgeRequiresCompiler(t *testing.T) {
	engine := newTestEngine(t)
	err := loadScript(bridge.Script, bridge.FileName)(engine)
	if err == nil {
		t.Fatal("Expected error when VueCompilerSFC is missing")
	}
}

// TestVueCompilerFactoryServices runs the bridge services through js-executor
func TestVueCompilerFactoryServices(t *testing.T) {
	jsExec, err := jsexecutor.NewExecutor(
		jsexecutor.WithJsEngine(NewVueCompilerFactory(readFakeBundle(t))),
	)
	if err != nil {
		t.Fatalf("Failed to create JS executor: %v", err)
	}
	if err := jsExec.Start(); err != nil {
		t.Fatalf("Failed to start JS executor: %v", err)
	}
	defer jsExec.Stop()

	compiler := vueplugin.NewServiceCompiler(vueplugin.ExecutorCaller(jsExec))
	source := `<template><div class="test">Hello</div></template><style scoped>.test{color:red;}</style>`

	t.Run("parse", func(t *testing.T) {
		d, err := compiler.Parse(source, "test.vue")
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		if d.Template == nil || !strings.Contains(d.Template.Content, "Hello") {
			t.Errorf("Expected template block, got %+v", d.Template)
		}
		if len(d.Styles) != 1 || !d.Styles[0].Scoped {
			t.Errorf("Expected one scoped style, got %+v", d.Styles)
		}
		if len(d.Errors) != 0 {
			t.Errorf("Expected no diagnostics, got %v", d.Errors)
		}
	})

	t.Run("parse_diagnostics", func(t *testing.T) {
		d, err := compiler.Parse("<template><broken></template>", "broken.vue")
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		if len(d.Errors) != 1 || d.Errors[0].Line != 1 {
			t.Errorf("Expected one located diagnostic, got %+v", d.Errors)
		}
	})

	t.Run("script_and_style", func(t *testing.T) {
		script, err := vueplugin.CompileScript(compiler, source, "test.vue")
		if err != nil {
			t.Fatalf("CompileScript failed: %v", err)
		}
		want := `__scopeId: "data-v-` + vueplugin.DeriveID("test.vue") + `"`
		if !strings.Contains(script.Text, want) {
			t.Errorf("Expected %s in script, got:\n%s", want, script.Text)
		}

		style, err := vueplugin.CompileStyles(compiler, source, "test.vue")
		if err != nil {
			t.Fatalf("CompileStyles failed: %v", err)
		}
		if !strings.Contains(style.Text, "[data-v-"+vueplugin.DeriveID("test.vue")+"]") {
			t.Errorf("Expected scoped selector, got %s", style.Text)
		}
	})
}
