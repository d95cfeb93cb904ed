// Copyright 2025 Brian Wang <wangbuke@gmail.com>
// SPDX-License-Identifier: Apache-2.0

// Package qjscompiler provides QuickJS engines preloaded with the Vue SFC
// compiler and the sfc.* service bridge, for use with js-executor.
package qjscompiler

import (
	jsexecutor "github.com/buke/js-executor"
	quickjsengine "github.com/buke/js-executor/engines/quickjs-go"
	"github.com/sfcbuild/esbuild-plugin-vue-scoped/engines/bridge"
	"github.com/spf13/afero"
)

// BundleFileName is the script name the compiler bundle is evaluated under.
const BundleFileName = "vue-compiler-sfc.js"

// NewVueCompilerFactory creates a JsEngineFactory whose engines have the
// compiler bundle, the file system helpers and the service bridge loaded.
//
// compilerBundle is the source of a browser build of @vue/compiler-sfc that
// assigns itself to globalThis.VueCompilerSFC. Additional QuickJS engine
// options run before the compiler is loaded.
func NewVueCompilerFactory(compilerBundle string, options ...quickjsengine.Option) jsexecutor.JsEngineFactory {
	return NewVueCompilerFactoryWithFs(afero.NewOsFs(), compilerBundle, options...)
}

// NewVueCompilerFactoryWithFs is NewVueCompilerFactory with the file system
// exposed to the compiler (used to resolve imported types) set to fs.
func NewVueCompilerFactoryWithFs(fs afero.Fs, compilerBundle string, options ...quickjsengine.Option) jsexecutor.JsEngineFactory {
	options = append(options,
		loadFsModule(fs),
		loadScript(compilerBundle, BundleFileName),
		loadScript(bridge.Script, bridge.FileName),
	)
	return quickjsengine.NewFactory(options...)
}
