// Copyright 2025 Brian Wang <wangbuke@gmail.com>
// SPDX-License-Identifier: Apache-2.0

// Package gojacompiler runs the Vue SFC compiler on goja, a JavaScript engine
// written in pure Go, as an alternative to the cgo based QuickJS engine.
package gojacompiler

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/dop251/goja"
	"github.com/sfcbuild/esbuild-plugin-vue-scoped/engines/bridge"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

// BundleFileName is the script name the compiler bundle is compiled under.
const BundleFileName = "vue-compiler-sfc.js"

// Pool is a fixed set of goja runtimes with the compiler loaded.
// A goja runtime is not safe for concurrent use, so each call borrows one
// runtime for its whole duration. Pool implements vueplugin.ServiceCaller.
type Pool struct {
	runtimes chan *goja.Runtime
	size     int
}

type config struct {
	size int
	fs   afero.Fs
}

// Option configures a Pool.
type Option func(*config)

// WithSize sets the number of runtimes, runtime.NumCPU() by default.
func WithSize(size int) Option {
	return func(c *config) {
		if size > 0 {
			c.size = size
		}
	}
}

// WithFs sets the file system exposed to the compiler as compilerFs.
func WithFs(fs afero.Fs) Option {
	return func(c *config) {
		if fs != nil {
			c.fs = fs
		}
	}
}

// New compiles compilerBundle and the service bridge once and starts the
// runtimes in parallel. compilerBundle must assign globalThis.VueCompilerSFC.
func New(compilerBundle string, opts ...Option) (*Pool, error) {
	cfg := &config{size: runtime.NumCPU(), fs: afero.NewOsFs()}
	for _, opt := range opts {
		opt(cfg)
	}

	bundle, err := goja.Compile(BundleFileName, compilerBundle, false)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", BundleFileName, err)
	}
	glue, err := goja.Compile(bridge.FileName, bridge.Script, false)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", bridge.FileName, err)
	}

	vms := make([]*goja.Runtime, cfg.size)
	var group errgroup.Group
	for i := range vms {
		group.Go(func() error {
			vm, err := newRuntime(cfg.fs, bundle, glue)
			if err != nil {
				return err
			}
			vms[i] = vm
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	p := &Pool{runtimes: make(chan *goja.Runtime, cfg.size), size: cfg.size}
	for _, vm := range vms {
		p.runtimes <- vm
	}
	return p, nil
}

func newRuntime(fs afero.Fs, programs ...*goja.Program) (*goja.Runtime, error) {
	vm := goja.New()
	if err := vm.Set("compilerFs", fsObject(fs)); err != nil {
		return nil, err
	}
	for _, prog := range programs {
		if _, err := vm.RunProgram(prog); err != nil {
			return nil, err
		}
	}
	return vm, nil
}

// Size returns the number of runtimes in the pool.
func (p *Pool) Size() int { return p.size }

// Call invokes the bridge function at the dotted service path, e.g.
// "sfc.vue.parse". Arguments cross into JS as JSON values and the result
// comes back as exported Go values.
func (p *Pool) Call(service string, args ...any) (any, error) {
	vm := <-p.runtimes
	defer func() { p.runtimes <- vm }()

	fn, err := lookupFunction(vm, service)
	if err != nil {
		return nil, err
	}

	jsArgs := make([]goja.Value, len(args))
	for i, arg := range args {
		jsArgs[i], err = toJSValue(vm, arg)
		if err != nil {
			return nil, fmt.Errorf("%s: argument %d: %w", service, i, err)
		}
	}

	ret, err := fn(goja.Undefined(), jsArgs...)
	if err != nil {
		return nil, err
	}
	return ret.Export(), nil
}

func lookupFunction(vm *goja.Runtime, service string) (goja.Callable, error) {
	var current goja.Value = vm.GlobalObject()
	for _, part := range strings.Split(service, ".") {
		if goja.IsUndefined(current) || goja.IsNull(current) {
			return nil, fmt.Errorf("service %s not found", service)
		}
		current = current.ToObject(vm).Get(part)
		if current == nil {
			return nil, fmt.Errorf("service %s not found", service)
		}
	}
	fn, ok := goja.AssertFunction(current)
	if !ok {
		return nil, fmt.Errorf("service %s is not a function", service)
	}
	return fn, nil
}

// toJSValue converts arg through JSON so that JS sees plain objects.
func toJSValue(vm *goja.Runtime, arg any) (goja.Value, error) {
	data, err := json.Marshal(arg)
	if err != nil {
		return nil, err
	}
	parse, ok := goja.AssertFunction(vm.Get("JSON").ToObject(vm).Get("parse"))
	if !ok {
		return nil, fmt.Errorf("JSON.parse unavailable")
	}
	return parse(goja.Undefined(), vm.ToValue(string(data)))
}

// fsObject is the fs contract compileScript uses to resolve imported types.
func fsObject(fs afero.Fs) map[string]any {
	return map[string]any{
		"fileExists": func(path string) bool {
			info, err := fs.Stat(path)
			return err == nil && !info.IsDir()
		},
		"readFile": func(path string) (string, error) {
			data, err := afero.ReadFile(fs, path)
			return string(data), err
		},
		"realpath": func(path string) (string, error) {
			if _, ok := fs.(*afero.OsFs); ok {
				resolved, err := filepath.EvalSymlinks(path)
				if err != nil {
					return "", err
				}
				path = resolved
			} else if _, err := fs.Stat(path); err != nil {
				return "", err
			}
			return filepath.Abs(path)
		},
	}
}
