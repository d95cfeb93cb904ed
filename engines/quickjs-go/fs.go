// Copyright 2025 Brian Wang <wangbuke@gmail.com>
// SPDX-License-Identifier: Apache-2.0

package qjscompiler

import (
	"errors"
	"path/filepath"

	quickjsengine "github.com/buke/js-executor/engines/quickjs-go"
	"github.com/buke/quickjs-go"
	"github.com/spf13/afero"
)

var errMissingPath = errors.New("path argument is required")

// compilerFs implements the fs contract compileScript uses to resolve types
// imported by defineProps and friends.
type compilerFs struct {
	fs afero.Fs
}

func (c compilerFs) fileExists(ctx *quickjs.Context, this *quickjs.Value, args []*quickjs.Value) *quickjs.Value {
	if len(args) == 0 {
		return ctx.Bool(false)
	}
	info, err := c.fs.Stat(args[0].String())
	return ctx.Bool(err == nil && !info.IsDir())
}

func (c compilerFs) readFile(ctx *quickjs.Context, this *quickjs.Value, args []*quickjs.Value) *quickjs.Value {
	if len(args) == 0 {
		return ctx.ThrowError(errMissingPath)
	}
	data, err := afero.ReadFile(c.fs, args[0].String())
	if err != nil {
		return ctx.ThrowError(err)
	}
	return ctx.String(string(data))
}

// realpath resolves symlinks on the OS file system and only checks existence
// on the others.
func (c compilerFs) realpath(ctx *quickjs.Context, this *quickjs.Value, args []*quickjs.Value) *quickjs.Value {
	if len(args) == 0 {
		return ctx.ThrowError(errMissingPath)
	}
	file := args[0].String()

	if _, ok := c.fs.(*afero.OsFs); ok {
		resolved, err := filepath.EvalSymlinks(file)
		if err != nil {
			return ctx.ThrowError(err)
		}
		file = resolved
	} else if _, err := c.fs.Stat(file); err != nil {
		return ctx.ThrowError(err)
	}

	abs, _ := filepath.Abs(file)
	return ctx.String(abs)
}

// loadFsModule installs globalThis.compilerFs with fileExists, readFile and realpath.
func loadFsModule(fs afero.Fs) quickjsengine.Option {
	c := compilerFs{fs: fs}
	return func(jse *quickjsengine.Engine) error {
		obj := jse.Ctx.Object()
		for name, fn := range map[string]func(*quickjs.Context, *quickjs.Value, []*quickjs.Value) *quickjs.Value{
			"fileExists": c.fileExists,
			"readFile":   c.readFile,
			"realpath":   c.realpath,
		} {
			obj.Set(name, jse.Ctx.Function(fn))
		}
		jse.Ctx.Globals().Set("compilerFs", obj)
		return nil
	}
}
