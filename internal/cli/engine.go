// Copyright 2025 Brian Wang <wangbuke@gmail.com>
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"fmt"
	"strings"

	jsexecutor "github.com/buke/js-executor"
	vueplugin "github.com/sfcbuild/esbuild-plugin-vue-scoped"
	gojacompiler "github.com/sfcbuild/esbuild-plugin-vue-scoped/engines/goja"
	qjscompiler "github.com/sfcbuild/esbuild-plugin-vue-scoped/engines/quickjs-go"
	"github.com/spf13/afero"
)

const (
	engineQuickJS = "quickjs"
	engineGoja    = "goja"

	hashString31 = "string31"
	hashXXHash   = "xxhash"
)

// newCompiler loads the compiler bundle into the configured engine.
// The returned func releases the engine.
func newCompiler(cfg CompilerConfig, fs afero.Fs) (vueplugin.Compiler, func(), error) {
	if cfg.Bundle == "" {
		return nil, nil, errors.New("compiler bundle is not set, use --bundle or " + bundleKey)
	}
	data, err := afero.ReadFile(fs, cfg.Bundle)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read compiler bundle: %w", err)
	}

	switch strings.ToLower(cfg.Engine) {
	case engineQuickJS, "":
		exec, err := jsexecutor.NewExecutor(
			jsexecutor.WithJsEngine(qjscompiler.NewVueCompilerFactoryWithFs(fs, string(data))),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create quickjs executor: %w", err)
		}
		if err := exec.Start(); err != nil {
			return nil, nil, fmt.Errorf("failed to start quickjs executor: %w", err)
		}
		return vueplugin.NewServiceCompiler(vueplugin.ExecutorCaller(exec)), func() { exec.Stop() }, nil
	case engineGoja:
		pool, err := gojacompiler.New(string(data), gojacompiler.WithSize(cfg.Pool), gojacompiler.WithFs(fs))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to start goja runtimes: %w", err)
		}
		return vueplugin.NewServiceCompiler(pool), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown compiler engine %q, expected %s or %s", cfg.Engine, engineQuickJS, engineGoja)
	}
}

func scopeIDFunc(hash string) (vueplugin.ScopeIDFunc, error) {
	switch strings.ToLower(hash) {
	case hashString31, "":
		return vueplugin.DeriveID, nil
	case hashXXHash:
		return vueplugin.XXHashID, nil
	default:
		return nil, fmt.Errorf("unknown scope hash %q, expected %s or %s", hash, hashString31, hashXXHash)
	}
}
