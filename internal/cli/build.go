// Copyright 2025 Brian Wang <wangbuke@gmail.com>
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/evanw/esbuild/pkg/api"
	vueplugin "github.com/sfcbuild/esbuild-plugin-vue-scoped"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const buildLongDescription = `Bundle the entry point (default main.ts) and everything it imports into
the output directory (default out). Nothing is written when any module fails
to compile.

Examples:
  vuebuild build --bundle vue-compiler-sfc.js
  vuebuild build src/main.ts -o dist --minify --engine goja`

func newBuildCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [entry]",
		Short: "Bundle a Vue project",
		Long:  buildLongDescription,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				cfg.Entry = args[0]
			}
			return runBuild(cmd, cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringP("outdir", "o", v.GetString(outdirKey), "output directory")
	bindFlagToConfig(v, flags.Lookup("outdir"), outdirKey)
	flags.Bool(minifyKey, v.GetBool(minifyKey), "minify the output")
	bindFlagToConfig(v, flags.Lookup(minifyKey), minifyKey)
	flags.Bool(sourcemapKey, v.GetBool(sourcemapKey), "write linked source maps")
	bindFlagToConfig(v, flags.Lookup(sourcemapKey), sourcemapKey)
	flags.String(tsconfigKey, v.GetString(tsconfigKey), "tsconfig file used for path aliases")
	bindFlagToConfig(v, flags.Lookup(tsconfigKey), tsconfigKey)
	flags.String("engine", v.GetString(engineKey), "JS engine running the compiler: quickjs or goja")
	bindFlagToConfig(v, flags.Lookup("engine"), engineKey)
	flags.String("bundle", v.GetString(bundleKey), "@vue/compiler-sfc browser bundle")
	bindFlagToConfig(v, flags.Lookup("bundle"), bundleKey)
	flags.String("scope-hash", v.GetString(scopeHashKey), "scope id hash: string31 or xxhash")
	bindFlagToConfig(v, flags.Lookup("scope-hash"), scopeHashKey)

	return cmd
}

func runBuild(cmd *cobra.Command, cfg Config) error {
	logger, closeLog := newLogger(cfg.Log, cmd.ErrOrStderr())
	defer closeLog()

	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return fmt.Errorf("failed to resolve project directory: %w", err)
	}

	fs := afero.NewOsFs()
	cfg.Compiler.Bundle = resolvePath(root, cfg.Compiler.Bundle)
	compiler, release, err := newCompiler(cfg.Compiler, fs)
	if err != nil {
		return err
	}
	defer release()

	scopeID, err := scopeIDFunc(cfg.Scope.Hash)
	if err != nil {
		return err
	}

	opts := []vueplugin.OptionFunc{
		vueplugin.WithCompiler(compiler),
		vueplugin.WithScopeIDFunc(scopeID),
		vueplugin.WithFs(fs),
		vueplugin.WithLogger(logger),
	}
	opts = append(opts, staticOptions(cfg, root, fs)...)

	buildCfg := vueplugin.BuildConfig{
		EntryPoint:    cfg.Entry,
		Outdir:        cfg.Outdir,
		Minify:        cfg.Minify,
		Sourcemap:     cfg.Sourcemap,
		Tsconfig:      resolvePath(root, cfg.Tsconfig),
		AbsWorkingDir: root,
		Write:         true,
		LogLevel:      esbuildLogLevel(cfg.Log),
	}

	logger.Debug("Starting build", "root", root, "entry", cfg.Entry, "outdir", cfg.Outdir, "engine", cfg.Compiler.Engine)
	result, err := vueplugin.Build(buildCfg, vueplugin.NewPlugin(opts...))
	if err != nil {
		logger.Error("Build failed", "errors", len(result.Errors))
		return err
	}

	logger.Info("Build finished", "entry", cfg.Entry, "outdir", cfg.Outdir, "warnings", len(result.Warnings))
	cmd.Printf("built %s -> %s\n", cfg.Entry, cfg.Outdir)
	return nil
}

// staticOptions wires index.html rewriting and static file copies.
func staticOptions(cfg Config, root string, fs afero.Fs) []vueplugin.OptionFunc {
	var opts []vueplugin.OptionFunc
	if cfg.HTML.Source != "" {
		out := cfg.HTML.Out
		if out == "" {
			out = filepath.Join(cfg.Outdir, filepath.Base(cfg.HTML.Source))
		}
		opts = append(opts, vueplugin.WithIndexHtmlOptions(vueplugin.IndexHtmlOptions{
			SourceFile:      resolvePath(root, cfg.HTML.Source),
			OutFile:         resolvePath(root, out),
			RemoveTagXPaths: cfg.HTML.Remove,
		}))
	}
	if len(cfg.Copy) > 0 {
		fileMap := make(map[string]string, len(cfg.Copy))
		for _, rule := range cfg.Copy {
			fileMap[resolvePath(root, rule.From)] = resolvePath(root, rule.To)
		}
		opts = append(opts, vueplugin.WithOnEndProcessor(vueplugin.SimpleCopy(fs, fileMap)))
	}
	return opts
}

func esbuildLogLevel(cfg LogConfig) api.LogLevel {
	if cfg.Verbose || parseSlogLevel(cfg.Level, slog.LevelInfo) <= slog.LevelDebug {
		return api.LogLevelInfo
	}
	return api.LogLevelWarning
}
