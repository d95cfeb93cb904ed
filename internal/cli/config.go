// Copyright 2025 Brian Wang <wangbuke@gmail.com>
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	configVersionKey     = "version"
	currentConfigVersion = 1

	configBaseName   = "vuebuild"
	configFileName   = configBaseName + ".yaml"
	configFolderPath = "."

	envPrefix = "VUEBUILD"

	rootKey       = "root"
	entryKey      = "entry"
	outdirKey     = "outdir"
	minifyKey     = "minify"
	sourcemapKey  = "sourcemap"
	tsconfigKey   = "tsconfig"
	engineKey     = "compiler.engine"
	bundleKey     = "compiler.bundle"
	poolKey       = "compiler.pool"
	scopeHashKey  = "scope.hash"
	htmlSourceKey = "html.source"
	htmlOutKey    = "html.out"
	htmlRemoveKey = "html.remove"
	copyKey       = "copy"

	logFilenameKey   = "log.filename"
	logLevelKey      = "log.level"
	logVerboseKey    = "log.verbose"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"

	defaultRoot      = "."
	defaultEntry     = "main.ts"
	defaultOutdir    = "out"
	defaultEngine    = engineQuickJS
	defaultScopeHash = hashString31

	defaultLogLevel      = "info"
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
	defaultLogCompress   = true
)

// Config is the effective vuebuild configuration.
type Config struct {
	Version   int            `mapstructure:"version" yaml:"version"`
	Root      string         `mapstructure:"root" yaml:"root"`
	Entry     string         `mapstructure:"entry" yaml:"entry"`
	Outdir    string         `mapstructure:"outdir" yaml:"outdir"`
	Minify    bool           `mapstructure:"minify" yaml:"minify"`
	Sourcemap bool           `mapstructure:"sourcemap" yaml:"sourcemap"`
	Tsconfig  string         `mapstructure:"tsconfig" yaml:"tsconfig"`
	Compiler  CompilerConfig `mapstructure:"compiler" yaml:"compiler"`
	Scope     ScopeConfig    `mapstructure:"scope" yaml:"scope"`
	HTML      HTMLConfig     `mapstructure:"html" yaml:"html"`
	Copy      []CopyRule     `mapstructure:"copy" yaml:"copy"`
	Log       LogConfig      `mapstructure:"log" yaml:"log"`
}

// CompilerConfig selects the JS engine running the Vue compiler bundle.
type CompilerConfig struct {
	Engine string `mapstructure:"engine" yaml:"engine"` // quickjs or goja
	Bundle string `mapstructure:"bundle" yaml:"bundle"` // @vue/compiler-sfc browser build
	Pool   int    `mapstructure:"pool" yaml:"pool"`     // goja runtimes, 0 means one per CPU
}

type ScopeConfig struct {
	Hash string `mapstructure:"hash" yaml:"hash"` // string31 or xxhash
}

type HTMLConfig struct {
	Source string   `mapstructure:"source" yaml:"source"`
	Out    string   `mapstructure:"out" yaml:"out"`
	Remove []string `mapstructure:"remove" yaml:"remove"`
}

// CopyRule copies one static file after a successful build.
type CopyRule struct {
	From string `mapstructure:"from" yaml:"from"`
	To   string `mapstructure:"to" yaml:"to"`
}

type LogConfig struct {
	Filename   string `mapstructure:"filename" yaml:"filename"`
	Level      string `mapstructure:"level" yaml:"level"`
	Verbose    bool   `mapstructure:"verbose" yaml:"verbose"`
	MaxSize    int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge     int    `mapstructure:"max_age" yaml:"max_age"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// newViper returns a config store with every key defaulted, looking for
// vuebuild.yaml in the working directory and VUEBUILD_* variables.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName(configBaseName)
	v.SetConfigType("yaml")
	v.AddConfigPath(configFolderPath)
	v.AutomaticEnv()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	v.SetDefault(configVersionKey, currentConfigVersion)
	v.SetDefault(rootKey, defaultRoot)
	v.SetDefault(entryKey, defaultEntry)
	v.SetDefault(outdirKey, defaultOutdir)
	v.SetDefault(minifyKey, false)
	v.SetDefault(sourcemapKey, false)
	v.SetDefault(tsconfigKey, "")
	v.SetDefault(engineKey, defaultEngine)
	v.SetDefault(bundleKey, "")
	v.SetDefault(poolKey, 0)
	v.SetDefault(scopeHashKey, defaultScopeHash)
	v.SetDefault(htmlSourceKey, "")
	v.SetDefault(htmlOutKey, "")
	v.SetDefault(htmlRemoveKey, []string{})
	v.SetDefault(copyKey, []map[string]string{})

	v.SetDefault(logFilenameKey, "")
	v.SetDefault(logLevelKey, defaultLogLevel)
	v.SetDefault(logVerboseKey, false)
	v.SetDefault(logMaxSizeKey, defaultLogMaxSize)
	v.SetDefault(logMaxBackupsKey, defaultLogMaxBackups)
	v.SetDefault(logMaxAgeKey, defaultLogMaxAge)
	v.SetDefault(logCompressKey, defaultLogCompress)

	return v
}

// readConfig loads the config file. A missing vuebuild.yaml is not an error,
// a missing file named with --config is.
func readConfig(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

func loadConfig(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// resolvePath makes path absolute against root. Empty paths stay empty.
func resolvePath(root, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

func parseSlogLevel(value string, defaultLevel slog.Level) slog.Level {
	level := strings.ToLower(strings.TrimSpace(value))
	if level == "" {
		return defaultLevel
	}

	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	// Numeric slog levels, e.g. -4 for debug.
	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n)
	}

	return defaultLevel
}

// newLogger builds a text logger writing to stderr and, when a log file is
// configured, to a rotated file as well. The returned func closes the file.
func newLogger(cfg LogConfig, stderr io.Writer) (*slog.Logger, func()) {
	level := parseSlogLevel(cfg.Level, slog.LevelInfo)
	if cfg.Verbose {
		level = slog.LevelDebug
	}

	w := stderr
	closeFn := func() {}
	if strings.TrimSpace(cfg.Filename) != "" {
		logWriter := &lumberjack.Logger{
			Filename:   cfg.Filename,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		w = io.MultiWriter(stderr, logWriter)
		closeFn = func() { logWriter.Close() }
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(handler), closeFn
}
