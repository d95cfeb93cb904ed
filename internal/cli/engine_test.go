// Copyright 2025 Brian Wang <wangbuke@gmail.com>
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"path/filepath"
	"testing"

	vueplugin "github.com/sfcbuild/esbuild-plugin-vue-scoped"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fakeBundlePath = "../../engines/bridge/testdata/fake-compiler-sfc.js"

const scopedComponent = `<template><div class="hello">Hello</div></template>
<script setup>
const msg = "hi"
</script>
<style scoped>.hello { color: red; }</style>
`

func fakeBundle(t *testing.T) string {
	t.Helper()
	path, err := filepath.Abs(fakeBundlePath)
	require.NoError(t, err)
	return path
}

func TestNewCompilerGoja(t *testing.T) {
	compiler, release, err := newCompiler(CompilerConfig{Engine: "goja", Bundle: fakeBundle(t), Pool: 1}, afero.NewOsFs())
	require.NoError(t, err)
	defer release()

	style, err := vueplugin.CompileStyles(compiler, scopedComponent, "/src/App.vue")
	require.NoError(t, err)
	assert.Contains(t, style.Text, "[data-v-"+vueplugin.DeriveID("/src/App.vue")+"]")
}

func TestNewCompilerErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/bundle.js", []byte("globalThis.VueCompilerSFC = {};"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/broken.js", []byte("function {"), 0o644))

	tests := []struct {
		name    string
		cfg     CompilerConfig
		wantErr string
	}{
		{"no_bundle", CompilerConfig{Engine: "goja"}, "compiler bundle is not set"},
		{"missing_bundle", CompilerConfig{Engine: "goja", Bundle: "/missing.js"}, "failed to read compiler bundle"},
		{"unknown_engine", CompilerConfig{Engine: "v8", Bundle: "/bundle.js"}, `unknown compiler engine "v8"`},
		{"invalid_bundle", CompilerConfig{Engine: "goja", Bundle: "/broken.js", Pool: 1}, "failed to start goja runtimes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			compiler, release, err := newCompiler(tt.cfg, fs)
			require.Error(t, err)
			assert.Nil(t, compiler)
			assert.Nil(t, release)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestScopeIDFunc(t *testing.T) {
	tests := []struct {
		hash string
		want string
	}{
		{"", vueplugin.DeriveID("/src/App.vue")},
		{"string31", vueplugin.DeriveID("/src/App.vue")},
		{"XXHash", vueplugin.XXHashID("/src/App.vue")},
	}

	for _, tt := range tests {
		t.Run(tt.hash, func(t *testing.T) {
			fn, err := scopeIDFunc(tt.hash)
			require.NoError(t, err)
			assert.Equal(t, tt.want, fn("/src/App.vue"))
		})
	}

	_, err := scopeIDFunc("md5")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "md5")
}
