// Copyright 2025 Brian Wang <wangbuke@gmail.com>
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var scopeIDRe = regexp.MustCompile(`__scopeId: "data-v-(-?[0-9a-f]+)"`)

const indexHtml = `<!DOCTYPE html>
<html>
<head>
<title>app</title>
<script type="module" src="/src/main.ts"></script>
</head>
<body><div id="app"></div></body>
</html>
`

func newProject(t *testing.T, component string) string {
	t.Helper()
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"main.ts":            "import App from './App.vue'\nconsole.log(App)\n",
		"App.vue":            component,
		"index.html":         indexHtml,
		"public/favicon.ico": "icon",
	})
	return dir
}

func readOutput(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	return string(data)
}

func TestBuildCmd(t *testing.T) {
	dir := newProject(t, scopedComponent)

	stdout, _, err := executeCmd(t, newViper(), "build",
		"--root", dir, "--engine", "goja", "--bundle", fakeBundle(t))
	require.NoError(t, err)
	assert.Contains(t, stdout, "built main.ts -> out")

	js := readOutput(t, dir, "out/main.js")
	m := scopeIDRe.FindStringSubmatch(js)
	require.NotNil(t, m, "expected __scopeId in bundle:\n%s", js)
	assert.Contains(t, readOutput(t, dir, "out/main.css"), "[data-v-"+m[1]+"]")
}

func TestBuildCmd_WithConfigFile(t *testing.T) {
	dir := newProject(t, scopedComponent)
	config := "root: " + dir + "\n" +
		"entry: main.ts\n" +
		"outdir: dist\n" +
		"compiler:\n  engine: goja\n  bundle: " + fakeBundle(t) + "\n  pool: 1\n" +
		"scope:\n  hash: xxhash\n" +
		"html:\n  source: index.html\n  remove:\n    - \"//script[@src='/src/main.ts']\"\n" +
		"copy:\n  - from: public/favicon.ico\n    to: dist/favicon.ico\n"
	configPath := filepath.Join(dir, "vuebuild.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(config), 0o644))

	_, _, err := executeCmd(t, newViper(), "build", "--config", configPath)
	require.NoError(t, err)

	js := readOutput(t, dir, "dist/main.js")
	m := scopeIDRe.FindStringSubmatch(js)
	require.NotNil(t, m, "expected __scopeId in bundle:\n%s", js)
	assert.NotContains(t, m[1], "-", "xxhash ids are unsigned hex")
	assert.Contains(t, readOutput(t, dir, "dist/main.css"), "[data-v-"+m[1]+"]")

	html := readOutput(t, dir, "dist/index.html")
	assert.Contains(t, html, `src="main.js"`)
	assert.Contains(t, html, `href="main.css"`)
	assert.NotContains(t, html, "/src/main.ts")

	assert.Equal(t, "icon", readOutput(t, dir, "dist/favicon.ico"))
}

func TestBuildCmd_EntryArgument(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"src/app.ts":  "import App from './App.vue'\nconsole.log(App)\n",
		"src/App.vue": scopedComponent,
	})

	stdout, _, err := executeCmd(t, newViper(), "build", "src/app.ts",
		"--root", dir, "--engine", "goja", "--bundle", fakeBundle(t), "-o", "public")
	require.NoError(t, err)
	assert.Contains(t, stdout, "built src/app.ts -> public")
	assert.FileExists(t, filepath.Join(dir, "public", "app.js"))
}

func TestBuildCmd_CompileError(t *testing.T) {
	dir := newProject(t, "<template><broken></template>\n<script setup>\n</script>\n")

	_, stderr, err := executeCmd(t, newViper(), "build",
		"--root", dir, "--engine", "goja", "--bundle", fakeBundle(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Element is missing end tag.")
	assert.Contains(t, stderr, "Build failed")
	assert.NoFileExists(t, filepath.Join(dir, "out", "main.js"))
}

func TestBuildCmd_ConfigErrors(t *testing.T) {
	dir := newProject(t, scopedComponent)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"missing_bundle", []string{"--engine", "goja"}, "compiler bundle is not set"},
		{"unknown_engine", []string{"--engine", "rhino", "--bundle", fakeBundle(t)}, "unknown compiler engine"},
		{"unknown_hash", []string{"--engine", "goja", "--bundle", fakeBundle(t), "--scope-hash", "sha1"}, "unknown scope hash"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"build", "--root", dir}, tt.args...)
			_, _, err := executeCmd(t, newViper(), args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
