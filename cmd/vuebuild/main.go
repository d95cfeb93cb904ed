// Copyright 2025 Brian Wang <wangbuke@gmail.com>
// SPDX-License-Identifier: Apache-2.0

// Package main is the entry point for the vuebuild CLI.
package main

import "github.com/sfcbuild/esbuild-plugin-vue-scoped/internal/cli"

func main() {
	cli.Execute()
}
