// Copyright 2025 Brian Wang <wangbuke@gmail.com>
// SPDX-License-Identifier: Apache-2.0

// Package bridge holds the JavaScript glue that exposes the sfc.* services
// used by the plugin on top of a @vue/compiler-sfc browser bundle.
package bridge

import _ "embed"

// FileName is the script name reported in JS stack traces.
const FileName = "sfc-bridge.js"

// Script must be evaluated after the compiler bundle has defined
// globalThis.VueCompilerSFC.
//
//go:embed sfc.js
var Script string
