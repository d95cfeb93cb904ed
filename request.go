// Copyright 2025 Brian Wang <wangbuke@gmail.com>
// SPDX-License-Identifier: Apache-2.0

package vueplugin

import (
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

const (
	// styleSuffix marks an import asking for the stylesheet of a component.
	styleSuffix = "?css"

	// Namespaces keep the two load rules for .vue files disjoint.
	fileNamespace  = "file"
	styleNamespace = "vue-css"
)

type requestKind int

const (
	scriptLoad requestKind = iota
	styleLoad
)

func (k requestKind) String() string {
	if k == styleLoad {
		return "style"
	}
	return "script"
}

// loadRequest is what a load hook is asked to produce for a component file.
type loadRequest struct {
	kind requestKind
	path string
}

func (r loadRequest) namespace() string {
	if r.kind == styleLoad {
		return styleNamespace
	}
	return fileNamespace
}

// importPath is the specifier a module uses to request r. The path stays
// native so both requests of one file hash the same string.
func (r loadRequest) importPath() string {
	if r.kind == styleLoad {
		return r.path + styleSuffix
	}
	return r.path
}

// parseStyleImport recognises the specifier produced by importPath for a
// style request.
func parseStyleImport(specifier string) (loadRequest, bool) {
	path, ok := strings.CutSuffix(specifier, styleSuffix)
	if !ok || path == "" {
		return loadRequest{}, false
	}
	return loadRequest{kind: styleLoad, path: path}, true
}

// requestFromLoad recovers the request from the namespace esbuild routed
// the load to.
func requestFromLoad(args api.OnLoadArgs) loadRequest {
	if args.Namespace == styleNamespace {
		return loadRequest{kind: styleLoad, path: args.Path}
	}
	return loadRequest{kind: scriptLoad, path: args.Path}
}
