// Copyright 2025 Brian Wang <wangbuke@gmail.com>
// SPDX-License-Identifier: Apache-2.0

package vueplugin

import "fmt"

// StyleOutput is the compiled stylesheet of a component.
type StyleOutput struct {
	Text     string
	ScopeID  string
	Warnings []string
}

// CompileStyles compiles the first style block of a component.
//
// Further style blocks are ignored. A component without any style block
// yields the compiler's output for an empty stylesheet.
func CompileStyles(c Compiler, source, filename string, opts ...CompileOption) (*StyleOutput, error) {
	cfg := newCompileConfig(opts)

	d, err := parseChecked(c, source, filename, cfg.logger)
	if err != nil {
		return nil, err
	}

	id := cfg.scopeID(filename)

	req := StyleOptions{ID: id, Filename: filename}
	if len(d.Styles) > 0 {
		first := d.Styles[0]
		scoped := first.Scoped
		req.Source = first.Content
		req.Scoped = &scoped
		if first.Lang != "" && first.Lang != "css" {
			req.PreprocessLang = first.Lang
			req.PreprocessOptions = cfg.stylePreprocessOptions
		}
	}

	res, err := c.CompileStyle(req)
	if err != nil {
		return nil, fmt.Errorf("compile style %s: %w", filename, err)
	}

	for _, w := range res.Errors {
		cfg.logger.Warn("Vue SFC style compiler reported a problem", "file", filename, "message", w)
	}

	return &StyleOutput{Text: res.Code, ScopeID: id, Warnings: res.Errors}, nil
}
