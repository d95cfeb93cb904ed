// Copyright 2025 Brian Wang <wangbuke@gmail.com>
// SPDX-License-Identifier: Apache-2.0

package vueplugin

import "fmt"

// Descriptor is the parsed form of a single-file component.
// A Descriptor is produced fresh by every Parse call and is never mutated afterwards.
type Descriptor struct {
	Filename    string         // Path used for diagnostics
	Source      string         // Raw component source the descriptor was parsed from
	Script      *ScriptBlock   // Classic <script> block, nil if absent
	ScriptSetup *ScriptBlock   // <script setup> block, nil if absent
	Template    *TemplateBlock // <template> block, nil if absent
	Styles      []StyleBlock   // <style> blocks in document order
	Errors      []Diagnostic   // Parse diagnostics, empty on success
}

// ScriptBlock describes a <script> or <script setup> section.
type ScriptBlock struct {
	Content string
	Lang    string
	Setup   bool
}

// TemplateBlock describes the <template> section.
type TemplateBlock struct {
	Content string
	Lang    string
}

// StyleBlock describes one <style> section.
type StyleBlock struct {
	Content string
	Lang    string // Declared preprocessor, empty for plain CSS
	Scoped  bool
	Module  bool
}

// Diagnostic is one parse error reported by the compiler.
// Line and Column are 1-based; zero means the compiler gave no location.
type Diagnostic struct {
	Message string
	Line    int
	Column  int
}

func (d Diagnostic) String() string {
	if d.Line > 0 {
		return fmt.Sprintf("%s (%d:%d)", d.Message, d.Line, d.Column)
	}
	return d.Message
}

// decodeDescriptor converts the bridge's parse result into a Descriptor.
func decodeDescriptor(source, filename string, raw any) (*Descriptor, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: parse returned %T", ErrInvalidResult, raw)
	}

	d := &Descriptor{
		Filename:    filename,
		Source:      source,
		Script:      decodeScriptBlock(m["script"]),
		ScriptSetup: decodeScriptBlock(m["scriptSetup"]),
	}

	if t, ok := m["template"].(map[string]any); ok {
		d.Template = &TemplateBlock{
			Content: stringField(t, "content"),
			Lang:    stringField(t, "lang"),
		}
	}

	if styles, ok := m["styles"].([]any); ok {
		d.Styles = make([]StyleBlock, 0, len(styles))
		for _, s := range styles {
			sm, ok := s.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%w: style block is %T", ErrInvalidResult, s)
			}
			d.Styles = append(d.Styles, StyleBlock{
				Content: stringField(sm, "content"),
				Lang:    stringField(sm, "lang"),
				Scoped:  boolField(sm, "scoped"),
				Module:  boolField(sm, "module"),
			})
		}
	}

	if errs, ok := m["errors"].([]any); ok {
		for _, e := range errs {
			d.Errors = append(d.Errors, decodeDiagnostic(e))
		}
	}

	return d, nil
}

func decodeScriptBlock(raw any) *ScriptBlock {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	return &ScriptBlock{
		Content: stringField(m, "content"),
		Lang:    stringField(m, "lang"),
		Setup:   boolField(m, "setup"),
	}
}

func decodeDiagnostic(raw any) Diagnostic {
	switch v := raw.(type) {
	case string:
		return Diagnostic{Message: v}
	case map[string]any:
		return Diagnostic{
			Message: stringField(v, "message"),
			Line:    intField(v, "line"),
			Column:  intField(v, "column"),
		}
	default:
		return Diagnostic{Message: fmt.Sprint(v)}
	}
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func boolField(m map[string]any, key string) bool {
	b, _ := m[key].(bool)
	return b
}

// intField accepts the numeric types produced by the different JS engines.
func intField(m map[string]any, key string) int {
	switch n := m[key].(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

func stringSlice(raw any) []string {
	items, ok := raw.([]any)
	if !ok {
		if ss, ok := raw.([]string); ok {
			return ss
		}
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		switch v := it.(type) {
		case string:
			out = append(out, v)
		case map[string]any:
			out = append(out, stringField(v, "message"))
		default:
			out = append(out, fmt.Sprint(v))
		}
	}
	return out
}
