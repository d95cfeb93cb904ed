// Copyright 2025 Brian Wang <wangbuke@gmail.com>
// SPDX-License-Identifier: Apache-2.0

package vueplugin

import (
	"errors"
	"fmt"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

// ErrInvalidResult is returned when a compiler service answers with a value
// of an unexpected shape.
var ErrInvalidResult = errors.New("invalid compiler result")

// CompileError reports the parse diagnostics of a component file.
// It is always fatal for the build.
type CompileError struct {
	Filename    string
	Diagnostics []Diagnostic
}

func (e *CompileError) Error() string {
	msgs := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		msgs[i] = d.String()
	}
	return fmt.Sprintf("%s: %s", e.Filename, strings.Join(msgs, ", "))
}

// Messages converts the diagnostics into esbuild messages located in the file.
func (e *CompileError) Messages() []api.Message {
	out := make([]api.Message, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		column := d.Column
		if column > 0 {
			column-- // esbuild columns are 0-based
		}
		out[i] = api.Message{
			Text: d.Message,
			Location: &api.Location{
				File:   e.Filename,
				Line:   d.Line,
				Column: column,
			},
		}
	}
	return out
}

// BuildError is returned by Build when esbuild reports errors.
type BuildError struct {
	Messages []api.Message
}

func (e *BuildError) Error() string {
	texts := make([]string, len(e.Messages))
	for i, m := range e.Messages {
		if m.Location != nil && m.Location.File != "" {
			texts[i] = fmt.Sprintf("%s: %s", m.Location.File, m.Text)
		} else {
			texts[i] = m.Text
		}
	}
	return fmt.Sprintf("build failed with %d error(s): %s", len(e.Messages), strings.Join(texts, "; "))
}

// ServiceError wraps a failure raised inside a compiler service call.
type ServiceError struct {
	Service string
	Err     error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("compiler service %s failed: %v", e.Service, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }
