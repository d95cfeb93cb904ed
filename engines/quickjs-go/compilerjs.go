// Copyright 2025 Brian Wang <wangbuke@gmail.com>
// SPDX-License-Identifier: Apache-2.0

package qjscompiler

import (
	"fmt"
	"sync"

	quickjsengine "github.com/buke/js-executor/engines/quickjs-go"
	quickjs "github.com/buke/quickjs-go"
	"github.com/cespare/xxhash"
)

// program is a script compiled to QuickJS bytecode once per process and
// evaluated in every engine of every factory sharing the same source.
type program struct {
	source   string
	fileName string

	once     sync.Once
	bytecode []byte
	err      error
}

// programs caches programs by the xxhash of file name and source.
var programs sync.Map

func programFor(source, fileName string) *program {
	key := xxhash.Sum64String(fileName + "\x00" + source)
	p, _ := programs.LoadOrStore(key, &program{source: source, fileName: fileName})
	return p.(*program)
}

func (p *program) compile(jse *quickjsengine.Engine) ([]byte, error) {
	p.once.Do(func() {
		p.bytecode, p.err = jse.Ctx.Compile(p.source, quickjs.EvalFileName(p.fileName))
		if p.err != nil {
			p.err = fmt.Errorf("compile %s: %w", p.fileName, p.err)
		}
	})
	return p.bytecode, p.err
}

// loadScript evaluates source in the engine context.
func loadScript(source, fileName string) quickjsengine.Option {
	p := programFor(source, fileName)
	return func(jse *quickjsengine.Engine) error {
		bytecode, err := p.compile(jse)
		if err != nil {
			return err
		}

		ret := jse.Ctx.EvalBytecode(bytecode)
		defer ret.Free()

		if ret.IsException() {
			return fmt.Errorf("evaluate %s: %w", fileName, jse.Ctx.Exception())
		}
		return nil
	}
}
