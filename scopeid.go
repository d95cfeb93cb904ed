// Copyright 2025 Brian Wang <wangbuke@gmail.com>
// SPDX-License-Identifier: Apache-2.0

package vueplugin

import (
	"strconv"
	"unicode/utf16"

	"github.com/cespare/xxhash"
)

// ScopeIDFunc derives the scope identifier of a component from its file path.
// The same function must be used for the script and the style of one file,
// otherwise the runtime scope attribute and the rewritten selectors diverge.
type ScopeIDFunc func(filename string) string

// DeriveID returns the rolling 31-hash of name as a signed decimal string.
//
// The hash runs over UTF-16 code units so that values match the JavaScript
// `(h << 5) - h + charCodeAt(i) | 0` loop used by existing component builds.
// Arithmetic wraps at 32 bits. The empty string maps to "0".
//
// Different paths can collide; scoping then leaks between the two components.
func DeriveID(name string) string {
	var acc int32
	for _, unit := range utf16.Encode([]rune(name)) {
		acc = acc*31 + int32(unit)
	}
	return strconv.FormatInt(int64(acc), 10)
}

// XXHashID is an alternative ScopeIDFunc using xxhash64 of the path rendered
// in base 16. It has a much lower collision rate than DeriveID but produces
// ids that differ from builds using the 31-hash.
func XXHashID(name string) string {
	return strconv.FormatUint(xxhash.Sum64String(name), 16)
}

// ScopeAttr returns the attribute name carried by elements of a scoped component.
func ScopeAttr(id string) string {
	return "data-v-" + id
}
