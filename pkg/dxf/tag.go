// Package dxf implements the tokenizer and structural parser for DXF
// interchange text.
//
// DXF files are a flat stream of (group code, value) line pairs organized
// into sections. This package scans that stream, locates the HEADER,
// TABLES, BLOCKS and ENTITIES sections, and assembles the tag pairs into
// typed entity records, a layer table and a block inventory.
//
// The parser is deliberately best-effort: real-world files carry vendor
// quirks, so a malformed tag or entity is skipped and parsing continues.
// Only resource-limit violations abort a parse.
package dxf

import (
	"strconv"
	"strings"
)

// Tag is a single DXF group code / value pair.
type Tag struct {
	Code  int
	Value string
}

// Float converts the tag value to a float64. Unparseable values yield 0,
// matching the permissive policy for vendor-damaged files.
func (t Tag) Float() float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(t.Value), 64)
	return f
}

// Int converts the tag value to an int.
func (t Tag) Int() int {
	i, _ := strconv.Atoi(strings.TrimSpace(t.Value))
	return i
}

// Text returns the tag value with surrounding whitespace removed.
func (t Tag) Text() string {
	return strings.TrimSpace(t.Value)
}

// Bool reports whether the tag holds a non-zero integer.
func (t Tag) Bool() bool {
	return t.Int() != 0
}
