// Package abc reads and writes ActionScript Byte Code (ABC) containers.
//
// An ABC container is the compiled binary form of ActionScript 3 source:
// constant pools, method signatures, class definitions, top-level scripts,
// and method bodies. The package exposes a parse-or-error contract: Parse
// either yields a fully decoded *File or an error, never a partial file.
//
// The layout follows the AVM2 container format: little-endian fixed-width
// fields, variable-length u30/u32/s32 integers (7 bits per byte, little
// endian, up to 5 bytes), UTF-8 string data, and IEEE 754 doubles. Constant
// pools are 1-based; index zero is the implicit empty/any entry.
//
// Builder assembles well-formed containers programmatically. It exists for
// tooling and for constructing test fixtures without an external compiler.
package abc
