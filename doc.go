// Package protospec provides a compiler for declarative binary wire
// format schemas. A schema describes containers, arrays, enums,
// bitfields, scalars, and stream transforms with conditional fields,
// computed lengths, and sub-typing; the compiler emits Go source with
// encoder and decoder routines that move values between an in-memory
// data model and a byte stream.
//
// The pipeline is strictly forward: source text is tokenized and
// parsed into an AST (package parser, package ast), analyzed into a
// typed semantic graph (package asg), lowered into abstract codec
// instructions (package coder), and printed as Go source (package
// gen). Built-in prelude types — varints, UTF-8/UTF-16 strings,
// base64, gzip, and length helpers — resolve through the pluggable FFI
// layer in package prelude.
//
// Basic use:
//
//	c := protospec.Compiler{
//		Options:   protospec.Options{FormatOutput: true},
//		OutputDir: "internal/wire",
//	}
//	err := c.Compile("packets", schemaText)
package protospec
