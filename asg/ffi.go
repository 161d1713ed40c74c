package asg

import (
	"github.com/protospec-dev/protospec/ast"
)

// ForeignTypeObj is an externally supplied type: something with a wire
// format the schema cannot express structurally (varints, UTF-8
// strings). It advertises its typing relations and produces target
// code fragments for both directions and both modes.
type ForeignTypeObj interface {
	// AssignableFromType reports whether a value of t can be stored
	// into this type.
	AssignableFromType(t Type) bool
	// AssignableToType reports whether a value of this type can be
	// stored into t.
	AssignableToType(t Type) bool

	// TypeRef is the Go type generated values of this type have.
	TypeRef() string

	// DecodingGen emits statements that read the value from the stream
	// expression source and bind it to outputRef.
	DecodingGen(source, outputRef string, args []string, isAsync bool) string
	// EncodingGen emits statements that write the value expression
	// fieldRef to the stream expression target.
	EncodingGen(target, fieldRef string, args []string, isAsync bool) string

	// Arguments describes the formal arguments the type accepts.
	// Optional arguments must form a suffix.
	Arguments() []TypeArgument

	// CanReceiveAuto returns the scalar width that may be inferred
	// from a containing buffer or sequence length, if any.
	CanReceiveAuto() (ast.ScalarType, bool)

	// Imports lists the packages the emitted fragments reference.
	Imports() []string
}

// ForeignTransformObj is a stream-wrapping codec (compression,
// encoding, encryption) that sits between a field and its parent
// stream.
type ForeignTransformObj interface {
	// DecodingGen emits statements that assign a decode-direction
	// wrapper of inputStream (a *bufio.Reader) to the output variable,
	// which is already declared as a *bufio.Reader.
	DecodingGen(inputStream, output string, args []string, isAsync bool) string
	// EncodingGen emits statements that assign an encode-direction
	// wrapper of inputStream (an io.Writer) to the output variable,
	// which is already declared as an io.Writer.
	EncodingGen(inputStream, output string, args []string, isAsync bool) string
	// EncodingEnd emits statements that flush and release an encoding
	// wrapper at scope exit.
	EncodingEnd(stream string, isAsync bool) string

	Arguments() []FFIArgument

	// Imports lists the packages the emitted fragments reference.
	Imports() []string
}

// ForeignFunctionObj is a pure function callable from schema
// expressions; it is expanded at generation time.
type ForeignFunctionObj interface {
	Arguments() []FFIArgument
	ReturnType() Type
	// Call emits an expression computing the function over the given
	// argument values.
	Call(arguments []FFIArgumentValue) string

	// Imports lists the packages the emitted expression references.
	Imports() []string
}

// FFIArgument describes one formal argument of a foreign transform or
// function. A nil Type means any type is accepted.
type FFIArgument struct {
	Name     string
	Type     Type
	Optional bool
}

// FFIArgumentValue is an actual argument at generation time.
type FFIArgumentValue struct {
	Type    Type
	Present bool
	Value   string
}

// ImportResolver locates imported schemas and foreign objects. The
// implementation of import resolution is host-supplied; only this
// contract is fixed.
type ImportResolver interface {
	// NormalizeImport canonicalizes an import path; re-entry on the
	// same normalized path must be idempotent.
	NormalizeImport(path string) (string, error)
	// ResolveImport loads the schema text for a normalized path; ok is
	// false when the import does not exist.
	ResolveImport(path string) (content string, ok bool, err error)
	// ResolveFFITransform returns nil when the name is unknown.
	ResolveFFITransform(name string) (ForeignTransformObj, error)
	// ResolveFFIType returns nil when the name is unknown.
	ResolveFFIType(name string) (ForeignTypeObj, error)
	// ResolveFFIFunction returns nil when the name is unknown.
	ResolveFFIFunction(name string) (ForeignFunctionObj, error)
	// PreludeFFIFunctions lists functions available without an
	// import_ffi declaration.
	PreludeFFIFunctions() (map[string]ForeignFunctionObj, error)
}
