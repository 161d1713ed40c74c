package asg

import (
	"fmt"

	"github.com/protospec-dev/protospec/ast"
)

// ErrImportMissing is produced when the resolver cannot locate an
// imported schema.
type ErrImportMissing struct {
	Path string
	Loc  ast.Span
}

func (e *ErrImportMissing) Error() string {
	return fmt.Sprintf("cannot resolve import '%s'", e.Path)
}

// ErrImportUnresolved is produced when an imported schema does not
// declare the requested item.
type ErrImportUnresolved struct {
	Item string
	Path string
	Loc  ast.Span
}

func (e *ErrImportUnresolved) Error() string {
	return fmt.Sprintf("cannot find '%s' in import '%s'", e.Item, e.Path)
}

// ErrImportParse wraps a parse failure inside an imported schema.
type ErrImportParse struct {
	Path  string
	Loc   ast.Span
	Cause error
}

func (e *ErrImportParse) Error() string {
	return fmt.Sprintf("failed to parse import '%s': %v", e.Path, e.Cause)
}

func (e *ErrImportParse) Unwrap() error { return e.Cause }

// ErrRedefinition covers every `*Redefinition` case: both spans are
// surfaced.
type ErrRedefinition struct {
	Kind    string // "type", "const", "transform", "function", "container field", "enum variant", "bitfield flag"
	Name    string
	NewSpan ast.Span
	OldSpan ast.Span
}

func (e *ErrRedefinition) Error() string {
	return fmt.Sprintf("redefinition of %s '%s' (previously defined at %s)", e.Kind, e.Name, e.OldSpan)
}

// ErrUnresolved covers UnresolvedType / UnresolvedVar /
// UnresolvedTransform / UnresolvedFunction / UnresolvedEnumVariant.
type ErrUnresolved struct {
	Kind string // "type", "variable", "transform", "function", "enum variant"
	Name string
	Loc  ast.Span
}

func (e *ErrUnresolved) Error() string {
	return fmt.Sprintf("cannot resolve %s '%s'", e.Kind, e.Name)
}

// ErrFFIMissing is produced when an import_ffi name has no resolver
// entry.
type ErrFFIMissing struct {
	Name string
	Loc  ast.Span
}

func (e *ErrFFIMissing) Error() string {
	return fmt.Sprintf("cannot resolve ffi '%s'", e.Name)
}

// ErrUnexpectedType is the general type mismatch error.
type ErrUnexpectedType struct {
	Got      string
	Expected string
	Loc      ast.Span
}

func (e *ErrUnexpectedType) Error() string {
	return fmt.Sprintf("unexpected type: got %s, expected %s", e.Got, e.Expected)
}

// ErrIllegalCast is produced for a `:>` between incompatible types.
type ErrIllegalCast struct {
	From string
	To   string
	Loc  ast.Span
}

func (e *ErrIllegalCast) Error() string {
	return fmt.Sprintf("cannot cast %s to %s", e.From, e.To)
}

// ErrUninferredType is produced when neither side of an expression
// determines a type.
type ErrUninferredType struct {
	Loc ast.Span
}

func (e *ErrUninferredType) Error() string { return "cannot infer type" }

// ErrInvalidFFIArgumentCount is produced for transform/function calls
// with the wrong arity.
type ErrInvalidFFIArgumentCount struct {
	Min, Max, Got int
	Loc           ast.Span
}

func (e *ErrInvalidFFIArgumentCount) Error() string {
	return fmt.Sprintf("invalid argument count: got %d, expected %d..%d", e.Got, e.Min, e.Max)
}

// ErrInvalidTypeArgumentCount is the same for type references.
type ErrInvalidTypeArgumentCount struct {
	Min, Max, Got int
	Loc           ast.Span
}

func (e *ErrInvalidTypeArgumentCount) Error() string {
	return fmt.Sprintf("invalid type argument count: got %d, expected %d..%d", e.Got, e.Min, e.Max)
}

// ErrInvalidTypeArgumentOrder rejects defaulted arguments that are not
// a suffix of the declaration.
type ErrInvalidTypeArgumentOrder struct {
	Loc ast.Span
}

func (e *ErrInvalidTypeArgumentOrder) Error() string {
	return "default arguments must form a suffix of the argument list"
}

// ErrInvalidFlag rejects unknown `+flag` names.
type ErrInvalidFlag struct {
	Flag string
	Loc  ast.Span
}

func (e *ErrInvalidFlag) Error() string {
	return fmt.Sprintf("invalid flag '%s'", e.Flag)
}

// ErrInlineRepetition rejects inline container/enum elements inside
// arrays; extract to a named type.
type ErrInlineRepetition struct {
	Loc ast.Span
}

func (e *ErrInlineRepetition) Error() string {
	return "inline repetition of container or enum; extract to a named type"
}

// ErrMustBeToplevel rejects tagged-enum containers in nested position.
type ErrMustBeToplevel struct {
	Loc ast.Span
}

func (e *ErrMustBeToplevel) Error() string {
	return "tagged_enum containers must be declared at top level"
}

// ErrEnumContainerFieldAfterUnconditional rejects arms after the
// catch-all arm of a tagged enum.
type ErrEnumContainerFieldAfterUnconditional struct {
	Loc ast.Span
}

func (e *ErrEnumContainerFieldAfterUnconditional) Error() string {
	return "tagged_enum container cannot have fields after an unconditional arm"
}

// ErrEnumContainerPad rejects pad directives inside tagged enums.
type ErrEnumContainerPad struct {
	Loc ast.Span
}

func (e *ErrEnumContainerPad) Error() string {
	return "tagged_enum container cannot contain pads"
}

// ErrTypeNotAutoCompatible rejects +auto on non-scalar,
// non-auto-receiving types.
type ErrTypeNotAutoCompatible struct {
	Type string
	Loc  ast.Span
}

func (e *ErrTypeNotAutoCompatible) Error() string {
	return fmt.Sprintf("type %s cannot be auto", e.Type)
}

// ErrBitfieldMemberUndefined rejects `.flag` access on an undefined
// flag.
type ErrBitfieldMemberUndefined struct {
	Member string
	Loc    ast.Span
}

func (e *ErrBitfieldMemberUndefined) Error() string {
	return fmt.Sprintf("bitfield member '%s' is not defined", e.Member)
}

// ErrCastTypeDefinition rejects type definitions in cast position.
type ErrCastTypeDefinition struct {
	Loc ast.Span
}

func (e *ErrCastTypeDefinition) Error() string {
	return "cannot define a container or enum inside a cast"
}

// ErrConstTypeDefinition rejects container/enum-typed constants.
type ErrConstTypeDefinition struct {
	Name string
	Loc  ast.Span
}

func (e *ErrConstTypeDefinition) Error() string {
	return fmt.Sprintf("const '%s' cannot have a container or enum type", e.Name)
}
