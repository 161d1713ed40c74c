package prelude

import (
	"github.com/protospec-dev/protospec/asg"
	"github.com/protospec-dev/protospec/ast"
)

// NullImportResolver resolves nothing; schemas compiled against it may
// use only the prelude.
type NullImportResolver struct{}

func (NullImportResolver) NormalizeImport(path string) (string, error) { return path, nil }

func (NullImportResolver) ResolveImport(string) (string, bool, error) { return "", false, nil }

func (NullImportResolver) ResolveFFITransform(string) (asg.ForeignTransformObj, error) {
	return nil, nil
}

func (NullImportResolver) ResolveFFIType(string) (asg.ForeignTypeObj, error) { return nil, nil }

func (NullImportResolver) ResolveFFIFunction(string) (asg.ForeignFunctionObj, error) {
	return nil, nil
}

func (NullImportResolver) PreludeFFIFunctions() (map[string]asg.ForeignFunctionObj, error) {
	return nil, nil
}

var _ asg.ImportResolver = NullImportResolver{}

// ImportResolver wraps a user-supplied resolver, serving the fixed
// prelude first and delegating everything else.
type ImportResolver struct {
	Inner asg.ImportResolver
}

// WrapResolver builds the prelude layer over a user resolver; a nil
// inner resolver behaves like NullImportResolver.
func WrapResolver(inner asg.ImportResolver) *ImportResolver {
	if inner == nil {
		inner = NullImportResolver{}
	}
	return &ImportResolver{Inner: inner}
}

func (r *ImportResolver) NormalizeImport(path string) (string, error) {
	return r.Inner.NormalizeImport(path)
}

func (r *ImportResolver) ResolveImport(path string) (string, bool, error) {
	return r.Inner.ResolveImport(path)
}

func (r *ImportResolver) ResolveFFITransform(name string) (asg.ForeignTransformObj, error) {
	switch name {
	case "base64":
		return Base64Transform{}, nil
	case "base58":
		return Base58Transform{}, nil
	case "gzip":
		return GzipTransform{}, nil
	case "lz4":
		return LZ4Transform{}, nil
	}
	return r.Inner.ResolveFFITransform(name)
}

func (r *ImportResolver) ResolveFFIType(name string) (asg.ForeignTypeObj, error) {
	switch name {
	case "v8":
		return NewVarInt(ast.I8), nil
	case "v16":
		return NewVarInt(ast.I16), nil
	case "v32":
		return NewVarInt(ast.I32), nil
	case "v64":
		return NewVarInt(ast.I64), nil
	case "v128":
		return NewVarInt(ast.I128), nil
	case "utf8":
		return UTF8{}, nil
	case "utf16":
		return UTF16{}, nil
	}
	return r.Inner.ResolveFFIType(name)
}

func (r *ImportResolver) ResolveFFIFunction(name string) (asg.ForeignFunctionObj, error) {
	switch name {
	case "len":
		return LenFunction{}, nil
	case "blen":
		return BLenFunction{}, nil
	case "pad":
		return PadFunction{}, nil
	case "bits":
		return BitsFunction{}, nil
	case "sum":
		return SumFunction{}, nil
	}
	return r.Inner.ResolveFFIFunction(name)
}

// PreludeFFIFunctions lists the functions bound without an import_ffi
// declaration.
func (r *ImportResolver) PreludeFFIFunctions() (map[string]asg.ForeignFunctionObj, error) {
	out := map[string]asg.ForeignFunctionObj{
		"len":  LenFunction{},
		"blen": BLenFunction{},
	}
	inner, err := r.Inner.PreludeFFIFunctions()
	if err != nil {
		return nil, err
	}
	for name, fn := range inner {
		out[name] = fn
	}
	return out, nil
}

var _ asg.ImportResolver = (*ImportResolver)(nil)
