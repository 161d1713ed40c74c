package protospec

import (
	"github.com/protospec-dev/protospec/asg"
	"github.com/protospec-dev/protospec/prelude"
)

// ImportResolver locates imported schemas and foreign objects; see
// asg.ImportResolver for the method contracts.
type ImportResolver = asg.ImportResolver

// NullImportResolver resolves nothing beyond the prelude.
type NullImportResolver = prelude.NullImportResolver

// PreludeImportResolver layers the fixed prelude (varints, utf8,
// utf16, base64, base58, gzip, lz4, and the len/blen/pad/bits/sum
// functions) over a user-supplied resolver.
func PreludeImportResolver(inner ImportResolver) ImportResolver {
	return prelude.WrapResolver(inner)
}
