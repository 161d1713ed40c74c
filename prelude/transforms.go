package prelude

import (
	"fmt"

	"github.com/protospec-dev/protospec/asg"
)

func endStream(stream string) string {
	return fmt.Sprintf(`if err = psEndStream(%s); err != nil {
	return
}`, stream)
}

// GzipTransform wraps the stream in DEFLATE compression with a gzip
// envelope.
type GzipTransform struct{}

func (GzipTransform) Arguments() []asg.FFIArgument { return nil }

func (GzipTransform) Imports() []string { return []string{"compress/gzip"} }

func (GzipTransform) DecodingGen(inputStream, output string, _ []string, isAsync bool) string {
	return fmt.Sprintf(`{
	%spsGz, psErr := gzip.NewReader(%s)
	if psErr != nil {
		err = psErr
		return
	}
	%s = bufio.NewReader(psGz)
}`, ctxGuard(isAsync), inputStream, output)
}

func (GzipTransform) EncodingGen(inputStream, output string, _ []string, _ bool) string {
	return fmt.Sprintf("%s = gzip.NewWriter(%s)", output, inputStream)
}

func (GzipTransform) EncodingEnd(stream string, _ bool) string { return endStream(stream) }

var _ asg.ForeignTransformObj = GzipTransform{}

// Base64Transform wraps the stream in standard base64 text encoding.
type Base64Transform struct{}

func (Base64Transform) Arguments() []asg.FFIArgument { return nil }

func (Base64Transform) Imports() []string { return []string{"encoding/base64"} }

func (Base64Transform) DecodingGen(inputStream, output string, _ []string, isAsync bool) string {
	return fmt.Sprintf(`{
	%s%s = bufio.NewReader(base64.NewDecoder(base64.StdEncoding, %s))
}`, ctxGuard(isAsync), output, inputStream)
}

func (Base64Transform) EncodingGen(inputStream, output string, _ []string, _ bool) string {
	return fmt.Sprintf("%s = base64.NewEncoder(base64.StdEncoding, %s)", output, inputStream)
}

func (Base64Transform) EncodingEnd(stream string, _ bool) string { return endStream(stream) }

var _ asg.ForeignTransformObj = Base64Transform{}

// LZ4Transform wraps the stream in LZ4 frame compression.
type LZ4Transform struct{}

func (LZ4Transform) Arguments() []asg.FFIArgument { return nil }

func (LZ4Transform) Imports() []string { return []string{"github.com/pierrec/lz4"} }

func (LZ4Transform) DecodingGen(inputStream, output string, _ []string, isAsync bool) string {
	return fmt.Sprintf(`{
	%s%s = bufio.NewReader(lz4.NewReader(%s))
}`, ctxGuard(isAsync), output, inputStream)
}

func (LZ4Transform) EncodingGen(inputStream, output string, _ []string, _ bool) string {
	return fmt.Sprintf("%s = lz4.NewWriter(%s)", output, inputStream)
}

func (LZ4Transform) EncodingEnd(stream string, _ bool) string { return endStream(stream) }

var _ asg.ForeignTransformObj = LZ4Transform{}

// Base58Transform encodes the wrapped content as a base58 string.
// Base58 has no streaming form, so encoding buffers until stream end.
type Base58Transform struct{}

func (Base58Transform) Arguments() []asg.FFIArgument { return nil }

func (Base58Transform) Imports() []string {
	return []string{"github.com/mr-tron/base58", "io"}
}

func (Base58Transform) DecodingGen(inputStream, output string, _ []string, isAsync bool) string {
	return fmt.Sprintf(`{
	%spsRaw, psErr := io.ReadAll(%s)
	if psErr != nil {
		err = psErr
		return
	}
	psDec, psDecErr := base58.Decode(string(psRaw))
	if psDecErr != nil {
		err = psDecErr
		return
	}
	%s = bufio.NewReader(bytes.NewReader(psDec))
}`, ctxGuard(isAsync), inputStream, output)
}

func (Base58Transform) EncodingGen(inputStream, output string, _ []string, _ bool) string {
	return fmt.Sprintf(`%s = &psFuncWriter{closeFn: func(psBuf *bytes.Buffer) error {
	_, psErr := io.WriteString(%s, base58.Encode(psBuf.Bytes()))
	return psErr
}}`, output, inputStream)
}

func (Base58Transform) EncodingEnd(stream string, _ bool) string { return endStream(stream) }

var _ asg.ForeignTransformObj = Base58Transform{}
